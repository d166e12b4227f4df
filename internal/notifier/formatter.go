package notifier

import (
	"fmt"
	"strings"
	"time"

	"PickTracker/internal/report"
	"PickTracker/internal/settle"
)

// FormatRunSummary formats a settlement run summary into a Telegram message.
func FormatRunSummary(stats settle.Stats) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🏁 <b>Settlement run</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Settled: %d (W %d / L %d / P %d)\n",
		stats.Settled, stats.Wins, stats.Losses, stats.Pushes))
	b.WriteString(fmt.Sprintf("Still pending: %d\n", stats.Pending))
	if stats.NoMatch > 0 {
		b.WriteString(fmt.Sprintf("⚠️ Unmatched events: %d, check pick metadata\n", stats.NoMatch))
	}
	if stats.Failures > 0 {
		b.WriteString(fmt.Sprintf("⚠️ Lookup/settle failures: %d\n", stats.Failures))
	}
	return b.String()
}

// FormatReport wraps a rendered performance report for Telegram.
func FormatReport(s report.Summary) string {
	return fmt.Sprintf("📊 <b>Performance</b>\n<pre>%s</pre>", report.Render(s))
}
