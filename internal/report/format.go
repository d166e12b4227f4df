package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Render produces the plain-text performance report.
func Render(s Summary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("--- Performance Report: %s ---\n", title(s)))
	b.WriteString(strings.Repeat("-", 40) + "\n")
	b.WriteString(fmt.Sprintf("Record (W-L-P):       %d-%d-%d\n", s.Wins, s.Losses, s.Pushes))
	if s.Voids > 0 {
		b.WriteString(fmt.Sprintf("Voided:               %d\n", s.Voids))
	}
	b.WriteString(fmt.Sprintf("Total Amount Staked:  $%s\n", money(s.TotalStaked)))
	b.WriteString(fmt.Sprintf("Total Profit/Loss:    $%s\n", money(s.NetProfit)))
	roiPct, _ := s.ROI.Mul(decimal.NewFromInt(100)).Round(2).Float64()
	b.WriteString(fmt.Sprintf("Return on Investment: %.2f%%\n", roiPct))
	if s.PendingCount > 0 {
		b.WriteString(fmt.Sprintf("Open Exposure:        %d pending, $%s staked\n",
			s.PendingCount, money(s.PendingStaked)))
	}
	b.WriteString(strings.Repeat("-", 40) + "\n")
	return b.String()
}

func title(s Summary) string {
	switch s.Window {
	case Day:
		return fmt.Sprintf("Today (%s)", s.Start.Format("2006-01-02"))
	case Week:
		return fmt.Sprintf("This Week (%s to %s)",
			s.Start.Format("2006-01-02"), s.End.AddDate(0, 0, -1).Format("2006-01-02"))
	case Month:
		return fmt.Sprintf("This Month (%s)", s.Start.Format("January 2006"))
	}
	return "All Time"
}

func money(d decimal.Decimal) string {
	f, _ := d.Float64()
	return humanize.CommafWithDigits(f, 2)
}
