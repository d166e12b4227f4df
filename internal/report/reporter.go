package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"PickTracker/internal/model"
)

// ErrInvalidWindow marks an unrecognized window token.
var ErrInvalidWindow = errors.New("invalid report window")

// Window is the reporting period, anchored to "now" at build time.
type Window int

const (
	Day Window = iota
	Week
	Month
	AllTime
)

func (w Window) String() string {
	switch w {
	case Day:
		return "daily"
	case Week:
		return "weekly"
	case Month:
		return "monthly"
	case AllTime:
		return "all"
	}
	return fmt.Sprintf("window(%d)", int(w))
}

// ParseWindow maps a CLI token to a Window.
func ParseWindow(token string) (Window, error) {
	switch token {
	case "daily":
		return Day, nil
	case "weekly":
		return Week, nil
	case "monthly":
		return Month, nil
	case "all":
		return AllTime, nil
	}
	return 0, fmt.Errorf("%w: %q (want daily, weekly, monthly or all)", ErrInvalidWindow, token)
}

// Bounds returns the [start, end) instant pair for the window at now.
// Day is the current calendar day, Week the current ISO week (Monday
// start), Month the current calendar month; AllTime is unbounded.
func (w Window) Bounds(now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch w {
	case Day:
		return midnight, midnight.AddDate(0, 0, 1)
	case Week:
		offset := (int(now.Weekday()) + 6) % 7 // days since Monday
		start = midnight.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case Month:
		start = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	}
	return time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
}

// Summary is the aggregate performance over one window. Derived, never
// persisted.
type Summary struct {
	Window Window
	Start  time.Time
	End    time.Time

	Wins   int
	Losses int
	Pushes int
	Voids  int

	TotalStaked decimal.Decimal // settled picks only
	NetProfit   decimal.Decimal
	ROI         decimal.Decimal // net profit / total staked; 0 when nothing staked

	// Open exposure: pending picks created inside the window.
	PendingCount  int
	PendingStaked decimal.Decimal
}

// Build aggregates the ledger over the window anchored at now. It never
// mutates the ledger, and with a fixed now it is exactly reproducible.
func Build(picks []model.Pick, window Window, now time.Time) Summary {
	start, end := window.Bounds(now)
	s := Summary{
		Window:        window,
		Start:         start,
		End:           end,
		TotalStaked:   decimal.Zero,
		NetProfit:     decimal.Zero,
		ROI:           decimal.Zero,
		PendingStaked: decimal.Zero,
	}

	for i := range picks {
		p := &picks[i]
		if !p.Status.Terminal() {
			if inWindow(pendingAnchor(p), start, end, window) {
				s.PendingCount++
				s.PendingStaked = s.PendingStaked.Add(p.Stake)
			}
			continue
		}
		if p.SettledAt == nil || !inWindow(*p.SettledAt, start, end, window) {
			continue
		}
		switch p.Status {
		case model.StatusWin:
			s.Wins++
		case model.StatusLoss:
			s.Losses++
		case model.StatusPush:
			s.Pushes++
		case model.StatusVoid:
			s.Voids++
		}
		s.TotalStaked = s.TotalStaked.Add(p.Stake)
		s.NetProfit = s.NetProfit.Add(p.ProfitLoss)
	}

	if s.TotalStaked.IsPositive() {
		s.ROI = s.NetProfit.Div(s.TotalStaked)
	}
	return s
}

// inWindow applies the inclusive-start, exclusive-end rule.
func inWindow(t time.Time, start, end time.Time, w Window) bool {
	if w == AllTime {
		return true
	}
	return !t.Before(start) && t.Before(end)
}

// pendingAnchor is the instant a pending pick is bucketed by: its creation
// time when recorded, otherwise its event date.
func pendingAnchor(p *model.Pick) time.Time {
	if p.CreatedAt != nil {
		return *p.CreatedAt
	}
	if on, err := p.Event.On(); err == nil {
		return on
	}
	return time.Time{}
}
