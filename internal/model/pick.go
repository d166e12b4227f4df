package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Ledger files store money and odds as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Status is the settlement state of a pick.
type Status string

const (
	StatusPending Status = "pending"
	StatusWin     Status = "win"
	StatusLoss    Status = "loss"
	StatusPush    Status = "push"
	StatusVoid    Status = "void"
)

// Terminal reports whether the status is final. Terminal picks are never re-settled.
func (s Status) Terminal() bool {
	switch s {
	case StatusWin, StatusLoss, StatusPush, StatusVoid:
		return true
	}
	return false
}

// BetType selects the settlement rule for a pick.
type BetType string

const (
	BetMoneyline BetType = "Moneyline"
	BetSpread    BetType = "Spread"
	BetTotal     BetType = "Total"
	BetWin       BetType = "Win"
)

// EventDetails locates the real-world event a pick is wagered on.
// Game is either "Home vs Away" or a single selection for
// individual-participant sports.
type EventDetails struct {
	Game  string `json:"game"`
	Date  string `json:"date"` // YYYY-MM-DD in the event's local context
	Venue string `json:"venue,omitempty"`
	Time  string `json:"time,omitempty"`
}

// Participants splits Game into its two sides. ok is false for
// single-selection events.
func (e EventDetails) Participants() (home, away string, ok bool) {
	parts := strings.SplitN(e.Game, " vs ", 2)
	if len(parts) != 2 {
		return e.Game, "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// On parses the scheduled date.
func (e EventDetails) On() (time.Time, error) {
	return time.Parse("2006-01-02", e.Date)
}

// Pick is one wagered prediction, as stored in the ledger file.
// Fields this tool does not know about are kept in Extra and written
// back verbatim on save.
type Pick struct {
	ID         string          `json:"id"`
	Sport      string          `json:"sport"`
	League     string          `json:"league,omitempty"`
	Event      EventDetails    `json:"event_details"`
	BetType    BetType         `json:"bet_type"`
	Prediction string          `json:"prediction"`
	Odds       *decimal.Decimal `json:"odds,omitempty"` // decimal odds >= 1.0; nil for confidence-only picks
	Stake      decimal.Decimal `json:"stake"`
	Status     Status          `json:"status"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
	SettledAt  *time.Time      `json:"settled_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// knownPickFields are the JSON keys handled by the Pick struct itself.
var knownPickFields = map[string]bool{
	"id": true, "sport": true, "league": true, "event_details": true,
	"bet_type": true, "prediction": true, "odds": true, "stake": true,
	"status": true, "profit_loss": true, "created_at": true, "settled_at": true,
}

// pickAlias avoids recursing into the custom JSON methods.
type pickAlias Pick

// UnmarshalJSON decodes the known fields and stashes everything else in Extra.
func (p *Pick) UnmarshalJSON(data []byte) error {
	var alias pickAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if knownPickFields[k] {
			delete(raw, k)
		}
	}
	*p = Pick(alias)
	if len(raw) > 0 {
		p.Extra = raw
	}
	return nil
}

// MarshalJSON writes the known fields merged with the preserved Extra fields.
func (p Pick) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(pickAlias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return known, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, clash := merged[k]; !clash {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Validate checks the structural invariants a ledger record must satisfy.
func (p *Pick) Validate() error {
	if p.Sport == "" {
		return fmt.Errorf("missing sport")
	}
	if p.Event.Game == "" || p.Event.Date == "" {
		return fmt.Errorf("missing event details")
	}
	if _, err := p.Event.On(); err != nil {
		return fmt.Errorf("bad event date %q: %w", p.Event.Date, err)
	}
	switch p.BetType {
	case BetMoneyline, BetSpread, BetTotal, BetWin:
	case "":
		return fmt.Errorf("missing bet_type")
	default:
		return fmt.Errorf("unknown bet_type %q", p.BetType)
	}
	if p.Prediction == "" {
		return fmt.Errorf("missing prediction")
	}
	switch p.Status {
	case StatusPending, StatusWin, StatusLoss, StatusPush, StatusVoid:
	case "":
		return fmt.Errorf("missing status")
	default:
		return fmt.Errorf("unknown status %q", p.Status)
	}
	if p.Stake.IsNegative() {
		return fmt.Errorf("negative stake %s", p.Stake)
	}
	if p.Odds != nil && p.Odds.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("odds %s below 1.0", p.Odds)
	}
	return nil
}

// Settle moves a pending pick to a terminal status. Status, profit and
// timestamp change together; terminal picks are immutable.
func (p *Pick) Settle(status Status, profitLoss decimal.Decimal, at time.Time) error {
	if p.Status.Terminal() {
		return fmt.Errorf("pick %s already settled as %s", p.ID, p.Status)
	}
	if !status.Terminal() {
		return fmt.Errorf("cannot settle pick %s to non-terminal status %s", p.ID, status)
	}
	p.Status = status
	p.ProfitLoss = profitLoss
	t := at
	p.SettledAt = &t
	return nil
}
