package model

import "github.com/shopspring/decimal"

// Participant is one side of a completed event.
type Participant struct {
	Name  string
	Score decimal.Decimal
}

// Outcome is the final result of one real-world event as reported by the
// results provider. Outcomes are transient: they are consumed by one
// settlement attempt and never persisted.
type Outcome struct {
	ProviderID int64 // provider-internal event id, used for per-run caching
	Completed  bool
	Home       Participant
	Away       Participant
	// Winner carries the provider's winner name where the provider reports
	// one directly (individual-participant sports). Empty means "derive
	// from scores".
	Winner string
	// Single is true for single-selection events where Away is unused.
	Single bool
}

// Draw reports whether the event finished level with no declared winner.
func (o *Outcome) Draw() bool {
	return !o.Single && o.Winner == "" && o.Home.Score.Equal(o.Away.Score)
}

// Total is the combined final score of both sides.
func (o *Outcome) Total() decimal.Decimal {
	return o.Home.Score.Add(o.Away.Score)
}
