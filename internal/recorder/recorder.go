package recorder

import "time"

// RunEvent summarizes one settlement run.
type RunEvent struct {
	Settled  int
	Wins     int
	Losses   int
	Pushes   int
	Pending  int
	NoMatch  int
	Failures int
}

// SettlementEvent records one pick reaching a terminal status.
type SettlementEvent struct {
	PickID     string
	Sport      string
	League     string
	BetType    string
	Status     string
	Stake      float64
	ProfitLoss float64
	SettledAt  time.Time
}

// Recorder persists settlement history for later analysis. Recording
// failures are logged by callers and never affect settlement itself.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecordSettlement(evt *SettlementEvent) error
	Close() error
}
