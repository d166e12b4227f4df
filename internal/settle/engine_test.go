package settle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"PickTracker/internal/model"
	"PickTracker/internal/recorder"
	"PickTracker/internal/results"
)

var fixedNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func testEngine(src results.Source) *Engine {
	e := NewEngine(src, recorder.NewNoopRecorder())
	e.Now = func() time.Time { return fixedNow }
	return e
}

func pendingPick(id, game, date, betType, prediction string) model.Pick {
	odds := decimal.RequireFromString("1.91")
	return model.Pick{
		ID:         id,
		Sport:      "MLB",
		Event:      model.EventDetails{Game: game, Date: date},
		BetType:    model.BetType(betType),
		Prediction: prediction,
		Odds:       &odds,
		Stake:      decimal.NewFromInt(10),
		Status:     model.StatusPending,
	}
}

func TestRunSettlesSpreadWin(t *testing.T) {
	src := results.NewMockSource()
	src.Script(model.EventDetails{Game: "Yankees vs Red Sox", Date: "2026-08-20"}, &model.Outcome{
		Completed: true,
		Home:      model.Participant{Name: "New York Yankees", Score: dec("24")},
		Away:      model.Participant{Name: "Boston Red Sox", Score: dec("20")},
	})

	picks := []model.Pick{pendingPick("p1", "Yankees vs Red Sox", "2026-08-20", "Spread", "Yankees -3.5")}
	stats := testEngine(src).Run(context.Background(), picks)

	if stats.Settled != 1 || stats.Wins != 1 {
		t.Fatalf("stats: %+v", stats)
	}
	p := picks[0]
	if p.Status != model.StatusWin {
		t.Errorf("status: got %s, want win", p.Status)
	}
	if !p.ProfitLoss.Equal(dec("9.1")) {
		t.Errorf("profit_loss: got %s, want 9.1", p.ProfitLoss)
	}
	if p.SettledAt == nil || !p.SettledAt.Equal(fixedNow) {
		t.Errorf("settled_at: got %v, want %s", p.SettledAt, fixedNow)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	src := results.NewMockSource()
	src.Script(model.EventDetails{Game: "Yankees vs Red Sox", Date: "2026-08-20"}, &model.Outcome{
		Completed: true,
		Home:      model.Participant{Name: "New York Yankees", Score: dec("7")},
		Away:      model.Participant{Name: "Boston Red Sox", Score: dec("3")},
	})
	picks := []model.Pick{pendingPick("p1", "Yankees vs Red Sox", "2026-08-20", "Moneyline", "Yankees")}

	e := testEngine(src)
	first := e.Run(context.Background(), picks)
	if first.Settled != 1 {
		t.Fatalf("first run: %+v", first)
	}
	settledAt := *picks[0].SettledAt
	profit := picks[0].ProfitLoss

	second := e.Run(context.Background(), picks)
	if second.Settled != 0 || second.Pending != 0 {
		t.Errorf("second run must be a no-op, got %+v", second)
	}
	if src.Calls != 1 {
		t.Errorf("terminal pick must not be looked up again, got %d calls", src.Calls)
	}
	if !picks[0].SettledAt.Equal(settledAt) || !picks[0].ProfitLoss.Equal(profit) {
		t.Error("second run mutated a settled pick")
	}
}

func TestRunBatchIsolation(t *testing.T) {
	// One unresolvable pick must not stop the rest of the batch.
	src := results.NewMockSource()
	out := &model.Outcome{
		Completed: true,
		Home:      model.Participant{Name: "New York Yankees", Score: dec("7")},
		Away:      model.Participant{Name: "Boston Red Sox", Score: dec("3")},
	}
	src.Script(model.EventDetails{Game: "Yankees vs Red Sox", Date: "2026-08-20"}, out)
	src.ScriptErr(model.EventDetails{Game: "Mets vs Cubs", Date: "2026-08-20"}, results.ErrNotAvailable)

	picks := []model.Pick{
		pendingPick("p1", "Yankees vs Red Sox", "2026-08-20", "Spread", "garbage prediction"),
		pendingPick("p2", "Mets vs Cubs", "2026-08-20", "Moneyline", "Mets"),
		pendingPick("p3", "Giants vs Dodgers", "2026-08-20", "Moneyline", "Giants"),
		pendingPick("p4", "Yankees vs Red Sox", "2026-08-20", "Moneyline", "Yankees"),
	}
	stats := testEngine(src).Run(context.Background(), picks)

	if stats.Settled != 1 || stats.Wins != 1 {
		t.Errorf("stats: %+v", stats)
	}
	if stats.Failures != 1 {
		t.Errorf("failures: got %d, want 1 (bad prediction)", stats.Failures)
	}
	if stats.NoMatch != 1 {
		t.Errorf("no_match: got %d, want 1", stats.NoMatch)
	}
	if stats.Pending != 3 {
		t.Errorf("pending: got %d, want 3", stats.Pending)
	}
	if picks[0].Status != model.StatusPending {
		t.Errorf("p1 should stay pending, got %s", picks[0].Status)
	}
	if picks[3].Status != model.StatusWin {
		t.Errorf("p4 should settle despite earlier failures, got %s", picks[3].Status)
	}
}

func TestRunLookupFailureLeavesPickPending(t *testing.T) {
	// A lookup that fails outright (for example a finished game the
	// provider reports without final scores) is a failure, not a result:
	// the pick must stay pending with no financial settlement.
	src := results.NewMockSource()
	src.ScriptErr(model.EventDetails{Game: "Yankees vs Red Sox", Date: "2026-08-20"},
		errors.New("event 4242 finished without final scores"))

	picks := []model.Pick{pendingPick("p1", "Yankees vs Red Sox", "2026-08-20", "Moneyline", "Yankees")}
	stats := testEngine(src).Run(context.Background(), picks)

	if stats.Settled != 0 || stats.Failures != 1 || stats.Pending != 1 {
		t.Errorf("stats: %+v", stats)
	}
	p := picks[0]
	if p.Status != model.StatusPending || p.SettledAt != nil || !p.ProfitLoss.IsZero() {
		t.Errorf("pick must be untouched: %+v", p)
	}
}

func TestRunSkipsFutureEvents(t *testing.T) {
	src := results.NewMockSource()
	picks := []model.Pick{pendingPick("p1", "Yankees vs Red Sox", "2026-09-01", "Moneyline", "Yankees")}

	stats := testEngine(src).Run(context.Background(), picks)
	if src.Calls != 0 {
		t.Errorf("future event must not be looked up, got %d calls", src.Calls)
	}
	if stats.Pending != 1 || stats.Settled != 0 {
		t.Errorf("stats: %+v", stats)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	src := results.NewMockSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	picks := []model.Pick{
		pendingPick("p1", "Yankees vs Red Sox", "2026-08-20", "Moneyline", "Yankees"),
		pendingPick("p2", "Mets vs Cubs", "2026-08-20", "Moneyline", "Mets"),
	}
	stats := testEngine(src).Run(ctx, picks)
	if src.Calls != 0 {
		t.Errorf("cancelled run must not call the source, got %d calls", src.Calls)
	}
	if stats.Pending != 2 {
		t.Errorf("pending: got %d, want 2", stats.Pending)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	rec := &captureRecorder{}
	src := results.NewMockSource()
	src.Script(model.EventDetails{Game: "Yankees vs Red Sox", Date: "2026-08-20"}, &model.Outcome{
		Completed: true,
		Home:      model.Participant{Name: "New York Yankees", Score: dec("3")},
		Away:      model.Participant{Name: "Boston Red Sox", Score: dec("7")},
	})

	e := NewEngine(src, rec)
	e.Now = func() time.Time { return fixedNow }
	picks := []model.Pick{pendingPick("p1", "Yankees vs Red Sox", "2026-08-20", "Moneyline", "Yankees")}
	e.Run(context.Background(), picks)

	if len(rec.settlements) != 1 {
		t.Fatalf("settlements recorded: got %d, want 1", len(rec.settlements))
	}
	s := rec.settlements[0]
	if s.PickID != "p1" || s.Status != "loss" || s.ProfitLoss != -10 {
		t.Errorf("settlement event: %+v", s)
	}
	if len(rec.runs) != 1 || rec.runs[0].Losses != 1 {
		t.Errorf("run event: %+v", rec.runs)
	}
}

type captureRecorder struct {
	runs        []recorder.RunEvent
	settlements []recorder.SettlementEvent
}

func (c *captureRecorder) RecordRun(e *recorder.RunEvent) error {
	c.runs = append(c.runs, *e)
	return nil
}

func (c *captureRecorder) RecordSettlement(e *recorder.SettlementEvent) error {
	c.settlements = append(c.settlements, *e)
	return nil
}

func (c *captureRecorder) Close() error { return nil }
