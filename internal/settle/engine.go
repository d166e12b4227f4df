package settle

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"PickTracker/internal/model"
	"PickTracker/internal/recorder"
	"PickTracker/internal/results"
)

// Stats summarizes one settlement run for the operator.
type Stats struct {
	Settled  int // picks moved to a terminal status this run
	Wins     int
	Losses   int
	Pushes   int
	Pending  int // picks still pending after the run
	NoMatch  int // lookups that found no acceptable event
	Failures int // transport failures and unsettleable outcomes
}

// Engine reconciles pending picks against the results source. Runs are
// idempotent: terminal picks pass through untouched, so re-running with no
// new outcomes changes nothing.
type Engine struct {
	Source   results.Source
	Recorder recorder.Recorder
	Now      func() time.Time

	logger zerolog.Logger
}

// NewEngine creates an engine. A nil rec disables history recording.
func NewEngine(src results.Source, rec recorder.Recorder) *Engine {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Engine{
		Source:   src,
		Recorder: rec,
		Now:      time.Now,
		logger:   log.With().Str("component", "settle").Logger(),
	}
}

// Run processes every pending pick in the ledger exactly once, mutating the
// slice in place. A failure against one pick never aborts the rest of the
// batch; only context cancellation stops the run early.
func (e *Engine) Run(ctx context.Context, picks []model.Pick) Stats {
	var stats Stats
	today := e.today()

	for i := range picks {
		if ctx.Err() != nil {
			stats.Pending += countPending(picks[i:])
			break
		}
		p := &picks[i]
		if p.Status.Terminal() {
			continue
		}

		eventDate, err := p.Event.On()
		if err != nil {
			// Load validation should have rejected this; keep the pick
			// pending rather than guessing.
			e.logger.Warn().Str("pick", p.ID).Str("date", p.Event.Date).Msg("unparseable event date")
			stats.Failures++
			stats.Pending++
			continue
		}
		if eventDate.After(today) {
			e.logger.Debug().Str("pick", p.ID).Str("game", p.Event.Game).Msg("event in the future, skipping")
			stats.Pending++
			continue
		}

		out, err := e.Source.Lookup(ctx, p.Sport, p.Event)
		switch {
		case errors.Is(err, results.ErrNoMatch):
			e.logger.Warn().Str("pick", p.ID).Str("game", p.Event.Game).Str("date", p.Event.Date).
				Msg("no matching event at provider; check pick metadata")
			stats.NoMatch++
			stats.Pending++
			continue
		case errors.Is(err, results.ErrNotAvailable):
			e.logger.Debug().Str("pick", p.ID).Str("game", p.Event.Game).Msg("result not available yet")
			stats.Pending++
			continue
		case err != nil:
			e.logger.Warn().Err(err).Str("pick", p.ID).Msg("lookup failed")
			stats.Failures++
			stats.Pending++
			continue
		}

		status, err := resolve(p, out)
		if err != nil {
			e.logger.Warn().Err(err).Str("pick", p.ID).Str("prediction", p.Prediction).
				Msg("outcome cannot settle this pick")
			stats.Failures++
			stats.Pending++
			continue
		}

		profit := profitFor(status, p)
		if err := p.Settle(status, profit, e.Now()); err != nil {
			e.logger.Error().Err(err).Str("pick", p.ID).Msg("settle rejected")
			stats.Failures++
			continue
		}

		e.logger.Info().Str("pick", p.ID).Str("game", p.Event.Game).
			Str("status", string(status)).Str("profit_loss", profit.String()).
			Msg("pick settled")
		stats.Settled++
		switch status {
		case model.StatusWin:
			stats.Wins++
		case model.StatusLoss:
			stats.Losses++
		case model.StatusPush:
			stats.Pushes++
		}

		if err := e.Recorder.RecordSettlement(&recorder.SettlementEvent{
			PickID:     p.ID,
			Sport:      p.Sport,
			League:     p.League,
			BetType:    string(p.BetType),
			Status:     string(status),
			Stake:      p.Stake.InexactFloat64(),
			ProfitLoss: profit.InexactFloat64(),
			SettledAt:  *p.SettledAt,
		}); err != nil {
			e.logger.Warn().Err(err).Str("pick", p.ID).Msg("record settlement failed")
		}
	}

	if err := e.Recorder.RecordRun(&recorder.RunEvent{
		Settled: stats.Settled, Wins: stats.Wins, Losses: stats.Losses,
		Pushes: stats.Pushes, Pending: stats.Pending,
		NoMatch: stats.NoMatch, Failures: stats.Failures,
	}); err != nil {
		e.logger.Warn().Err(err).Msg("record run failed")
	}
	return stats
}

// today is midnight of the current date in UTC, matching the calendar-day
// semantics of event dates.
func (e *Engine) today() time.Time {
	y, m, d := e.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func countPending(picks []model.Pick) int {
	n := 0
	for i := range picks {
		if !picks[i].Status.Terminal() {
			n++
		}
	}
	return n
}
