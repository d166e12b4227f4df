package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"PickTracker/internal/ledger"
	"PickTracker/internal/notifier"
	"PickTracker/internal/report"
	"PickTracker/internal/settle"
)

// Scheduler manages all cron tasks in daemon mode: periodic settlement runs
// and scheduled report pushes.
type Scheduler struct {
	Cron       *cron.Cron
	Engine     *settle.Engine
	Notifier   *notifier.TelegramNotifier
	LedgerPath string
	Ctx        context.Context

	// mu serializes ledger load/settle/save cycles; the ledger has a
	// single writer at a time.
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, engine *settle.Engine, tn *notifier.TelegramNotifier, ledgerPath string) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Engine:     engine,
		Notifier:   tn,
		LedgerPath: ledgerPath,
		Ctx:        ctx,
		logger:     log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the settlement task and the report pushes.
func (s *Scheduler) RegisterAll(settleCron, dailyCron, weeklyCron, monthlyCron string) error {
	if _, err := s.Cron.AddFunc(settleCron, s.settleTask); err != nil {
		return fmt.Errorf("register settle task: %w", err)
	}
	if _, err := s.Cron.AddFunc(dailyCron, func() { s.reportTask(report.Day) }); err != nil {
		return fmt.Errorf("register daily report: %w", err)
	}
	if _, err := s.Cron.AddFunc(weeklyCron, func() { s.reportTask(report.Week) }); err != nil {
		return fmt.Errorf("register weekly report: %w", err)
	}
	if _, err := s.Cron.AddFunc(monthlyCron, func() { s.reportTask(report.Month) }); err != nil {
		return fmt.Errorf("register monthly report: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	s.logger.Info().Msg("scheduler stopped")
}

// RunSettleNow executes the settlement task immediately (manual trigger).
func (s *Scheduler) RunSettleNow() {
	s.settleTask()
}

func (s *Scheduler) settleTask() {
	stats, err := s.settleOnce()
	if err != nil {
		s.logger.Error().Err(err).Msg("settlement task failed")
		s.trySend(fmt.Sprintf("❌ Settlement run failed: %v", err))
		return
	}
	s.trySend(notifier.FormatRunSummary(stats))
}

// settleOnce runs one full load -> settle -> save cycle.
func (s *Scheduler) settleOnce() (settle.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	picks, err := ledger.Load(s.LedgerPath)
	if err != nil {
		return settle.Stats{}, fmt.Errorf("load ledger: %w", err)
	}
	stats := s.Engine.Run(s.Ctx, picks)
	if err := ledger.Save(s.LedgerPath, picks); err != nil {
		return stats, fmt.Errorf("save ledger: %w", err)
	}
	s.logger.Info().Int("settled", stats.Settled).Int("pending", stats.Pending).
		Int("no_match", stats.NoMatch).Msg("settlement run complete")
	return stats, nil
}

func (s *Scheduler) reportTask(window report.Window) {
	s.logger.Info().Str("window", window.String()).Msg("running report task")
	summary, err := s.buildReport(window)
	if err != nil {
		s.logger.Error().Err(err).Msg("report task failed")
		return
	}
	s.trySend(notifier.FormatReport(summary))
}

func (s *Scheduler) buildReport(window report.Window) (report.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	picks, err := ledger.Load(s.LedgerPath)
	if err != nil {
		return report.Summary{}, fmt.Errorf("load ledger: %w", err)
	}
	return report.Build(picks, window, time.Now()), nil
}

// HandleCommand processes a Telegram command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "/update":
		stats, err := s.settleOnce()
		if err != nil {
			return fmt.Sprintf("❌ Settlement run failed: %v", err)
		}
		return notifier.FormatRunSummary(stats)
	case "/report":
		token := "all"
		if len(fields) > 1 {
			token = fields[1]
		}
		window, err := report.ParseWindow(token)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		summary, err := s.buildReport(window)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatReport(summary)
	case "/status":
		summary, err := s.buildReport(report.AllTime)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return fmt.Sprintf("Ledger: %d-%d-%d settled, %d pending",
			summary.Wins, summary.Losses, summary.Pushes, summary.PendingCount)
	default:
		return "Commands:\n/update - run settlement now\n/report [daily|weekly|monthly|all]\n/status - ledger summary"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Send(text); err != nil {
		s.logger.Error().Err(err).Msg("telegram send failed")
	}
}
