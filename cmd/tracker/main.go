package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"PickTracker/internal/config"
	"PickTracker/internal/ledger"
	"PickTracker/internal/model"
	"PickTracker/internal/notifier"
	"PickTracker/internal/recorder"
	"PickTracker/internal/report"
	"PickTracker/internal/results"
	"PickTracker/internal/scheduler"
	"PickTracker/internal/settle"
)

const usage = `Usage: tracker <command> [flags]

Commands:
  add             record a new pending pick in the ledger
  update-results  settle pending picks against final results
  report          print a performance report (daily|weekly|monthly|all)
  serve           run as a daemon: scheduled settlement + Telegram reports
`

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := loadConfig()
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	switch os.Args[1] {
	case "add":
		cmdAdd(cfg, os.Args[2:])
	case "update-results":
		cmdUpdateResults(cfg)
	case "report":
		cmdReport(cfg, os.Args[2:])
	case "serve":
		cmdServe(cfg)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

func loadConfig() *config.Config {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	return cfg
}

func cmdAdd(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	sport := fs.String("sport", "", "sport name, e.g. MLB (required)")
	league := fs.String("league", "", "league name")
	game := fs.String("game", "", `event, "Home vs Away" or a single selection (required)`)
	date := fs.String("date", "", "event date YYYY-MM-DD (required)")
	venue := fs.String("venue", "", "venue or track")
	betType := fs.String("bet", "", "bet type: Moneyline, Spread, Total or Win (required)")
	prediction := fs.String("prediction", "", `predicted outcome, e.g. "Yankees -3.5" (required)`)
	odds := fs.String("odds", "", "decimal odds >= 1.0; omit for a confidence-only pick")
	stake := fs.String("stake", "0", "amount staked")
	fs.Parse(args)

	now := time.Now()
	pick := model.Pick{
		ID:         uuid.NewString(),
		Sport:      *sport,
		League:     *league,
		Event:      model.EventDetails{Game: *game, Date: *date, Venue: *venue},
		BetType:    model.BetType(*betType),
		Prediction: *prediction,
		Status:     model.StatusPending,
		CreatedAt:  &now,
	}
	var err error
	if pick.Stake, err = decimal.NewFromString(*stake); err != nil {
		log.Fatal().Err(err).Msg("bad -stake value")
	}
	if *odds != "" {
		o, err := decimal.NewFromString(*odds)
		if err != nil {
			log.Fatal().Err(err).Msg("bad -odds value")
		}
		pick.Odds = &o
	}
	if err := pick.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid pick")
	}

	picks, err := ledger.Load(cfg.Ledger.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("load ledger")
	}
	picks = append(picks, pick)
	if err := ledger.Save(cfg.Ledger.Path, picks); err != nil {
		log.Fatal().Err(err).Msg("save ledger")
	}
	fmt.Printf("Added pick %s (%s, %s on %s)\n", pick.ID, pick.Sport, pick.Prediction, pick.Event.Date)
}

func cmdUpdateResults(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	picks, err := ledger.Load(cfg.Ledger.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("load ledger")
	}

	client := results.NewClient(results.ClientOptions{
		BaseURLs:        cfg.Provider.BaseURLs,
		APIKey:          cfg.Provider.APIKey,
		Timeout:         time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		MaxRetryElapsed: time.Duration(cfg.Provider.MaxRetrySeconds) * time.Second,
		RequestsPerSec:  cfg.Provider.RequestsPerSec,
	})
	rec := openRecorder(cfg)
	defer rec.Close()

	engine := settle.NewEngine(client, rec)
	stats := engine.Run(context.Background(), picks)

	if err := ledger.Save(cfg.Ledger.Path, picks); err != nil {
		log.Fatal().Err(err).Msg("save ledger")
	}

	// Pending picks and unmatched events are normal outcomes of a run.
	fmt.Printf("Settled %d picks (W %d / L %d / P %d), %d still pending",
		stats.Settled, stats.Wins, stats.Losses, stats.Pushes, stats.Pending)
	if stats.NoMatch > 0 {
		fmt.Printf(", %d unmatched", stats.NoMatch)
	}
	if stats.Failures > 0 {
		fmt.Printf(", %d failed lookups", stats.Failures)
	}
	fmt.Println()
}

func cmdReport(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: tracker report <daily|weekly|monthly|all>")
		os.Exit(2)
	}
	window, err := report.ParseWindow(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("bad report window")
	}
	picks, err := ledger.Load(cfg.Ledger.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("load ledger")
	}
	fmt.Print(report.Render(report.Build(picks, window, time.Now())))
}

func cmdServe(cfg *config.Config) {
	if err := cfg.ValidateServe(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	client := results.NewClient(results.ClientOptions{
		BaseURLs:        cfg.Provider.BaseURLs,
		APIKey:          cfg.Provider.APIKey,
		Timeout:         time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		MaxRetryElapsed: time.Duration(cfg.Provider.MaxRetrySeconds) * time.Second,
		RequestsPerSec:  cfg.Provider.RequestsPerSec,
	})
	rec := openRecorder(cfg)
	defer rec.Close()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := settle.NewEngine(client, rec)
	sched := scheduler.NewScheduler(ctx, engine, tn, cfg.Ledger.Path)
	if err := sched.RegisterAll(
		cfg.Schedule.SettleCron,
		cfg.Schedule.DailyReportCron,
		cfg.Schedule.WeeklyReportCron,
		cfg.Schedule.MonthlyReportCron,
	); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing settlement now")
		go sched.RunSettleNow()
	}

	log.Info().Msg("tracker is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
}

// openRecorder opens the SQLite history recorder, falling back to a no-op
// when it is not configured or fails to open.
func openRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return rec
}
