package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists settlement history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a settlement run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("component", "recorder").Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settlement_runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			settled   INTEGER,
			wins      INTEGER,
			losses    INTEGER,
			pushes    INTEGER,
			pending   INTEGER,
			no_match  INTEGER,
			failures  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON settlement_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS pick_settlements (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			pick_id     TEXT NOT NULL,
			sport       TEXT,
			league      TEXT,
			bet_type    TEXT,
			status      TEXT,
			stake       REAL,
			profit_loss REAL,
			settled_at  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_ts ON pick_settlements(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_pick ON pick_settlements(pick_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO settlement_runs
		(timestamp, settled, wins, losses, pushes, pending, no_match, failures)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Settled, evt.Wins, evt.Losses, evt.Pushes,
		evt.Pending, evt.NoMatch, evt.Failures,
	)
	return err
}

func (r *SQLiteRecorder) RecordSettlement(evt *SettlementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO pick_settlements
		(timestamp, pick_id, sport, league, bet_type, status, stake, profit_loss, settled_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.PickID, evt.Sport, evt.League, evt.BetType,
		evt.Status, evt.Stake, evt.ProfitLoss, evt.SettledAt.Unix(),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Str("component", "recorder").Msg("closing sqlite recorder")
	return r.db.Close()
}
