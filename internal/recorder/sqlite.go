package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"IVSolver/internal/model"
)

// SQLiteRecorder persists batch runs and their solutions to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batch_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			source      TEXT,
			output      TEXT,
			total       INTEGER,
			solved      INTEGER,
			nan_count   INTEGER,
			iterations  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON batch_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS solutions (
			run_id          INTEGER NOT NULL REFERENCES batch_runs(id),
			seq             INTEGER NOT NULL,
			trade_id        TEXT,
			spot            REAL,
			strike          REAL,
			rate            REAL,
			years           REAL,
			market_price    REAL,
			option_type     TEXT,
			underlying_type TEXT,
			model_type      TEXT,
			implied_vol     REAL,
			iterations      INTEGER,
			PRIMARY KEY (run_id, seq)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the summary and every solution in one transaction.
// NaN volatilities are stored as NULL.
func (r *SQLiteRecorder) RecordRun(summary *model.BatchSummary, solutions []model.Solution) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO batch_runs
		(started_at, duration_ms, source, output, total, solved, nan_count, iterations)
		VALUES (?,?,?,?,?,?,?,?)`,
		summary.StartedAt.UnixMilli(), summary.Duration.Milliseconds(),
		summary.Source, summary.Output,
		summary.Total, summary.Solved, summary.NaNCount, summary.Iterations,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO solutions
		(run_id, seq, trade_id, spot, strike, rate, years, market_price,
		 option_type, underlying_type, model_type, implied_vol, iterations)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare solution insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range solutions {
		iv := sql.NullFloat64{Float64: s.ImpliedVolatility, Valid: s.Solved()}
		if _, err := stmt.Exec(runID, i, s.ID, s.Spot, s.Strike, s.Rate, s.YearsToExpiry, s.MarketPrice,
			string(s.OptionType), string(s.UnderlyingType), string(s.ModelType), iv, s.Iterations); err != nil {
			return 0, fmt.Errorf("insert solution %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// LastRun returns the most recent batch, or ErrNoRuns.
func (r *SQLiteRecorder) LastRun() (*Run, error) {
	var (
		run        Run
		startedMs  int64
		durationMs int64
	)
	err := r.db.QueryRow(`SELECT id, started_at, duration_ms, source, output, total, solved, nan_count, iterations
		FROM batch_runs ORDER BY id DESC LIMIT 1`).Scan(
		&run.ID, &startedMs, &durationMs, &run.Source, &run.Output,
		&run.Total, &run.Solved, &run.NaNCount, &run.Iterations,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	run.StartedAt = time.UnixMilli(startedMs)
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}

// RunSolutions returns the stored solutions of a run in input order.
func (r *SQLiteRecorder) RunSolutions(runID int64) ([]model.Solution, error) {
	rows, err := r.db.Query(`SELECT trade_id, spot, strike, rate, years, market_price,
		option_type, underlying_type, model_type, implied_vol, iterations
		FROM solutions WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query solutions: %w", err)
	}
	defer rows.Close()

	var out []model.Solution
	for rows.Next() {
		var (
			s                  model.Solution
			opt, und, modelTag string
			iv                 sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.Spot, &s.Strike, &s.Rate, &s.YearsToExpiry, &s.MarketPrice,
			&opt, &und, &modelTag, &iv, &s.Iterations); err != nil {
			return nil, fmt.Errorf("scan solution: %w", err)
		}
		s.OptionType = model.OptionType(opt)
		s.UnderlyingType = model.UnderlyingType(und)
		s.ModelType = model.ModelType(modelTag)
		s.ImpliedVolatility = math.NaN()
		if iv.Valid {
			s.ImpliedVolatility = iv.Float64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
