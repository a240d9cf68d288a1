// Package store persists completed runs to SQLite so past results can be
// listed and replayed against their recorded seed.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hollis/wagersim/internal/sim"
)

// Run is one persisted simulation run.
type Run struct {
	ID         string
	Seed       int64
	Sessions   int
	Workers    int
	Strategy   string
	TotalHands int
	NetProfit  float64
	WinRate    float64
	EVPerHand  float64
	Summary    json.RawMessage
	StartedAt  time.Time
	FinishedAt time.Time
}

// SQLiteStore implements run persistence over a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps readers unblocked while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			sessions INTEGER NOT NULL,
			workers INTEGER NOT NULL,
			strategy TEXT NOT NULL,
			total_hands INTEGER NOT NULL,
			net_profit REAL NOT NULL,
			win_rate REAL NOT NULL,
			ev_per_hand REAL NOT NULL,
			summary_json TEXT NOT NULL DEFAULT '{}',
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			stop_reason TEXT NOT NULL,
			hands INTEGER NOT NULL,
			profit REAL NOT NULL,
			final_bankroll REAL NOT NULL,
			total_wagered REAL NOT NULL,
			PRIMARY KEY (run_id, idx),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
	}
	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveRun persists a completed run and returns its generated id. The full
// aggregate is stored as JSON alongside the headline columns.
func (s *SQLiteStore) SaveRun(ctx context.Context, res *sim.Results, strategy string) (string, error) {
	summary, err := json.Marshal(res.Aggregate)
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	id := uuid.New().String()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, seed, sessions, workers, strategy, total_hands,
			net_profit, win_rate, ev_per_hand, summary_json, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, res.Seed, res.Aggregate.Sessions, res.Workers, strategy, res.TotalHands,
		res.Aggregate.NetProfit, res.Aggregate.WinRate, res.Aggregate.EVPerHand,
		string(summary), res.StartedAt.UTC(), res.FinishedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sessions (run_id, idx, outcome, stop_reason, hands, profit, final_bankroll, total_wagered)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare session insert: %w", err)
	}
	defer stmt.Close()
	for i, sr := range res.Sessions {
		if _, err := stmt.ExecContext(ctx, id, i, sr.Outcome.String(), sr.StopReason.String(),
			sr.HandsPlayed, sr.Profit, sr.FinalBankroll, sr.TotalWagered); err != nil {
			return "", fmt.Errorf("failed to insert session %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// SessionRow is one persisted per-session result.
type SessionRow struct {
	Index         int
	Outcome       string
	StopReason    string
	Hands         int
	Profit        float64
	FinalBankroll float64
	TotalWagered  float64
}

// GetSessions returns a run's per-session rows in session-index order.
func (s *SQLiteStore) GetSessions(ctx context.Context, runID string) ([]SessionRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, outcome, stop_reason, hands, profit, final_bankroll, total_wagered
		 FROM sessions WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var sr SessionRow
		if err := rows.Scan(&sr.Index, &sr.Outcome, &sr.StopReason, &sr.Hands,
			&sr.Profit, &sr.FinalBankroll, &sr.TotalWagered); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// GetRun fetches one run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, seed, sessions, workers, strategy, total_hands,
			net_profit, win_rate, ev_per_hand, summary_json, started_at, finished_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seed, sessions, workers, strategy, total_hands,
			net_profit, win_rate, ev_per_hand, summary_json, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var summary string
	if err := row.Scan(&run.ID, &run.Seed, &run.Sessions, &run.Workers, &run.Strategy,
		&run.TotalHands, &run.NetProfit, &run.WinRate, &run.EVPerHand, &summary,
		&run.StartedAt, &run.FinishedAt); err != nil {
		return nil, err
	}
	run.Summary = json.RawMessage(summary)
	return &run, nil
}
