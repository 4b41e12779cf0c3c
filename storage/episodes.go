// Package storage persists runs and finished episodes in a SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pthm-cable/penguin/telemetry"
)

// ErrNotFound is returned when a queried run does not exist.
var ErrNotFound = errors.New("storage: not found")

// Run describes one invocation of the simulator.
type Run struct {
	ID        string
	StartedAt time.Time
	Seed      int64
	Policy    string
	Arenas    int
	Config    string // YAML snapshot
}

// RunSummary aggregates the episodes of a run.
type RunSummary struct {
	RunID      string
	Episodes   int
	Completed  int
	MeanReward float64
	BestReward float64
	MeanSteps  float64
}

// Filter selects episodes for List.
type Filter struct {
	RunID string // empty = every run
	Arena int    // negative = every arena
	Limit int    // 0 = no limit
}

// EpisodeDB stores episode records.
type EpisodeDB struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*EpisodeDB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &EpisodeDB{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			seed INTEGER NOT NULL,
			policy TEXT NOT NULL,
			arenas INTEGER NOT NULL,
			config_yaml TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			arena INTEGER NOT NULL,
			episode INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			decisions INTEGER NOT NULL,
			reward REAL NOT NULL,
			fish_eaten INTEGER NOT NULL,
			babies_fed INTEGER NOT NULL,
			fish_remaining INTEGER NOT NULL,
			feed_radius REAL NOT NULL,
			fish_speed REAL NOT NULL,
			reason TEXT NOT NULL,
			wall_ms INTEGER NOT NULL,
			PRIMARY KEY (run_id, arena, episode)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_reward ON episodes(run_id, reward);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *EpisodeDB) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun registers a run. Episodes reference their run.
func (s *EpisodeDB) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, started_at, seed, policy, arenas, config_yaml) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Seed, r.Policy, r.Arenas, r.Config)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

// Insert stores a finished episode.
func (s *EpisodeDB) Insert(ctx context.Context, rec telemetry.EpisodeRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO episodes (run_id, arena, episode, steps, decisions, reward, fish_eaten, babies_fed,
			fish_remaining, feed_radius, fish_speed, reason, wall_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Arena, rec.Episode, rec.Steps, rec.Decisions, rec.Reward, rec.FishEaten, rec.BabiesFed,
		rec.FishRemaining, rec.FeedRadius, rec.FishSpeed, rec.Reason, rec.WallMS)
	if err != nil {
		return fmt.Errorf("insert episode %s/%d/%d: %w", rec.RunID, rec.Arena, rec.Episode, err)
	}
	return nil
}

const episodeColumns = `run_id, arena, episode, steps, decisions, reward, fish_eaten, babies_fed,
	fish_remaining, feed_radius, fish_speed, reason, wall_ms`

// List returns episodes in run, arena, episode order.
func (s *EpisodeDB) List(ctx context.Context, f Filter) ([]telemetry.EpisodeRecord, error) {
	q := `SELECT ` + episodeColumns + ` FROM episodes WHERE (? = '' OR run_id = ?) AND (? < 0 OR arena = ?)
		ORDER BY run_id, arena, episode`
	args := []any{f.RunID, f.RunID, f.Arena, f.Arena}
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.query(ctx, q, args...)
}

// Best returns the n highest-reward episodes of a run (or of every run when runID is empty).
func (s *EpisodeDB) Best(ctx context.Context, runID string, n int) ([]telemetry.EpisodeRecord, error) {
	q := `SELECT ` + episodeColumns + ` FROM episodes WHERE (? = '' OR run_id = ?)
		ORDER BY reward DESC, steps ASC LIMIT ?`
	return s.query(ctx, q, runID, runID, n)
}

// Summary aggregates the episodes of a run.
func (s *EpisodeDB) Summary(ctx context.Context, runID string) (RunSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(reason = 'completed'), 0), COALESCE(AVG(reward), 0),
			COALESCE(MAX(reward), 0), COALESCE(AVG(steps), 0)
		FROM episodes WHERE run_id = ?`, runID)

	sum := RunSummary{RunID: runID}
	if err := row.Scan(&sum.Episodes, &sum.Completed, &sum.MeanReward, &sum.BestReward, &sum.MeanSteps); err != nil {
		return RunSummary{}, fmt.Errorf("summarize run %s: %w", runID, err)
	}
	if sum.Episodes == 0 {
		return RunSummary{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return sum, nil
}

// Runs returns the registered runs, newest first.
func (s *EpisodeDB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, seed, policy, arenas, config_yaml FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.Seed, &r.Policy, &r.Arenas, &r.Config); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *EpisodeDB) query(ctx context.Context, q string, args ...any) ([]telemetry.EpisodeRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var out []telemetry.EpisodeRecord
	for rows.Next() {
		var r telemetry.EpisodeRecord
		if err := rows.Scan(&r.RunID, &r.Arena, &r.Episode, &r.Steps, &r.Decisions, &r.Reward, &r.FishEaten,
			&r.BabiesFed, &r.FishRemaining, &r.FeedRadius, &r.FishSpeed, &r.Reason, &r.WallMS); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
