package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pomodoro_tui/internal/history"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const activeSessionKey = "active_session"

type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the SQLite database at path.
// Use ":memory:" for a throwaway database.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return repo, nil
}

func (r *Repository) init() error {
	schema := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		work_minutes INTEGER NOT NULL,
		break_minutes INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS completed_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		name TEXT NOT NULL,
		work_minutes INTEGER NOT NULL,
		break_minutes INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		completed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_completed_at ON completed_sessions(completed_at);
	`
	_, err := r.db.Exec(schema)
	return err
}

func (r *Repository) GetAll(ctx context.Context) ([]Config, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, work_minutes, break_minutes, created_at FROM sessions ORDER BY created_at, rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var configs []Config
	for rows.Next() {
		var c Config
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.Name, &c.WorkMinutes, &c.BreakMinutes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0)
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Config, error) {
	var c Config
	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, work_minutes, break_minutes, created_at FROM sessions WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.WorkMinutes, &c.BreakMinutes, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", id, err)
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	return &c, nil
}

func (r *Repository) Create(ctx context.Context, name string, workMinutes, breakMinutes int) (*Config, error) {
	c := NewConfig(name, workMinutes, breakMinutes)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (id, name, work_minutes, break_minutes, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.Name, c.WorkMinutes, c.BreakMinutes, c.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return c, nil
}

func (r *Repository) Update(ctx context.Context, c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET name = ?, work_minutes = ?, break_minutes = ? WHERE id = ?",
		c.Name, c.WorkMinutes, c.BreakMinutes, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", c.ID, err)
	}
	return requireAffected(result, c.ID)
}

// Delete removes a config. The last remaining config cannot be deleted.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		return fmt.Errorf("count sessions: %w", err)
	}
	if count <= 1 {
		return ErrLastSession
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if err := requireAffected(result, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM settings WHERE key = ? AND value = ?", activeSessionKey, id,
	); err != nil {
		return fmt.Errorf("clear active session: %w", err)
	}
	return tx.Commit()
}

// SeedDefaults inserts the default presets when no config exists yet.
func (r *Repository) SeedDefaults(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		return fmt.Errorf("count sessions: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, d := range Defaults() {
		if _, err := r.Create(ctx, d.Name, d.WorkMinutes, d.BreakMinutes); err != nil {
			return fmt.Errorf("seed %q: %w", d.Name, err)
		}
	}
	return nil
}

func (r *Repository) SetActive(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		activeSessionKey, id,
	)
	if err != nil {
		return fmt.Errorf("set active session: %w", err)
	}
	return nil
}

// ActiveConfig returns the selected config, falling back to the first one.
func (r *Repository) ActiveConfig(ctx context.Context) (*Config, error) {
	var id string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", activeSessionKey).Scan(&id)
	switch {
	case err == nil:
		c, err := r.GetByID(ctx, id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("query active session: %w", err)
	}

	configs, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, ErrNotFound
	}
	return &configs[0], nil
}

func (r *Repository) CreateRecord(ctx context.Context, rec *history.Record) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO completed_sessions (session_id, name, work_minutes, break_minutes, started_at, completed_at) VALUES (?, ?, ?, ?, ?, ?)",
		rec.SessionID,
		rec.Name,
		rec.WorkMinutes,
		rec.BreakMinutes,
		rec.StartedAt.Unix(),
		rec.CompletedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert completed session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// GetRecords returns the most recent completed sessions first. limit <= 0 means all.
func (r *Repository) GetRecords(ctx context.Context, limit int) ([]history.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, name, work_minutes, break_minutes, started_at, completed_at
		 FROM completed_sessions
		 ORDER BY completed_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query completed sessions: %w", err)
	}
	defer rows.Close()

	var records []history.Record
	for rows.Next() {
		var rec history.Record
		var startedAt, completedAt int64
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.Name,
			&rec.WorkMinutes, &rec.BreakMinutes, &startedAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("scan completed session: %w", err)
		}
		rec.StartedAt = time.Unix(startedAt, 0)
		rec.CompletedAt = time.Unix(completedAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *Repository) CountCompletedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM completed_sessions WHERE completed_at >= ?", since.Unix(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed sessions: %w", err)
	}
	return count, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
