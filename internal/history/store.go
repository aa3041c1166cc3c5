package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"chartcap/internal/config"
)

const cycleColumns = `id, cycle_id, symbol, status, success_count, attempted,
    results_json, error_message, created_at, updated_at`

// Store manages cycle persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and brings its schema
// up to date.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.migrateSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Begin inserts a running record for a freshly detected request.
func (s *Store) Begin(ctx context.Context, cycleID, symbol string) (*Cycle, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO cycles (cycle_id, symbol, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		cycleID,
		symbol,
		StatusRunning,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cycle: %w", err)
	}
	return s.GetByCycleID(ctx, cycleID)
}

// Update persists changes to an existing cycle record.
func (s *Store) Update(ctx context.Context, cycle *Cycle) error {
	if cycle == nil {
		return errors.New("cycle is nil")
	}
	cycle.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE cycles
         SET symbol = ?, status = ?, success_count = ?, attempted = ?,
             results_json = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		cycle.Symbol,
		cycle.Status,
		cycle.SuccessCount,
		cycle.Attempted,
		nullableString(cycle.ResultsJSON),
		nullableString(cycle.ErrorMessage),
		cycle.UpdatedAt.Format(time.RFC3339Nano),
		cycle.ID,
	)
	if err != nil {
		return fmt.Errorf("update cycle: %w", err)
	}
	return nil
}

// GetByCycleID fetches a record by its cycle identifier. Returns nil when no
// record matches.
func (s *Store) GetByCycleID(ctx context.Context, cycleID string) (*Cycle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cycleColumns+` FROM cycles WHERE cycle_id = ?`, cycleID)
	cycle, err := scanCycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cycle: %w", err)
	}
	return cycle, nil
}

// Recent returns the newest records first, up to limit (unbounded when
// limit is not positive).
func (s *Store) Recent(ctx context.Context, limit int) ([]*Cycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM cycles ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*Cycle
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}
	return cycles, rows.Err()
}

// Health aggregates record counts for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM cycles GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("cycle stats: %w", err)
	}
	defer rows.Close()

	health := HealthSummary{}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, err
		}
		health.Total += count
		switch status {
		case StatusRunning:
			health.Running += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, rows.Err()
}

// ResetRunning marks records left running by a previous process as failed.
// Called once at daemon startup.
func (s *Store) ResetRunning(ctx context.Context) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE cycles SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		StatusFailed,
		"interrupted by daemon restart",
		timestamp,
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset running cycles: %w", err)
	}
	return res.RowsAffected()
}

// ClearCompleted removes completed records and returns the count removed.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cycles WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed cycles: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every record and returns the count removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cycles`)
	if err != nil {
		return 0, fmt.Errorf("clear cycles: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycle(scanner rowScanner) (*Cycle, error) {
	var (
		cycle     Cycle
		results   sql.NullString
		errMsg    sql.NullString
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(
		&cycle.ID,
		&cycle.CycleID,
		&cycle.Symbol,
		&cycle.Status,
		&cycle.SuccessCount,
		&cycle.Attempted,
		&results,
		&errMsg,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	cycle.ResultsJSON = results.String
	cycle.ErrorMessage = errMsg.String

	var err error
	if cycle.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if cycle.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &cycle, nil
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
