package history

import (
	"context"
	"fmt"
)

// schemaRevisions are applied in order on open. The database's user_version
// pragma records how many have run, so an older database picks up only the
// revisions it is missing.
var schemaRevisions = []string{
	`CREATE TABLE cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id TEXT NOT NULL UNIQUE,
		symbol TEXT NOT NULL,
		status TEXT NOT NULL,
		success_count INTEGER NOT NULL DEFAULT 0,
		attempted INTEGER NOT NULL DEFAULT 0,
		results_json TEXT,
		error_message TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX idx_cycles_status ON cycles(status);
	CREATE INDEX idx_cycles_created_at ON cycles(created_at);`,
}

func (s *Store) migrateSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > len(schemaRevisions) {
		return fmt.Errorf("history database schema version %d is newer than this build supports", version)
	}
	for next := version; next < len(schemaRevisions); next++ {
		if err := s.applyRevision(ctx, next); err != nil {
			return err
		}
	}
	return nil
}

// applyRevision runs one revision and bumps user_version in the same
// transaction, so a failed revision leaves the version untouched.
func (s *Store) applyRevision(ctx context.Context, index int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, schemaRevisions[index]); err != nil {
		return fmt.Errorf("apply schema revision %d: %w", index+1, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", index+1)); err != nil {
		return fmt.Errorf("record schema revision %d: %w", index+1, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema revision %d: %w", index+1, err)
	}
	return nil
}
