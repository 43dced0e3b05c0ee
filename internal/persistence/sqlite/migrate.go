package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migration is a single versioned schema change. Versions are applied in
// ascending order exactly once, tracked in the schema_migrations table.
type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create core tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				username TEXT,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS meetings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				topic TEXT NOT NULL,
				description TEXT NOT NULL,
				start_at TEXT NOT NULL,
				capacity INTEGER NOT NULL CHECK (capacity >= 1),
				location TEXT,
				created_by INTEGER NOT NULL REFERENCES users(id),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				canceled_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_meetings_start_at ON meetings(start_at)`,
			`CREATE TABLE IF NOT EXISTS registrations (
				id TEXT PRIMARY KEY,
				meeting_id INTEGER NOT NULL REFERENCES meetings(id),
				user_id INTEGER NOT NULL REFERENCES users(id),
				status TEXT NOT NULL CHECK (status IN ('confirmed', 'waitlisted', 'canceled')),
				is_host INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_registrations_meeting_status ON registrations(meeting_id, status)`,
		},
	},
	{
		version: 2,
		name:    "enforce single live registration per meeting and user",
		statements: []string{
			// Rejects the concurrent double-register race at the engine level
			// instead of relying on the transactional check alone.
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_registrations_live
				ON registrations(meeting_id, user_id)
				WHERE status IN ('confirmed', 'waitlisted')`,
		},
	},
}

// Migrate applies all pending migrations. It is safe to call on every start.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("sqlite: failed to initialize schema_migrations: %w", err)
	}

	var current int
	err := cp.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("sqlite: failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := cp.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("sqlite: migration %d (%s) failed: %w", m.version, m.name, err)
		}
	}

	return nil
}

func (cp *ConnectionPool) applyMigration(ctx context.Context, m migration) error {
	return cp.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range m.statements {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		_, err := tx.Exec(
			`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.version, m.name, time.Now().UTC().Format(time.RFC3339),
		)
		return err
	})
}
