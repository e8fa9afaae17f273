package db

import (
	"database/sql"
	"fmt"
)

// Migrate applies every schema statement. Statements are idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	// Last-known-good copy of one user's sessions.
	`CREATE TABLE IF NOT EXISTS session_cache (
		slot       INTEGER PRIMARY KEY CHECK(slot = 1),
		login      TEXT NOT NULL,
		payload    TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS favorites (
		host       TEXT PRIMARY KEY,
		source     TEXT NOT NULL CHECK(source IN ('manual','inferred')),
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}
