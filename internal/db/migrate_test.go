package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"session_cache", "favorites", "settings"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CacheHasSingleSlot(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO session_cache (slot, login, payload, fetched_at) VALUES (1, 'a', '[]', 'now')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO session_cache (slot, login, payload, fetched_at) VALUES (2, 'b', '[]', 'now')`)
	assert.Error(t, err)
}

func TestMigrate_FavoriteSourceConstraint(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO favorites (host, source, updated_at) VALUES ('z1r1p1', 'guessed', 'now')`)
	assert.Error(t, err)
}

func TestOpenDB_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")
	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()
	assert.FileExists(t, path)
}
