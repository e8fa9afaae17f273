package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/clustertrack/internal/db"
	"github.com/alexanderramin/clustertrack/internal/domain"
)

// SQLiteCacheRepo implements CacheRepo. Sessions are stored as one JSON
// document in the cache format {login, sessions, fetchedAt}.
type SQLiteCacheRepo struct {
	db db.DBTX
}

func NewSQLiteCacheRepo(conn db.DBTX) *SQLiteCacheRepo {
	return &SQLiteCacheRepo{db: conn}
}

func (r *SQLiteCacheRepo) Save(ctx context.Context, entry domain.CacheEntry) error {
	if entry.Sessions == nil {
		entry.Sessions = []domain.Session{}
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO session_cache (slot, login, payload, fetched_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET login = excluded.login, payload = excluded.payload, fetched_at = excluded.fetched_at`,
		entry.Login, string(payload), entry.FetchedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

func (r *SQLiteCacheRepo) Load(ctx context.Context) (*domain.CacheEntry, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM session_cache WHERE slot = 1`).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session cache: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("loading cache entry: %w", err)
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}
	return &entry, nil
}

func (r *SQLiteCacheRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_cache`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
