package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/alexanderramin/clustertrack/internal/db"
)

// Setting keys.
const (
	KeyLastUser    = "last_user"
	KeyShowColors  = "show_colors"
	KeyActiveHosts = "campus_active_hosts"
)

type SQLiteSettingsRepo struct {
	db db.DBTX
}

func NewSQLiteSettingsRepo(conn db.DBTX) *SQLiteSettingsRepo {
	return &SQLiteSettingsRepo{db: conn}
}

func (r *SQLiteSettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("setting %s: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return v, nil
}

func (r *SQLiteSettingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, nowUTC())
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteSettingsRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting setting %s: %w", key, err)
	}
	return nil
}

// LastUser returns the remembered login, or "" when none is stored.
func (r *SQLiteSettingsRepo) LastUser(ctx context.Context) (string, error) {
	v, err := r.Get(ctx, KeyLastUser)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (r *SQLiteSettingsRepo) SetLastUser(ctx context.Context, login string) error {
	return r.Set(ctx, KeyLastUser, login)
}

// ShowColors returns the availability-color toggle, def when unset.
func (r *SQLiteSettingsRepo) ShowColors(ctx context.Context, def bool) (bool, error) {
	v, err := r.Get(ctx, KeyShowColors)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	b, perr := strconv.ParseBool(v)
	if perr != nil {
		return def, nil
	}
	return b, nil
}

func (r *SQLiteSettingsRepo) SetShowColors(ctx context.Context, on bool) error {
	return r.Set(ctx, KeyShowColors, strconv.FormatBool(on))
}

// SaveActiveHosts stores the last good campus status.
func (r *SQLiteSettingsRepo) SaveActiveHosts(ctx context.Context, hosts []string) error {
	b, err := json.Marshal(hosts)
	if err != nil {
		return fmt.Errorf("encoding active hosts: %w", err)
	}
	return r.Set(ctx, KeyActiveHosts, string(b))
}

// LoadActiveHosts returns the stored campus status, nil when unset.
func (r *SQLiteSettingsRepo) LoadActiveHosts(ctx context.Context) ([]string, error) {
	v, err := r.Get(ctx, KeyActiveHosts)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var hosts []string
	if err := json.Unmarshal([]byte(v), &hosts); err != nil {
		return nil, fmt.Errorf("decoding active hosts: %w", err)
	}
	return hosts, nil
}
