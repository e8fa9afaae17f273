package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/clustertrack/internal/db"
	"github.com/alexanderramin/clustertrack/internal/domain"
)

type SQLiteFavoriteRepo struct {
	db db.DBTX
}

func NewSQLiteFavoriteRepo(conn db.DBTX) *SQLiteFavoriteRepo {
	return &SQLiteFavoriteRepo{db: conn}
}

func (r *SQLiteFavoriteRepo) List(ctx context.Context) (domain.Favorites, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT host, source FROM favorites ORDER BY host`)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	defer rows.Close()

	favs := domain.Favorites{}
	for rows.Next() {
		var host, source string
		if err := rows.Scan(&host, &source); err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		favs[host] = domain.FavoriteSource(source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating favorites: %w", err)
	}
	return favs, nil
}

func (r *SQLiteFavoriteRepo) Upsert(ctx context.Context, host string, source domain.FavoriteSource) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO favorites (host, source, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(host) DO UPDATE SET source = excluded.source, updated_at = excluded.updated_at`,
		domain.NormalizeHost(host), string(source), nowUTC())
	if err != nil {
		return fmt.Errorf("upserting favorite %s: %w", host, err)
	}
	return nil
}

func (r *SQLiteFavoriteRepo) Delete(ctx context.Context, host string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE host = ?`, domain.NormalizeHost(host)); err != nil {
		return fmt.Errorf("deleting favorite %s: %w", host, err)
	}
	return nil
}

func (r *SQLiteFavoriteRepo) ReplaceAll(ctx context.Context, favs domain.Favorites) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites`); err != nil {
		return fmt.Errorf("clearing favorites: %w", err)
	}
	for _, host := range favs.Hosts() {
		src, _ := favs.Source(host)
		if err := r.Upsert(ctx, host, src); err != nil {
			return err
		}
	}
	return nil
}
