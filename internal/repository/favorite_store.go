package repository

import (
	"context"
	"database/sql"

	"github.com/alexanderramin/clustertrack/internal/db"
	"github.com/alexanderramin/clustertrack/internal/domain"
)

// FavoriteStore is the favorites repo for callers outside a transaction.
// ReplaceAll runs in its own unit of work so a failed rewrite keeps the
// previous ledger.
type FavoriteStore struct {
	*SQLiteFavoriteRepo
	uow db.UnitOfWork
}

func NewFavoriteStore(conn *sql.DB, uow db.UnitOfWork) *FavoriteStore {
	return &FavoriteStore{SQLiteFavoriteRepo: NewSQLiteFavoriteRepo(conn), uow: uow}
}

func (s *FavoriteStore) ReplaceAll(ctx context.Context, favs domain.Favorites) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return NewSQLiteFavoriteRepo(tx).ReplaceAll(ctx, favs)
	})
}
