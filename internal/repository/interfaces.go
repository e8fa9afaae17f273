package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// CacheRepo keeps the last-known-good session list. There is one slot.
type CacheRepo interface {
	Save(ctx context.Context, entry domain.CacheEntry) error
	Load(ctx context.Context) (*domain.CacheEntry, error)
	Clear(ctx context.Context) error
}

type FavoriteRepo interface {
	List(ctx context.Context) (domain.Favorites, error)
	Upsert(ctx context.Context, host string, source domain.FavoriteSource) error
	Delete(ctx context.Context, host string) error
	// ReplaceAll overwrites the stored ledger; run it inside a transaction.
	ReplaceAll(ctx context.Context, favs domain.Favorites) error
}

type SettingsRepo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
