package app

import (
	"context"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// SessionSource is the remote side: the intra client directly or the relay.
type SessionSource interface {
	FetchAllSessions(ctx context.Context, login string) ([]domain.RawLocation, error)
	FetchActiveHosts(ctx context.Context) (map[string]struct{}, error)
}

type CacheRepo interface {
	Save(ctx context.Context, entry domain.CacheEntry) error
	Load(ctx context.Context) (*domain.CacheEntry, error)
}

type FavoriteRepo interface {
	List(ctx context.Context) (domain.Favorites, error)
	Upsert(ctx context.Context, host string, source domain.FavoriteSource) error
	Delete(ctx context.Context, host string) error
	ReplaceAll(ctx context.Context, favs domain.Favorites) error
}

type SettingsRepo interface {
	LastUser(ctx context.Context) (string, error)
	SetLastUser(ctx context.Context, login string) error
	ShowColors(ctx context.Context, def bool) (bool, error)
	SetShowColors(ctx context.Context, on bool) error
	SaveActiveHosts(ctx context.Context, hosts []string) error
	LoadActiveHosts(ctx context.Context) ([]string, error)
}
