package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/clustertrack/internal/db"
	"github.com/alexanderramin/clustertrack/internal/domain"
	"github.com/alexanderramin/clustertrack/internal/testutil"
)

func TestFavoriteRepo_UpsertListDelete(t *testing.T) {
	repo := NewSQLiteFavoriteRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "Z1R1P1", domain.FavoriteInferred))
	require.NoError(t, repo.Upsert(ctx, "z1r1p1", domain.FavoriteManual))
	require.NoError(t, repo.Upsert(ctx, "z1r1p2", domain.FavoriteInferred))

	favs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Favorites{"z1r1p1": domain.FavoriteManual, "z1r1p2": domain.FavoriteInferred}, favs)

	require.NoError(t, repo.Delete(ctx, "z1r1p2"))
	favs, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, favs, 1)
}

func TestFavoriteRepo_ReplaceAllInTx(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewSQLiteFavoriteRepo(database).Upsert(ctx, "z9r9p9", domain.FavoriteManual))

	want := domain.Favorites{"z1r1p1": domain.FavoriteManual, "z1r1p2": domain.FavoriteInferred}
	err := testutil.NewTestUoW(database).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return NewSQLiteFavoriteRepo(tx).ReplaceAll(ctx, want)
	})
	require.NoError(t, err)

	got, err := NewSQLiteFavoriteRepo(database).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFavoriteRepo_ReplaceAllRollsBack(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewSQLiteFavoriteRepo(database).Upsert(ctx, "z9r9p9", domain.FavoriteManual))

	boom := errors.New("disk full")
	uow := &testutil.FailOnNthExecUoW{DB: database, FailOn: 3, Err: boom}
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return NewSQLiteFavoriteRepo(tx).ReplaceAll(ctx, domain.Favorites{
			"z1r1p1": domain.FavoriteManual,
			"z1r1p2": domain.FavoriteManual,
		})
	})
	assert.ErrorIs(t, err, boom)

	got, err := NewSQLiteFavoriteRepo(database).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Favorites{"z9r9p9": domain.FavoriteManual}, got)
}

func TestFavoriteStore_ReplaceAllCommits(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	store := NewFavoriteStore(database, testutil.NewTestUoW(database))
	require.NoError(t, store.Upsert(ctx, "z9r9p9", domain.FavoriteManual))

	want := domain.Favorites{"z3r1p1": domain.FavoriteInferred}
	require.NoError(t, store.ReplaceAll(ctx, want))

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
