//go:build unit

package repository_test

import (
	"context"
	"testing"
	"time"

	"circulation-core/internal/infra"
	"circulation-core/internal/infra/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepository_Begin(t *testing.T) {
	ctx := context.Background()

	t.Run("claimed: insert returned the key", func(t *testing.T) {
		key := uuid.New()
		dbtx := &fakeDBTX{row: fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*uuid.UUID)) = key
			return nil
		}}}
		repo := repository.NewIdempotencyRepository(dbtx)

		claimed, err := repo.Begin(ctx, key, uuid.New(), "checkout", "hash", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("not claimed: conflicting key already present", func(t *testing.T) {
		// ON CONFLICT DO NOTHING yields no row for the loser.
		dbtx := &fakeDBTX{row: fakeRow{err: pgx.ErrNoRows}}
		repo := repository.NewIdempotencyRepository(dbtx)

		claimed, err := repo.Begin(ctx, uuid.New(), uuid.New(), "checkout", "hash", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, claimed)
	})
}

func TestIdempotencyRepository_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("flips processing to completed", func(t *testing.T) {
		dbtx := &fakeDBTX{execTag: pgconn.NewCommandTag("UPDATE 1")}
		repo := repository.NewIdempotencyRepository(dbtx)

		assert.NoError(t, repo.Complete(ctx, uuid.New(), uuid.New()))
	})

	t.Run("conflict when record is not processing", func(t *testing.T) {
		dbtx := &fakeDBTX{execTag: pgconn.NewCommandTag("UPDATE 0")}
		repo := repository.NewIdempotencyRepository(dbtx)

		err := repo.Complete(ctx, uuid.New(), uuid.New())
		require.Error(t, err)
		assert.True(t, infra.IsKind(err, infra.KindConflict))
	})
}

func TestIdempotencyRepository_Get_NotFound(t *testing.T) {
	dbtx := &fakeDBTX{row: fakeRow{err: pgx.ErrNoRows}}
	repo := repository.NewIdempotencyRepository(dbtx)

	_, err := repo.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}

func TestIdempotencyRepository_Release(t *testing.T) {
	t.Run("drops a processing marker", func(t *testing.T) {
		dbtx := &fakeDBTX{execTag: pgconn.NewCommandTag("DELETE 1")}
		repo := repository.NewIdempotencyRepository(dbtx)

		assert.NoError(t, repo.Release(context.Background(), uuid.New()))
	})

	t.Run("no-op when the record is completed or gone", func(t *testing.T) {
		dbtx := &fakeDBTX{execTag: pgconn.NewCommandTag("DELETE 0")}
		repo := repository.NewIdempotencyRepository(dbtx)

		assert.NoError(t, repo.Release(context.Background(), uuid.New()))
	})
}

func TestIdempotencyRepository_DeleteExpired(t *testing.T) {
	dbtx := &fakeDBTX{execTag: pgconn.NewCommandTag("DELETE 3")}
	repo := repository.NewIdempotencyRepository(dbtx)

	purged, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
}
