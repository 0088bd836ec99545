//go:build unit

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"circulation-core/internal/infra"
	"circulation-core/internal/infra/repository"
	"circulation-core/tests/common/builder"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanRepository_CreateActive(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name       string
		execErr    error
		expectErr  bool
		expectKind infra.RepositoryErrorKind
	}{
		{
			name: "success: loan created",
		},
		{
			// The partial unique index rejects a second active loan for the copy.
			name:       "conflict: unique violation",
			execErr:    &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"loans_one_active_per_copy\""},
			expectErr:  true,
			expectKind: infra.KindConflict,
		},
		{
			name:       "error: database failure",
			execErr:    errors.New("connection reset"),
			expectErr:  true,
			expectKind: infra.KindDBFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := builder.NewLoanBuilder().BuildDomain()
			require.NoError(t, err)

			dbtx := &fakeDBTX{execTag: pgconn.NewCommandTag("INSERT 0 1"), execErr: tc.execErr}
			repo := repository.NewLoanRepository(dbtx)

			err = repo.CreateActive(ctx, l)
			if !tc.expectErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, infra.IsKind(err, tc.expectKind))
		})
	}
}

func TestLoanRepository_ConditionalUpdates(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name string
		call func(*repository.LoanRepository) error
	}{
		{
			name: "complete return",
			call: func(r *repository.LoanRepository) error {
				return r.CompleteReturn(ctx, uuid.New(), time.Now())
			},
		},
		{
			name: "renew",
			call: func(r *repository.LoanRepository) error {
				return r.Renew(ctx, uuid.New(), time.Now(), 0)
			},
		},
		{
			name: "mark lost",
			call: func(r *repository.LoanRepository) error {
				return r.MarkLost(ctx, uuid.New())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name+": zero rows is a conflict", func(t *testing.T) {
			dbtx := &fakeDBTX{execTag: pgconn.NewCommandTag("UPDATE 0")}
			err := tc.call(repository.NewLoanRepository(dbtx))
			require.Error(t, err)
			assert.True(t, infra.IsKind(err, infra.KindConflict))
		})

		t.Run(tc.name+": one row succeeds", func(t *testing.T) {
			dbtx := &fakeDBTX{execTag: pgconn.NewCommandTag("UPDATE 1")}
			assert.NoError(t, tc.call(repository.NewLoanRepository(dbtx)))
		})
	}
}

func TestLoanRepository_Get_NotFound(t *testing.T) {
	dbtx := &fakeDBTX{row: fakeRow{err: pgx.ErrNoRows}}
	repo := repository.NewLoanRepository(dbtx)

	_, err := repo.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, infra.IsKind(err, infra.KindNotFound))

	_, err = repo.FindActiveByCopy(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}
