package repository

import (
	"context"
	"time"

	"circulation-core/internal/infra"
	"circulation-core/internal/infra/db"
	"circulation-core/internal/pkg/pgconv"
	"circulation-core/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// IdempotencyRepository stores the dedup markers. Begin uses
// INSERT ... ON CONFLICT DO NOTHING RETURNING so the caller learns whether it
// claimed the key; only the claimer executes business logic. Complete runs in
// the same transaction as the ledger mutations.
type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(dbtx db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: dbtx}
}

const beginIdempotencySQL = `
INSERT INTO idempotency_keys (key, user_id, operation, request_hash, status, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, now(), $6)
ON CONFLICT (key) DO NOTHING
RETURNING key`

// Begin reports whether this call claimed the key. false means a record for
// the key already exists and the caller must consult Get.
func (r *IdempotencyRepository) Begin(ctx context.Context, key, userID uuid.UUID, operation, requestHash string, expiresAt time.Time) (bool, error) {
	var claimed uuid.UUID
	err := r.db.QueryRow(ctx, beginIdempotencySQL,
		key, userID, operation, requestHash, shared.IdempotencyStatusProcessing, expiresAt,
	).Scan(&claimed)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return false, nil
		}
		return false, infra.WrapRepoErr("failed to begin idempotency record", err)
	}

	return true, nil
}

const getIdempotencySQL = `
SELECT key, user_id, operation, request_hash, status, result_loan_id, expires_at
FROM idempotency_keys
WHERE key = $1`

func (r *IdempotencyRepository) Get(ctx context.Context, key uuid.UUID) (*shared.IdempotencyRecord, error) {
	var (
		record       shared.IdempotencyRecord
		resultLoanID pgtype.UUID
		expiresAt    pgtype.Timestamptz
	)

	err := r.db.QueryRow(ctx, getIdempotencySQL, key).Scan(
		&record.Key, &record.UserID, &record.Operation, &record.RequestHash,
		&record.Status, &resultLoanID, &expiresAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency record", err)
	}

	record.ResultLoanID = pgconv.UUIDPtrFromPgtype(resultLoanID)
	record.ExpiresAt = pgconv.TimeFromPgtype(expiresAt)

	return &record, nil
}

const completeIdempotencySQL = `
UPDATE idempotency_keys
SET status = $3, result_loan_id = $2
WHERE key = $1 AND status = $4`

func (r *IdempotencyRepository) Complete(ctx context.Context, key uuid.UUID, resultLoanID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, completeIdempotencySQL,
		key, resultLoanID, shared.IdempotencyStatusCompleted, shared.IdempotencyStatusProcessing,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency record", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency record is not processing", nil, infra.KindConflict)
	}

	return nil
}

const releaseIdempotencySQL = `
DELETE FROM idempotency_keys
WHERE key = $1 AND status = $2`

// Release drops a processing marker after its operation failed, freeing the
// key for a clean retry. Completed records are never released.
func (r *IdempotencyRepository) Release(ctx context.Context, key uuid.UUID) error {
	_, err := r.db.Exec(ctx, releaseIdempotencySQL, key, shared.IdempotencyStatusProcessing)
	if err != nil {
		return infra.WrapRepoErr("failed to release idempotency record", err)
	}

	return nil
}

const deleteExpiredIdempotencySQL = `
DELETE FROM idempotency_keys
WHERE expires_at < now()`

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredIdempotencySQL)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency records", err)
	}

	return tag.RowsAffected(), nil
}
