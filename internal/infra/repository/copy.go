package repository

import (
	"context"

	"circulation-core/internal/domain/copy"
	"circulation-core/internal/infra"
	"circulation-core/internal/infra/db"
	"circulation-core/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// CopyRepository is the copy ledger. The three mutations are single
// conditional UPDATE statements: the WHERE clause carries the precondition,
// so the check and the write are one atomic step at the storage layer.
type CopyRepository struct {
	db db.DBTX
}

func NewCopyRepository(dbtx db.DBTX) *CopyRepository {
	return &CopyRepository{db: dbtx}
}

const getCopySQL = `
SELECT id, book_id, status, current_loan_id, updated_at
FROM copies
WHERE id = $1`

func (r *CopyRepository) Get(ctx context.Context, copyID uuid.UUID) (*copy.Copy, error) {
	var (
		id            uuid.UUID
		bookID        uuid.UUID
		status        string
		currentLoanID pgtype.UUID
		updatedAt     pgtype.Timestamptz
	)

	err := r.db.QueryRow(ctx, getCopySQL, copyID).Scan(&id, &bookID, &status, &currentLoanID, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("copy not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get copy", err)
	}

	entity, err := copy.Reconstruct(id, bookID, copy.Status(status), pgconv.UUIDPtrFromPgtype(currentLoanID), pgconv.TimeFromPgtype(updatedAt))
	if err != nil {
		return nil, infra.WrapRepoErr("copy row violates ledger invariant", err)
	}

	return entity, nil
}

const tryAllocateSQL = `
UPDATE copies
SET status = $3, current_loan_id = $2, updated_at = now()
WHERE id = $1 AND status = $4`

func (r *CopyRepository) TryAllocate(ctx context.Context, copyID, loanID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, tryAllocateSQL, copyID, loanID, copy.StatusLoaned.String(), copy.StatusAvailable.String())
	if err != nil {
		return infra.WrapRepoErr("failed to allocate copy", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("copy is not available", nil, infra.KindConflict)
	}

	return nil
}

const releaseCopySQL = `
UPDATE copies
SET status = $3, current_loan_id = NULL, updated_at = now()
WHERE id = $1 AND status = $4 AND current_loan_id = $2`

func (r *CopyRepository) Release(ctx context.Context, copyID, expectedLoanID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, releaseCopySQL, copyID, expectedLoanID, copy.StatusAvailable.String(), copy.StatusLoaned.String())
	if err != nil {
		return infra.WrapRepoErr("failed to release copy", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("copy is not held by this loan", nil, infra.KindConflict)
	}

	return nil
}

const markCopyLostSQL = `
UPDATE copies
SET status = $3, current_loan_id = NULL, updated_at = now()
WHERE id = $1 AND status = $4 AND current_loan_id = $2`

func (r *CopyRepository) MarkLost(ctx context.Context, copyID, expectedLoanID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, markCopyLostSQL, copyID, expectedLoanID, copy.StatusLost.String(), copy.StatusLoaned.String())
	if err != nil {
		return infra.WrapRepoErr("failed to mark copy lost", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("copy is not held by this loan", nil, infra.KindConflict)
	}

	return nil
}
