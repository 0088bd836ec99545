package repository

import (
	"context"
	"errors"
	"time"

	"circulation-core/internal/domain/loan"
	"circulation-core/internal/infra"
	"circulation-core/internal/infra/db"
	"circulation-core/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const pgErrCodeUniqueViolation = "23505"

// LoanRepository is the loan ledger. A partial unique index
// (loans_one_active_per_copy) rejects a second active loan for the same copy
// even if the copy ledger's check were bypassed.
type LoanRepository struct {
	db db.DBTX
}

func NewLoanRepository(dbtx db.DBTX) *LoanRepository {
	return &LoanRepository{db: dbtx}
}

const createLoanSQL = `
INSERT INTO loans (id, copy_id, user_id, status, checked_out_at, due_at, returned_at, renewal_count)
VALUES ($1, $2, $3, $4, $5, $6, NULL, $7)`

func (r *LoanRepository) CreateActive(ctx context.Context, l *loan.Loan) error {
	_, err := r.db.Exec(ctx, createLoanSQL,
		l.ID(), l.CopyID(), l.UserID(), l.Status().String(),
		l.CheckedOutAt(), l.DueAt(), l.RenewalCount(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
			return infra.WrapRepoErr("active loan already exists for copy", err, infra.KindConflict)
		}
		return infra.WrapRepoErr("failed to create loan", err)
	}

	return nil
}

const getLoanSQL = `
SELECT id, copy_id, user_id, status, checked_out_at, due_at, returned_at, renewal_count
FROM loans
WHERE id = $1`

func (r *LoanRepository) Get(ctx context.Context, loanID uuid.UUID) (*loan.Loan, error) {
	return r.scanLoan(r.db.QueryRow(ctx, getLoanSQL, loanID), "loan not found")
}

const findActiveLoanByCopySQL = `
SELECT id, copy_id, user_id, status, checked_out_at, due_at, returned_at, renewal_count
FROM loans
WHERE copy_id = $1 AND status = $2`

func (r *LoanRepository) FindActiveByCopy(ctx context.Context, copyID uuid.UUID) (*loan.Loan, error) {
	row := r.db.QueryRow(ctx, findActiveLoanByCopySQL, copyID, loan.StatusActive.String())
	return r.scanLoan(row, "no active loan for copy")
}

const completeReturnSQL = `
UPDATE loans
SET status = $3, returned_at = $2
WHERE id = $1 AND status = $4`

func (r *LoanRepository) CompleteReturn(ctx context.Context, loanID uuid.UUID, returnedAt time.Time) error {
	tag, err := r.db.Exec(ctx, completeReturnSQL, loanID, returnedAt, loan.StatusReturned.String(), loan.StatusActive.String())
	if err != nil {
		return infra.WrapRepoErr("failed to complete return", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("loan is not active", nil, infra.KindConflict)
	}

	return nil
}

const renewLoanSQL = `
UPDATE loans
SET due_at = $2, renewal_count = renewal_count + 1
WHERE id = $1 AND status = $3 AND renewal_count = $4`

// Renew is conditional on the renewal count observed when the new due date was
// computed, so two racing renewals of one loan cannot both extend it.
func (r *LoanRepository) Renew(ctx context.Context, loanID uuid.UUID, newDueAt time.Time, expectedRenewals int) error {
	tag, err := r.db.Exec(ctx, renewLoanSQL, loanID, newDueAt, loan.StatusActive.String(), expectedRenewals)
	if err != nil {
		return infra.WrapRepoErr("failed to renew loan", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("loan is not active or was renewed concurrently", nil, infra.KindConflict)
	}

	return nil
}

const markLoanLostSQL = `
UPDATE loans
SET status = $2
WHERE id = $1 AND status = $3`

func (r *LoanRepository) MarkLost(ctx context.Context, loanID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, markLoanLostSQL, loanID, loan.StatusLost.String(), loan.StatusActive.String())
	if err != nil {
		return infra.WrapRepoErr("failed to mark loan lost", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("loan is not active", nil, infra.KindConflict)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LoanRepository) scanLoan(row rowScanner, notFoundMsg string) (*loan.Loan, error) {
	var (
		id           uuid.UUID
		copyID       uuid.UUID
		userID       uuid.UUID
		status       string
		checkedOutAt pgtype.Timestamptz
		dueAt        pgtype.Timestamptz
		returnedAt   pgtype.Timestamptz
		renewalCount int
	)

	err := row.Scan(&id, &copyID, &userID, &status, &checkedOutAt, &dueAt, &returnedAt, &renewalCount)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(notFoundMsg, err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan loan", err)
	}

	entity, err := loan.Reconstruct(
		id, copyID, userID,
		loan.Status(status),
		pgconv.TimeFromPgtype(checkedOutAt),
		pgconv.TimeFromPgtype(dueAt),
		pgconv.TimePtrFromPgtype(returnedAt),
		renewalCount,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("loan row violates ledger invariant", err)
	}

	return entity, nil
}
