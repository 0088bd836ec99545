package queries

import (
	"context"
	"time"

	"circulation-core/internal/infra"
	"circulation-core/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrLoanNotFound     = errs.New("loan not found")
	ErrNoActiveLoan     = errs.New("no active loan for copy")
	ErrLoanQueryFailed  = errs.New("loan query failed")
	ErrAuditQueryFailed = errs.New("audit query failed")
)

// LoanView is the read-side projection of a loan. Read paths bypass the
// allocation engine and its locking entirely.
type LoanView struct {
	ID           uuid.UUID
	CopyID       uuid.UUID
	UserID       uuid.UUID
	Status       string
	CheckedOutAt time.Time
	DueAt        time.Time
	ReturnedAt   *time.Time
	RenewalCount int
}

type LoanReadStore interface {
	GetByID(ctx context.Context, loanID uuid.UUID) (*LoanView, error)
	FindActiveByCopy(ctx context.Context, copyID uuid.UUID) (*LoanView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*LoanView, error)
}

type LoanQueries interface {
	GetLoan(ctx context.Context, loanID uuid.UUID) (*LoanView, error)
	GetActiveLoanByCopy(ctx context.Context, copyID uuid.UUID) (*LoanView, error)
	ListUserLoans(ctx context.Context, userID uuid.UUID) ([]*LoanView, error)
}

type loanQueriesImpl struct {
	store LoanReadStore
}

func NewLoanQueries(store LoanReadStore) LoanQueries {
	return &loanQueriesImpl{store: store}
}

func (q *loanQueriesImpl) GetLoan(ctx context.Context, loanID uuid.UUID) (*LoanView, error) {
	view, err := q.store.GetByID(ctx, loanID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, errs.Mark(err, ErrLoanQueryFailed)
	}

	return view, nil
}

func (q *loanQueriesImpl) GetActiveLoanByCopy(ctx context.Context, copyID uuid.UUID) (*LoanView, error) {
	view, err := q.store.FindActiveByCopy(ctx, copyID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrNoActiveLoan
		}
		return nil, errs.Mark(err, ErrLoanQueryFailed)
	}

	return view, nil
}

func (q *loanQueriesImpl) ListUserLoans(ctx context.Context, userID uuid.UUID) ([]*LoanView, error) {
	views, err := q.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Mark(err, ErrLoanQueryFailed)
	}

	return views, nil
}
