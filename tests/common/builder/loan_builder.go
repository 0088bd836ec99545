//go:build unit || e2e

package builder

import (
	"time"

	domloan "circulation-core/internal/domain/loan"
	"circulation-core/internal/usecase/queries"

	"github.com/google/uuid"
)

type LoanBuilder struct {
	ID           uuid.UUID
	CopyID       uuid.UUID
	UserID       uuid.UUID
	Status       domloan.Status
	CheckedOutAt time.Time
	DueAt        time.Time
	ReturnedAt   *time.Time
	RenewalCount int
}

func NewLoanBuilder() *LoanBuilder {
	now := time.Now()
	return &LoanBuilder{
		ID:           uuid.New(),
		CopyID:       uuid.New(),
		UserID:       uuid.New(),
		Status:       domloan.StatusActive,
		CheckedOutAt: now,
		DueAt:        now.Add(14 * 24 * time.Hour),
		RenewalCount: 0,
	}
}

func (b *LoanBuilder) With(mutate func(*LoanBuilder)) *LoanBuilder {
	mutate(b)
	return b
}

func (b *LoanBuilder) BuildDomain() (*domloan.Loan, error) {
	return domloan.Reconstruct(
		b.ID, b.CopyID, b.UserID,
		b.Status,
		b.CheckedOutAt, b.DueAt,
		b.ReturnedAt,
		b.RenewalCount,
	)
}

func (b *LoanBuilder) BuildView() *queries.LoanView {
	return &queries.LoanView{
		ID:           b.ID,
		CopyID:       b.CopyID,
		UserID:       b.UserID,
		Status:       b.Status.String(),
		CheckedOutAt: b.CheckedOutAt,
		DueAt:        b.DueAt,
		ReturnedAt:   b.ReturnedAt,
		RenewalCount: b.RenewalCount,
	}
}
