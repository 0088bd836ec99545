package shared

import (
	"context"
	"time"

	"circulation-core/internal/domain/copy"
	"circulation-core/internal/domain/loan"

	"github.com/google/uuid"
)

// CopyRepository is the copy ledger. TryAllocate, Release and MarkLost are
// conditional transitions: a single check-and-set statement against the store,
// never a read followed by a write. A failed condition surfaces as KindConflict.
type CopyRepository interface {
	Get(ctx context.Context, copyID uuid.UUID) (*copy.Copy, error)
	TryAllocate(ctx context.Context, copyID, loanID uuid.UUID) error
	Release(ctx context.Context, copyID, expectedLoanID uuid.UUID) error
	MarkLost(ctx context.Context, copyID, expectedLoanID uuid.UUID) error
}

// LoanRepository is the loan ledger. CreateActive is backstopped by a partial
// unique index (one active loan per copy), independent of the copy ledger's
// check. The mutating calls are conditional on the loan still being active.
type LoanRepository interface {
	CreateActive(ctx context.Context, l *loan.Loan) error
	Get(ctx context.Context, loanID uuid.UUID) (*loan.Loan, error)
	FindActiveByCopy(ctx context.Context, copyID uuid.UUID) (*loan.Loan, error)
	CompleteReturn(ctx context.Context, loanID uuid.UUID, returnedAt time.Time) error
	Renew(ctx context.Context, loanID uuid.UUID, newDueAt time.Time, expectedRenewals int) error
	MarkLost(ctx context.Context, loanID uuid.UUID) error
}

// IdempotencyTxRepository finalizes a dedup record inside the same transaction
// as the ledger mutations, so a completed marker exists iff the transition
// committed.
type IdempotencyTxRepository interface {
	Complete(ctx context.Context, key uuid.UUID, resultLoanID uuid.UUID) error
}

// AuditRepository appends one immutable event per committed transition.
type AuditRepository interface {
	Append(ctx context.Context, event AuditEvent) error
}

type AuditEvent struct {
	EntityType    string
	EntityID      uuid.UUID
	FromState     string
	ToState       string
	Actor         uuid.UUID
	CorrelationID uuid.UUID
	Payload       any
}

const (
	AuditEntityCopy = "copy"
	AuditEntityLoan = "loan"
)

// IdempotencyRecord is the write-side snapshot of a dedup marker.
type IdempotencyRecord struct {
	Key          uuid.UUID
	UserID       uuid.UUID
	Operation    string
	RequestHash  string
	Status       string
	ResultLoanID *uuid.UUID
	ExpiresAt    time.Time
}

const (
	IdempotencyStatusProcessing = "processing"
	IdempotencyStatusCompleted  = "completed"
)
