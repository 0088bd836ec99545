package shared

import (
	"context"
)

// UnitOfWork runs each allocation transition as a single transaction so that
// the copy ledger and the loan ledger always move together. Both ledgers live
// in one PostgreSQL database, so no cross-store intent log is needed.
type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Copies() CopyRepository
	Loans() LoanRepository
	Idempotency() IdempotencyTxRepository
	Audit() AuditRepository
}
