package commands

import (
	"context"
	"time"

	"circulation-core/internal/usecase/shared"

	"github.com/google/uuid"
)

// Role comes from the identity collaborator via the auth middleware.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleAdmin
}

// Actor is the authenticated caller of a circulation operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Eligibility is the user collaborator's answer on whether a member may
// check out another copy.
type Eligibility struct {
	Active         bool
	UnderLoanLimit bool
}

func (e Eligibility) OK() bool {
	return e.Active && e.UnderLoanLimit
}

type MembershipGateway interface {
	IsEligible(ctx context.Context, userID uuid.UUID) (Eligibility, error)
}

type CatalogGateway interface {
	CopyExists(ctx context.Context, copyID uuid.UUID) (bool, error)
	BookOf(ctx context.Context, copyID uuid.UUID) (uuid.UUID, error)
}

// IdempotencyRepository is the pool-level dedup store used before a
// transaction is opened. The transactional Complete lives on shared.Tx.
type IdempotencyRepository interface {
	Begin(ctx context.Context, key, userID uuid.UUID, operation, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key uuid.UUID) (*shared.IdempotencyRecord, error)
	Release(ctx context.Context, key uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}
