package queries

import (
	"context"
	"time"

	"circulation-core/internal/pkg/errs"

	"github.com/google/uuid"
)

// AuditEventView is one immutable transition fact, exposed for reconciliation.
type AuditEventView struct {
	ID            uuid.UUID
	EntityType    string
	EntityID      uuid.UUID
	FromState     string
	ToState       string
	Actor         uuid.UUID
	CorrelationID uuid.UUID
	OccurredAt    time.Time
}

type AuditReadStore interface {
	ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*AuditEventView, error)
}

type AuditQueries interface {
	ListEntityTrail(ctx context.Context, entityID uuid.UUID) ([]*AuditEventView, error)
}

type auditQueriesImpl struct {
	store AuditReadStore
}

func NewAuditQueries(store AuditReadStore) AuditQueries {
	return &auditQueriesImpl{store: store}
}

func (q *auditQueriesImpl) ListEntityTrail(ctx context.Context, entityID uuid.UUID) ([]*AuditEventView, error) {
	events, err := q.store.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, errs.Mark(err, ErrAuditQueryFailed)
	}

	return events, nil
}
