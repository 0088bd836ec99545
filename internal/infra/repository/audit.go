package repository

import (
	"context"

	"circulation-core/internal/infra"
	"circulation-core/internal/infra/db"
	"circulation-core/internal/usecase/shared"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AuditRepository appends immutable transition facts. Rows are written inside
// the same transaction as the transition they describe, so a committed
// transition always has its audit entry.
type AuditRepository struct {
	db db.DBTX
}

func NewAuditRepository(dbtx db.DBTX) *AuditRepository {
	return &AuditRepository{db: dbtx}
}

const appendAuditSQL = `
INSERT INTO audit_events (id, entity_type, entity_id, from_state, to_state, actor, correlation_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`

func (r *AuditRepository) Append(ctx context.Context, event shared.AuditEvent) error {
	var payload []byte
	if event.Payload != nil {
		data, err := json.Marshal(event.Payload)
		if err != nil {
			return infra.WrapRepoErr("failed to marshal audit payload", err)
		}
		payload = data
	}

	_, err := r.db.Exec(ctx, appendAuditSQL,
		uuid.New(), event.EntityType, event.EntityID,
		event.FromState, event.ToState,
		event.Actor, event.CorrelationID, payload,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to append audit event", err)
	}

	return nil
}
