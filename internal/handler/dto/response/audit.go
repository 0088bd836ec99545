package response

import (
	"time"

	"circulation-core/internal/usecase/queries"

	"github.com/google/uuid"
)

type AuditEventResponse struct {
	ID            uuid.UUID `json:"id"`
	EntityType    string    `json:"entityType"`
	EntityID      uuid.UUID `json:"entityId"`
	FromState     string    `json:"fromState"`
	ToState       string    `json:"toState"`
	Actor         uuid.UUID `json:"actor"`
	CorrelationID uuid.UUID `json:"correlationId"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func FromAuditEventView(rm *queries.AuditEventView) *AuditEventResponse {
	return &AuditEventResponse{
		ID:            rm.ID,
		EntityType:    rm.EntityType,
		EntityID:      rm.EntityID,
		FromState:     rm.FromState,
		ToState:       rm.ToState,
		Actor:         rm.Actor,
		CorrelationID: rm.CorrelationID,
		OccurredAt:    rm.OccurredAt,
	}
}
