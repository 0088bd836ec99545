package readstore

import (
	"context"

	"circulation-core/internal/infra"
	"circulation-core/internal/infra/db"
	"circulation-core/internal/pkg/pgconv"
	"circulation-core/internal/usecase/queries"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditReadStore struct {
	db db.DBTX
}

func NewAuditReadStore(dbtx db.DBTX) *AuditReadStore {
	return &AuditReadStore{db: dbtx}
}

func (r *AuditReadStore) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*queries.AuditEventView, error) {
	sql, args, err := goqu.Dialect(dialectPostgres).
		From("audit_events").
		Select("id", "entity_type", "entity_id", "from_state", "to_state", "actor", "correlation_id", "occurred_at").
		Where(goqu.Ex{"entity_id": entityID}).
		Order(goqu.I("occurred_at").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build audit trail query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list audit trail", err)
	}
	defer rows.Close()

	var views []*queries.AuditEventView
	for rows.Next() {
		var (
			view       queries.AuditEventView
			occurredAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&view.ID, &view.EntityType, &view.EntityID,
			&view.FromState, &view.ToState,
			&view.Actor, &view.CorrelationID, &occurredAt,
		); scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan audit event", scanErr)
		}
		view.OccurredAt = pgconv.TimeFromPgtype(occurredAt)
		views = append(views, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate audit trail", err)
	}

	return views, nil
}
