package components

import (
	"circulation-core/internal/infra/db"
	"circulation-core/internal/infra/readstore"
	"circulation-core/internal/infra/repository"
	"circulation-core/internal/infra/uow"
	"circulation-core/internal/usecase/commands"
	"circulation-core/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		// UnitOfWork: transactional write side, repositories are tx-scoped
		uow.NewPostgresUoW,
		// Idempotency markers are claimed outside the business transaction
		fx.Annotate(
			repository.NewIdempotencyRepository,
			fx.As(new(commands.IdempotencyRepository)),
		),
		// Read stores bypass the unit of work entirely
		fx.Annotate(
			readstore.NewLoanReadStore,
			fx.As(new(queries.LoanReadStore)),
		),
		fx.Annotate(
			readstore.NewAuditReadStore,
			fx.As(new(queries.AuditReadStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
