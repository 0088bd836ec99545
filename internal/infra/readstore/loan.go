package readstore

import (
	"context"

	"circulation-core/internal/infra"
	"circulation-core/internal/infra/db"
	"circulation-core/internal/pkg/pgconv"
	"circulation-core/internal/usecase/queries"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // register postgres dialect
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const dialectPostgres = "postgres"

var loanColumns = []any{
	"id", "copy_id", "user_id", "status",
	"checked_out_at", "due_at", "returned_at", "renewal_count",
}

type LoanReadStore struct {
	db db.DBTX
}

func NewLoanReadStore(dbtx db.DBTX) *LoanReadStore {
	return &LoanReadStore{db: dbtx}
}

func (r *LoanReadStore) GetByID(ctx context.Context, loanID uuid.UUID) (*queries.LoanView, error) {
	sql, args, err := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(loanColumns...).
		Where(goqu.Ex{"id": loanID}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build loan query", err)
	}

	return r.queryOne(ctx, sql, args, "loan not found")
}

func (r *LoanReadStore) FindActiveByCopy(ctx context.Context, copyID uuid.UUID) (*queries.LoanView, error) {
	sql, args, err := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(loanColumns...).
		Where(goqu.Ex{"copy_id": copyID, "status": "active"}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build active loan query", err)
	}

	return r.queryOne(ctx, sql, args, "no active loan for copy")
}

func (r *LoanReadStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*queries.LoanView, error) {
	sql, args, err := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(loanColumns...).
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("checked_out_at").Desc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build user loans query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list user loans", err)
	}
	defer rows.Close()

	var views []*queries.LoanView
	for rows.Next() {
		view, scanErr := scanLoanView(rows)
		if scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan loan view", scanErr)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate user loans", err)
	}

	return views, nil
}

func (r *LoanReadStore) queryOne(ctx context.Context, sql string, args []any, notFoundMsg string) (*queries.LoanView, error) {
	view, err := scanLoanView(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(notFoundMsg, err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan loan view", err)
	}

	return view, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoanView(row rowScanner) (*queries.LoanView, error) {
	var (
		view         queries.LoanView
		checkedOutAt pgtype.Timestamptz
		dueAt        pgtype.Timestamptz
		returnedAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&view.ID, &view.CopyID, &view.UserID, &view.Status,
		&checkedOutAt, &dueAt, &returnedAt, &view.RenewalCount,
	)
	if err != nil {
		return nil, err
	}

	view.CheckedOutAt = pgconv.TimeFromPgtype(checkedOutAt)
	view.DueAt = pgconv.TimeFromPgtype(dueAt)
	view.ReturnedAt = pgconv.TimePtrFromPgtype(returnedAt)

	return &view, nil
}
