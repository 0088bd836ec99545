package commands

import (
	"context"
	"errors"

	"circulation-core/internal/domain/copy"
	"circulation-core/internal/domain/loan"
	"circulation-core/internal/infra"
	"circulation-core/internal/pkg/clock"
	"circulation-core/internal/pkg/config"
	"circulation-core/internal/pkg/errs"
	"circulation-core/internal/usecase/queries"
	"circulation-core/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrCopyNotFound            = errs.New("copy not found")
	ErrLoanNotFound            = errs.New("loan not found")
	ErrCopyUnavailable         = errs.New("copy is not available for checkout")
	ErrNoActiveLoan            = errs.New("no active loan for copy")
	ErrMemberIneligible        = errs.New("member is not eligible to check out")
	ErrNotLoanOwner            = errs.New("caller does not own this loan")
	ErrLoanNotActive           = errs.New("loan is not active")
	ErrRenewalLimitReached     = errs.New("renewal limit reached")
	ErrKeyReuseMismatch        = errs.New("idempotency key reused with a different request")
	ErrOperationTimeout        = errs.New("operation timed out")
	ErrIdempotencyCheckFailed  = errs.New("idempotency check failed")
	ErrEligibilityCheckFailed  = errs.New("eligibility check failed")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

const (
	opCheckout   = "checkout"
	opReturn     = "return"
	opRenew      = "renew"
	opReportLost = "report_lost"
)

// CheckoutResult carries the created (or replayed) loan. BookID is a
// best-effort enrichment from the catalog collaborator; nil when the catalog
// is unreachable.
type CheckoutResult struct {
	Loan       *queries.LoanView
	BookID     *uuid.UUID
	IsReplayed bool
}

type CirculationResult struct {
	Loan       *queries.LoanView
	IsReplayed bool
}

// CirculationCommands is the allocation engine: every loan-state transition
// in the system enters through one of these four operations, each gated by an
// idempotency key supplied by the caller.
type CirculationCommands interface {
	Checkout(ctx context.Context, key uuid.UUID, actor Actor, copyID uuid.UUID) (*CheckoutResult, error)
	ReturnCopy(ctx context.Context, key uuid.UUID, actor Actor, copyID uuid.UUID) (*CirculationResult, error)
	Renew(ctx context.Context, key uuid.UUID, actor Actor, loanID uuid.UUID) (*CirculationResult, error)
	ReportLost(ctx context.Context, key uuid.UUID, actor Actor, copyID uuid.UUID) (*CirculationResult, error)
	PurgeExpiredKeys(ctx context.Context) (int64, error)
}

type circulationCommandsImpl struct {
	uow         shared.UnitOfWork
	coordinator *idempotencyCoordinator
	membership  MembershipGateway
	catalog     CatalogGateway
	loanQueries queries.LoanQueries
	clock       clock.Clock
	policy      loan.Policy
}

func NewCirculationCommands(
	uow shared.UnitOfWork,
	idemRepo IdempotencyRepository,
	membership MembershipGateway,
	catalog CatalogGateway,
	loanQueries queries.LoanQueries,
	clk clock.Clock,
	cfg config.CirculationConfig,
) (CirculationCommands, error) {
	policy, err := loan.NewPolicy(cfg.LoanPeriodDays, cfg.RenewalExtensionDays, cfg.RenewalLimit)
	if err != nil {
		return nil, errs.Wrap(err, "invalid circulation policy")
	}

	return &circulationCommandsImpl{
		uow:         uow,
		coordinator: newIdempotencyCoordinator(idemRepo, clk, cfg),
		membership:  membership,
		catalog:     catalog,
		loanQueries: loanQueries,
		clock:       clk,
		policy:      policy,
	}, nil
}

func (c *circulationCommandsImpl) Checkout(ctx context.Context, key uuid.UUID, actor Actor, copyID uuid.UUID) (*CheckoutResult, error) {
	outcome, err := c.coordinator.begin(ctx, key, actor, opCheckout, operationFingerprint(opCheckout, copyID, actor.UserID))
	if err != nil {
		return nil, err
	}
	if !outcome.claimed {
		view, err := c.loanQueries.GetLoan(ctx, outcome.resultLoanID)
		if err != nil {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return &CheckoutResult{Loan: view, BookID: c.lookupBookID(ctx, copyID), IsReplayed: true}, nil
	}

	eligibility, err := c.membership.IsEligible(ctx, actor.UserID)
	if err != nil {
		return nil, c.fail(ctx, key, errs.Mark(err, ErrEligibilityCheckFailed))
	}
	if !eligibility.OK() {
		return nil, c.fail(ctx, key, ErrMemberIneligible)
	}

	// Cheap pre-check against the catalog. The local ledger stays
	// authoritative: a catalog outage does not block circulation.
	if known, err := c.catalog.CopyExists(ctx, copyID); err == nil && !known {
		return nil, c.fail(ctx, key, ErrCopyNotFound)
	}

	var loanID uuid.UUID
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		cp, err := tx.Copies().Get(ctx, copyID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrCopyNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		// Fast path: the conditional allocate below is authoritative, this
		// just avoids an insert destined to conflict.
		if !cp.IsAvailable() {
			return ErrCopyUnavailable
		}

		newLoan := loan.NewLoan(&loan.Services{Clock: c.clock, Policy: c.policy}, copyID, actor.UserID)
		loanID = newLoan.ID()

		if err := tx.Loans().CreateActive(ctx, newLoan); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrCopyUnavailable
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := tx.Copies().TryAllocate(ctx, copyID, loanID); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrCopyUnavailable
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := c.appendAudits(ctx, tx, key, actor,
			shared.AuditEvent{
				EntityType: shared.AuditEntityCopy,
				EntityID:   copyID,
				FromState:  string(copy.StatusAvailable),
				ToState:    string(copy.StatusLoaned),
				Payload:    map[string]any{"loan_id": loanID},
			},
			shared.AuditEvent{
				EntityType: shared.AuditEntityLoan,
				EntityID:   loanID,
				FromState:  "",
				ToState:    string(loan.StatusActive),
				Payload:    map[string]any{"copy_id": copyID, "due_at": newLoan.DueAt()},
			},
		); err != nil {
			return err
		}

		return c.complete(ctx, tx, key, loanID)
	})
	if err != nil {
		return nil, c.fail(ctx, key, err)
	}

	view, err := c.loanQueries.GetLoan(ctx, loanID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return &CheckoutResult{Loan: view, BookID: c.lookupBookID(ctx, copyID)}, nil
}

func (c *circulationCommandsImpl) ReturnCopy(ctx context.Context, key uuid.UUID, actor Actor, copyID uuid.UUID) (*CirculationResult, error) {
	outcome, err := c.coordinator.begin(ctx, key, actor, opReturn, operationFingerprint(opReturn, copyID, actor.UserID))
	if err != nil {
		return nil, err
	}
	if !outcome.claimed {
		return c.replayedResult(ctx, outcome.resultLoanID)
	}

	var loanID uuid.UUID
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := tx.Copies().Get(ctx, copyID); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrCopyNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		active, err := c.findActiveLoan(ctx, tx, copyID)
		if err != nil {
			return err
		}
		if !active.OwnedBy(actor.UserID) && !actor.IsAdmin() {
			return ErrNotLoanOwner
		}
		loanID = active.ID()

		returnedAt := c.clock.Now()
		if err := active.CompleteReturn(returnedAt); err != nil {
			return ErrLoanNotActive
		}
		if err := tx.Loans().CompleteReturn(ctx, loanID, returnedAt); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrNoActiveLoan
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := tx.Copies().Release(ctx, copyID, loanID); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrNoActiveLoan
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := c.appendAudits(ctx, tx, key, actor,
			shared.AuditEvent{
				EntityType: shared.AuditEntityLoan,
				EntityID:   loanID,
				FromState:  string(loan.StatusActive),
				ToState:    string(loan.StatusReturned),
				Payload:    map[string]any{"copy_id": copyID, "returned_at": returnedAt},
			},
			shared.AuditEvent{
				EntityType: shared.AuditEntityCopy,
				EntityID:   copyID,
				FromState:  string(copy.StatusLoaned),
				ToState:    string(copy.StatusAvailable),
				Payload:    map[string]any{"loan_id": loanID},
			},
		); err != nil {
			return err
		}

		return c.complete(ctx, tx, key, loanID)
	})
	if err != nil {
		return nil, c.fail(ctx, key, err)
	}

	return c.freshResult(ctx, loanID)
}

func (c *circulationCommandsImpl) Renew(ctx context.Context, key uuid.UUID, actor Actor, loanID uuid.UUID) (*CirculationResult, error) {
	outcome, err := c.coordinator.begin(ctx, key, actor, opRenew, operationFingerprint(opRenew, loanID, actor.UserID))
	if err != nil {
		return nil, err
	}
	if !outcome.claimed {
		return c.replayedResult(ctx, outcome.resultLoanID)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		l, err := tx.Loans().Get(ctx, loanID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrLoanNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if !l.OwnedBy(actor.UserID) && !actor.IsAdmin() {
			return ErrNotLoanOwner
		}

		if err := l.Renew(c.policy); err != nil {
			switch {
			case errors.Is(err, loan.ErrRenewalLimitReached):
				return ErrRenewalLimitReached
			case errors.Is(err, loan.ErrNotActive):
				return ErrLoanNotActive
			default:
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}

		// Conditioned on the renewal count observed before the extension, so a
		// racing renew on the same loan loses here.
		if err := tx.Loans().Renew(ctx, loanID, l.DueAt(), l.RenewalCount()-1); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrLoanNotActive
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := c.appendAudits(ctx, tx, key, actor,
			shared.AuditEvent{
				EntityType: shared.AuditEntityLoan,
				EntityID:   loanID,
				FromState:  string(loan.StatusActive),
				ToState:    string(loan.StatusActive),
				Payload:    map[string]any{"renewal_count": l.RenewalCount(), "due_at": l.DueAt()},
			},
		); err != nil {
			return err
		}

		return c.complete(ctx, tx, key, loanID)
	})
	if err != nil {
		return nil, c.fail(ctx, key, err)
	}

	return c.freshResult(ctx, loanID)
}

func (c *circulationCommandsImpl) ReportLost(ctx context.Context, key uuid.UUID, actor Actor, copyID uuid.UUID) (*CirculationResult, error) {
	outcome, err := c.coordinator.begin(ctx, key, actor, opReportLost, operationFingerprint(opReportLost, copyID, actor.UserID))
	if err != nil {
		return nil, err
	}
	if !outcome.claimed {
		return c.replayedResult(ctx, outcome.resultLoanID)
	}

	var loanID uuid.UUID
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := tx.Copies().Get(ctx, copyID); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrCopyNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		active, err := c.findActiveLoan(ctx, tx, copyID)
		if err != nil {
			return err
		}
		if !active.OwnedBy(actor.UserID) && !actor.IsAdmin() {
			return ErrNotLoanOwner
		}
		loanID = active.ID()

		if err := active.MarkLost(); err != nil {
			return ErrLoanNotActive
		}
		if err := tx.Loans().MarkLost(ctx, loanID); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrNoActiveLoan
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := tx.Copies().MarkLost(ctx, copyID, loanID); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrNoActiveLoan
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := c.appendAudits(ctx, tx, key, actor,
			shared.AuditEvent{
				EntityType: shared.AuditEntityLoan,
				EntityID:   loanID,
				FromState:  string(loan.StatusActive),
				ToState:    string(loan.StatusLost),
				Payload:    map[string]any{"copy_id": copyID},
			},
			shared.AuditEvent{
				EntityType: shared.AuditEntityCopy,
				EntityID:   copyID,
				FromState:  string(copy.StatusLoaned),
				ToState:    string(copy.StatusLost),
				Payload:    map[string]any{"loan_id": loanID},
			},
		); err != nil {
			return err
		}

		return c.complete(ctx, tx, key, loanID)
	})
	if err != nil {
		return nil, c.fail(ctx, key, err)
	}

	return c.freshResult(ctx, loanID)
}

func (c *circulationCommandsImpl) PurgeExpiredKeys(ctx context.Context) (int64, error) {
	return c.coordinator.purgeExpired(ctx)
}

func (c *circulationCommandsImpl) findActiveLoan(ctx context.Context, tx shared.Tx, copyID uuid.UUID) (*loan.Loan, error) {
	active, err := tx.Loans().FindActiveByCopy(ctx, copyID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrNoActiveLoan
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return active, nil
}

func (c *circulationCommandsImpl) appendAudits(ctx context.Context, tx shared.Tx, key uuid.UUID, actor Actor, events ...shared.AuditEvent) error {
	for _, ev := range events {
		ev.Actor = actor.UserID
		ev.CorrelationID = key
		if err := tx.Audit().Append(ctx, ev); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}
	return nil
}

// complete flips the dedup marker inside the business transaction, so a
// completed record exists iff the transition committed.
func (c *circulationCommandsImpl) complete(ctx context.Context, tx shared.Tx, key, loanID uuid.UUID) error {
	if err := tx.Idempotency().Complete(ctx, key, loanID); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

func (c *circulationCommandsImpl) replayedResult(ctx context.Context, loanID uuid.UUID) (*CirculationResult, error) {
	view, err := c.loanQueries.GetLoan(ctx, loanID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return &CirculationResult{Loan: view, IsReplayed: true}, nil
}

func (c *circulationCommandsImpl) freshResult(ctx context.Context, loanID uuid.UUID) (*CirculationResult, error) {
	view, err := c.loanQueries.GetLoan(ctx, loanID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return &CirculationResult{Loan: view}, nil
}

func (c *circulationCommandsImpl) lookupBookID(ctx context.Context, copyID uuid.UUID) *uuid.UUID {
	bookID, err := c.catalog.BookOf(ctx, copyID)
	if err != nil || bookID == uuid.Nil {
		return nil
	}
	return &bookID
}

// fail releases the idempotency claim so the caller can retry the same key
// without waiting out the retention window.
func (c *circulationCommandsImpl) fail(ctx context.Context, key uuid.UUID, err error) error {
	c.coordinator.abandon(ctx, key)
	return translateTimeout(err)
}

func translateTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrOperationTimeout
	}
	return err
}
