//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"circulation-core/internal/domain/copy"
	"circulation-core/internal/domain/loan"
	"circulation-core/internal/infra"
	"circulation-core/internal/pkg/clock"
	"circulation-core/internal/pkg/config"
	"circulation-core/internal/usecase/commands"
	"circulation-core/internal/usecase/queries"
	"circulation-core/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for the Postgres ledgers. A single mutex
// serializes transactions the way row locks do; conditional mutations report
// KindConflict exactly like their SQL counterparts.
type fakeStore struct {
	mu     sync.Mutex
	copies map[uuid.UUID]*copyRow
	loans  map[uuid.UUID]*loanRow
	idem   map[uuid.UUID]*shared.IdempotencyRecord
	audits []shared.AuditEvent
}

type copyRow struct {
	bookID        uuid.UUID
	status        copy.Status
	currentLoanID *uuid.UUID
}

type loanRow struct {
	copyID       uuid.UUID
	userID       uuid.UUID
	status       loan.Status
	checkedOutAt time.Time
	dueAt        time.Time
	returnedAt   *time.Time
	renewalCount int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		copies: make(map[uuid.UUID]*copyRow),
		loans:  make(map[uuid.UUID]*loanRow),
		idem:   make(map[uuid.UUID]*shared.IdempotencyRecord),
	}
}

func (s *fakeStore) addAvailableCopy(bookID uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.copies[id] = &copyRow{bookID: bookID, status: copy.StatusAvailable}
	return id
}

func (s *fakeStore) activeLoanFor(copyID uuid.UUID) (uuid.UUID, *loanRow) {
	for id, row := range s.loans {
		if row.copyID == copyID && row.status == loan.StatusActive {
			return id, row
		}
	}
	return uuid.Nil, nil
}

type storeSnapshot struct {
	copies map[uuid.UUID]copyRow
	loans  map[uuid.UUID]loanRow
	idem   map[uuid.UUID]shared.IdempotencyRecord
	audits []shared.AuditEvent
}

func (s *fakeStore) snapshotLocked() storeSnapshot {
	snap := storeSnapshot{
		copies: make(map[uuid.UUID]copyRow, len(s.copies)),
		loans:  make(map[uuid.UUID]loanRow, len(s.loans)),
		idem:   make(map[uuid.UUID]shared.IdempotencyRecord, len(s.idem)),
		audits: append([]shared.AuditEvent(nil), s.audits...),
	}
	for id, row := range s.copies {
		snap.copies[id] = *row
	}
	for id, row := range s.loans {
		snap.loans[id] = *row
	}
	for key, rec := range s.idem {
		snap.idem[key] = *rec
	}
	return snap
}

func (s *fakeStore) restoreLocked(snap storeSnapshot) {
	s.copies = make(map[uuid.UUID]*copyRow, len(snap.copies))
	for id, row := range snap.copies {
		r := row
		s.copies[id] = &r
	}
	s.loans = make(map[uuid.UUID]*loanRow, len(snap.loans))
	for id, row := range snap.loans {
		r := row
		s.loans[id] = &r
	}
	s.idem = make(map[uuid.UUID]*shared.IdempotencyRecord, len(snap.idem))
	for key, rec := range snap.idem {
		r := rec
		s.idem[key] = &r
	}
	s.audits = snap.audits
}

// fakeUoW runs the callback under the store mutex and rolls the store back on
// error. An optional gate holds the transaction open so tests can observe the
// in-flight idempotency state.
type fakeUoW struct {
	store *fakeStore
	gate  chan struct{}
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	if u.gate != nil {
		select {
		case <-u.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	snap := u.store.snapshotLocked()
	if err := fn(ctx, &fakeTx{store: u.store}); err != nil {
		u.store.restoreLocked(snap)
		return err
	}
	return nil
}

// fakeTx methods run with the store mutex already held by Within.
type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) Copies() shared.CopyRepository           { return &fakeCopyRepo{store: t.store} }
func (t *fakeTx) Loans() shared.LoanRepository            { return &fakeLoanRepo{store: t.store} }
func (t *fakeTx) Idempotency() shared.IdempotencyTxRepository {
	return &fakeIdemTxRepo{store: t.store}
}
func (t *fakeTx) Audit() shared.AuditRepository { return &fakeAuditRepo{store: t.store} }

type fakeCopyRepo struct {
	store *fakeStore
}

func (r *fakeCopyRepo) Get(_ context.Context, copyID uuid.UUID) (*copy.Copy, error) {
	row, ok := r.store.copies[copyID]
	if !ok {
		return nil, infra.WrapRepoErr("copy not found", nil, infra.KindNotFound)
	}
	return copy.Reconstruct(copyID, row.bookID, row.status, row.currentLoanID, time.Now())
}

func (r *fakeCopyRepo) TryAllocate(_ context.Context, copyID, loanID uuid.UUID) error {
	row, ok := r.store.copies[copyID]
	if !ok || row.status != copy.StatusAvailable {
		return infra.WrapRepoErr("copy is not available", nil, infra.KindConflict)
	}
	id := loanID
	row.status = copy.StatusLoaned
	row.currentLoanID = &id
	return nil
}

func (r *fakeCopyRepo) Release(_ context.Context, copyID, expectedLoanID uuid.UUID) error {
	return r.transition(copyID, expectedLoanID, copy.StatusAvailable)
}

func (r *fakeCopyRepo) MarkLost(_ context.Context, copyID, expectedLoanID uuid.UUID) error {
	return r.transition(copyID, expectedLoanID, copy.StatusLost)
}

func (r *fakeCopyRepo) transition(copyID, expectedLoanID uuid.UUID, to copy.Status) error {
	row, ok := r.store.copies[copyID]
	if !ok || row.status != copy.StatusLoaned || row.currentLoanID == nil || *row.currentLoanID != expectedLoanID {
		return infra.WrapRepoErr("copy is not held by this loan", nil, infra.KindConflict)
	}
	row.status = to
	row.currentLoanID = nil
	return nil
}

type fakeLoanRepo struct {
	store *fakeStore
}

func (r *fakeLoanRepo) CreateActive(_ context.Context, l *loan.Loan) error {
	if id, _ := r.store.activeLoanFor(l.CopyID()); id != uuid.Nil {
		return infra.WrapRepoErr("active loan already exists for copy", nil, infra.KindConflict)
	}
	r.store.loans[l.ID()] = &loanRow{
		copyID:       l.CopyID(),
		userID:       l.UserID(),
		status:       l.Status(),
		checkedOutAt: l.CheckedOutAt(),
		dueAt:        l.DueAt(),
		renewalCount: l.RenewalCount(),
	}
	return nil
}

func (r *fakeLoanRepo) Get(_ context.Context, loanID uuid.UUID) (*loan.Loan, error) {
	row, ok := r.store.loans[loanID]
	if !ok {
		return nil, infra.WrapRepoErr("loan not found", nil, infra.KindNotFound)
	}
	return r.reconstruct(loanID, row)
}

func (r *fakeLoanRepo) FindActiveByCopy(_ context.Context, copyID uuid.UUID) (*loan.Loan, error) {
	id, row := r.store.activeLoanFor(copyID)
	if row == nil {
		return nil, infra.WrapRepoErr("no active loan for copy", nil, infra.KindNotFound)
	}
	return r.reconstruct(id, row)
}

func (r *fakeLoanRepo) CompleteReturn(_ context.Context, loanID uuid.UUID, returnedAt time.Time) error {
	row, ok := r.store.loans[loanID]
	if !ok || row.status != loan.StatusActive {
		return infra.WrapRepoErr("loan is not active", nil, infra.KindConflict)
	}
	at := returnedAt
	row.status = loan.StatusReturned
	row.returnedAt = &at
	return nil
}

func (r *fakeLoanRepo) Renew(_ context.Context, loanID uuid.UUID, newDueAt time.Time, expectedRenewals int) error {
	row, ok := r.store.loans[loanID]
	if !ok || row.status != loan.StatusActive || row.renewalCount != expectedRenewals {
		return infra.WrapRepoErr("loan is not active or was renewed concurrently", nil, infra.KindConflict)
	}
	row.dueAt = newDueAt
	row.renewalCount++
	return nil
}

func (r *fakeLoanRepo) MarkLost(_ context.Context, loanID uuid.UUID) error {
	row, ok := r.store.loans[loanID]
	if !ok || row.status != loan.StatusActive {
		return infra.WrapRepoErr("loan is not active", nil, infra.KindConflict)
	}
	row.status = loan.StatusLost
	return nil
}

func (r *fakeLoanRepo) reconstruct(id uuid.UUID, row *loanRow) (*loan.Loan, error) {
	return loan.Reconstruct(id, row.copyID, row.userID, row.status, row.checkedOutAt, row.dueAt, row.returnedAt, row.renewalCount)
}

type fakeIdemTxRepo struct {
	store *fakeStore
}

func (r *fakeIdemTxRepo) Complete(_ context.Context, key uuid.UUID, resultLoanID uuid.UUID) error {
	rec, ok := r.store.idem[key]
	if !ok || rec.Status != shared.IdempotencyStatusProcessing {
		return infra.WrapRepoErr("idempotency record is not processing", nil, infra.KindConflict)
	}
	id := resultLoanID
	rec.Status = shared.IdempotencyStatusCompleted
	rec.ResultLoanID = &id
	return nil
}

type fakeAuditRepo struct {
	store *fakeStore
}

func (r *fakeAuditRepo) Append(_ context.Context, event shared.AuditEvent) error {
	r.store.audits = append(r.store.audits, event)
	return nil
}

// fakeIdemRepo is the pool-level dedup store, locked independently of any
// open transaction.
type fakeIdemRepo struct {
	store *fakeStore
	clock clock.Clock
}

func (r *fakeIdemRepo) Begin(_ context.Context, key, userID uuid.UUID, operation, requestHash string, expiresAt time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.idem[key]; exists {
		return false, nil
	}
	r.store.idem[key] = &shared.IdempotencyRecord{
		Key:         key,
		UserID:      userID,
		Operation:   operation,
		RequestHash: requestHash,
		Status:      shared.IdempotencyStatusProcessing,
		ExpiresAt:   expiresAt,
	}
	return true, nil
}

func (r *fakeIdemRepo) Get(_ context.Context, key uuid.UUID) (*shared.IdempotencyRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.idem[key]
	if !ok {
		return nil, infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeIdemRepo) Release(_ context.Context, key uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if rec, ok := r.store.idem[key]; ok && rec.Status == shared.IdempotencyStatusProcessing {
		delete(r.store.idem, key)
	}
	return nil
}

func (r *fakeIdemRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := r.clock.Now()
	var purged int64
	for key, rec := range r.store.idem {
		if rec.ExpiresAt.Before(now) {
			delete(r.store.idem, key)
			purged++
		}
	}
	return purged, nil
}

type fakeLoanQueries struct {
	store *fakeStore
}

func (q *fakeLoanQueries) GetLoan(_ context.Context, loanID uuid.UUID) (*queries.LoanView, error) {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()
	row, ok := q.store.loans[loanID]
	if !ok {
		return nil, queries.ErrLoanNotFound
	}
	return q.viewLocked(loanID, row), nil
}

func (q *fakeLoanQueries) GetActiveLoanByCopy(_ context.Context, copyID uuid.UUID) (*queries.LoanView, error) {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()
	id, row := q.store.activeLoanFor(copyID)
	if row == nil {
		return nil, queries.ErrNoActiveLoan
	}
	return q.viewLocked(id, row), nil
}

func (q *fakeLoanQueries) ListUserLoans(_ context.Context, userID uuid.UUID) ([]*queries.LoanView, error) {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()
	var views []*queries.LoanView
	for id, row := range q.store.loans {
		if row.userID == userID {
			views = append(views, q.viewLocked(id, row))
		}
	}
	return views, nil
}

func (q *fakeLoanQueries) viewLocked(id uuid.UUID, row *loanRow) *queries.LoanView {
	return &queries.LoanView{
		ID:           id,
		CopyID:       row.copyID,
		UserID:       row.userID,
		Status:       row.status.String(),
		CheckedOutAt: row.checkedOutAt,
		DueAt:        row.dueAt,
		ReturnedAt:   row.returnedAt,
		RenewalCount: row.renewalCount,
	}
}

type fakeMembership struct {
	eligibility commands.Eligibility
	err         error
}

func (g *fakeMembership) IsEligible(_ context.Context, _ uuid.UUID) (commands.Eligibility, error) {
	return g.eligibility, g.err
}

type fakeCatalog struct {
	books   map[uuid.UUID]uuid.UUID
	missing map[uuid.UUID]bool
	err     error
}

func (g *fakeCatalog) CopyExists(_ context.Context, copyID uuid.UUID) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return !g.missing[copyID], nil
}

func (g *fakeCatalog) BookOf(_ context.Context, copyID uuid.UUID) (uuid.UUID, error) {
	if g.err != nil {
		return uuid.Nil, g.err
	}
	return g.books[copyID], nil
}

type testEnv struct {
	store      *fakeStore
	uow        *fakeUoW
	clock      *clock.MockClock
	membership *fakeMembership
	catalog    *fakeCatalog
	commands   commands.CirculationCommands
}

func newTestEnv(t *testing.T, mutate ...func(*config.CirculationConfig)) *testEnv {
	t.Helper()

	cfg := config.NewTestConfig().Circulation
	for _, m := range mutate {
		m(&cfg)
	}

	store := newFakeStore()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	uow := &fakeUoW{store: store}
	membership := &fakeMembership{eligibility: commands.Eligibility{Active: true, UnderLoanLimit: true}}
	catalog := &fakeCatalog{books: make(map[uuid.UUID]uuid.UUID), missing: make(map[uuid.UUID]bool)}

	cmds, err := commands.NewCirculationCommands(
		uow,
		&fakeIdemRepo{store: store, clock: clk},
		membership,
		catalog,
		&fakeLoanQueries{store: store},
		clk,
		cfg,
	)
	require.NoError(t, err)

	return &testEnv{
		store:      store,
		uow:        uow,
		clock:      clk,
		membership: membership,
		catalog:    catalog,
		commands:   cmds,
	}
}

func (e *testEnv) seedCopy() uuid.UUID {
	bookID := uuid.New()
	copyID := e.store.addAvailableCopy(bookID)
	e.store.mu.Lock()
	e.catalog.books[copyID] = bookID
	e.store.mu.Unlock()
	return copyID
}

func member() commands.Actor {
	return commands.Actor{UserID: uuid.New(), Role: commands.RoleMember}
}

func admin() commands.Actor {
	return commands.Actor{UserID: uuid.New(), Role: commands.RoleAdmin}
}
