package loan

import (
	"errors"
	"time"

	"circulation-core/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus       = errors.New("invalid loan status")
	ErrNotActive           = errors.New("loan is not active")
	ErrRenewalLimitReached = errors.New("renewal limit reached")
	ErrNotOwner            = errors.New("loan is not owned by this user")
)

type Services struct {
	Clock  clock.Clock
	Policy Policy
}

// Loan is one borrowing episode binding a user to a copy for a bounded time.
// Once returned or lost it never transitions again.
type Loan struct {
	id           uuid.UUID
	copyID       uuid.UUID
	userID       uuid.UUID
	status       Status
	checkedOutAt time.Time
	dueAt        time.Time
	returnedAt   *time.Time
	renewalCount int
}

func NewLoan(services *Services, copyID, userID uuid.UUID) *Loan {
	now := services.Clock.Now()

	return &Loan{
		id:           uuid.New(),
		copyID:       copyID,
		userID:       userID,
		status:       StatusActive,
		checkedOutAt: now,
		dueAt:        services.Policy.DueAt(now),
		renewalCount: 0,
	}
}

func Reconstruct(
	id, copyID, userID uuid.UUID,
	status Status,
	checkedOutAt, dueAt time.Time,
	returnedAt *time.Time,
	renewalCount int,
) (*Loan, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	return &Loan{
		id:           id,
		copyID:       copyID,
		userID:       userID,
		status:       status,
		checkedOutAt: checkedOutAt,
		dueAt:        dueAt,
		returnedAt:   returnedAt,
		renewalCount: renewalCount,
	}, nil
}

// Renew extends the due date in place. The renewal cap and the extension come
// from policy; a terminal loan never renews.
func (l *Loan) Renew(policy Policy) error {
	if l.status != StatusActive {
		return ErrNotActive
	}
	if !policy.RenewalAllowed(l.renewalCount) {
		return ErrRenewalLimitReached
	}

	l.dueAt = policy.ExtendedDueAt(l.dueAt)
	l.renewalCount++
	return nil
}

func (l *Loan) CompleteReturn(now time.Time) error {
	if l.status != StatusActive {
		return ErrNotActive
	}

	l.status = StatusReturned
	l.returnedAt = &now
	return nil
}

func (l *Loan) MarkLost() error {
	if l.status != StatusActive {
		return ErrNotActive
	}

	l.status = StatusLost
	return nil
}

func (l *Loan) IsActive() bool {
	return l.status == StatusActive
}

func (l *Loan) IsOverdue(now time.Time) bool {
	return l.status == StatusActive && now.After(l.dueAt)
}

func (l *Loan) OwnedBy(userID uuid.UUID) bool {
	return l.userID == userID
}

func (l *Loan) ID() uuid.UUID           { return l.id }
func (l *Loan) CopyID() uuid.UUID       { return l.copyID }
func (l *Loan) UserID() uuid.UUID       { return l.userID }
func (l *Loan) Status() Status          { return l.status }
func (l *Loan) CheckedOutAt() time.Time { return l.checkedOutAt }
func (l *Loan) DueAt() time.Time        { return l.dueAt }
func (l *Loan) ReturnedAt() *time.Time  { return l.returnedAt }
func (l *Loan) RenewalCount() int       { return l.renewalCount }
