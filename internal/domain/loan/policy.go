package loan

import (
	"errors"
	"time"
)

var (
	ErrInvalidLoanPeriod = errors.New("loan period must be positive")
	ErrInvalidExtension  = errors.New("renewal extension must be positive")
	ErrNegativeRenewals  = errors.New("renewal limit cannot be negative")
)

// Policy carries the circulation rules applied when loans are created and
// renewed. Values come from configuration.
type Policy struct {
	period       time.Duration
	extension    time.Duration
	renewalLimit int
}

func NewPolicy(periodDays, extensionDays, renewalLimit int) (Policy, error) {
	if periodDays <= 0 {
		return Policy{}, ErrInvalidLoanPeriod
	}
	if extensionDays <= 0 {
		return Policy{}, ErrInvalidExtension
	}
	if renewalLimit < 0 {
		return Policy{}, ErrNegativeRenewals
	}

	return Policy{
		period:       time.Duration(periodDays) * 24 * time.Hour,
		extension:    time.Duration(extensionDays) * 24 * time.Hour,
		renewalLimit: renewalLimit,
	}, nil
}

func (p Policy) DueAt(checkedOutAt time.Time) time.Time {
	return checkedOutAt.Add(p.period)
}

func (p Policy) ExtendedDueAt(dueAt time.Time) time.Time {
	return dueAt.Add(p.extension)
}

func (p Policy) RenewalAllowed(renewalCount int) bool {
	return renewalCount < p.renewalLimit
}

func (p Policy) RenewalLimit() int { return p.renewalLimit }
