package copy

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus       = errors.New("invalid copy status")
	ErrLoanLinkageViolated = errors.New("loaned copy must reference its active loan")
	ErrNotAvailable        = errors.New("copy is not available")
	ErrNotOnLoan           = errors.New("copy is not on loan")
)

// Copy is a physical, individually trackable instance of a book.
// Its allocation state is mutated only through the allocation engine.
type Copy struct {
	id            uuid.UUID
	bookID        uuid.UUID
	status        Status
	currentLoanID *uuid.UUID
	updatedAt     time.Time
}

func Reconstruct(
	id, bookID uuid.UUID,
	status Status,
	currentLoanID *uuid.UUID,
	updatedAt time.Time,
) (*Copy, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	// status == loaned ⇔ a current loan is referenced
	if (status == StatusLoaned) != (currentLoanID != nil) {
		return nil, ErrLoanLinkageViolated
	}

	return &Copy{
		id:            id,
		bookID:        bookID,
		status:        status,
		currentLoanID: currentLoanID,
		updatedAt:     updatedAt,
	}, nil
}

func (c *Copy) IsAvailable() bool {
	return c.status == StatusAvailable
}

func (c *Copy) IsOnLoan() bool {
	return c.status == StatusLoaned
}

func (c *Copy) IsCirculating() bool {
	return c.status == StatusAvailable || c.status == StatusLoaned
}

func (c *Copy) ID() uuid.UUID             { return c.id }
func (c *Copy) BookID() uuid.UUID         { return c.bookID }
func (c *Copy) Status() Status            { return c.status }
func (c *Copy) CurrentLoanID() *uuid.UUID { return c.currentLoanID }
func (c *Copy) UpdatedAt() time.Time      { return c.updatedAt }
