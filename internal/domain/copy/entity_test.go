//go:build unit

package copy_test

import (
	"testing"
	"time"

	"circulation-core/internal/domain/copy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy_Reconstruct(t *testing.T) {
	loanID := uuid.New()

	testCases := []struct {
		name          string
		status        copy.Status
		currentLoanID *uuid.UUID
		errIs         error
	}{
		{name: "available copy", status: copy.StatusAvailable},
		{name: "loaned copy with loan reference", status: copy.StatusLoaned, currentLoanID: &loanID},
		{name: "lost copy", status: copy.StatusLost},
		{name: "retired copy", status: copy.StatusRetired},
		{name: "loaned copy without loan reference", status: copy.StatusLoaned, errIs: copy.ErrLoanLinkageViolated},
		{name: "available copy with dangling loan reference", status: copy.StatusAvailable, currentLoanID: &loanID, errIs: copy.ErrLoanLinkageViolated},
		{name: "lost copy with dangling loan reference", status: copy.StatusLost, currentLoanID: &loanID, errIs: copy.ErrLoanLinkageViolated},
		{name: "unknown status", status: copy.Status("misplaced"), errIs: copy.ErrInvalidStatus},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := copy.Reconstruct(uuid.New(), uuid.New(), tc.status, tc.currentLoanID, time.Now())
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.status, c.Status())
		})
	}
}

func TestCopy_StatusPredicates(t *testing.T) {
	loanID := uuid.New()

	available, err := copy.Reconstruct(uuid.New(), uuid.New(), copy.StatusAvailable, nil, time.Now())
	require.NoError(t, err)
	assert.True(t, available.IsAvailable())
	assert.False(t, available.IsOnLoan())
	assert.True(t, available.IsCirculating())

	loaned, err := copy.Reconstruct(uuid.New(), uuid.New(), copy.StatusLoaned, &loanID, time.Now())
	require.NoError(t, err)
	assert.False(t, loaned.IsAvailable())
	assert.True(t, loaned.IsOnLoan())
	assert.True(t, loaned.IsCirculating())
	require.NotNil(t, loaned.CurrentLoanID())
	assert.Equal(t, loanID, *loaned.CurrentLoanID())

	retired, err := copy.Reconstruct(uuid.New(), uuid.New(), copy.StatusRetired, nil, time.Now())
	require.NoError(t, err)
	assert.False(t, retired.IsCirculating())
}
