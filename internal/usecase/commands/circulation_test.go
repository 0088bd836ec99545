//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"circulation-core/internal/domain/copy"
	"circulation-core/internal/domain/loan"
	"circulation-core/internal/pkg/config"
	"circulation-core/internal/usecase/commands"
	"circulation-core/internal/usecase/shared"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	copyID := env.seedCopy()
	actor := member()

	result, err := env.commands.Checkout(ctx, uuid.New(), actor, copyID)
	require.NoError(t, err)
	require.NotNil(t, result.Loan)

	assert.False(t, result.IsReplayed)
	assert.Equal(t, copyID, result.Loan.CopyID)
	assert.Equal(t, actor.UserID, result.Loan.UserID)
	assert.Equal(t, loan.StatusActive.String(), result.Loan.Status)
	assert.Equal(t, env.clock.Now(), result.Loan.CheckedOutAt)
	assert.Equal(t, env.clock.Now().Add(14*24*time.Hour), result.Loan.DueAt)
	require.NotNil(t, result.BookID)
	assert.Equal(t, env.catalog.books[copyID], *result.BookID)

	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	row := env.store.copies[copyID]
	assert.Equal(t, copy.StatusLoaned, row.status)
	require.NotNil(t, row.currentLoanID)
	assert.Equal(t, result.Loan.ID, *row.currentLoanID)

	require.Len(t, env.store.audits, 2)
	assert.Equal(t, shared.AuditEntityCopy, env.store.audits[0].EntityType)
	assert.Equal(t, copy.StatusAvailable.String(), env.store.audits[0].FromState)
	assert.Equal(t, copy.StatusLoaned.String(), env.store.audits[0].ToState)
	assert.Equal(t, shared.AuditEntityLoan, env.store.audits[1].EntityType)
	assert.Equal(t, result.Loan.ID, env.store.audits[1].EntityID)
	assert.Equal(t, actor.UserID, env.store.audits[1].Actor)
}

func TestCheckout_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("copy not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.commands.Checkout(ctx, uuid.New(), member(), uuid.New())
		assert.ErrorIs(t, err, commands.ErrCopyNotFound)
	})

	t.Run("copy already on loan", func(t *testing.T) {
		env := newTestEnv(t)
		copyID := env.seedCopy()
		_, err := env.commands.Checkout(ctx, uuid.New(), member(), copyID)
		require.NoError(t, err)

		_, err = env.commands.Checkout(ctx, uuid.New(), member(), copyID)
		assert.ErrorIs(t, err, commands.ErrCopyUnavailable)
	})

	t.Run("inactive member", func(t *testing.T) {
		env := newTestEnv(t)
		env.membership.eligibility = commands.Eligibility{Active: false, UnderLoanLimit: true}
		_, err := env.commands.Checkout(ctx, uuid.New(), member(), env.seedCopy())
		assert.ErrorIs(t, err, commands.ErrMemberIneligible)
	})

	t.Run("member at loan limit", func(t *testing.T) {
		env := newTestEnv(t)
		env.membership.eligibility = commands.Eligibility{Active: true, UnderLoanLimit: false}
		_, err := env.commands.Checkout(ctx, uuid.New(), member(), env.seedCopy())
		assert.ErrorIs(t, err, commands.ErrMemberIneligible)
	})

	t.Run("failed checkout does not consume the copy", func(t *testing.T) {
		env := newTestEnv(t)
		copyID := env.seedCopy()
		env.membership.eligibility = commands.Eligibility{}
		_, err := env.commands.Checkout(ctx, uuid.New(), member(), copyID)
		require.ErrorIs(t, err, commands.ErrMemberIneligible)

		env.membership.eligibility = commands.Eligibility{Active: true, UnderLoanLimit: true}
		_, err = env.commands.Checkout(ctx, uuid.New(), member(), copyID)
		assert.NoError(t, err)
	})

	t.Run("failed checkout frees its key for retry", func(t *testing.T) {
		env := newTestEnv(t)
		copyID := env.seedCopy()
		actor := member()
		key := uuid.New()

		env.membership.eligibility = commands.Eligibility{}
		_, err := env.commands.Checkout(ctx, key, actor, copyID)
		require.ErrorIs(t, err, commands.ErrMemberIneligible)

		// The same key executes fresh, not as a replay of the failure.
		env.membership.eligibility = commands.Eligibility{Active: true, UnderLoanLimit: true}
		result, err := env.commands.Checkout(ctx, key, actor, copyID)
		require.NoError(t, err)
		assert.False(t, result.IsReplayed)
	})
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	copyID := env.seedCopy()
	actor := member()
	key := uuid.New()

	first, err := env.commands.Checkout(ctx, key, actor, copyID)
	require.NoError(t, err)
	require.False(t, first.IsReplayed)

	second, err := env.commands.Checkout(ctx, key, actor, copyID)
	require.NoError(t, err)
	assert.True(t, second.IsReplayed)

	if diff := cmp.Diff(first.Loan, second.Loan); diff != "" {
		t.Errorf("replayed loan differs from original (-first +second):\n%s", diff)
	}

	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	assert.Len(t, env.store.loans, 1)
	assert.Len(t, env.store.audits, 2)
}

func TestCheckout_KeyReuseMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key := uuid.New()
	actor := member()

	_, err := env.commands.Checkout(ctx, key, actor, env.seedCopy())
	require.NoError(t, err)

	t.Run("different copy", func(t *testing.T) {
		_, err := env.commands.Checkout(ctx, key, actor, env.seedCopy())
		assert.ErrorIs(t, err, commands.ErrKeyReuseMismatch)
	})

	t.Run("different user", func(t *testing.T) {
		_, err := env.commands.Checkout(ctx, key, member(), env.seedCopy())
		assert.ErrorIs(t, err, commands.ErrKeyReuseMismatch)
	})

	t.Run("different operation", func(t *testing.T) {
		_, err := env.commands.ReturnCopy(ctx, key, actor, env.seedCopy())
		assert.ErrorIs(t, err, commands.ErrKeyReuseMismatch)
	})
}

func TestCheckout_ConcurrentSameCopy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	copyID := env.seedCopy()

	const attempts = 16
	var (
		wg        sync.WaitGroup
		succeeded int
		conflicts int
		mu        sync.Mutex
	)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.commands.Checkout(ctx, uuid.New(), member(), copyID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, commands.ErrCopyUnavailable):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)

	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	assert.Len(t, env.store.loans, 1)
}

func TestCheckout_InFlightDuplicate(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.CirculationConfig) {
		cfg.IdempotencyWaitTimeout = 100 * time.Millisecond
		cfg.IdempotencyPollEvery = 10 * time.Millisecond
	})
	ctx := context.Background()
	copyID := env.seedCopy()
	actor := member()
	key := uuid.New()

	gate := make(chan struct{})
	env.uow.gate = gate

	type outcome struct {
		result *commands.CheckoutResult
		err    error
	}
	firstDone := make(chan outcome, 1)
	go func() {
		result, err := env.commands.Checkout(ctx, key, actor, copyID)
		firstDone <- outcome{result, err}
	}()

	// Give the original time to claim the processing marker.
	require.Eventually(t, func() bool {
		env.store.mu.Lock()
		defer env.store.mu.Unlock()
		_, exists := env.store.idem[key]
		return exists
	}, time.Second, 5*time.Millisecond)

	// The duplicate waits out the in-flight original and times out.
	_, err := env.commands.Checkout(ctx, key, actor, copyID)
	assert.ErrorIs(t, err, commands.ErrOperationTimeout)

	close(gate)
	first := <-firstDone
	require.NoError(t, first.err)

	// A later retry with the same key replays the committed result.
	replay, err := env.commands.Checkout(ctx, key, actor, copyID)
	require.NoError(t, err)
	assert.True(t, replay.IsReplayed)
	assert.Equal(t, first.result.Loan.ID, replay.Loan.ID)
}

func TestReturnCopy(t *testing.T) {
	ctx := context.Background()

	checkout := func(t *testing.T, env *testEnv, actor commands.Actor) (uuid.UUID, *commands.CheckoutResult) {
		t.Helper()
		copyID := env.seedCopy()
		result, err := env.commands.Checkout(ctx, uuid.New(), actor, copyID)
		require.NoError(t, err)
		return copyID, result
	}

	t.Run("owner returns the copy", func(t *testing.T) {
		env := newTestEnv(t)
		actor := member()
		copyID, checked := checkout(t, env, actor)

		result, err := env.commands.ReturnCopy(ctx, uuid.New(), actor, copyID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusReturned.String(), result.Loan.Status)
		require.NotNil(t, result.Loan.ReturnedAt)
		assert.Equal(t, checked.Loan.ID, result.Loan.ID)

		env.store.mu.Lock()
		defer env.store.mu.Unlock()
		assert.Equal(t, copy.StatusAvailable, env.store.copies[copyID].status)
		assert.Nil(t, env.store.copies[copyID].currentLoanID)
		assert.Len(t, env.store.audits, 4)
	})

	t.Run("admin returns on behalf of member", func(t *testing.T) {
		env := newTestEnv(t)
		copyID, _ := checkout(t, env, member())

		_, err := env.commands.ReturnCopy(ctx, uuid.New(), admin(), copyID)
		assert.NoError(t, err)
	})

	t.Run("other member cannot return", func(t *testing.T) {
		env := newTestEnv(t)
		copyID, _ := checkout(t, env, member())

		_, err := env.commands.ReturnCopy(ctx, uuid.New(), member(), copyID)
		assert.ErrorIs(t, err, commands.ErrNotLoanOwner)
	})

	t.Run("no active loan", func(t *testing.T) {
		env := newTestEnv(t)
		copyID := env.seedCopy()
		_, err := env.commands.ReturnCopy(ctx, uuid.New(), member(), copyID)
		assert.ErrorIs(t, err, commands.ErrNoActiveLoan)
	})

	t.Run("copy not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.commands.ReturnCopy(ctx, uuid.New(), member(), uuid.New())
		assert.ErrorIs(t, err, commands.ErrCopyNotFound)
	})

	t.Run("idempotent replay", func(t *testing.T) {
		env := newTestEnv(t)
		actor := member()
		copyID, _ := checkout(t, env, actor)
		key := uuid.New()

		first, err := env.commands.ReturnCopy(ctx, key, actor, copyID)
		require.NoError(t, err)

		second, err := env.commands.ReturnCopy(ctx, key, actor, copyID)
		require.NoError(t, err)
		assert.True(t, second.IsReplayed)
		assert.Equal(t, first.Loan.ID, second.Loan.ID)

		// The copy stays available: the replay never re-runs the transition.
		env.store.mu.Lock()
		defer env.store.mu.Unlock()
		assert.Equal(t, copy.StatusAvailable, env.store.copies[copyID].status)
	})

	t.Run("returned copy can circulate again", func(t *testing.T) {
		env := newTestEnv(t)
		actor := member()
		copyID, _ := checkout(t, env, actor)

		_, err := env.commands.ReturnCopy(ctx, uuid.New(), actor, copyID)
		require.NoError(t, err)

		next, err := env.commands.Checkout(ctx, uuid.New(), member(), copyID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusActive.String(), next.Loan.Status)
	})
}

func TestRenew(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*testEnv, commands.Actor, uuid.UUID) {
		t.Helper()
		env := newTestEnv(t)
		actor := member()
		result, err := env.commands.Checkout(ctx, uuid.New(), actor, env.seedCopy())
		require.NoError(t, err)
		return env, actor, result.Loan.ID
	}

	t.Run("extends the due date", func(t *testing.T) {
		env, actor, loanID := setup(t)
		originalDueAt := env.clock.Now().Add(14 * 24 * time.Hour)

		result, err := env.commands.Renew(ctx, uuid.New(), actor, loanID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Loan.RenewalCount)
		assert.Equal(t, originalDueAt.Add(14*24*time.Hour), result.Loan.DueAt)
	})

	t.Run("renewal limit reached", func(t *testing.T) {
		env, actor, loanID := setup(t)

		for range 2 {
			_, err := env.commands.Renew(ctx, uuid.New(), actor, loanID)
			require.NoError(t, err)
		}

		_, err := env.commands.Renew(ctx, uuid.New(), actor, loanID)
		assert.ErrorIs(t, err, commands.ErrRenewalLimitReached)
	})

	t.Run("other member cannot renew", func(t *testing.T) {
		env, _, loanID := setup(t)
		_, err := env.commands.Renew(ctx, uuid.New(), member(), loanID)
		assert.ErrorIs(t, err, commands.ErrNotLoanOwner)
	})

	t.Run("admin renews on behalf of member", func(t *testing.T) {
		env, _, loanID := setup(t)
		_, err := env.commands.Renew(ctx, uuid.New(), admin(), loanID)
		assert.NoError(t, err)
	})

	t.Run("loan not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.commands.Renew(ctx, uuid.New(), member(), uuid.New())
		assert.ErrorIs(t, err, commands.ErrLoanNotFound)
	})

	t.Run("returned loan cannot renew", func(t *testing.T) {
		env, actor, loanID := setup(t)

		loanView, err := env.commands.Renew(ctx, uuid.New(), actor, loanID)
		require.NoError(t, err)
		_, err = env.commands.ReturnCopy(ctx, uuid.New(), actor, loanView.Loan.CopyID)
		require.NoError(t, err)

		_, err = env.commands.Renew(ctx, uuid.New(), actor, loanID)
		assert.ErrorIs(t, err, commands.ErrLoanNotActive)
	})

	t.Run("idempotent replay does not extend twice", func(t *testing.T) {
		env, actor, loanID := setup(t)
		key := uuid.New()

		first, err := env.commands.Renew(ctx, key, actor, loanID)
		require.NoError(t, err)

		second, err := env.commands.Renew(ctx, key, actor, loanID)
		require.NoError(t, err)
		assert.True(t, second.IsReplayed)
		assert.Equal(t, first.Loan.DueAt, second.Loan.DueAt)
		assert.Equal(t, 1, second.Loan.RenewalCount)
	})
}

func TestReportLost(t *testing.T) {
	ctx := context.Background()

	t.Run("owner reports copy lost", func(t *testing.T) {
		env := newTestEnv(t)
		actor := member()
		copyID := env.seedCopy()
		checked, err := env.commands.Checkout(ctx, uuid.New(), actor, copyID)
		require.NoError(t, err)

		result, err := env.commands.ReportLost(ctx, uuid.New(), actor, copyID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusLost.String(), result.Loan.Status)
		assert.Equal(t, checked.Loan.ID, result.Loan.ID)

		env.store.mu.Lock()
		defer env.store.mu.Unlock()
		assert.Equal(t, copy.StatusLost, env.store.copies[copyID].status)
	})

	t.Run("lost copy cannot be checked out", func(t *testing.T) {
		env := newTestEnv(t)
		actor := member()
		copyID := env.seedCopy()
		_, err := env.commands.Checkout(ctx, uuid.New(), actor, copyID)
		require.NoError(t, err)
		_, err = env.commands.ReportLost(ctx, uuid.New(), actor, copyID)
		require.NoError(t, err)

		_, err = env.commands.Checkout(ctx, uuid.New(), member(), copyID)
		assert.ErrorIs(t, err, commands.ErrCopyUnavailable)
	})

	t.Run("requires an active loan", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.commands.ReportLost(ctx, uuid.New(), admin(), env.seedCopy())
		assert.ErrorIs(t, err, commands.ErrNoActiveLoan)
	})

	t.Run("other member cannot report", func(t *testing.T) {
		env := newTestEnv(t)
		copyID := env.seedCopy()
		_, err := env.commands.Checkout(ctx, uuid.New(), member(), copyID)
		require.NoError(t, err)

		_, err = env.commands.ReportLost(ctx, uuid.New(), member(), copyID)
		assert.ErrorIs(t, err, commands.ErrNotLoanOwner)
	})
}

func TestPurgeExpiredKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.commands.Checkout(ctx, uuid.New(), member(), env.seedCopy())
	require.NoError(t, err)
	_, err = env.commands.Checkout(ctx, uuid.New(), member(), env.seedCopy())
	require.NoError(t, err)

	purged, err := env.commands.PurgeExpiredKeys(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged)

	env.clock.Add(25 * time.Hour)

	purged, err = env.commands.PurgeExpiredKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
}
