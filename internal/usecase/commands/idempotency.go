package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"circulation-core/internal/infra"
	"circulation-core/internal/pkg/clock"
	"circulation-core/internal/pkg/config"
	"circulation-core/internal/pkg/errs"
	"circulation-core/internal/usecase/shared"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// idempotencyCoordinator implements the two-phase dedup protocol: a
// processing marker is claimed before business logic runs, and flipped to
// completed inside the committing transaction. A retry racing its original
// therefore waits for the marker to resolve instead of re-executing.
type idempotencyCoordinator struct {
	repo        IdempotencyRepository
	clock       clock.Clock
	retention   time.Duration
	waitTimeout time.Duration
	pollEvery   time.Duration
}

func newIdempotencyCoordinator(repo IdempotencyRepository, clk clock.Clock, cfg config.CirculationConfig) *idempotencyCoordinator {
	return &idempotencyCoordinator{
		repo:        repo,
		clock:       clk,
		retention:   cfg.IdempotencyRetention,
		waitTimeout: cfg.IdempotencyWaitTimeout,
		pollEvery:   cfg.IdempotencyPollEvery,
	}
}

// beginOutcome reports how an operation entered the coordinator: as the first
// execution (claimed) or as a replay carrying the cached result.
type beginOutcome struct {
	claimed      bool
	resultLoanID uuid.UUID
}

func (c *idempotencyCoordinator) begin(ctx context.Context, key uuid.UUID, actor Actor, operation, fingerprint string) (beginOutcome, error) {
	expiresAt := c.clock.Now().Add(c.retention)

	claimed, err := c.repo.Begin(ctx, key, actor.UserID, operation, fingerprint, expiresAt)
	if err != nil {
		return beginOutcome{}, errs.Mark(err, ErrIdempotencyCheckFailed)
	}
	if claimed {
		return beginOutcome{claimed: true}, nil
	}

	record, err := c.repo.Get(ctx, key)
	if err != nil {
		return beginOutcome{}, errs.Mark(err, ErrIdempotencyCheckFailed)
	}

	return c.resolveExisting(ctx, key, fingerprint, record)
}

func (c *idempotencyCoordinator) resolveExisting(ctx context.Context, key uuid.UUID, fingerprint string, record *shared.IdempotencyRecord) (beginOutcome, error) {
	// Same key with a different operation payload is a contract violation,
	// not a retry.
	if record.RequestHash != fingerprint {
		return beginOutcome{}, ErrKeyReuseMismatch
	}

	switch record.Status {
	case shared.IdempotencyStatusCompleted:
		if record.ResultLoanID == nil {
			return beginOutcome{}, errs.New("completed idempotency record missing result loan ID")
		}
		return beginOutcome{resultLoanID: *record.ResultLoanID}, nil

	case shared.IdempotencyStatusProcessing:
		return c.waitForCompletion(ctx, key, fingerprint)

	default:
		return beginOutcome{}, errs.New("invalid idempotency record status")
	}
}

// waitForCompletion polls until the concurrent original resolves. The wait is
// bounded: exceeding it yields Timeout, which the caller may retry safely
// with the same key.
func (c *idempotencyCoordinator) waitForCompletion(ctx context.Context, key uuid.UUID, fingerprint string) (beginOutcome, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return beginOutcome{}, ErrOperationTimeout
		case <-ticker.C:
		}

		record, err := c.repo.Get(waitCtx, key)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				// The original rolled back and its marker vanished; the caller
				// must retry from scratch.
				return beginOutcome{}, ErrOperationTimeout
			}
			return beginOutcome{}, errs.Mark(err, ErrIdempotencyCheckFailed)
		}

		if record.RequestHash != fingerprint {
			return beginOutcome{}, ErrKeyReuseMismatch
		}
		if record.Status == shared.IdempotencyStatusCompleted {
			if record.ResultLoanID == nil {
				return beginOutcome{}, errs.New("completed idempotency record missing result loan ID")
			}
			return beginOutcome{resultLoanID: *record.ResultLoanID}, nil
		}
	}
}

// abandon drops the claim after the business operation failed. Best effort:
// an undeleted marker only delays retries with the same key until expiry.
// WithoutCancel because the usual reason we got here is an expired ctx.
func (c *idempotencyCoordinator) abandon(ctx context.Context, key uuid.UUID) {
	_ = c.repo.Release(context.WithoutCancel(ctx), key)
}

func (c *idempotencyCoordinator) purgeExpired(ctx context.Context) (int64, error) {
	return c.repo.DeleteExpired(ctx)
}

// operationFingerprint hashes the operation type plus its essential
// parameters; a reused key must carry the identical fingerprint.
func operationFingerprint(operation string, entityID, userID uuid.UUID) string {
	payload := struct {
		Operation string    `json:"operation"`
		EntityID  uuid.UUID `json:"entity_id"`
		UserID    uuid.UUID `json:"user_id"`
	}{
		Operation: operation,
		EntityID:  entityID,
		UserID:    userID,
	}

	data, _ := json.Marshal(payload)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
