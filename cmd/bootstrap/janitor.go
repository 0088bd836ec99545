package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"circulation-core/internal/pkg/config"
	"circulation-core/internal/usecase/commands"

	"go.uber.org/fx"
)

var JanitorModule = fx.Module("janitor",
	fx.Invoke(StartIdempotencyJanitor),
)

// StartIdempotencyJanitor periodically purges expired dedup markers. Expiry
// only reclaims storage; replay guarantees hold for the retention window.
func StartIdempotencyJanitor(lc fx.Lifecycle, circulationCommands commands.CirculationCommands, cfg config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(cfg.Circulation.PurgeInterval)
				defer ticker.Stop()

				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						purged, err := circulationCommands.PurgeExpiredKeys(ctx)
						if err != nil {
							logger.Error("idempotency purge failed", "error", err)
							continue
						}
						if purged > 0 {
							logger.Info("purged expired idempotency keys", "count", purged)
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
