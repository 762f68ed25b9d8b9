package main

import (
	"context"
	"time"

	"travelmate/internal/ratelimiter"
)

const housekeepingInterval = 30 * time.Minute

// runHousekeeping prunes push tokens that have not been refreshed within the
// retention window and drops expired rate limiter windows. It stops when ctx
// is cancelled.
func (app *application) runHousekeeping(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(housekeepingInterval)
		defer ticker.Stop()

		// Run once immediately
		app.housekeep(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				app.housekeep(ctx)
			}
		}
	}()
}

func (app *application) housekeep(ctx context.Context) {
	if app.config.expo.tokenRetention > 0 {
		if err := app.store.PushTokens.PruneStale(ctx, app.config.expo.tokenRetention); err != nil {
			app.logger.Errorf("Error pruning stale push tokens: %v", err)
		} else {
			app.logger.Infof("Pruned stale push tokens at %s", time.Now().Format(time.RFC1123))
		}
	}

	if fw, ok := app.rateLimiter.(*ratelimiter.FixedWindowRateLimiter); ok {
		fw.Sweep()
	}
}
