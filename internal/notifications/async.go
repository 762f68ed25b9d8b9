package notifications

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// SendTimeout bounds a single background notification.
var SendTimeout = 10 * time.Second

// CallAsync runs fn in its own goroutine, detached from the request that
// triggered it. Failures are logged; users without push tokens are not an
// error worth more than a debug line.
func CallAsync(logger *zap.SugaredLogger, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), SendTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			if errors.Is(err, ErrNoTokens) {
				logger.Debugw("push notification skipped", "error", err)
				return
			}
			logger.Errorw("push notification failed", "error", err)
		}
	}()
}
