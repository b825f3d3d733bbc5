package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// RetryPolicy bounds the retries of a unit that lost a concurrent commit.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy is used when no policy is configured.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, BaseDelay: 10 * time.Millisecond}

// Run executes fn as an atomic unit on store and retries it while it fails
// with domain.ErrConcurrentModification. Once the retries are exhausted the
// retryable error is returned to the caller.
func Run(ctx context.Context, store Store, p RetryPolicy, fn func(tx Tx) error) error {
	l := zerolog.Ctx(ctx)

	var err error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * p.BaseDelay

			l.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying atomic unit")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err = store.Atomic(ctx, fn)
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}
	}

	return err
}
