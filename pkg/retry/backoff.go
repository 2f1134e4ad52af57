package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// jitterFactor is the randomization applied to each wait when Config.Jitter is set.
const jitterFactor = 0.25

// Config holds the configuration for exponential backoff retry logic.
type Config struct {
	// MaxRetries is the maximum number of retry attempts.
	// Set to -1 for unlimited retries.
	MaxRetries int

	// InitialBackoff is the duration to wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum duration to wait between retries.
	// Zero keeps the library default of one minute.
	MaxBackoff time.Duration

	// Multiplier is the factor by which the backoff duration increases after each retry.
	// Zero means 2.0.
	Multiplier float64

	// Jitter adds up to 25% randomness to each backoff.
	Jitter bool

	// OnRetry, when set, is called before waiting for the next attempt.
	OnRetry func(attempt int, backoff time.Duration, err error)
}

// Operation is a function that will be retried.
// Return nil on success, a Permanent error to stop retrying, any other error to retry.
type Operation func(ctx context.Context) error

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do executes op with exponential backoff. It returns the last error once retries are
// exhausted, op returned a Permanent error, or ctx is done.
func Do(ctx context.Context, cfg Config, op Operation) error {
	var (
		attempt   int
		permanent bool
	)

	opts := []backoff.RetryOption{
		backoff.WithBackOff(newBackOff(cfg)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, wait, err)
			}
		}),
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, backoff.WithMaxTries(uint(cfg.MaxRetries)+1))
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op(ctx)
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			permanent = true
		}
		return struct{}{}, err
	}, opts...)

	switch {
	case err == nil:
		return nil
	case permanent:
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Unwrap()
		}
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("operation canceled after %d attempts: %w", attempt, ctx.Err())
	default:
		return fmt.Errorf("operation failed after %d attempts: %w", attempt, err)
	}
}

func newBackOff(cfg Config) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	b.Multiplier = cfg.Multiplier
	if b.Multiplier == 0 {
		b.Multiplier = 2.0
	}
	if cfg.MaxBackoff > 0 {
		b.MaxInterval = cfg.MaxBackoff
	}
	b.RandomizationFactor = 0
	if cfg.Jitter {
		b.RandomizationFactor = jitterFactor
	}
	b.Reset()
	return b
}
