package datasource

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy configures exponential backoff for a single adapter.
// Each adapter owns its policy; the coexistence layer never retries.
type RetryPolicy struct {
	MaxRetries uint64        `env:"MAX_RETRIES" envDefault:"2"`
	BaseDelay  time.Duration `env:"BASE_DELAY" envDefault:"100ms"`
	MaxDelay   time.Duration `env:"MAX_DELAY" envDefault:"2s"`
}

// DefaultRetryPolicy retries transient failures twice, starting at 100ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// NoRetry disables retries.
func NoRetry() RetryPolicy {
	return RetryPolicy{}
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// policy is exhausted or ctx is done. Only errors for which IsRetryable
// reports true are retried.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	if p.MaxRetries == 0 || p.BaseDelay <= 0 {
		return fn(ctx)
	}

	b := retry.NewExponential(p.BaseDelay)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	b = retry.WithMaxRetries(p.MaxRetries, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			if IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = v
		return nil
	})
	return out, err
}
