package pg

import (
	"context"
	"errors"
	"time"
)

// Pinger is the part of a pool a readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthcheck returns a probe that pings p, bounded by timeout when it is positive.
func Healthcheck(p Pinger, timeout time.Duration) func(context.Context) error {
	return func(ctx context.Context) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := p.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
