package redis

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/wigg/datalayer/pkg/datasource"
)

var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
)

// AdapterError maps a command failure onto a *datasource.Error attributed to
// adapter. Errors that are already mapped pass through unchanged.
func AdapterError(adapter, op string, err error) error {
	if err == nil {
		return nil
	}
	var dsErr *datasource.Error
	if errors.As(err, &dsErr) {
		return err
	}

	code := datasource.CodeInternal
	var netErr net.Error
	switch {
	case errors.Is(err, redis.Nil):
		code = datasource.CodeNotFound
	case errors.As(err, &netErr),
		errors.Is(err, io.EOF),
		errors.Is(err, redis.ErrClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		code = datasource.CodeNetwork
	}
	return datasource.NewError(code, adapter, op, err)
}
