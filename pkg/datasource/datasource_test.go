package datasource_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wigg/datalayer/pkg/datasource"
)

func TestFuncAdapters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	readOnly := datasource.NewFunc("legacy", func(ctx context.Context, id string) (int, error) {
		return len(id), nil
	})
	assert.Equal(t, "legacy", readOnly.Name())
	v, err := readOnly.Fetch(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, ok := readOnly.(datasource.Mutator[int, string])
	assert.False(t, ok, "read-only adapter must not expose Mutate")

	mutable := datasource.NewMutableFunc("new",
		func(ctx context.Context, id string) (int, error) { return 0, nil },
		func(ctx context.Context, id string, patch string) (int, error) { return len(id + patch), nil },
	)
	m, ok := mutable.(datasource.Mutator[int, string])
	require.True(t, ok)
	v, err = m.Mutate(ctx, "ab", "cd")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestState(t *testing.T) {
	t.Parallel()
	n := 5

	assert.False(t, datasource.State[int]{}.Ready())
	assert.False(t, datasource.State[int]{Data: &n, Loading: true}.Ready())
	assert.True(t, datasource.State[int]{Data: &n}.Ready())
	assert.True(t, datasource.Outcome[int]{Value: 1}.OK())
	assert.False(t, datasource.Outcome[int]{Err: errors.New("x")}.OK())
}

func TestError(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection reset")
	err := datasource.NewError(datasource.CodeNetwork, "legacy", "like count", cause)

	assert.Equal(t, "legacy adapter: network: like count: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("fetch: %w", err)
	assert.Equal(t, datasource.CodeNetwork, datasource.CodeOf(wrapped))
	assert.True(t, datasource.IsRetryable(wrapped))

	assert.Equal(t, datasource.Code(""), datasource.CodeOf(nil))
	assert.Equal(t, datasource.CodeInternal, datasource.CodeOf(errors.New("x")))
	assert.Equal(t, datasource.CodeNetwork, datasource.CodeOf(context.DeadlineExceeded))
	assert.False(t, datasource.IsRetryable(datasource.NewError(datasource.CodeNotFound, "new", "missing", nil)))
	assert.False(t, datasource.IsRetryable(context.Canceled))
	assert.Equal(t, "new adapter: invalid: own profile", datasource.NewError(datasource.CodeInvalid, "new", "own profile", nil).Error())
}

func TestWrap(t *testing.T) {
	t.Parallel()

	assert.NoError(t, datasource.Wrap("legacy", "fetch", nil))

	mapped := datasource.NewError(datasource.CodeUnauthorized, "legacy", "like", nil)
	assert.Equal(t, error(mapped), datasource.Wrap("new", "fetch", mapped))
	assert.Equal(t, datasource.CodeUnauthorized, datasource.CodeOf(datasource.Wrap("new", "fetch", fmt.Errorf("ctx: %w", mapped))))

	err := datasource.Wrap("new", "fetch", context.DeadlineExceeded)
	assert.Equal(t, datasource.CodeNetwork, datasource.CodeOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetry(t *testing.T) {
	t.Parallel()
	policy := datasource.RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	t.Run("retries transient failures", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		v, err := datasource.Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
			if calls.Add(1) < 3 {
				return "", datasource.NewError(datasource.CodeNetwork, "legacy", "flaky", nil)
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		_, err := datasource.Retry(context.Background(), policy, func(ctx context.Context) (int, error) {
			calls.Add(1)
			return 0, datasource.NewError(datasource.CodeNetwork, "legacy", "down", nil)
		})
		require.Error(t, err)
		assert.Equal(t, datasource.CodeNetwork, datasource.CodeOf(err))
		assert.Equal(t, int32(4), calls.Load())
	})

	t.Run("does not retry permanent failures", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		_, err := datasource.Retry(context.Background(), policy, func(ctx context.Context) (int, error) {
			calls.Add(1)
			return 0, datasource.NewError(datasource.CodeUnauthorized, "new", "no caller", nil)
		})
		assert.Equal(t, datasource.CodeUnauthorized, datasource.CodeOf(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("no retry policy calls once", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		_, err := datasource.Retry(context.Background(), datasource.NoRetry(), func(ctx context.Context) (int, error) {
			calls.Add(1)
			return 0, datasource.NewError(datasource.CodeNetwork, "new", "down", nil)
		})
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		slow := datasource.RetryPolicy{MaxRetries: 10, BaseDelay: time.Second}
		_, err := datasource.Retry(ctx, slow, func(ctx context.Context) (int, error) {
			cancel()
			return 0, datasource.NewError(datasource.CodeNetwork, "new", "down", nil)
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
