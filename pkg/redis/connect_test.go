package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wigg/datalayer/pkg/redis"
)

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "follows:u1", redis.Key("", "follows", "u1"))
	assert.Equal(t, "app:follows:u1", redis.Key("app", "follows", "u1"))
	assert.Equal(t, "app:follows:u1", redis.Key("app:", "follows", "", "u1"))
	assert.Equal(t, "app", redis.Key("app"))
}

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "not a url"})
	require.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}
