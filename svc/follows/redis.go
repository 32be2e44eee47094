package follows

import (
	"context"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wigg/datalayer/pkg/redis"
)

// RedisBackend keeps each user's follow set in a Redis set
// (<prefix>:follows:<follower>) and announces changes on
// <prefix>:follows:<follower>:changed.
type RedisBackend struct {
	client goredis.UniversalClient
	prefix string
}

// NewRedisBackend returns a LegacyBackend on client. prefix may be empty.
func NewRedisBackend(client goredis.UniversalClient, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

// SetKey returns the follow set key of followerID.
func (b *RedisBackend) SetKey(followerID string) string {
	return redis.Key(b.prefix, "follows", followerID)
}

// ChannelKey returns the change channel of followerID.
func (b *RedisBackend) ChannelKey(followerID string) string {
	return redis.Key(b.prefix, "follows", followerID, "changed")
}

func (b *RedisBackend) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	ok, err := b.client.SIsMember(ctx, b.SetKey(followerID), targetID).Result()
	if err != nil {
		return false, redis.AdapterError(legacyName, "sismember", err)
	}
	return ok, nil
}

func (b *RedisBackend) Follow(ctx context.Context, followerID, targetID string) error {
	return b.change(ctx, followerID, func(p goredis.Pipeliner) {
		p.SAdd(ctx, b.SetKey(followerID), targetID)
	})
}

func (b *RedisBackend) Unfollow(ctx context.Context, followerID, targetID string) error {
	return b.change(ctx, followerID, func(p goredis.Pipeliner) {
		p.SRem(ctx, b.SetKey(followerID), targetID)
	})
}

func (b *RedisBackend) change(ctx context.Context, followerID string, fn func(goredis.Pipeliner)) error {
	_, err := b.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		fn(p)
		p.Publish(ctx, b.ChannelKey(followerID), "1")
		return nil
	})
	return redis.AdapterError(legacyName, "update follows", err)
}

// Watch implements Watcher with a pub/sub subscription.
func (b *RedisBackend) Watch(ctx context.Context, followerID string, onChange func()) func() {
	ps := b.client.Subscribe(ctx, b.ChannelKey(followerID))
	msgs := ps.Channel()
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				onChange()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
}
