package follows

import (
	"context"
	"log/slog"

	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/feature"
	"github.com/wigg/datalayer/pkg/logger"
)

const (
	legacyName = "legacy"
	nextName   = "new"
)

// AdapterOption configures the follow adapters.
type AdapterOption func(*adapterConfig)

type adapterConfig struct {
	retry datasource.RetryPolicy
	log   *slog.Logger
}

// WithRetry sets the retry policy for reads.
func WithRetry(p datasource.RetryPolicy) AdapterOption {
	return func(c *adapterConfig) { c.retry = p }
}

// WithLogger sets the logger used for push updates.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(c *adapterConfig) {
		if l != nil {
			c.log = l
		}
	}
}

func newAdapterConfig(opts []AdapterOption) adapterConfig {
	cfg := adapterConfig{retry: datasource.DefaultRetryPolicy(), log: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// relation resolves the caller against targetID. done reports that the
// status is known without I/O.
func relation(ctx context.Context, targetID string) (followerID string, st Status, done bool) {
	followerID = feature.CallerIDFromContext(ctx)
	switch {
	case followerID == "":
		return "", Status{}, true
	case followerID == targetID:
		return followerID, Status{IsOwnProfile: true}, true
	}
	return followerID, Status{}, false
}

func checkChange(ctx context.Context, adapter, targetID string) (string, error) {
	followerID := feature.CallerIDFromContext(ctx)
	switch {
	case followerID == "":
		return "", datasource.NewError(datasource.CodeUnauthorized, adapter, "follow", ErrSignInRequired)
	case followerID == targetID:
		return "", datasource.NewError(datasource.CodeInvalid, adapter, "follow", ErrOwnProfile)
	}
	return followerID, nil
}

// LegacyAdapter reads follow status from the legacy graph.
// It pushes changes when the backend implements Watcher.
type LegacyAdapter struct {
	backend LegacyBackend
	cfg     adapterConfig
}

// NewLegacyAdapter wraps the legacy backend.
func NewLegacyAdapter(b LegacyBackend, opts ...AdapterOption) *LegacyAdapter {
	return &LegacyAdapter{backend: b, cfg: newAdapterConfig(opts)}
}

func (a *LegacyAdapter) Name() string { return legacyName }

// Fetch implements datasource.Adapter.
func (a *LegacyAdapter) Fetch(ctx context.Context, targetID string) (Status, error) {
	followerID, st, done := relation(ctx, targetID)
	if done {
		return st, nil
	}
	return datasource.Retry(ctx, a.cfg.retry, func(ctx context.Context) (Status, error) {
		ok, err := a.backend.IsFollowing(ctx, followerID, targetID)
		if err != nil {
			return Status{}, datasource.Wrap(legacyName, "is following", err)
		}
		return Status{IsFollowing: ok}, nil
	})
}

// Mutate implements datasource.Mutator.
func (a *LegacyAdapter) Mutate(ctx context.Context, targetID string, c Change) (Status, error) {
	followerID, err := checkChange(ctx, legacyName, targetID)
	if err != nil {
		return Status{}, err
	}
	if c.Follow {
		err = a.backend.Follow(ctx, followerID, targetID)
	} else {
		err = a.backend.Unfollow(ctx, followerID, targetID)
	}
	if err != nil {
		return Status{}, datasource.Wrap(legacyName, "follow", err)
	}
	return Status{IsFollowing: c.Follow}, nil
}

// Subscribe implements datasource.Subscriber. It returns nil when the
// backend cannot push or the status cannot change.
func (a *LegacyAdapter) Subscribe(ctx context.Context, targetID string, onChange func(Status)) func() {
	w, ok := a.backend.(Watcher)
	if !ok {
		return nil
	}
	followerID, _, done := relation(ctx, targetID)
	if done {
		return nil
	}
	return w.Watch(ctx, followerID, func() {
		st, err := a.Fetch(ctx, targetID)
		if err != nil {
			a.cfg.log.WarnContext(ctx, "follow refresh failed",
				logger.EntityKey(EntityKey),
				logger.EntityID(targetID),
				logger.Error(err),
			)
			return
		}
		onChange(st)
	})
}

// Adapter reads follow status from the new store.
type Adapter struct {
	store Store
	cfg   adapterConfig
}

// NewAdapter wraps the new store.
func NewAdapter(s Store, opts ...AdapterOption) *Adapter {
	return &Adapter{store: s, cfg: newAdapterConfig(opts)}
}

func (a *Adapter) Name() string { return nextName }

// Fetch implements datasource.Adapter.
func (a *Adapter) Fetch(ctx context.Context, targetID string) (Status, error) {
	followerID, st, done := relation(ctx, targetID)
	if done {
		return st, nil
	}
	return datasource.Retry(ctx, a.cfg.retry, func(ctx context.Context) (Status, error) {
		ok, err := a.store.IsFollowing(ctx, followerID, targetID)
		if err != nil {
			return Status{}, datasource.Wrap(nextName, "is following", err)
		}
		return Status{IsFollowing: ok}, nil
	})
}

// Mutate implements datasource.Mutator.
func (a *Adapter) Mutate(ctx context.Context, targetID string, c Change) (Status, error) {
	followerID, err := checkChange(ctx, nextName, targetID)
	if err != nil {
		return Status{}, err
	}
	ok, err := a.store.SetFollowing(ctx, followerID, targetID, c.Follow)
	if err != nil {
		return Status{}, datasource.Wrap(nextName, "follow", err)
	}
	return Status{IsFollowing: ok}, nil
}
