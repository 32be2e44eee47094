package likes

import (
	"context"

	"github.com/wigg/datalayer/pkg/async"
	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/feature"
)

const (
	legacyName = "legacy"
	nextName   = "new"
)

// AdapterOption configures the likes adapters.
type AdapterOption func(*adapterConfig)

type adapterConfig struct {
	retry datasource.RetryPolicy
}

// WithRetry sets the retry policy for reads.
func WithRetry(p datasource.RetryPolicy) AdapterOption {
	return func(c *adapterConfig) { c.retry = p }
}

func newAdapterConfig(opts []AdapterOption) adapterConfig {
	cfg := adapterConfig{retry: datasource.DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// LegacyAdapter reads likes through two legacy RPCs issued in parallel.
type LegacyAdapter struct {
	backend LegacyBackend
	cfg     adapterConfig
}

// NewLegacyAdapter wraps the legacy RPC backend.
func NewLegacyAdapter(b LegacyBackend, opts ...AdapterOption) *LegacyAdapter {
	return &LegacyAdapter{backend: b, cfg: newAdapterConfig(opts)}
}

func (a *LegacyAdapter) Name() string { return legacyName }

// Fetch returns the like count and whether the caller liked pointID.
// Anonymous callers never have liked anything.
func (a *LegacyAdapter) Fetch(ctx context.Context, pointID string) (Likes, error) {
	userID := feature.CallerIDFromContext(ctx)

	count := async.Go(ctx, func(ctx context.Context) (int, error) {
		return datasource.Retry(ctx, a.cfg.retry, func(ctx context.Context) (int, error) {
			n, err := a.backend.LikeCount(ctx, pointID)
			return n, datasource.Wrap(legacyName, "like count", err)
		})
	})
	liked := async.Resolved(false)
	if userID != "" {
		liked = async.Go(ctx, func(ctx context.Context) (bool, error) {
			return datasource.Retry(ctx, a.cfg.retry, func(ctx context.Context) (bool, error) {
				ok, err := a.backend.HasLiked(ctx, pointID, userID)
				return ok, datasource.Wrap(legacyName, "has liked", err)
			})
		})
	}

	n, err := count.Await()
	if err != nil {
		return Likes{}, err
	}
	l, err := liked.Await()
	if err != nil {
		return Likes{}, err
	}
	return Likes{Liked: l, Count: n}, nil
}

// Mutate inserts or deletes the caller's like row and re-reads the summary.
func (a *LegacyAdapter) Mutate(ctx context.Context, pointID string, t Toggle) (Likes, error) {
	userID := feature.CallerIDFromContext(ctx)
	if userID == "" {
		return Likes{}, datasource.NewError(datasource.CodeUnauthorized, legacyName, "toggle like", ErrSignInRequired)
	}

	var err error
	if t.Liked {
		err = a.backend.InsertLike(ctx, pointID, userID)
	} else {
		err = a.backend.DeleteLike(ctx, pointID, userID)
	}
	if err != nil {
		return Likes{}, datasource.Wrap(legacyName, "toggle like", err)
	}
	return a.Fetch(ctx, pointID)
}

// Adapter reads likes from the new store with a single aggregate query.
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
func (a *Adapter) Fetch(ctx context.Context, pointID string) (Likes, error) {
	userID := feature.CallerIDFromContext(ctx)
	return datasource.Retry(ctx, a.cfg.retry, func(ctx context.Context) (Likes, error) {
		l, err := a.store.Aggregate(ctx, pointID, userID)
		return l, datasource.Wrap(nextName, "aggregate", err)
	})
}

// Mutate upserts or deletes the caller's like and returns the new summary.
func (a *Adapter) Mutate(ctx context.Context, pointID string, t Toggle) (Likes, error) {
	userID := feature.CallerIDFromContext(ctx)
	if userID == "" {
		return Likes{}, datasource.NewError(datasource.CodeUnauthorized, nextName, "toggle like", ErrSignInRequired)
	}
	l, err := a.store.SetLiked(ctx, pointID, userID, t.Liked)
	if err != nil {
		return Likes{}, datasource.Wrap(nextName, "toggle like", err)
	}
	return l, nil
}
