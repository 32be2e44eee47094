package datasource

import "context"

// Adapter is one backend implementation of an entity's data path.
// Legacy and new adapters of the same entity return the same T so that
// consumers cannot tell which one is active.
type Adapter[T any] interface {
	// Name identifies the adapter in logs and telemetry, e.g. "legacy" or "new".
	Name() string
	// Fetch loads the entity identified by id. Implementations must honour
	// ctx cancellation; the coexistence layer cancels superseded requests.
	Fetch(ctx context.Context, id string) (T, error)
}

// Mutator is the optional write capability of an Adapter.
type Mutator[T, P any] interface {
	Mutate(ctx context.Context, id string, patch P) (T, error)
}

// Subscriber is the optional push capability of an Adapter.
// onChange may be called from any goroutine until unsubscribe is called.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context, id string, onChange func(T)) (unsubscribe func())
}

// State is the normalized result handed to consumers.
// Data is nil when nothing has been loaded, or after a failure.
type State[T any] struct {
	Data    *T
	Loading bool
	Err     error
}

// Ready reports whether the state holds data and no request is in flight.
func (s State[T]) Ready() bool {
	return s.Data != nil && !s.Loading && s.Err == nil
}

// Outcome is the settled result of a single adapter call.
type Outcome[T any] struct {
	Value T
	Err   error
}

// OK reports whether the call succeeded.
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// funcAdapter adapts plain functions to Adapter and, optionally, Mutator.
type funcAdapter[T, P any] struct {
	name   string
	fetch  func(ctx context.Context, id string) (T, error)
	mutate func(ctx context.Context, id string, patch P) (T, error)
}

func (a *funcAdapter[T, P]) Name() string { return a.name }

func (a *funcAdapter[T, P]) Fetch(ctx context.Context, id string) (T, error) {
	return a.fetch(ctx, id)
}

type mutableFuncAdapter[T, P any] struct {
	*funcAdapter[T, P]
}

func (a mutableFuncAdapter[T, P]) Mutate(ctx context.Context, id string, patch P) (T, error) {
	return a.mutate(ctx, id, patch)
}

// NewFunc builds a read-only Adapter from a fetch function.
func NewFunc[T any](name string, fetch func(ctx context.Context, id string) (T, error)) Adapter[T] {
	return &funcAdapter[T, struct{}]{name: name, fetch: fetch}
}

// NewMutableFunc builds an Adapter that also implements Mutator[T, P].
func NewMutableFunc[T, P any](
	name string,
	fetch func(ctx context.Context, id string) (T, error),
	mutate func(ctx context.Context, id string, patch P) (T, error),
) Adapter[T] {
	return mutableFuncAdapter[T, P]{&funcAdapter[T, P]{name: name, fetch: fetch, mutate: mutate}}
}
