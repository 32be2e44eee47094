package coexist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wigg/datalayer/pkg/async"
	"github.com/wigg/datalayer/pkg/broadcast"
	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/logger"
	"github.com/wigg/datalayer/pkg/shadow"
	"github.com/wigg/datalayer/pkg/statemachine"
	"github.com/wigg/datalayer/pkg/telemetry"
)

// Hook is one consumer's view of an entity. It keeps the latest state for
// the selected id and guarantees last-request-wins: a result is committed
// only if no newer request was issued after it started.
//
// All methods are safe for concurrent use. Use never blocks on I/O.
type Hook[T, P any] struct {
	f       *Factory[T, P]
	ctx     context.Context
	cancel  context.CancelFunc
	machine *statemachine.Machine[Phase, signal]
	states  *broadcast.MemoryBroadcaster[datasource.State[T]]

	mu        sync.Mutex
	gen       uint64
	id        string
	useNew    bool
	shadow    bool
	evaluated bool
	closed    bool
	state     datasource.State[T]
	reqCancel context.CancelFunc
	unsub     func()

	// fetching is set while the active fetch of gen is outstanding; mutated
	// records that a mutation committed during that window.
	fetching bool
	mutated  bool

	pending int
	settled chan struct{}
}

// Use selects id and returns the current state. A change of id or of the
// resolved flag starts a new request, as does asking for Shadow when the
// current request was issued without it. Repeated calls with the same inputs
// return the latest state without I/O. A disabled call or an empty id
// returns the zero state and abandons any in-flight request.
func (h *Hook[T, P]) Use(id string, opts Options) datasource.State[T] {
	useNew := h.f.UseNew(h.ctx)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return datasource.State[T]{}
	}

	if (opts.Enabled != nil && !*opts.Enabled) || id == "" {
		if !h.evaluated && h.machine.Is(PhaseIdle) {
			h.mu.Unlock()
			return datasource.State[T]{}
		}
		release := h.invalidate()
		h.evaluated = false
		h.id = ""
		h.commit(datasource.State[T]{}, sigDisable)
		h.mu.Unlock()
		release()
		return datasource.State[T]{}
	}

	if h.evaluated && h.id == id && h.useNew == useNew && (h.shadow || !opts.Shadow) {
		h.shadow = opts.Shadow
		state := h.state
		h.mu.Unlock()
		return state
	}

	release := h.start(id, useNew, opts.Shadow)
	state := h.state
	h.mu.Unlock()
	release()
	return state
}

// Refetch issues a new request for the current id and adapter.
func (h *Hook[T, P]) Refetch() {
	h.mu.Lock()
	if h.closed || !h.evaluated {
		h.mu.Unlock()
		return
	}
	release := h.start(h.id, h.useNew, h.shadow)
	h.mu.Unlock()
	release()
}

// Mutate applies patch through the active adapter. The future resolves with
// the adapter's result or its error unchanged. On success the value is
// committed if the request it was issued for is still current. A fetch of
// that request still in flight keeps the state loading, and its result is
// discarded in favour of the mutation's.
func (h *Hook[T, P]) Mutate(patch P) *async.Future[T] {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return async.Failed[T](ErrUnmounted)
	}
	if !h.evaluated {
		h.mu.Unlock()
		return async.Failed[T](ErrNoEntity)
	}
	gen, id := h.gen, h.id
	active, _ := h.adapters(h.useNew)
	h.mu.Unlock()

	m, ok := active.(datasource.Mutator[T, P])
	if !ok {
		return async.Failed[T](fmt.Errorf("%w: %s does not mutate", datasource.ErrUnsupportedOperation, active.Name()))
	}

	log := h.f.log.With(logger.EntityID(id), logger.Adapter(active.Name()), logger.Generation(gen))

	h.track()
	fut := async.Go(h.ctx, func(ctx context.Context) (T, error) {
		v, err := m.Mutate(ctx, id, patch)
		if err != nil {
			log.WarnContext(ctx, "mutation failed", logger.Error(err))
			return v, err
		}

		h.mu.Lock()
		switch {
		case h.gen != gen || h.closed:
			// superseded
		case h.fetching:
			h.mutated = true
			h.commit(datasource.State[T]{Data: &v, Loading: true}, sigRequest)
		default:
			h.commit(datasource.State[T]{Data: &v}, sigSucceed)
		}
		h.mu.Unlock()
		return v, nil
	})
	go func() {
		<-fut.Done()
		h.untrack()
	}()
	return fut
}

// Subscribe streams committed states. A new subscriber first receives the
// latest committed state, if any. Slow subscribers only see the newest one.
func (h *Hook[T, P]) Subscribe(ctx context.Context) broadcast.Subscriber[datasource.State[T]] {
	return h.states.Subscribe(ctx)
}

// State returns the latest committed state.
func (h *Hook[T, P]) State() datasource.State[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Phase returns the lifecycle phase.
func (h *Hook[T, P]) Phase() Phase {
	return h.machine.Current()
}

// Generation returns the number of requests issued or abandoned so far.
func (h *Hook[T, P]) Generation() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gen
}

// Wait blocks until every request, shadow comparison and mutation started
// so far has settled, or ctx is done.
func (h *Hook[T, P]) Wait(ctx context.Context) error {
	h.mu.Lock()
	settled := h.settled
	h.mu.Unlock()

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close unmounts the hook. In-flight requests are cancelled and their
// results discarded. Close is idempotent.
func (h *Hook[T, P]) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	release := h.invalidate()
	h.evaluated = false
	h.state = datasource.State[T]{}
	h.fire(sigUnmount)
	h.mu.Unlock()

	release()
	h.cancel()
	return h.states.Close()
}

func (h *Hook[T, P]) adapters(useNew bool) (active, inactive datasource.Adapter[T]) {
	if useNew {
		return h.f.next, h.f.legacy
	}
	return h.f.legacy, h.f.next
}

// start must be called with h.mu held. The returned func must be called
// after h.mu is released.
func (h *Hook[T, P]) start(id string, useNew, withShadow bool) func() {
	release := h.invalidate()

	gen := h.gen
	h.id, h.useNew, h.shadow, h.evaluated = id, useNew, withShadow, true
	h.fetching, h.mutated = true, false

	reqCtx, cancel := context.WithCancel(h.ctx)
	h.reqCancel = cancel

	h.commit(datasource.State[T]{Data: h.state.Data, Loading: true}, sigRequest)

	active, inactive := h.adapters(useNew)
	log := h.f.log.With(logger.EntityID(id), logger.Generation(gen))
	log.DebugContext(reqCtx, "request issued",
		logger.Adapter(active.Name()),
		slog.Bool("shadow", withShadow),
	)

	fetch := async.Go(reqCtx, func(ctx context.Context) (T, error) {
		return active.Fetch(ctx, id)
	})
	h.pendingAdd()
	go h.awaitFetch(reqCtx, gen, id, active, fetch, log)

	if withShadow {
		shadowCtx, shadowCancel := reqCtx, context.CancelFunc(func() {})
		if h.f.shadowTTL > 0 {
			shadowCtx, shadowCancel = context.WithTimeout(reqCtx, h.f.shadowTTL)
		}
		other := async.Go(shadowCtx, func(ctx context.Context) (T, error) {
			return inactive.Fetch(ctx, id)
		})
		legacyFut, nextFut := fetch, other
		if useNew {
			legacyFut, nextFut = other, fetch
		}
		h.pendingAdd()
		go h.awaitShadow(reqCtx, shadowCancel, gen, id, inactive, useNew, legacyFut, nextFut, log)
	}

	return release
}

func (h *Hook[T, P]) awaitFetch(ctx context.Context, gen uint64, id string, active datasource.Adapter[T], fut *async.Future[T], log *slog.Logger) {
	defer h.untrack()

	v, err := fut.Await()

	h.mu.Lock()
	if h.gen != gen || h.closed {
		h.mu.Unlock()
		log.DebugContext(ctx, "stale result discarded", logger.Adapter(active.Name()))
		return
	}
	h.fetching = false
	if h.mutated {
		h.mutated = false
		h.commit(datasource.State[T]{Data: h.state.Data}, sigSucceed)
		h.mu.Unlock()
		log.DebugContext(ctx, "fetch result superseded by mutation", logger.Adapter(active.Name()), logger.Error(err))
		if sub, ok := active.(datasource.Subscriber[T]); ok && err == nil {
			h.follow(ctx, gen, id, sub)
		}
		return
	}
	if err != nil {
		h.commit(datasource.State[T]{Err: err}, sigFail)
		h.mu.Unlock()
		log.WarnContext(ctx, "fetch failed", logger.Adapter(active.Name()), logger.Error(err))
		return
	}
	h.commit(datasource.State[T]{Data: &v}, sigSucceed)
	h.mu.Unlock()

	if sub, ok := active.(datasource.Subscriber[T]); ok {
		h.follow(ctx, gen, id, sub)
	}
}

// follow attaches a push subscription for generation gen.
func (h *Hook[T, P]) follow(ctx context.Context, gen uint64, id string, sub datasource.Subscriber[T]) {
	unsub := sub.Subscribe(ctx, id, func(v T) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.gen != gen || h.closed {
			return
		}
		h.commit(datasource.State[T]{Data: &v}, sigSucceed)
	})
	if unsub == nil {
		return
	}

	h.mu.Lock()
	if h.gen != gen || h.closed {
		h.mu.Unlock()
		unsub()
		return
	}
	h.unsub = unsub
	h.mu.Unlock()
}

func (h *Hook[T, P]) awaitShadow(
	ctx context.Context,
	cancel context.CancelFunc,
	gen uint64,
	id string,
	inactive datasource.Adapter[T],
	useNew bool,
	legacyFut, nextFut *async.Future[T],
	log *slog.Logger,
) {
	defer h.untrack()
	defer cancel()

	lv, lerr := legacyFut.Await()
	nv, nerr := nextFut.Await()

	if ctx.Err() != nil && (errors.Is(lerr, context.Canceled) || errors.Is(nerr, context.Canceled)) {
		log.DebugContext(ctx, "shadow comparison skipped, request superseded")
		return
	}

	legacy := datasource.Outcome[T]{Value: lv, Err: lerr}
	next := datasource.Outcome[T]{Value: nv, Err: nerr}

	inactiveErr := nerr
	if useNew {
		inactiveErr = lerr
	}
	if inactiveErr != nil {
		h.reportShadowFailure(ctx, gen, id, inactive.Name(), inactiveErr, log)
	}

	if h.f.comparator == nil {
		return
	}
	h.compare(context.WithoutCancel(ctx), id, legacy, next, log)
}

func (h *Hook[T, P]) reportShadowFailure(ctx context.Context, gen uint64, id, adapter string, err error, log *slog.Logger) {
	log.WarnContext(ctx, "shadow fetch failed", logger.Adapter(adapter), logger.Error(err))
	h.f.reporter.Record(ctx, telemetry.NewEvent(telemetry.KindAdapterError, h.f.entityKey, id, map[string]any{
		"adapter":    adapter,
		"code":       string(datasource.CodeOf(err)),
		"error":      err.Error(),
		"generation": gen,
		"shadow":     true,
	}))
}

func (h *Hook[T, P]) compare(ctx context.Context, id string, legacy, next datasource.Outcome[T], log *slog.Logger) []shadow.Divergence {
	defer func() {
		if rec := recover(); rec != nil {
			log.ErrorContext(ctx, "shadow comparator panicked", slog.Any("panic", rec))
		}
	}()
	return h.f.comparator.Compare(ctx, h.f.entityKey, id, legacy, next)
}

// invalidate abandons the current generation. It must be called with h.mu
// held; the returned func releases the push subscription and must be called
// after h.mu is released.
func (h *Hook[T, P]) invalidate() func() {
	h.gen++
	if h.reqCancel != nil {
		h.reqCancel()
		h.reqCancel = nil
	}
	unsub := h.unsub
	h.unsub = nil
	if unsub == nil {
		return func() {}
	}
	return unsub
}

// commit must be called with h.mu held.
func (h *Hook[T, P]) commit(state datasource.State[T], sig signal) {
	h.state = state
	h.fire(sig)
	_ = h.states.Broadcast(h.ctx, broadcast.Message[datasource.State[T]]{Data: state})
}

func (h *Hook[T, P]) fire(sig signal) {
	if _, _, err := h.machine.Fire(sig); err != nil {
		h.f.log.DebugContext(h.ctx, "lifecycle transition rejected", logger.Event(string(sig)), logger.Error(err))
	}
}

// pendingAdd must be called with h.mu held.
func (h *Hook[T, P]) pendingAdd() {
	if h.pending == 0 {
		h.settled = make(chan struct{})
	}
	h.pending++
}

func (h *Hook[T, P]) track() {
	h.mu.Lock()
	h.pendingAdd()
	h.mu.Unlock()
}

func (h *Hook[T, P]) untrack() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending--
	if h.pending == 0 {
		close(h.settled)
	}
}
