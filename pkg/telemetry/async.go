package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/wigg/datalayer/pkg/logger"
)

// AsyncStats is a point-in-time view of an AsyncReporter.
type AsyncStats struct {
	Recorded int64 `json:"recorded" yaml:"recorded"`
	Dropped  int64 `json:"dropped" yaml:"dropped"`
	Failed   int64 `json:"failed" yaml:"failed"`
}

// AsyncReporter decouples event producers from slow sinks. Record enqueues
// without blocking and drops the event when the buffer is full.
type AsyncReporter struct {
	sinks   []Sink
	next    Reporter
	queue   chan queued
	log     *slog.Logger
	wg      sync.WaitGroup
	closeMu sync.RWMutex
	closed  bool

	recorded atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

type queued struct {
	ctx   context.Context
	event Event
}

// AsyncOption configures an AsyncReporter.
type AsyncOption func(*AsyncReporter)

// WithSink adds a fallible sink; write errors are logged and counted.
func WithSink(s Sink) AsyncOption {
	return func(r *AsyncReporter) {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
}

// WithAsyncLogger sets the logger used for sink failures.
func WithAsyncLogger(l *slog.Logger) AsyncOption {
	return func(r *AsyncReporter) {
		if l != nil {
			r.log = l
		}
	}
}

// NewAsyncReporter starts workers goroutines that forward events to next
// and to every sink. bufferSize and workers are clamped to at least 1.
func NewAsyncReporter(next Reporter, bufferSize, workers int, opts ...AsyncOption) *AsyncReporter {
	if next == nil {
		next = Nop()
	}
	r := &AsyncReporter{
		next:  next,
		queue: make(chan queued, max(bufferSize, 1)),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("telemetry.async"))

	for range max(workers, 1) {
		r.wg.Add(1)
		go r.run()
	}
	return r
}

// Record implements Reporter. It never blocks.
func (r *AsyncReporter) Record(ctx context.Context, e Event) {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}

	// Detach from the producer's cancellation; the event outlives the request.
	select {
	case r.queue <- queued{ctx: context.WithoutCancel(ctx), event: e}:
	default:
		r.dropped.Add(1)
	}
}

// Stats returns delivery counters.
func (r *AsyncReporter) Stats() AsyncStats {
	return AsyncStats{
		Recorded: r.recorded.Load(),
		Dropped:  r.dropped.Load(),
		Failed:   r.failed.Load(),
	}
}

// Close stops accepting events and waits until the queue drains or ctx is done.
func (r *AsyncReporter) Close(ctx context.Context) error {
	r.closeMu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *AsyncReporter) run() {
	defer r.wg.Done()
	for q := range r.queue {
		r.deliver(q.ctx, q.event)
	}
}

func (r *AsyncReporter) deliver(ctx context.Context, e Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.failed.Add(1)
			r.log.ErrorContext(ctx, "telemetry reporter panicked", slog.Any("panic", rec))
		}
	}()

	r.next.Record(ctx, e)
	for _, s := range r.sinks {
		if err := s.Write(ctx, e); err != nil {
			r.failed.Add(1)
			r.log.WarnContext(ctx, "telemetry sink write failed",
				logger.Event(string(e.Kind)),
				logger.EntityKey(e.EntityKey),
				logger.Error(err),
			)
		}
	}
	r.recorded.Add(1)
}
