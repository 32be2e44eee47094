package coexist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wigg/datalayer/pkg/broadcast"
	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/feature"
	"github.com/wigg/datalayer/pkg/logger"
	"github.com/wigg/datalayer/pkg/shadow"
	"github.com/wigg/datalayer/pkg/telemetry"
)

// FlagSuffix is appended to an entity key to form its flag key.
const FlagSuffix = "-data-layer"

// FlagKey returns the feature flag that selects the adapter for entityKey.
func FlagKey(entityKey string) string {
	return entityKey + FlagSuffix
}

// Comparator receives both settled outcomes of a shadow request.
type Comparator[T any] interface {
	Compare(ctx context.Context, entityKey, entityID string, legacy, next datasource.Outcome[T]) []shadow.Divergence
}

// Options are the per-call switches of Hook.Use.
type Options struct {
	// Enabled=false suppresses fetching entirely. Nil means enabled.
	Enabled *bool
	// Shadow also runs the inactive adapter and compares the results.
	Shadow bool
}

// Bool returns a pointer to v, for Options.Enabled.
func Bool(v bool) *bool { return &v }

// Option configures a Factory.
type Option func(*settings)

type settings struct {
	resolver      *feature.Resolver
	flagConfig    *feature.Config
	comparator    any
	reporter      telemetry.Reporter
	log           *slog.Logger
	shadowTimeout time.Duration
}

// WithResolver injects the flag resolver. Without it only the flag default applies.
func WithResolver(r *feature.Resolver) Option {
	return func(s *settings) { s.resolver = r }
}

// WithFlagDefault sets the local default used when no flag source answers.
func WithFlagDefault(v bool) Option {
	return func(s *settings) { s.flagConfig = feature.Default(v) }
}

// WithComparator sets the shadow comparator. T must match the factory's type;
// New panics otherwise.
func WithComparator[T any](c Comparator[T]) Option {
	return func(s *settings) { s.comparator = c }
}

// WithReporter sets where shadow adapter failures are reported.
func WithReporter(r telemetry.Reporter) Option {
	return func(s *settings) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithLogger sets the hook logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithShadowTimeout bounds the inactive adapter call in shadow mode.
// Zero leaves it bounded only by the request's lifetime.
func WithShadowTimeout(d time.Duration) Option {
	return func(s *settings) { s.shadowTimeout = d }
}

// Factory builds hooks for one entity. It is immutable and safe to share.
type Factory[T, P any] struct {
	entityKey  string
	flagKey    string
	legacy     datasource.Adapter[T]
	next       datasource.Adapter[T]
	resolver   *feature.Resolver
	flagConfig *feature.Config
	comparator Comparator[T]
	reporter   telemetry.Reporter
	log        *slog.Logger
	shadowTTL  time.Duration
}

// New returns the factory for entityKey switching between legacy and next.
// P is the patch type accepted by Hook.Mutate.
func New[T, P any](entityKey string, legacy, next datasource.Adapter[T], opts ...Option) *Factory[T, P] {
	if legacy == nil || next == nil {
		panic(fmt.Sprintf("coexist: %s: both adapters are required", entityKey))
	}

	s := settings{reporter: telemetry.Nop(), log: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}

	f := &Factory[T, P]{
		entityKey:  entityKey,
		flagKey:    FlagKey(entityKey),
		legacy:     legacy,
		next:       next,
		resolver:   s.resolver,
		flagConfig: s.flagConfig,
		reporter:   s.reporter,
		log:        s.log.With(logger.Component("coexist"), logger.EntityKey(entityKey)),
		shadowTTL:  s.shadowTimeout,
	}
	if s.comparator != nil {
		c, ok := s.comparator.(Comparator[T])
		if !ok {
			panic(fmt.Errorf("%w: %s got %T", ErrComparatorType, entityKey, s.comparator))
		}
		f.comparator = c
	}
	return f
}

// EntityKey returns the entity key.
func (f *Factory[T, P]) EntityKey() string { return f.entityKey }

// FlagKey returns the flag consulted on every Use.
func (f *Factory[T, P]) FlagKey() string { return f.flagKey }

// Adapters returns the legacy and new adapters.
func (f *Factory[T, P]) Adapters() (legacy, next datasource.Adapter[T]) {
	return f.legacy, f.next
}

// UseNew resolves the flag for ctx's caller.
func (f *Factory[T, P]) UseNew(ctx context.Context) bool {
	return f.resolver.Resolve(ctx, f.flagKey, f.flagConfig)
}

// Mount creates a hook. ctx scopes every request the hook issues and
// carries the caller identity used for flag resolution.
func (f *Factory[T, P]) Mount(ctx context.Context) *Hook[T, P] {
	ctx, cancel := context.WithCancel(ctx)
	h := &Hook[T, P]{
		f:       f,
		ctx:     ctx,
		cancel:  cancel,
		states:  broadcast.NewMemoryBroadcaster[datasource.State[T]](1, broadcast.WithConflation(), broadcast.WithReplayLatest()),
		settled: make(chan struct{}),
	}
	close(h.settled)
	h.machine = newLifecycle(func(from, to Phase, sig signal) {
		f.log.DebugContext(ctx, "hook transition",
			slog.String("from", string(from)),
			slog.String("to", string(to)),
			logger.Event(string(sig)),
		)
	})
	return h
}
