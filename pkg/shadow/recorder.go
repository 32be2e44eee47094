package shadow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/logger"
	"github.com/wigg/datalayer/pkg/telemetry"
)

// Recorder runs a Policy on settled shadow pairs and forwards the result:
// every comparison feeds the rate monitor, every new divergence is logged
// and reported as a divergence event.
type Recorder[T any] struct {
	policy   *Policy[T]
	reporter telemetry.Reporter
	dedupe   *Deduper
	rate     *RateMonitor
	log      *slog.Logger

	mu   sync.Mutex
	last []Divergence
	keep int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*recorderSettings)

type recorderSettings struct {
	reporter telemetry.Reporter
	dedupe   *Deduper
	rate     *RateMonitor
	log      *slog.Logger
	keep     int
}

// WithReporter sets where divergence events go.
func WithReporter(r telemetry.Reporter) RecorderOption {
	return func(s *recorderSettings) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithDeduper suppresses repeated divergences.
func WithDeduper(d *Deduper) RecorderOption {
	return func(s *recorderSettings) { s.dedupe = d }
}

// WithRateMonitor feeds every comparison into m.
func WithRateMonitor(m *RateMonitor) RecorderOption {
	return func(s *recorderSettings) { s.rate = m }
}

// WithLogger sets the logger for divergences.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(s *recorderSettings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithHistory keeps the last n reported divergences for Recent.
func WithHistory(n int) RecorderOption {
	return func(s *recorderSettings) { s.keep = max(n, 0) }
}

// NewRecorder wraps policy.
func NewRecorder[T any](policy *Policy[T], opts ...RecorderOption) *Recorder[T] {
	s := recorderSettings{reporter: telemetry.Nop(), log: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Recorder[T]{
		policy:   policy.WithLogger(s.log),
		reporter: s.reporter,
		dedupe:   s.dedupe,
		rate:     s.rate,
		log:      s.log.With(logger.Component("shadow")),
		keep:     s.keep,
	}
}

// Compare compares one settled legacy/new pair and returns the divergences
// that were reported (after de-duplication).
func (r *Recorder[T]) Compare(ctx context.Context, entityKey, entityID string, legacy, next datasource.Outcome[T]) []Divergence {
	divs := r.policy.Compare(entityKey, entityID, legacy, next)
	if r.rate != nil {
		r.rate.Observe(ctx, entityKey, len(divs) > 0)
	}

	reported := make([]Divergence, 0, len(divs))
	for _, d := range divs {
		if r.dedupe.Seen(d) {
			continue
		}
		r.log.WarnContext(ctx, "shadow divergence",
			logger.EntityKey(d.EntityKey),
			logger.EntityID(d.EntityID),
			logger.Field(d.Field),
			slog.Any("legacy", d.LegacyValue),
			slog.Any("new", d.NewValue),
		)
		r.reporter.Record(ctx, telemetry.NewEvent(telemetry.KindDivergence, d.EntityKey, d.EntityID, d.Payload()))
		reported = append(reported, d)
	}

	if r.keep > 0 && len(reported) > 0 {
		r.mu.Lock()
		r.last = append(r.last, reported...)
		if over := len(r.last) - r.keep; over > 0 {
			r.last = append(r.last[:0:0], r.last[over:]...)
		}
		r.mu.Unlock()
	}
	return reported
}

// Recent returns up to the last WithHistory divergences, oldest first.
func (r *Recorder[T]) Recent() []Divergence {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Divergence, len(r.last))
	copy(out, r.last)
	return out
}
