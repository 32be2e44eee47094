package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a telemetry event.
type Kind string

const (
	// KindDivergence is one field that differed between the legacy and new adapters.
	KindDivergence Kind = "divergence"
	// KindAdapterError is a failure of the inactive (shadow) adapter.
	KindAdapterError Kind = "adapter_error"
	// KindDivergenceRate fires when an entity's divergence rate crosses its threshold.
	KindDivergenceRate Kind = "divergence_rate"
)

// Event is a single out-of-band observation from the data layer.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Kind      Kind           `json:"kind"`
	EntityKey string         `json:"entity_key"`
	EntityID  string         `json:"entity_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent fills in ID and Timestamp.
func NewEvent(kind Kind, entityKey, entityID string, payload map[string]any) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		EntityKey: entityKey,
		EntityID:  entityID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Reporter receives telemetry events. Record must not block the caller for
// long and must be safe for concurrent use.
type Reporter interface {
	Record(ctx context.Context, e Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, e Event)

// Record implements Reporter.
func (f ReporterFunc) Record(ctx context.Context, e Event) { f(ctx, e) }

type nop struct{}

func (nop) Record(context.Context, Event) {}

// Nop returns a Reporter that discards every event.
func Nop() Reporter { return nop{} }

type multi []Reporter

func (m multi) Record(ctx context.Context, e Event) {
	for _, r := range m {
		r.Record(ctx, e)
	}
}

// Multi fans an event out to every non-nil reporter in order.
func Multi(reporters ...Reporter) Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return Nop()
	case 1:
		return out[0]
	}
	return out
}

// Sink is a reporter whose writes can fail, such as a database table.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

var (
	ErrReporterClosed = errors.New("telemetry: reporter is closed")
	ErrSinkFailed     = errors.New("telemetry: sink write failed")
)
