package telemetry

import (
	"context"
	"log/slog"

	"github.com/wigg/datalayer/pkg/logger"
)

// LogReporter writes every event as a structured log record.
// Divergences and shadow failures are logged at warn level, everything else at info.
type LogReporter struct {
	log *slog.Logger
}

// NewLogReporter returns a LogReporter. A nil logger uses slog.Default().
func NewLogReporter(log *slog.Logger) *LogReporter {
	if log == nil {
		log = slog.Default()
	}
	return &LogReporter{log: log.With(logger.Component("telemetry"))}
}

// Record implements Reporter.
func (r *LogReporter) Record(ctx context.Context, e Event) {
	level := slog.LevelInfo
	switch e.Kind {
	case KindDivergence, KindAdapterError, KindDivergenceRate:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		logger.Event(string(e.Kind)),
		logger.EntityKey(e.EntityKey),
		slog.String("event_id", e.ID.String()),
	}
	if e.EntityID != "" {
		attrs = append(attrs, logger.EntityID(e.EntityID))
	}
	if len(e.Payload) > 0 {
		payload := make([]slog.Attr, 0, len(e.Payload))
		for k, v := range e.Payload {
			payload = append(payload, slog.Any(k, v))
		}
		attrs = append(attrs, logger.Group("payload", payload...))
	}
	r.log.LogAttrs(ctx, level, "data layer telemetry", attrs...)
}
