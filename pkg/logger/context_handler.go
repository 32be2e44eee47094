package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls one attribute out of a context, e.g. the caller id.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// ContextValue returns an extractor logging ctx.Value(key) under name.
func ContextValue(name string, key any) ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		v := ctx.Value(key)
		if v == nil {
			return slog.Attr{}, false
		}
		return slog.Any(name, v), true
	}
}

// ContextHandler adds the attributes found by its extractors to every
// record. Extraction runs per record, so values that change between calls
// sharing one logger are always current.
type ContextHandler struct {
	inner   slog.Handler
	extract []ContextExtractor
}

// NewContextHandler wraps inner. Nil extractors are dropped.
func NewContextHandler(inner slog.Handler, extractors ...ContextExtractor) *ContextHandler {
	h := &ContextHandler{inner: inner}
	for _, ex := range extractors {
		if ex != nil {
			h.extract = append(h.extract, ex)
		}
	}
	return h
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extract {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.inner.Handle(ctx, rec)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), extract: h.extract}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name), extract: h.extract}
}

// Unwrap returns the wrapped handler.
func (h *ContextHandler) Unwrap() slog.Handler { return h.inner }
