package feature

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ResolveSource names the layer that produced a resolved value.
type ResolveSource string

const (
	// SourceOverride means an injected Source supplied the value.
	SourceOverride ResolveSource = "override"
	// SourceDefault means the caller's Config.DefaultValue was used.
	SourceDefault ResolveSource = "default"
	// SourceFallback means neither was available, or input was malformed.
	SourceFallback ResolveSource = "fallback"
)

// Trace captures how a single key was resolved.
type Trace struct {
	Key    string        `json:"key" yaml:"key"`
	Value  bool          `json:"value" yaml:"value"`
	Source ResolveSource `json:"source" yaml:"source"`
	Err    error         `json:"-" yaml:"-"`
}

// Resolver maps a flag key and local configuration to a boolean.
// It holds no per-key state and is safe for unbounded concurrent use.
// A nil *Resolver behaves like one without a Source.
type Resolver struct {
	source Source
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSource injects the override source consulted before local defaults.
func WithSource(s Source) ResolverOption {
	return func(r *Resolver) {
		r.source = s
	}
}

// WithLogger sets the logger used to report failing sources.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver. Without WithSource it only honours local defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the flag value for key. It never panics: malformed input,
// failing sources and panicking sources all degrade to the local default,
// and the local default degrades to false.
func (r *Resolver) Resolve(ctx context.Context, key string, cfg *Config) bool {
	return r.Trace(ctx, key, cfg).Value
}

// Trace resolves key and reports which layer decided the value.
func (r *Resolver) Trace(ctx context.Context, key string, cfg *Config) Trace {
	key = strings.TrimSpace(key)
	if key == "" {
		return Trace{Source: SourceFallback}
	}

	tr := Trace{Key: key}
	if r != nil && r.source != nil {
		value, ok, err := r.lookup(ctx, key)
		if err != nil {
			tr.Err = err
			r.logger.DebugContext(ctx, "feature source lookup failed, using default",
				slog.String("flag", key),
				slog.Any("error", err),
			)
		} else if ok {
			tr.Value = value
			tr.Source = SourceOverride
			return tr
		}
	}

	if cfg != nil {
		tr.Value = cfg.DefaultValue
		tr.Source = SourceDefault
		return tr
	}

	tr.Source = SourceFallback
	return tr
}

func (r *Resolver) lookup(ctx context.Context, key string) (value bool, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			value, ok, err = false, false, fmt.Errorf("%w: source panicked: %v", ErrSourceFailed, rec)
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}
	return r.source.Lookup(ctx, key)
}
