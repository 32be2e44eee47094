package feature

import "context"

// Config carries the locally supplied default for a flag.
// A nil *Config resolves to false.
type Config struct {
	DefaultValue bool `json:"default_value" yaml:"default_value"`
}

// Default is a shorthand for &Config{DefaultValue: v}.
func Default(v bool) *Config {
	return &Config{DefaultValue: v}
}

// Flag is one flag held by a MemoryProvider. A disabled flag resolves to
// false whatever its Strategy says.
type Flag struct {
	Name     string
	Enabled  bool
	Strategy Strategy
}

// Strategy decides whether an enabled flag applies to the caller in ctx.
type Strategy interface {
	Evaluate(ctx context.Context) (bool, error)
}

// CallerIDExtractor retrieves the caller identity used by per-caller strategies.
type CallerIDExtractor func(ctx context.Context) string

// Source supplies override values for flag keys.
// ok is false when the source has no opinion about key; the resolver then
// falls back to the locally supplied default.
type Source interface {
	Lookup(ctx context.Context, key string) (value bool, ok bool, err error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, key string) (bool, bool, error)

// Lookup implements Source.
func (fn SourceFunc) Lookup(ctx context.Context, key string) (bool, bool, error) {
	return fn(ctx, key)
}

type callerIDKey struct{}

// WithCallerID returns a copy of ctx carrying the caller identity.
func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerIDKey{}, callerID)
}

// CallerIDFromContext is the default CallerIDExtractor.
func CallerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(callerIDKey{}).(string)
	return id
}
