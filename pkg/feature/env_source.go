package feature

import (
	"context"
	"os"
	"strings"
	"unicode"
)

const (
	// DefaultEnvPrefix prefixes per-flag override variables,
	// e.g. DATALAYER_FEATURE_WIGG_LIKES_DATA_LAYER=true.
	DefaultEnvPrefix = "DATALAYER_FEATURE_"

	// KillSwitchEnv forces every "-data-layer" flag to false when truthy.
	KillSwitchEnv = "DATALAYER_DISABLE_NEW_DATA_LAYERS"

	dataLayerSuffix = "-data-layer"
)

// EnvSource reads flag overrides from environment variables.
type EnvSource struct {
	prefix string
	lookup func(string) (string, bool)
}

// EnvSourceOption configures an EnvSource.
type EnvSourceOption func(*EnvSource)

// WithEnvPrefix overrides DefaultEnvPrefix.
func WithEnvPrefix(prefix string) EnvSourceOption {
	return func(s *EnvSource) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithEnvLookup replaces os.LookupEnv, mainly for tests.
func WithEnvLookup(lookup func(string) (string, bool)) EnvSourceOption {
	return func(s *EnvSource) {
		if lookup != nil {
			s.lookup = lookup
		}
	}
}

// NewEnvSource creates an environment backed Source.
func NewEnvSource(opts ...EnvSourceOption) *EnvSource {
	s := &EnvSource{
		prefix: DefaultEnvPrefix,
		lookup: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup implements Source. The kill switch is checked first, then the
// per-flag variable. Unparseable values are treated as absent.
func (s *EnvSource) Lookup(_ context.Context, key string) (bool, bool, error) {
	if strings.HasSuffix(key, dataLayerSuffix) {
		if off, ok := s.parseBool(KillSwitchEnv); ok && off {
			return false, true, nil
		}
	}
	value, ok := s.parseBool(s.prefix + EnvKey(key))
	return value, ok, nil
}

// EnvKey converts a flag key to its environment variable suffix.
func EnvKey(key string) string {
	upper := strings.ToUpper(strings.TrimSpace(key))
	var b strings.Builder
	for _, r := range upper {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

func (s *EnvSource) parseBool(name string) (bool, bool) {
	raw, ok := s.lookup(name)
	if !ok {
		return false, false
	}
	return ParseBool(raw)
}

// ParseBool accepts the usual spellings of on and off.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no":
		return false, true
	default:
		return false, false
	}
}
