package feature

import (
	"context"
	"errors"
	"hash/fnv"
	"slices"
)

// AlwaysStrategy is a strategy that always returns the same value.
type AlwaysStrategy struct {
	Value bool
}

// Evaluate returns the configured value for all contexts.
func (s *AlwaysStrategy) Evaluate(ctx context.Context) (bool, error) {
	return s.Value, nil
}

// NewAlwaysOnStrategy enables the flag for every caller.
func NewAlwaysOnStrategy() Strategy {
	return &AlwaysStrategy{Value: true}
}

// NewAlwaysOffStrategy disables the flag for every caller.
func NewAlwaysOffStrategy() Strategy {
	return &AlwaysStrategy{Value: false}
}

// CallerStrategy switches individual callers onto a data layer.
// Deny always wins over Allow. Callers in neither list get Otherwise.
type CallerStrategy struct {
	Allow     []string
	Deny      []string
	Otherwise bool

	extractor CallerIDExtractor
}

// Evaluate implements Strategy.
func (s *CallerStrategy) Evaluate(ctx context.Context) (bool, error) {
	if len(s.Allow) == 0 && len(s.Deny) == 0 {
		return false, ErrInvalidStrategy
	}

	callerID := extractCallerID(ctx, s.extractor)

	if len(s.Deny) > 0 {
		// Unknown callers cannot be proven absent from the deny list.
		if callerID == "" || slices.Contains(s.Deny, callerID) {
			return false, nil
		}
	}

	if callerID != "" && slices.Contains(s.Allow, callerID) {
		return true, nil
	}

	return s.Otherwise, nil
}

// StrategyOption configures caller-aware strategies.
type StrategyOption func(*strategyConfig)

type strategyConfig struct {
	extractor CallerIDExtractor
}

// WithCallerIDExtractor overrides how the caller id is read from ctx.
// The default is CallerIDFromContext.
func WithCallerIDExtractor(extractor CallerIDExtractor) StrategyOption {
	return func(c *strategyConfig) {
		if extractor != nil {
			c.extractor = extractor
		}
	}
}

func extractCallerID(ctx context.Context, extractor CallerIDExtractor) string {
	if extractor == nil {
		return CallerIDFromContext(ctx)
	}
	return extractor(ctx)
}

func buildStrategyConfig(opts []StrategyOption) strategyConfig {
	cfg := strategyConfig{extractor: CallerIDFromContext}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewCallerStrategy enables the flag for allowed callers and disables it for denied ones.
func NewCallerStrategy(allow, deny []string, otherwise bool, opts ...StrategyOption) Strategy {
	cfg := buildStrategyConfig(opts)
	return &CallerStrategy{
		Allow:     slices.Clone(allow),
		Deny:      slices.Clone(deny),
		Otherwise: otherwise,
		extractor: cfg.extractor,
	}
}

// PercentageStrategy enables the flag for a stable share of callers.
// The bucket is derived from Salt and the caller id, so different flags
// roll out to different caller subsets.
type PercentageStrategy struct {
	Percent int
	Salt    string

	extractor CallerIDExtractor
}

// Evaluate implements Strategy.
func (s *PercentageStrategy) Evaluate(ctx context.Context) (bool, error) {
	if s.Percent < 0 || s.Percent > 100 {
		return false, errors.Join(ErrInvalidStrategy,
			errors.New("percentage must be between 0 and 100"))
	}

	switch s.Percent {
	case 0:
		return false, nil
	case 100:
		return true, nil
	}

	callerID := extractCallerID(ctx, s.extractor)
	if callerID == "" {
		return false, nil
	}

	return Bucket(s.Salt, callerID) < s.Percent, nil
}

// Bucket maps salt and callerID onto [0, 100) using FNV-1a.
func Bucket(salt, callerID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(salt))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(callerID))
	return int(h.Sum32() % 100)
}

// NewPercentageStrategy rolls the flag out to percent of callers.
func NewPercentageStrategy(percent int, salt string, opts ...StrategyOption) Strategy {
	cfg := buildStrategyConfig(opts)
	return &PercentageStrategy{
		Percent:   percent,
		Salt:      salt,
		extractor: cfg.extractor,
	}
}

// CompositeStrategy combines multiple strategies with an operator.
type CompositeStrategy struct {
	Strategies []Strategy
	Operator   string // "and" or "or"
}

// Evaluate combines the results of multiple strategies, short-circuiting in order.
func (s *CompositeStrategy) Evaluate(ctx context.Context) (bool, error) {
	if len(s.Strategies) == 0 {
		return false, ErrInvalidStrategy
	}

	var want bool
	switch s.Operator {
	case "and":
		want = false
	case "or":
		want = true
	default:
		return false, errors.Join(ErrInvalidStrategy,
			errors.New("composite operator must be 'and' or 'or'"))
	}

	for _, strategy := range s.Strategies {
		enabled, err := strategy.Evaluate(ctx)
		if err != nil {
			return false, err
		}
		if enabled == want {
			return want, nil
		}
	}
	return !want, nil
}

// NewAndStrategy requires all child strategies to return true.
func NewAndStrategy(strategies ...Strategy) Strategy {
	return &CompositeStrategy{Strategies: strategies, Operator: "and"}
}

// NewOrStrategy requires at least one child strategy to return true.
func NewOrStrategy(strategies ...Strategy) Strategy {
	return &CompositeStrategy{Strategies: strategies, Operator: "or"}
}
