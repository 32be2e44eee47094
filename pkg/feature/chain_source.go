package feature

import (
	"context"
	"errors"
)

// ChainSource consults sources in order; the first one with a value wins.
type ChainSource []Source

// Lookup implements Source. Errors from individual sources are only
// returned when no later source supplied a value.
func (c ChainSource) Lookup(ctx context.Context, key string) (bool, bool, error) {
	var errs []error
	for _, src := range c {
		if src == nil {
			continue
		}
		value, ok, err := src.Lookup(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return value, true, nil
		}
	}
	if len(errs) > 0 {
		return false, false, errors.Join(append([]error{ErrSourceFailed}, errs...)...)
	}
	return false, false, nil
}
