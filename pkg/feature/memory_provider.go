package feature

import (
	"context"
	"errors"
	"sync"
)

// MemoryProvider is an in-memory Source of strategy-backed flags.
// Tests use it to pin flag state per test without touching globals.
type MemoryProvider struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

// NewMemoryProvider creates a provider seeded with flags. Nil entries are skipped.
func NewMemoryProvider(flags ...*Flag) (*MemoryProvider, error) {
	p := &MemoryProvider{flags: make(map[string]Flag, len(flags))}
	for _, f := range flags {
		if f == nil {
			continue
		}
		if err := p.SetFlag(context.Background(), f); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Lookup implements Source. Unknown flags have no opinion. A strategy error
// is reported as ErrSourceFailed so the resolver degrades to the default.
func (m *MemoryProvider) Lookup(ctx context.Context, key string) (bool, bool, error) {
	m.mu.RLock()
	f, ok := m.flags[key]
	m.mu.RUnlock()

	switch {
	case !ok:
		return false, false, nil
	case !f.Enabled:
		return false, true, nil
	case f.Strategy == nil:
		return true, true, nil
	}

	on, err := f.Strategy.Evaluate(ctx)
	if err != nil {
		return false, false, errors.Join(ErrSourceFailed, err)
	}
	return on, true, nil
}

// SetFlag creates or replaces a flag.
func (m *MemoryProvider) SetFlag(_ context.Context, f *Flag) error {
	if f == nil || f.Name == "" {
		return errors.Join(ErrInvalidFlag, errors.New("flag name cannot be empty"))
	}
	m.mu.Lock()
	m.flags[f.Name] = *f
	m.mu.Unlock()
	return nil
}

// Enable sets a strategy-less flag on or off.
func (m *MemoryProvider) Enable(ctx context.Context, name string, enabled bool) error {
	return m.SetFlag(ctx, &Flag{Name: name, Enabled: enabled})
}

// Remove forgets a flag so lookups fall back to the local default again.
func (m *MemoryProvider) Remove(name string) {
	m.mu.Lock()
	delete(m.flags, name)
	m.mu.Unlock()
}
