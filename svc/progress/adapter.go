package progress

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/feature"
)

const (
	legacyName = "legacy"
	nextName   = "new"
)

// AdapterOption configures the progress adapters.
type AdapterOption func(*adapterConfig)

type adapterConfig struct {
	retry datasource.RetryPolicy
	now   func() time.Time
	newID func() uuid.UUID
}

// WithRetry sets the retry policy for reads.
func WithRetry(p datasource.RetryPolicy) AdapterOption {
	return func(c *adapterConfig) { c.retry = p }
}

// WithClock sets the clock used to stamp new entries.
func WithClock(now func() time.Time) AdapterOption {
	return func(c *adapterConfig) {
		if now != nil {
			c.now = now
		}
	}
}

func newAdapterConfig(opts []AdapterOption) adapterConfig {
	cfg := adapterConfig{
		retry: datasource.DefaultRetryPolicy(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c adapterConfig) entry(a AddEntry) Entry {
	return Entry{ID: c.newID(), Pct: a.Pct, Note: a.Note, Rating: a.Rating, CreatedAt: c.now()}
}

func prepare(ctx context.Context, adapter string, a AddEntry) (string, error) {
	userID := feature.CallerIDFromContext(ctx)
	if userID == "" {
		return "", datasource.NewError(datasource.CodeUnauthorized, adapter, "add entry", ErrSignInRequired)
	}
	if err := a.validate(); err != nil {
		return "", datasource.NewError(datasource.CodeInvalid, adapter, "add entry", err)
	}
	return userID, nil
}

// LegacyAdapter reads progress through the get_user_wigg_points RPC.
// Without a rated entry it reports DefaultT2GPct.
type LegacyAdapter struct {
	backend LegacyBackend
	cfg     adapterConfig
}

// NewLegacyAdapter wraps the legacy backend.
func NewLegacyAdapter(b LegacyBackend, opts ...AdapterOption) *LegacyAdapter {
	return &LegacyAdapter{backend: b, cfg: newAdapterConfig(opts)}
}

func (a *LegacyAdapter) Name() string { return legacyName }

// Fetch reads the caller's entries for mediaID.
func (a *LegacyAdapter) Fetch(ctx context.Context, mediaID string) (Progress, error) {
	var entries []Entry
	if userID := feature.CallerIDFromContext(ctx); userID != "" {
		var err error
		entries, err = datasource.Retry(ctx, a.cfg.retry, func(ctx context.Context) ([]Entry, error) {
			e, err := a.backend.UserWiggPoints(ctx, userID, mediaID)
			return e, datasource.Wrap(legacyName, "get_user_wigg_points", err)
		})
		if err != nil {
			return Progress{}, err
		}
	}
	return legacyProgress(entries), nil
}

// Mutate inserts an entry and re-reads the list.
func (a *LegacyAdapter) Mutate(ctx context.Context, mediaID string, add AddEntry) (Progress, error) {
	userID, err := prepare(ctx, legacyName, add)
	if err != nil {
		return Progress{}, err
	}
	if err := a.backend.InsertWiggPoint(ctx, userID, mediaID, a.cfg.entry(add)); err != nil {
		return Progress{}, datasource.Wrap(legacyName, "insert wigg point", err)
	}
	return a.Fetch(ctx, mediaID)
}

func legacyProgress(entries []Entry) Progress {
	p := Progress{Entries: make([]Entry, len(entries))}
	copy(p.Entries, entries)
	SortEntries(p.Entries)

	t2g := DefaultT2GPct
	if pct, ok := FirstGood(p.Entries); ok {
		t2g = pct
	}
	p.T2GEstimatePct = &t2g
	return p
}

// Adapter reads progress straight from the wigg_points table.
// Without a rated entry T2GEstimatePct stays nil.
type Adapter struct {
	store Store
	cfg   adapterConfig
}

// NewAdapter wraps the new store.
func NewAdapter(s Store, opts ...AdapterOption) *Adapter {
	return &Adapter{store: s, cfg: newAdapterConfig(opts)}
}

func (a *Adapter) Name() string { return nextName }

// Fetch reads the caller's entries for mediaID.
func (a *Adapter) Fetch(ctx context.Context, mediaID string) (Progress, error) {
	userID := feature.CallerIDFromContext(ctx)
	if userID == "" {
		return Progress{Entries: []Entry{}}, nil
	}
	entries, err := datasource.Retry(ctx, a.cfg.retry, func(ctx context.Context) ([]Entry, error) {
		e, err := a.store.ListEntries(ctx, userID, mediaID)
		return e, datasource.Wrap(nextName, "list entries", err)
	})
	if err != nil {
		return Progress{}, err
	}
	return nextProgress(entries), nil
}

// Mutate stores an entry and returns the updated list.
func (a *Adapter) Mutate(ctx context.Context, mediaID string, add AddEntry) (Progress, error) {
	userID, err := prepare(ctx, nextName, add)
	if err != nil {
		return Progress{}, err
	}
	if err := a.store.AddEntry(ctx, userID, mediaID, a.cfg.entry(add)); err != nil {
		return Progress{}, datasource.Wrap(nextName, "add entry", err)
	}
	return a.Fetch(ctx, mediaID)
}

func nextProgress(entries []Entry) Progress {
	p := Progress{Entries: make([]Entry, len(entries))}
	copy(p.Entries, entries)
	SortEntries(p.Entries)
	if pct, ok := FirstGood(p.Entries); ok {
		p.T2GEstimatePct = &pct
	}
	return p
}
