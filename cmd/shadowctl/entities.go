package main

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/wigg/datalayer/pkg/coexist"
	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/shadow"
	"github.com/wigg/datalayer/pkg/telemetry"
	"github.com/wigg/datalayer/svc/follows"
	"github.com/wigg/datalayer/svc/likes"
	"github.com/wigg/datalayer/svc/progress"
)

// comparison is the printable result of one shadow request.
type comparison struct {
	EntityKey   string              `json:"entity_key" yaml:"entity_key"`
	EntityID    string              `json:"entity_id" yaml:"entity_id"`
	Caller      string              `json:"caller,omitempty" yaml:"caller,omitempty"`
	Active      string              `json:"active" yaml:"active"`
	Value       any                 `json:"value,omitempty" yaml:"value,omitempty"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
	Divergences []shadow.Divergence `json:"divergences" yaml:"divergences"`
}

// entity hides the value type of one data layer from the commands.
type entity interface {
	key() string
	compare(ctx context.Context, id string) (comparison, error)
	recent() []shadow.Divergence
}

type dataLayer[T, P any] struct {
	factory  *coexist.Factory[T, P]
	recorder *shadow.Recorder[T]
	capture  *capture[T]
}

func newDataLayer[T, P any](
	build func(legacy, next datasource.Adapter[T], opts ...coexist.Option) *coexist.Factory[T, P],
	legacy, next datasource.Adapter[T],
	recorder *shadow.Recorder[T],
	opts ...coexist.Option,
) *dataLayer[T, P] {
	c := &capture[T]{next: recorder, seen: make(map[string][]shadow.Divergence)}
	opts = append(slices.Clone(opts), coexist.WithComparator[T](c))
	return &dataLayer[T, P]{factory: build(legacy, next, opts...), recorder: recorder, capture: c}
}

func (d *dataLayer[T, P]) key() string { return d.factory.EntityKey() }

func (d *dataLayer[T, P]) recent() []shadow.Divergence { return d.recorder.Recent() }

func (d *dataLayer[T, P]) compare(ctx context.Context, id string) (comparison, error) {
	hook := d.factory.Mount(ctx)
	defer hook.Close()

	hook.Use(id, coexist.Options{Shadow: true})
	if err := hook.Wait(ctx); err != nil {
		return comparison{}, err
	}

	legacy, next := d.factory.Adapters()
	out := comparison{
		EntityKey:   d.key(),
		EntityID:    id,
		Active:      legacy.Name(),
		Divergences: d.capture.take(id),
	}
	if d.factory.UseNew(ctx) {
		out.Active = next.Name()
	}

	state := hook.State()
	if state.Err != nil {
		out.Error = state.Err.Error()
	} else if state.Data != nil {
		out.Value = *state.Data
	}
	return out, nil
}

// capture keeps the divergences each comparison reported so the command can
// print them next to the value.
type capture[T any] struct {
	next *shadow.Recorder[T]
	mu   sync.Mutex
	seen map[string][]shadow.Divergence
}

func (c *capture[T]) Compare(ctx context.Context, entityKey, entityID string, legacy, next datasource.Outcome[T]) []shadow.Divergence {
	divs := c.next.Compare(ctx, entityKey, entityID, legacy, next)
	c.mu.Lock()
	c.seen[entityID] = append(c.seen[entityID], divs...)
	c.mu.Unlock()
	return divs
}

func (c *capture[T]) take(id string) []shadow.Divergence {
	c.mu.Lock()
	defer c.mu.Unlock()
	divs := c.seen[id]
	delete(c.seen, id)
	if divs == nil {
		return []shadow.Divergence{}
	}
	return divs
}

// entities wires the three data layers to Postgres and Redis.
func (a *app) entities(ctx context.Context, reporter telemetry.Reporter) (map[string]entity, *shadow.RateMonitor, error) {
	pool, err := a.postgres(ctx)
	if err != nil {
		return nil, nil, err
	}
	rdb, err := a.redisClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	tolerances, err := a.cfg.Shadow.Tolerances()
	if err != nil {
		return nil, nil, err
	}
	recOpts, rate, err := a.cfg.Shadow.Options(reporter, a.log)
	if err != nil {
		return nil, nil, err
	}

	hookOpts := []coexist.Option{
		coexist.WithResolver(a.resolver),
		coexist.WithReporter(reporter),
		coexist.WithLogger(a.log),
		coexist.WithShadowTimeout(a.cfg.ShadowTimeout),
	}
	retry := a.cfg.Retry

	likesLayer := newDataLayer[likes.Likes, likes.Toggle](likes.NewDataLayer,
		likes.NewLegacyAdapter(likes.NewPGLegacyBackend(pool), likes.WithRetry(retry)),
		likes.NewAdapter(likes.NewPGStore(pool), likes.WithRetry(retry)),
		shadow.NewRecorder(likes.ComparePolicy().WithTolerances(tolerances), recOpts...),
		hookOpts...,
	)
	followsLayer := newDataLayer[follows.Status, follows.Change](follows.NewDataLayer,
		follows.NewLegacyAdapter(follows.NewRedisBackend(rdb, a.redis.KeyPrefix), follows.WithRetry(retry), follows.WithLogger(a.log)),
		follows.NewAdapter(follows.NewPGStore(pool), follows.WithRetry(retry), follows.WithLogger(a.log)),
		shadow.NewRecorder(follows.ComparePolicy().WithTolerances(tolerances), recOpts...),
		hookOpts...,
	)
	progressLayer := newDataLayer[progress.Progress, progress.AddEntry](progress.NewDataLayer,
		progress.NewLegacyAdapter(progress.NewPGLegacyBackend(pool), progress.WithRetry(retry)),
		progress.NewAdapter(progress.NewPGStore(pool), progress.WithRetry(retry)),
		shadow.NewRecorder(progress.ComparePolicy().WithTolerances(tolerances), recOpts...),
		hookOpts...,
	)

	out := make(map[string]entity, 3)
	for _, e := range []entity{likesLayer, followsLayer, progressLayer} {
		out[e.key()] = e
	}
	return out, rate, nil
}

func entityKeys() []string {
	return []string{likes.EntityKey, follows.EntityKey, progress.EntityKey}
}

// entityAliases lets operators type the short service name.
var entityAliases = map[string]string{
	"likes":    likes.EntityKey,
	"follows":  follows.EntityKey,
	"progress": progress.EntityKey,
}

func lookupEntity(all map[string]entity, key string) (entity, error) {
	if full, ok := entityAliases[key]; ok {
		key = full
	}
	e, ok := all[key]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q, want one of %v", key, entityKeys())
	}
	return e, nil
}
