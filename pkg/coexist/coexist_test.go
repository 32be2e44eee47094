package coexist_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wigg/datalayer/pkg/coexist"
	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/feature"
	"github.com/wigg/datalayer/pkg/shadow"
	"github.com/wigg/datalayer/pkg/telemetry"
)

type item struct {
	Liked bool
	Count int
}

type toggle struct {
	Liked bool
}

type fakeAdapter struct {
	name  string
	fetch func(ctx context.Context, id string) (item, error)

	mu    sync.Mutex
	calls []string
}

func newFake(name string, fetch func(ctx context.Context, id string) (item, error)) *fakeAdapter {
	return &fakeAdapter{name: name, fetch: fetch}
}

func fixed(v item) func(context.Context, string) (item, error) {
	return func(context.Context, string) (item, error) { return v, nil }
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Fetch(ctx context.Context, id string) (item, error) {
	a.mu.Lock()
	a.calls = append(a.calls, id)
	a.mu.Unlock()
	return a.fetch(ctx, id)
}

func (a *fakeAdapter) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

type mutableFake struct {
	*fakeAdapter
	mutate    func(ctx context.Context, id string, p toggle) (item, error)
	mutations atomic.Int32
}

func (a *mutableFake) Mutate(ctx context.Context, id string, p toggle) (item, error) {
	a.mutations.Add(1)
	return a.mutate(ctx, id, p)
}

type pushFake struct {
	*fakeAdapter

	mu       sync.Mutex
	onChange map[string]func(item)
	unsubs   atomic.Int32
}

func (a *pushFake) Subscribe(_ context.Context, id string, onChange func(item)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.onChange == nil {
		a.onChange = make(map[string]func(item))
	}
	a.onChange[id] = onChange
	return func() { a.unsubs.Add(1) }
}

func (a *pushFake) push(id string, v item) bool {
	a.mu.Lock()
	fn := a.onChange[id]
	a.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(v)
	return true
}

func resolverWith(t *testing.T, entityKey string, on bool) *feature.Resolver {
	t.Helper()
	provider, err := feature.NewMemoryProvider(&feature.Flag{Name: coexist.FlagKey(entityKey), Enabled: on})
	require.NoError(t, err)
	return feature.NewResolver(feature.WithSource(provider))
}

func settle[T, P any](t *testing.T, h *coexist.Hook[T, P]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))
}

func likesPolicy() *shadow.Policy[item] {
	return shadow.NewPolicy(
		shadow.Exact("liked", func(i item) bool { return i.Liked }),
		shadow.Numeric("count", func(i item) float64 { return float64(i.Count) }, 0),
	)
}

func TestFlagKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "wigg-likes-data-layer", coexist.FlagKey("wigg-likes"))
	assert.Equal(t, "follow-user-data-layer", coexist.FlagKey("follow-user"))
}

func TestFactory_UseNewFollowsResolver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	legacy := newFake("legacy", fixed(item{}))
	next := newFake("new", fixed(item{}))

	assert.False(t, coexist.New[item, toggle]("wigg-likes", legacy, next).UseNew(ctx))
	assert.True(t, coexist.New[item, toggle]("wigg-likes", legacy, next, coexist.WithFlagDefault(true)).UseNew(ctx))

	f := coexist.New[item, toggle]("wigg-likes", legacy, next,
		coexist.WithResolver(resolverWith(t, "wigg-likes", true)),
		coexist.WithFlagDefault(false),
	)
	assert.True(t, f.UseNew(ctx))
	assert.Equal(t, "wigg-likes-data-layer", f.FlagKey())
}

func TestFactory_ComparatorTypeMismatchPanics(t *testing.T) {
	t.Parallel()
	legacy := newFake("legacy", fixed(item{}))
	next := newFake("new", fixed(item{}))

	other := shadow.NewRecorder(shadow.NewPolicy(shadow.Exact("n", func(n int) int { return n })))
	assert.Panics(t, func() {
		coexist.New[item, toggle]("wigg-likes", legacy, next, coexist.WithComparator[int](other))
	})
	assert.Panics(t, func() {
		coexist.New[item, toggle]("wigg-likes", nil, next)
	})
}

func TestHook_DisabledNeverFetches(t *testing.T) {
	t.Parallel()

	for _, useNew := range []bool{false, true} {
		legacy := newFake("legacy", fixed(item{Count: 1}))
		next := newFake("new", fixed(item{Count: 1}))
		h := coexist.New[item, toggle]("wigg-likes", legacy, next, coexist.WithFlagDefault(useNew)).Mount(context.Background())

		state := h.Use("p1", coexist.Options{Enabled: coexist.Bool(false), Shadow: true})
		assert.Nil(t, state.Data)
		assert.False(t, state.Loading)
		assert.NoError(t, state.Err)
		settle(t, h)

		assert.Empty(t, legacy.Calls())
		assert.Empty(t, next.Calls())
		assert.Equal(t, coexist.PhaseIdle, h.Phase())
		require.NoError(t, h.Close())
	}
}

func TestHook_EmptyIDIsIdle(t *testing.T) {
	t.Parallel()
	legacy := newFake("legacy", fixed(item{Count: 1}))
	next := newFake("new", fixed(item{Count: 1}))
	h := coexist.New[item, toggle]("wigg-likes", legacy, next).Mount(context.Background())
	defer h.Close()

	assert.Equal(t, datasource.State[item]{}, h.Use("", coexist.Options{}))
	settle(t, h)
	assert.Empty(t, legacy.Calls())

	h.Use("p1", coexist.Options{})
	settle(t, h)
	require.True(t, h.State().Ready())

	assert.Equal(t, datasource.State[item]{}, h.Use("", coexist.Options{}))
	assert.Equal(t, coexist.PhaseIdle, h.Phase())
	assert.Equal(t, datasource.State[item]{}, h.State())
}

func TestHook_ExactlyOneAdapterWithoutShadow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		flag       bool
		wantLegacy int
		wantNew    int
		wantCount  int
	}{
		{name: "flag off uses legacy", flag: false, wantLegacy: 1, wantCount: 5},
		{name: "flag on uses new", flag: true, wantNew: 1, wantCount: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			legacy := newFake("legacy", fixed(item{Count: 5}))
			next := newFake("new", fixed(item{Count: 6}))
			f := coexist.New[item, toggle]("wigg-likes", legacy, next,
				coexist.WithResolver(resolverWith(t, "wigg-likes", tt.flag)),
			)
			h := f.Mount(context.Background())
			defer h.Close()

			state := h.Use("p1", coexist.Options{})
			assert.True(t, state.Loading)
			assert.Nil(t, state.Data)

			settle(t, h)
			state = h.State()
			require.True(t, state.Ready())
			assert.Equal(t, tt.wantCount, state.Data.Count)
			assert.Equal(t, coexist.PhaseReady, h.Phase())
			assert.Len(t, legacy.Calls(), tt.wantLegacy)
			assert.Len(t, next.Calls(), tt.wantNew)

			// Same inputs do not issue another request.
			again := h.Use("p1", coexist.Options{})
			assert.Equal(t, state, again)
			settle(t, h)
			assert.Len(t, legacy.Calls(), tt.wantLegacy)
			assert.Len(t, next.Calls(), tt.wantNew)
		})
	}
}

func TestHook_LastRequestWins(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var cancelledA atomic.Bool

	legacy := newFake("legacy", func(ctx context.Context, id string) (item, error) {
		if id == "A" {
			close(started)
			<-release
			cancelledA.Store(ctx.Err() != nil)
			return item{Count: 1}, nil
		}
		return item{Count: 2}, nil
	})
	next := newFake("new", fixed(item{}))
	h := coexist.New[item, toggle]("wigg-likes", legacy, next).Mount(context.Background())
	defer h.Close()

	h.Use("A", coexist.Options{})
	<-started
	h.Use("B", coexist.Options{})

	require.Eventually(t, func() bool {
		s := h.State()
		return s.Data != nil && s.Data.Count == 2
	}, time.Second, 5*time.Millisecond)

	close(release)
	settle(t, h)

	state := h.State()
	require.NotNil(t, state.Data)
	assert.Equal(t, 2, state.Data.Count, "late result for A must be discarded")
	assert.False(t, state.Loading)
	assert.True(t, cancelledA.Load(), "superseded request must be cancelled")
	assert.Equal(t, []string{"A", "B"}, legacy.Calls())
}

func TestHook_LoadingKeepsPreviousData(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	legacy := newFake("legacy", func(_ context.Context, id string) (item, error) {
		if id == "p2" {
			<-gate
		}
		return item{Count: len(id)}, nil
	})
	h := coexist.New[item, toggle]("wigg-likes", legacy, newFake("new", fixed(item{}))).Mount(context.Background())
	defer h.Close()

	h.Use("p1", coexist.Options{})
	settle(t, h)

	state := h.Use("p2", coexist.Options{})
	assert.True(t, state.Loading)
	require.NotNil(t, state.Data)
	assert.Equal(t, 2, state.Data.Count)
	assert.Equal(t, coexist.PhaseLoading, h.Phase())

	close(gate)
	settle(t, h)
	assert.False(t, h.State().Loading)
}

func TestHook_DisableInvalidatesInFlight(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	legacy := newFake("legacy", func(context.Context, string) (item, error) {
		close(started)
		<-release
		return item{Count: 9}, nil
	})
	h := coexist.New[item, toggle]("wigg-likes", legacy, newFake("new", fixed(item{}))).Mount(context.Background())
	defer h.Close()

	h.Use("p1", coexist.Options{})
	<-started
	state := h.Use("p1", coexist.Options{Enabled: coexist.Bool(false)})
	assert.Equal(t, datasource.State[item]{}, state)

	close(release)
	settle(t, h)
	assert.Equal(t, datasource.State[item]{}, h.State())
	assert.Equal(t, coexist.PhaseIdle, h.Phase())
}

func TestHook_FlagFlipSwitchesAdapter(t *testing.T) {
	t.Parallel()

	provider, err := feature.NewMemoryProvider()
	require.NoError(t, err)
	f := coexist.New[item, toggle]("wigg-likes",
		newFake("legacy", fixed(item{Count: 5})),
		newFake("new", fixed(item{Count: 6})),
		coexist.WithResolver(feature.NewResolver(feature.WithSource(provider))),
	)
	h := f.Mount(context.Background())
	defer h.Close()

	h.Use("p1", coexist.Options{})
	settle(t, h)
	assert.Equal(t, 5, h.State().Data.Count)

	require.NoError(t, provider.Enable(context.Background(), f.FlagKey(), true))
	h.Use("p1", coexist.Options{})
	settle(t, h)
	assert.Equal(t, 6, h.State().Data.Count)
}

func TestHook_ShadowIdenticalReportsNothing(t *testing.T) {
	t.Parallel()

	collector := telemetry.NewCollector()
	legacy := newFake("legacy", fixed(item{Liked: true, Count: 5}))
	next := newFake("new", fixed(item{Liked: true, Count: 5}))
	f := coexist.New[item, toggle]("wigg-likes", legacy, next,
		coexist.WithComparator[item](shadow.NewRecorder(likesPolicy(), shadow.WithReporter(collector))),
		coexist.WithReporter(collector),
	)
	h := f.Mount(context.Background())
	defer h.Close()

	h.Use("p1", coexist.Options{Shadow: true})
	settle(t, h)

	assert.Equal(t, 0, collector.Len())
	assert.Len(t, legacy.Calls(), 1)
	assert.Len(t, next.Calls(), 1)
}

func TestHook_ShadowOptInOnSameID(t *testing.T) {
	t.Parallel()

	collector := telemetry.NewCollector()
	legacy := newFake("legacy", fixed(item{Count: 5}))
	next := newFake("new", fixed(item{Count: 6}))
	f := coexist.New[item, toggle]("wigg-likes", legacy, next,
		coexist.WithComparator[item](shadow.NewRecorder(likesPolicy(), shadow.WithReporter(collector))),
		coexist.WithReporter(collector),
	)
	h := f.Mount(context.Background())
	defer h.Close()

	h.Use("p1", coexist.Options{})
	settle(t, h)
	assert.Len(t, legacy.Calls(), 1)
	assert.Empty(t, next.Calls())

	h.Use("p1", coexist.Options{Shadow: true})
	settle(t, h)
	assert.Len(t, legacy.Calls(), 2)
	assert.Equal(t, []string{"p1"}, next.Calls())
	assert.Len(t, collector.Events(telemetry.KindDivergence), 1)
	assert.Equal(t, 5, h.State().Data.Count)

	// Repeating the same request does not fetch again.
	h.Use("p1", coexist.Options{Shadow: true})
	settle(t, h)
	assert.Len(t, legacy.Calls(), 2)
	assert.Len(t, next.Calls(), 1)

	// Dropping shadow needs no request, and later refetches stay single.
	h.Use("p1", coexist.Options{})
	h.Refetch()
	settle(t, h)
	assert.Len(t, legacy.Calls(), 3)
	assert.Len(t, next.Calls(), 1)
}

func TestHook_ShadowMismatchReportsField(t *testing.T) {
	t.Parallel()

	collector := telemetry.NewCollector()
	recorder := shadow.NewRecorder(likesPolicy(), shadow.WithReporter(collector), shadow.WithHistory(10))
	f := coexist.New[item, toggle]("wigg-likes",
		newFake("legacy", fixed(item{Count: 5})),
		newFake("new", fixed(item{Count: 6})),
		coexist.WithResolver(resolverWith(t, "wigg-likes", true)),
		coexist.WithComparator[item](recorder),
	)
	h := f.Mount(context.Background())
	defer h.Close()

	h.Use("p1", coexist.Options{Shadow: true})
	settle(t, h)

	require.True(t, h.State().Ready())
	assert.Equal(t, 6, h.State().Data.Count, "visible data comes from the active adapter")

	events := collector.Events(telemetry.KindDivergence)
	require.Len(t, events, 1)
	assert.Equal(t, "count", events[0].Payload["field"])
	assert.Equal(t, 5.0, events[0].Payload["legacy"])
	assert.Equal(t, 6.0, events[0].Payload["new"])
	assert.Equal(t, "p1", events[0].EntityID)

	recent := recorder.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "count", recent[0].Field)
}

func TestHook_ShadowFailureIsReportedNotSurfaced(t *testing.T) {
	t.Parallel()

	collector := telemetry.NewCollector()
	boom := datasource.NewError(datasource.CodeNetwork, "new", "timeout", nil)
	f := coexist.New[item, toggle]("wigg-likes",
		newFake("legacy", fixed(item{Count: 5})),
		newFake("new", func(context.Context, string) (item, error) { return item{}, boom }),
		coexist.WithComparator[item](shadow.NewRecorder(likesPolicy(), shadow.WithReporter(collector))),
		coexist.WithReporter(collector),
	)
	h := f.Mount(context.Background())
	defer h.Close()

	h.Use("p1", coexist.Options{Shadow: true})
	settle(t, h)

	state := h.State()
	require.True(t, state.Ready())
	assert.Equal(t, 5, state.Data.Count)

	failures := collector.Events(telemetry.KindAdapterError)
	require.Len(t, failures, 1)
	assert.Equal(t, "new", failures[0].Payload["adapter"])
	assert.Equal(t, "network", failures[0].Payload["code"])

	divs := collector.Events(telemetry.KindDivergence)
	require.Len(t, divs, 1)
	assert.Equal(t, shadow.OutcomeField, divs[0].Payload["field"])
}

func TestHook_ShadowTimeout(t *testing.T) {
	t.Parallel()

	collector := telemetry.NewCollector()
	f := coexist.New[item, toggle]("wigg-likes",
		newFake("legacy", fixed(item{Count: 5})),
		newFake("new", func(ctx context.Context, _ string) (item, error) {
			<-ctx.Done()
			return item{}, ctx.Err()
		}),
		coexist.WithReporter(collector),
		coexist.WithShadowTimeout(20*time.Millisecond),
	)
	h := f.Mount(context.Background())
	defer h.Close()

	h.Use("p1", coexist.Options{Shadow: true})
	settle(t, h)

	assert.Equal(t, 5, h.State().Data.Count)
	require.Len(t, collector.Events(telemetry.KindAdapterError), 1)
}

func TestHook_ActiveFailure(t *testing.T) {
	t.Parallel()

	boom := datasource.NewError(datasource.CodeUnauthorized, "legacy", "no session", nil)
	legacy := &mutableFake{
		fakeAdapter: newFake("legacy", func(context.Context, string) (item, error) { return item{}, boom }),
		mutate: func(_ context.Context, _ string, p toggle) (item, error) {
			return item{Liked: p.Liked, Count: 1}, nil
		},
	}
	h := coexist.New[item, toggle]("wigg-likes", legacy, newFake("new", fixed(item{}))).Mount(context.Background())
	defer h.Close()

	h.Use("p1", coexist.Options{})
	settle(t, h)

	state := h.State()
	assert.Nil(t, state.Data)
	assert.False(t, state.Loading)
	assert.ErrorIs(t, state.Err, boom)
	assert.Equal(t, coexist.PhaseErrored, h.Phase())

	v, err := h.Mutate(toggle{Liked: true}).Await()
	require.NoError(t, err)
	assert.True(t, v.Liked)
	assert.Equal(t, int32(1), legacy.mutations.Load())

	settle(t, h)
	assert.Equal(t, coexist.PhaseReady, h.Phase())
	assert.Equal(t, 1, h.State().Data.Count)
}

func TestHook_Mutate(t *testing.T) {
	t.Parallel()

	t.Run("routes to active adapter", func(t *testing.T) {
		t.Parallel()
		legacy := &mutableFake{fakeAdapter: newFake("legacy", fixed(item{})), mutate: func(context.Context, string, toggle) (item, error) {
			return item{}, errors.New("legacy must not be mutated")
		}}
		next := &mutableFake{fakeAdapter: newFake("new", fixed(item{Count: 1})), mutate: func(_ context.Context, id string, p toggle) (item, error) {
			return item{Liked: p.Liked, Count: 2}, nil
		}}
		h := coexist.New[item, toggle]("wigg-likes", legacy, next, coexist.WithFlagDefault(true)).Mount(context.Background())
		defer h.Close()

		h.Use("p1", coexist.Options{Shadow: true})
		settle(t, h)

		v, err := h.Mutate(toggle{Liked: true}).Await()
		require.NoError(t, err)
		assert.Equal(t, 2, v.Count)
		assert.Equal(t, int32(0), legacy.mutations.Load())
		assert.Equal(t, int32(1), next.mutations.Load())

		settle(t, h)
		assert.Equal(t, 2, h.State().Data.Count)
		assert.Len(t, legacy.Calls(), 1, "mutation does not trigger shadow reads")
	})

	t.Run("error passes through", func(t *testing.T) {
		t.Parallel()
		boom := datasource.NewError(datasource.CodeUnauthorized, "legacy", "sign in to like", nil)
		legacy := &mutableFake{fakeAdapter: newFake("legacy", fixed(item{Count: 3})), mutate: func(context.Context, string, toggle) (item, error) {
			return item{}, boom
		}}
		h := coexist.New[item, toggle]("wigg-likes", legacy, newFake("new", fixed(item{}))).Mount(context.Background())
		defer h.Close()

		h.Use("p1", coexist.Options{})
		settle(t, h)

		_, err := h.Mutate(toggle{Liked: true}).Await()
		assert.Same(t, boom, err)
		settle(t, h)
		assert.Equal(t, 3, h.State().Data.Count)
	})

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()
		h := coexist.New[item, toggle]("wigg-likes", newFake("legacy", fixed(item{})), newFake("new", fixed(item{}))).Mount(context.Background())
		defer h.Close()

		h.Use("p1", coexist.Options{})
		_, err := h.Mutate(toggle{}).Await()
		assert.ErrorIs(t, err, datasource.ErrUnsupportedOperation)
	})

	t.Run("no entity", func(t *testing.T) {
		t.Parallel()
		h := coexist.New[item, toggle]("wigg-likes", newFake("legacy", fixed(item{})), newFake("new", fixed(item{}))).Mount(context.Background())
		defer h.Close()

		_, err := h.Mutate(toggle{}).Await()
		assert.ErrorIs(t, err, coexist.ErrNoEntity)
	})
}

func TestHook_MutateDuringFetchWins(t *testing.T) {
	t.Parallel()

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	next := &mutableFake{
		fakeAdapter: newFake("new", func(ctx context.Context, _ string) (item, error) {
			once.Do(func() { close(started) })
			select {
			case <-release:
				return item{Count: 1}, nil
			case <-ctx.Done():
				return item{}, ctx.Err()
			}
		}),
		mutate: func(_ context.Context, _ string, p toggle) (item, error) {
			return item{Liked: p.Liked, Count: 2}, nil
		},
	}
	h := coexist.New[item, toggle]("wigg-likes", newFake("legacy", fixed(item{})), next,
		coexist.WithFlagDefault(true),
	).Mount(context.Background())
	defer h.Close()

	h.Use("p1", coexist.Options{})
	<-started

	v, err := h.Mutate(toggle{Liked: true}).Await()
	require.NoError(t, err)
	assert.Equal(t, item{Liked: true, Count: 2}, v)

	state := h.State()
	assert.True(t, state.Loading, "fetch of the current request is still outstanding")
	require.NotNil(t, state.Data)
	assert.Equal(t, item{Liked: true, Count: 2}, *state.Data)
	assert.Equal(t, coexist.PhaseLoading, h.Phase())

	close(release)
	settle(t, h)

	state = h.State()
	require.True(t, state.Ready())
	assert.False(t, state.Loading)
	assert.Equal(t, item{Liked: true, Count: 2}, *state.Data, "older read must not overwrite the mutation")
	assert.Equal(t, coexist.PhaseReady, h.Phase())

	// A later request commits fresh reads again.
	h.Refetch()
	settle(t, h)
	assert.Equal(t, item{Count: 1}, *h.State().Data)
}

func TestHook_Refetch(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	legacy := newFake("legacy", func(context.Context, string) (item, error) {
		return item{Count: int(n.Add(1))}, nil
	})
	h := coexist.New[item, toggle]("wigg-likes", legacy, newFake("new", fixed(item{}))).Mount(context.Background())
	defer h.Close()

	h.Refetch()
	assert.Empty(t, legacy.Calls(), "refetch before Use is a no-op")

	h.Use("p1", coexist.Options{})
	settle(t, h)
	gen := h.Generation()

	h.Refetch()
	settle(t, h)
	assert.Equal(t, 2, h.State().Data.Count)
	assert.Greater(t, h.Generation(), gen)
	assert.Equal(t, []string{"p1", "p1"}, legacy.Calls())
}

func TestHook_PushSubscription(t *testing.T) {
	t.Parallel()

	legacy := &pushFake{fakeAdapter: newFake("legacy", fixed(item{Count: 1}))}
	h := coexist.New[item, toggle]("wigg-likes", legacy, newFake("new", fixed(item{}))).Mount(context.Background())

	h.Use("p1", coexist.Options{})
	settle(t, h)
	require.True(t, legacy.push("p1", item{Count: 7}))
	assert.Equal(t, 7, h.State().Data.Count)

	h.Use("p2", coexist.Options{})
	settle(t, h)
	assert.Equal(t, int32(1), legacy.unsubs.Load())

	legacy.push("p1", item{Count: 99})
	assert.Equal(t, 1, h.State().Data.Count, "pushes for a superseded id are ignored")

	require.NoError(t, h.Close())
	assert.Equal(t, int32(2), legacy.unsubs.Load())
}

func TestHook_SubscribeStreamsStates(t *testing.T) {
	t.Parallel()

	h := coexist.New[item, toggle]("wigg-likes", newFake("legacy", fixed(item{Count: 4})), newFake("new", fixed(item{}))).Mount(context.Background())
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := h.Subscribe(ctx)

	h.Use("p1", coexist.Options{})
	settle(t, h)

	require.Eventually(t, func() bool {
		select {
		case msg := <-sub.Receive(ctx):
			return msg.Data.Ready() && msg.Data.Data.Count == 4
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	late := h.Subscribe(ctx)
	select {
	case msg := <-late.Receive(ctx):
		assert.True(t, msg.Data.Ready(), "late subscriber gets the latest state")
	case <-time.After(time.Second):
		t.Fatal("no replayed state")
	}
}

func TestHook_Close(t *testing.T) {
	t.Parallel()

	legacy := newFake("legacy", fixed(item{Count: 1}))
	h := coexist.New[item, toggle]("wigg-likes", legacy, newFake("new", fixed(item{}))).Mount(context.Background())

	h.Use("p1", coexist.Options{})
	settle(t, h)

	ctx := context.Background()
	sub := h.Subscribe(ctx)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	assert.Equal(t, coexist.PhaseUnmounted, h.Phase())
	assert.Equal(t, datasource.State[item]{}, h.Use("p2", coexist.Options{}))
	assert.Equal(t, datasource.State[item]{}, h.State())

	_, err := h.Mutate(toggle{}).Await()
	assert.ErrorIs(t, err, coexist.ErrUnmounted)

	settle(t, h)
	assert.Equal(t, []string{"p1"}, legacy.Calls())

	for range sub.Receive(ctx) {
	}
}

func TestHook_CallerIdentityDrivesFlag(t *testing.T) {
	t.Parallel()

	provider, err := feature.NewMemoryProvider(&feature.Flag{
		Name:     coexist.FlagKey("follow-user"),
		Enabled:  true,
		Strategy: feature.NewCallerStrategy([]string{"beta"}, nil, false),
	})
	require.NoError(t, err)

	f := coexist.New[item, toggle]("follow-user",
		newFake("legacy", fixed(item{Count: 1})),
		newFake("new", fixed(item{Count: 2})),
		coexist.WithResolver(feature.NewResolver(feature.WithSource(provider))),
	)

	beta := f.Mount(feature.WithCallerID(context.Background(), "beta"))
	defer beta.Close()
	other := f.Mount(feature.WithCallerID(context.Background(), "other"))
	defer other.Close()

	beta.Use("u1", coexist.Options{})
	other.Use("u1", coexist.Options{})
	settle(t, beta)
	settle(t, other)

	assert.Equal(t, 2, beta.State().Data.Count)
	assert.Equal(t, 1, other.State().Data.Count)
}
