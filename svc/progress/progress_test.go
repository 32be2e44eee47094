package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wigg/datalayer/pkg/coexist"
	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/feature"
	"github.com/wigg/datalayer/pkg/shadow"
	"github.com/wigg/datalayer/pkg/telemetry"
	"github.com/wigg/datalayer/svc/progress"
)

func caller(id string) context.Context {
	return feature.WithCallerID(context.Background(), id)
}

func seed(t *testing.T, b *progress.MemoryBackend, entries ...progress.Entry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, b.InsertWiggPoint(context.Background(), "u1", "m1", e))
	}
}

func entry(pct float64, rating int) progress.Entry {
	return progress.Entry{ID: uuid.New(), Pct: pct, Rating: rating, CreatedAt: time.Unix(1_700_000_000, 0).UTC()}
}

func pcts(p progress.Progress) []float64 {
	out := make([]float64, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Pct
	}
	return out
}

func TestAdapters_SortAndEstimate(t *testing.T) {
	t.Parallel()

	b := progress.NewMemoryBackend()
	seed(t, b, entry(67.8, 3), entry(25.5, 0), entry(45.2, 2))

	for _, a := range []datasource.Adapter[progress.Progress]{progress.NewLegacyAdapter(b), progress.NewAdapter(b)} {
		p, err := a.Fetch(caller("u1"), "m1")
		require.NoError(t, err, a.Name())
		assert.Equal(t, []float64{25.5, 45.2, 67.8}, pcts(p), a.Name())
		require.NotNil(t, p.T2GEstimatePct, a.Name())
		assert.Equal(t, 45.2, *p.T2GEstimatePct, a.Name())
	}
}

func TestAdapters_UnratedEstimateDiffers(t *testing.T) {
	t.Parallel()

	b := progress.NewMemoryBackend()
	seed(t, b, entry(10, 0))

	legacy, err := progress.NewLegacyAdapter(b).Fetch(caller("u1"), "m1")
	require.NoError(t, err)
	require.NotNil(t, legacy.T2GEstimatePct)
	assert.Equal(t, progress.DefaultT2GPct, *legacy.T2GEstimatePct)

	next, err := progress.NewAdapter(b).Fetch(caller("u1"), "m1")
	require.NoError(t, err)
	assert.Nil(t, next.T2GEstimatePct)

	divs := progress.ComparePolicy().Compare(progress.EntityKey, "m1",
		datasource.Outcome[progress.Progress]{Value: legacy},
		datasource.Outcome[progress.Progress]{Value: next},
	)
	require.Len(t, divs, 1)
	assert.Equal(t, "t2g_estimate_pct", divs[0].Field)
}

func TestAdapters_AnonymousCaller(t *testing.T) {
	t.Parallel()

	b := progress.NewMemoryBackend()
	seed(t, b, entry(10, 1))

	for _, a := range []interface {
		datasource.Adapter[progress.Progress]
		datasource.Mutator[progress.Progress, progress.AddEntry]
	}{progress.NewLegacyAdapter(b), progress.NewAdapter(b)} {
		p, err := a.Fetch(context.Background(), "m1")
		require.NoError(t, err, a.Name())
		assert.Empty(t, p.Entries, a.Name())

		_, err = a.Mutate(context.Background(), "m1", progress.AddEntry{Pct: 10})
		assert.Equal(t, datasource.CodeUnauthorized, datasource.CodeOf(err), a.Name())
	}
}

func TestAdapters_AddEntry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := progress.NewMemoryBackend()
	a := progress.NewAdapter(b, progress.WithClock(func() time.Time { return now }))

	p, err := a.Mutate(caller("u1"), "m1", progress.AddEntry{Pct: 30, Note: "picks up", Rating: 1})
	require.NoError(t, err)
	require.Len(t, p.Entries, 1)
	assert.Equal(t, "picks up", p.Entries[0].Note)
	assert.Equal(t, now, p.Entries[0].CreatedAt)
	assert.NotEqual(t, uuid.Nil, p.Entries[0].ID)
	assert.Equal(t, 30.0, *p.T2GEstimatePct)

	legacy, err := progress.NewLegacyAdapter(b).Mutate(caller("u1"), "m1", progress.AddEntry{Pct: 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 30}, pcts(legacy))
}

func TestAdapters_RejectInvalidEntry(t *testing.T) {
	t.Parallel()

	a := progress.NewAdapter(progress.NewMemoryBackend())
	tests := []struct {
		name string
		add  progress.AddEntry
		want error
	}{
		{name: "negative pct", add: progress.AddEntry{Pct: -1}, want: progress.ErrInvalidPct},
		{name: "pct over 100", add: progress.AddEntry{Pct: 101}, want: progress.ErrInvalidPct},
		{name: "rating too high", add: progress.AddEntry{Pct: 5, Rating: 4}, want: progress.ErrInvalidRating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := a.Mutate(caller("u1"), "m1", tt.add)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, datasource.CodeInvalid, datasource.CodeOf(err))
		})
	}
}

func TestComparePolicy_EntriesAreUnordered(t *testing.T) {
	t.Parallel()

	a, b := entry(10, 1), entry(20, 0)
	t2g := 10.0
	legacy := progress.Progress{Entries: []progress.Entry{a, b}, T2GEstimatePct: &t2g}
	next := progress.Progress{Entries: []progress.Entry{b, a}, T2GEstimatePct: &t2g}

	assert.Empty(t, progress.ComparePolicy().Compare(progress.EntityKey, "m1",
		datasource.Outcome[progress.Progress]{Value: legacy},
		datasource.Outcome[progress.Progress]{Value: next},
	))
}

func TestDataLayer_ShadowReportsEstimateDivergence(t *testing.T) {
	t.Parallel()

	b := progress.NewMemoryBackend()
	seed(t, b, entry(10, 0))

	collector := telemetry.NewCollector()
	layer := progress.NewDataLayer(progress.NewLegacyAdapter(b), progress.NewAdapter(b),
		coexist.WithComparator[progress.Progress](shadow.NewRecorder(progress.ComparePolicy(), shadow.WithReporter(collector))),
	)
	assert.Equal(t, "user-wiggs-data-layer", layer.FlagKey())

	h := layer.Mount(caller("u1"))
	defer h.Close()
	h.Use("m1", coexist.Options{Shadow: true})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))

	require.True(t, h.State().Ready())
	assert.Equal(t, progress.DefaultT2GPct, *h.State().Data.T2GEstimatePct)

	events := collector.Events(telemetry.KindDivergence)
	require.Len(t, events, 1)
	assert.Equal(t, "t2g_estimate_pct", events[0].Payload["field"])
}
