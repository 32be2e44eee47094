package feature_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wigg/datalayer/pkg/feature"
)

func TestMemoryProvider_Lookup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	provider, err := feature.NewMemoryProvider(
		&feature.Flag{Name: "wigg-likes-data-layer", Enabled: true},
		nil,
		&feature.Flag{Name: "follow-user-data-layer", Enabled: false, Strategy: feature.NewAlwaysOnStrategy()},
		&feature.Flag{Name: "user-wiggs-data-layer", Enabled: true, Strategy: feature.NewAlwaysOffStrategy()},
	)
	require.NoError(t, err)

	tests := []struct {
		key       string
		wantValue bool
		wantOK    bool
	}{
		{"wigg-likes-data-layer", true, true},
		{"follow-user-data-layer", false, true},
		{"user-wiggs-data-layer", false, true},
		{"missing", false, false},
	}
	for _, tt := range tests {
		value, ok, err := provider.Lookup(ctx, tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.wantValue, value, tt.key)
		assert.Equal(t, tt.wantOK, ok, tt.key)
	}
}

func TestMemoryProvider_InvalidFlag(t *testing.T) {
	t.Parallel()

	_, err := feature.NewMemoryProvider(&feature.Flag{Name: ""})
	assert.ErrorIs(t, err, feature.ErrInvalidFlag)

	provider, err := feature.NewMemoryProvider()
	require.NoError(t, err)
	assert.ErrorIs(t, provider.SetFlag(context.Background(), nil), feature.ErrInvalidFlag)
}

func TestMemoryProvider_EnableAndRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	provider, err := feature.NewMemoryProvider()
	require.NoError(t, err)

	require.NoError(t, provider.Enable(ctx, "k", true))
	value, ok, err := provider.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, value)

	require.NoError(t, provider.Enable(ctx, "k", false))
	value, _, _ = provider.Lookup(ctx, "k")
	assert.False(t, value)

	provider.Remove("k")
	_, ok, _ = provider.Lookup(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryProvider_StrategyError(t *testing.T) {
	t.Parallel()

	provider, err := feature.NewMemoryProvider(&feature.Flag{
		Name:     "k",
		Enabled:  true,
		Strategy: &feature.CallerStrategy{},
	})
	require.NoError(t, err)

	_, ok, err := provider.Lookup(context.Background(), "k")
	assert.False(t, ok)
	assert.ErrorIs(t, err, feature.ErrSourceFailed)
	assert.ErrorIs(t, err, feature.ErrInvalidStrategy)
}
