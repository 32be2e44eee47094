package feature_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wigg/datalayer/pkg/feature"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestEnvSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("per flag variable", func(t *testing.T) {
		t.Parallel()
		src := feature.NewEnvSource(feature.WithEnvLookup(mapLookup(map[string]string{
			"DATALAYER_FEATURE_WIGG_LIKES_DATA_LAYER":  "on",
			"DATALAYER_FEATURE_FOLLOW_USER_DATA_LAYER": "0",
			"DATALAYER_FEATURE_USER_WIGGS_DATA_LAYER":  "maybe",
		})))

		value, ok, err := src.Lookup(ctx, "wigg-likes-data-layer")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, value)

		value, ok, _ = src.Lookup(ctx, "follow-user-data-layer")
		assert.True(t, ok)
		assert.False(t, value)

		_, ok, _ = src.Lookup(ctx, "user-wiggs-data-layer")
		assert.False(t, ok, "unparseable values are ignored")

		_, ok, _ = src.Lookup(ctx, "unset-data-layer")
		assert.False(t, ok)
	})

	t.Run("kill switch", func(t *testing.T) {
		t.Parallel()
		src := feature.NewEnvSource(feature.WithEnvLookup(mapLookup(map[string]string{
			feature.KillSwitchEnv:                     "true",
			"DATALAYER_FEATURE_WIGG_LIKES_DATA_LAYER": "true",
			"DATALAYER_FEATURE_SOMETHING_ELSE":        "true",
		})))

		value, ok, _ := src.Lookup(ctx, "wigg-likes-data-layer")
		assert.True(t, ok)
		assert.False(t, value)

		value, ok, _ = src.Lookup(ctx, "something-else")
		assert.True(t, ok)
		assert.True(t, value, "kill switch only covers data layer flags")
	})

	t.Run("custom prefix", func(t *testing.T) {
		t.Parallel()
		src := feature.NewEnvSource(
			feature.WithEnvPrefix("APP_FLAG_"),
			feature.WithEnvLookup(mapLookup(map[string]string{"APP_FLAG_X": "yes"})),
		)
		value, ok, _ := src.Lookup(ctx, "x")
		assert.True(t, ok)
		assert.True(t, value)
	})
}

func TestEnvSource_ProcessEnvironment(t *testing.T) {
	t.Setenv("DATALAYER_FEATURE_PROCESS_CHECK", "true")

	value, ok, err := feature.NewEnvSource().Lookup(context.Background(), "process.check")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, value)
}

func TestEnvKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "WIGG_LIKES_DATA_LAYER", feature.EnvKey(" wigg-likes-data-layer "))
	assert.Equal(t, "A_B_C", feature.EnvKey("a.b/c"))
}

func writeFlagFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestFileSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("load and lookup", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "flags.yaml")
		writeFlagFile(t, path, "wigg-likes-data-layer: true\nfollow-user-data-layer: false\n")

		src, err := feature.NewFileSource(path, nil)
		require.NoError(t, err)

		value, ok, err := src.Lookup(ctx, "wigg-likes-data-layer")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, value)

		_, ok, _ = src.Lookup(ctx, "user-wiggs-data-layer")
		assert.False(t, ok)

		keys := src.Keys()
		sort.Strings(keys)
		assert.Equal(t, []string{"follow-user-data-layer", "wigg-likes-data-layer"}, keys)
	})

	t.Run("invalid file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		_, err := feature.NewFileSource(filepath.Join(dir, "missing.yaml"), nil)
		assert.ErrorIs(t, err, feature.ErrInvalidFlagFile)

		path := filepath.Join(dir, "bad.yaml")
		writeFlagFile(t, path, "wigg-likes-data-layer: [not, a, bool]\n")
		_, err = feature.NewFileSource(path, nil)
		assert.ErrorIs(t, err, feature.ErrInvalidFlagFile)
	})

	t.Run("reload keeps old values on error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "flags.yaml")
		writeFlagFile(t, path, "k: true\n")
		src, err := feature.NewFileSource(path, nil)
		require.NoError(t, err)

		writeFlagFile(t, path, "k: {broken\n")
		require.Error(t, src.Reload())

		value, ok, _ := src.Lookup(ctx, "k")
		assert.True(t, ok)
		assert.True(t, value)
	})

	t.Run("watch flips flags", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "flags.yaml")
		writeFlagFile(t, path, "wigg-likes-data-layer: false\n")
		src, err := feature.NewFileSource(path, nil)
		require.NoError(t, err)

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() { _ = src.Watch(watchCtx) }()

		r := feature.NewResolver(feature.WithSource(src))
		require.False(t, r.Resolve(ctx, "wigg-likes-data-layer", nil))

		// Keep rewriting until the watcher is registered and picks it up.
		assert.Eventually(t, func() bool {
			writeFlagFile(t, path, "wigg-likes-data-layer: true\n")
			return r.Resolve(ctx, "wigg-likes-data-layer", nil)
		}, 3*time.Second, 50*time.Millisecond)
	})
}
