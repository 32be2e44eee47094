// Package feature decides which data layer a caller gets.
//
// The entry point is Resolver. It maps a flag key and an optional local
// Config to a boolean and never fails: a malformed key, a failing source or a
// panicking source all degrade to the local default, and an absent default
// degrades to false. Resolution is cheap and unmemoized, so it can run on
// every evaluation of a hook.
//
// # Sources
//
// A Resolver is given at most one Source through WithSource. The source is
// the seam for override values; when it has no opinion the local default
// applies. Available sources:
//
//   - MemoryProvider holds Flag values with optional rollout strategies and is
//     the usual choice in tests.
//   - EnvSource reads DATALAYER_FEATURE_<KEY> variables and honours the
//     DATALAYER_DISABLE_NEW_DATA_LAYERS kill switch.
//   - FileSource reads a YAML map of key to bool and can hot reload it.
//   - ChainSource tries several sources in order.
//
// # Usage
//
//	provider, _ := feature.NewMemoryProvider(&feature.Flag{
//		Name:     "wigg-likes-data-layer",
//		Enabled:  true,
//		Strategy: feature.NewPercentageStrategy(25, "wigg-likes-data-layer"),
//	})
//	resolver := feature.NewResolver(feature.WithSource(provider))
//
//	ctx = feature.WithCallerID(ctx, userID)
//	useNew := resolver.Resolve(ctx, "wigg-likes-data-layer", nil)
//
// Trace returns the same decision together with the layer that produced it.
//
// # Strategies
//
// AlwaysStrategy, CallerStrategy (allow and deny lists), PercentageStrategy
// (stable FNV-1a bucketing of salt and caller id) and CompositeStrategy
// (and/or). Caller-aware strategies read the caller id with
// CallerIDFromContext unless WithCallerIDExtractor says otherwise.
package feature
