// Package coexist runs a legacy and a new data adapter for the same entity
// side by side and lets a feature flag decide which one a consumer sees.
//
// A Factory is built once per entity:
//
//	layer := coexist.New[likes.Likes, likes.Toggle]("wigg-likes", legacy, next,
//		coexist.WithResolver(resolver),
//		coexist.WithComparator[likes.Likes](recorder),
//	)
//
// and every consumer mounts its own Hook:
//
//	hook := layer.Mount(feature.WithCallerID(ctx, userID))
//	defer hook.Close()
//
//	state := hook.Use(pointID, coexist.Options{Shadow: true})
//	updates := hook.Subscribe(ctx)
//
// The flag key is the entity key with "-data-layer" appended. It is resolved
// on every Use; when the flag or the id changes, the previous request is
// cancelled and its late result is discarded, so the visible state always
// belongs to the most recent request.
//
// In shadow mode the inactive adapter is fetched as well and both outcomes
// go to the configured Comparator. The inactive adapter never affects the
// visible state; its failures are logged and reported as adapter_error
// telemetry.
package coexist
