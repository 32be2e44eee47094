// Package logger builds the *slog.Logger shared by the data layer and the
// shadowctl CLI, and names the attributes they log.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "shadowctl"),
//		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
//		logger.WithContextExtractors(callerID),
//	)
//
// WithEnvironment picks text output at debug level for development and JSON
// at info level for staging and production. Context extractors run on every
// record through ContextHandler.
//
// The attribute helpers (EntityKey, EntityID, Adapter, Generation, Field and
// friends) keep key names identical across hooks, shadow comparison and
// telemetry. Error returns an empty attribute for a nil error, which slog
// drops.
package logger
