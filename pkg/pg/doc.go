// Package pg bootstraps the PostgreSQL side of the data layer on top of
// pgx/v5: a retrying pool constructor, goose migrations embedded in the
// binary, a health check, and pgconn error classifiers.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//	    return err
//	}
//
// # Schema
//
// The migrations create the tables and RPC functions both data layer
// generations read from: wigg_point_likes with get_wigg_point_like_count and
// user_liked_wigg_point, user_follows, wigg_points with get_user_wigg_points,
// and shadow_divergences for persisted comparison telemetry.
//
// Stores accept the DB interface rather than a concrete pool so a pgx.Tx can
// be passed in.
//
// # Error Handling
//
// IsNotFoundError, IsDuplicateKeyError, IsForeignKeyViolationError and
// IsConnectionError unwrap *pgconn.PgError so callers can map database
// failures onto their own error codes.
package pg
