// Package httpserver serves the operator endpoints of the data layer:
// liveness, readiness over named dependency checks, Prometheus metrics and
// any JSON views the caller adds.
//
//	srv := httpserver.New(cfg.Options()...)
//	router := httpserver.NewRouter(log, registry, map[string]httpserver.Check{
//		"postgres": pg.Healthcheck(pool, 2*time.Second),
//	}, httpserver.WithJSON("/divergences", recent))
//	err := srv.Run(ctx, router)
//
// Run returns when ctx is done and the server has shut down. Signal handling
// belongs to the caller, typically via signal.NotifyContext.
package httpserver
