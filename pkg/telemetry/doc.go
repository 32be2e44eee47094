// Package telemetry carries out-of-band observations from the data layer:
// shadow divergences, shadow adapter failures and divergence-rate alerts.
//
// Reporter is the single seam. Implementations here write structured logs
// (LogReporter), update Prometheus counters (PrometheusReporter), collect in
// memory (Collector) or persist to Postgres (PGSink, through AsyncReporter).
// Multi combines them.
//
// Producers sit on hot paths, so the CLI wraps slow destinations in an
// AsyncReporter, which never blocks and drops events once its buffer is full:
//
//	prom, _ := telemetry.NewPrometheusReporter(reg, "datalayer")
//	async := telemetry.NewAsyncReporter(
//	    telemetry.Multi(telemetry.NewLogReporter(log), prom),
//	    cfg.BufferSize, cfg.Workers,
//	    telemetry.WithSink(telemetry.NewPGSink(pool)),
//	)
//	defer async.Close(ctx)
package telemetry
