package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wigg/datalayer/pkg/coexist"
	"github.com/wigg/datalayer/pkg/feature"
	"github.com/wigg/datalayer/pkg/httpserver"
	"github.com/wigg/datalayer/pkg/logger"
	"github.com/wigg/datalayer/pkg/pg"
	"github.com/wigg/datalayer/pkg/redis"
	"github.com/wigg/datalayer/pkg/shadow"
)

// probe is one entity id compared on every tick.
type probe struct {
	entity string
	id     string
	caller string
}

// parseProbe reads entity:id[@caller].
func parseProbe(raw string) (probe, error) {
	entity, rest, ok := strings.Cut(raw, ":")
	if !ok || entity == "" || rest == "" {
		return probe{}, fmt.Errorf("probe %q: want entity:id[@caller]", raw)
	}
	id, caller, _ := strings.Cut(rest, "@")
	if id == "" {
		return probe{}, fmt.Errorf("probe %q: empty id", raw)
	}
	return probe{entity: entity, id: id, caller: caller}, nil
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		rawProbes []string
		interval  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Serve divergence metrics and re-run shadow probes on an interval",
		Long: `Start the operator HTTP server and keep comparing the configured probes.

Endpoints: /healthz, /readyz, /metrics, /divergences, /rates, /flags and
/telemetry. The flags file is reloaded whenever it changes.`,
		RunE: a.closing(func(cmd *cobra.Command, _ []string) error {
			probes := make([]probe, 0, len(rawProbes))
			for _, raw := range rawProbes {
				p, err := parseProbe(raw)
				if err != nil {
					return err
				}
				probes = append(probes, p)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, probes, interval)
		}),
	}
	cmd.Flags().StringSliceVar(&rawProbes, "probe", nil, "entity:id[@caller] compared on every tick, repeatable")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "time between probe rounds")
	return cmd
}

func (a *app) watch(ctx context.Context, probes []probe, interval time.Duration) error {
	pool, err := a.postgres(ctx)
	if err != nil {
		return err
	}
	rdb, err := a.redisClient(ctx)
	if err != nil {
		return err
	}
	reporter, queue, err := a.reporter()
	if err != nil {
		return err
	}
	all, rate, err := a.entities(ctx, reporter)
	if err != nil {
		return err
	}
	for i, p := range probes {
		e, err := lookupEntity(all, p.entity)
		if err != nil {
			return err
		}
		probes[i].entity = e.key()
	}

	router := httpserver.NewRouter(a.log, a.registry,
		map[string]httpserver.Check{
			"postgres": pg.Healthcheck(pool, 2*time.Second),
			"redis":    redis.Healthcheck(rdb, 2*time.Second),
		},
		httpserver.WithJSON("/divergences", func(*http.Request) any { return recentDivergences(all) }),
		httpserver.WithJSON("/rates", func(*http.Request) any { return rate.Snapshot() }),
		httpserver.WithJSON("/flags", func(r *http.Request) any { return a.flagTraces(r) }),
		httpserver.WithJSON("/telemetry", func(*http.Request) any {
			if queue == nil {
				return map[string]bool{"persist": false}
			}
			return queue.Stats()
		}),
	)
	srv := httpserver.New(append(a.cfg.HTTP.Options(), httpserver.WithLogger(a.log))...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx, router) })
	if a.flags != nil {
		g.Go(func() error { return ignoreCanceled(a.flags.Watch(ctx)) })
	}
	if len(probes) > 0 && interval > 0 {
		g.Go(func() error { return a.runProbes(ctx, all, probes, interval) })
	}

	a.log.InfoContext(ctx, "watching data layers",
		slog.String("addr", a.cfg.HTTP.Addr),
		slog.Int("probes", len(probes)),
		slog.Duration("interval", interval),
	)
	return g.Wait()
}

func (a *app) runProbes(ctx context.Context, all map[string]entity, probes []probe, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, p := range probes {
			pctx := ctx
			if p.caller != "" {
				pctx = feature.WithCallerID(ctx, p.caller)
			}
			started := time.Now()
			c, err := compareOne(pctx, all[p.entity], p.id, interval)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.log.WarnContext(pctx, "probe failed",
					logger.EntityKey(p.entity),
					logger.EntityID(p.id),
					logger.Error(err),
				)
				continue
			}
			a.log.DebugContext(pctx, "probe compared",
				logger.EntityKey(p.entity),
				logger.EntityID(p.id),
				logger.Adapter(c.Active),
				logger.Duration(time.Since(started)),
				slog.Int("divergences", len(c.Divergences)),
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func recentDivergences(all map[string]entity) map[string][]shadow.Divergence {
	out := make(map[string][]shadow.Divergence, len(all))
	for key, e := range all {
		out[key] = e.recent()
	}
	return out
}

func (a *app) flagTraces(r *http.Request) []feature.Trace {
	ctx := r.Context()
	if caller := r.URL.Query().Get("caller"); caller != "" {
		ctx = feature.WithCallerID(ctx, caller)
	}
	traces := make([]feature.Trace, 0, 3)
	for _, e := range entityKeys() {
		traces = append(traces, a.resolver.Trace(ctx, coexist.FlagKey(e), nil))
	}
	return traces
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
