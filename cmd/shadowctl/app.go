package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/wigg/datalayer/pkg/config"
	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/feature"
	"github.com/wigg/datalayer/pkg/httpserver"
	"github.com/wigg/datalayer/pkg/logger"
	"github.com/wigg/datalayer/pkg/pg"
	"github.com/wigg/datalayer/pkg/redis"
	"github.com/wigg/datalayer/pkg/shadow"
	"github.com/wigg/datalayer/pkg/telemetry"
)

const serviceName = "shadowctl"

type appConfig struct {
	Env           string        `env:"APP_ENV" envDefault:"development"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	FlagsFile     string        `env:"DATALAYER_FLAGS_FILE"`
	ShadowTimeout time.Duration `env:"DATALAYER_SHADOW_TIMEOUT" envDefault:"3s"`

	Retry     datasource.RetryPolicy `envPrefix:"DATALAYER_RETRY_"`

	Shadow    shadow.Config
	Telemetry telemetry.Config
	HTTP      httpserver.Config
}

// app carries what every subcommand shares. Connections are opened lazily
// so that commands like `flags` work without a database.
type app struct {
	envFile   string
	flagsFile string
	logLevel  string

	cfg      appConfig
	log      *slog.Logger
	out      io.Writer
	flags    *feature.FileSource
	resolver *feature.Resolver
	registry *prometheus.Registry

	pool    *pgxpool.Pool
	pgCfg   pg.Config
	rdb     *goredis.Client
	redis   redis.Config
	closers []func(context.Context) error
}

func (a *app) envOptions() []config.Option {
	if a.envFile == "" {
		return nil
	}
	if _, err := os.Stat(a.envFile); err != nil {
		return nil
	}
	return []config.Option{config.WithEnvFiles(a.envFile)}
}

// init loads configuration, the logger and the flag resolver.
func (a *app) init(out io.Writer) error {
	cfg, err := config.Parse[appConfig](a.envOptions()...)
	if err != nil {
		return err
	}
	if a.flagsFile != "" {
		cfg.FlagsFile = a.flagsFile
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.out = out

	a.log = logger.New(
		logger.WithEnvironment(cfg.Env, serviceName),
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithOutput(os.Stderr),
		logger.WithContextExtractors(callerExtractor),
	)
	logger.SetAsDefault(a.log)

	sources := feature.ChainSource{feature.NewEnvSource()}
	if cfg.FlagsFile != "" {
		a.flags, err = feature.NewFileSource(cfg.FlagsFile, a.log)
		if err != nil {
			return err
		}
		// Environment overrides beat the file so the kill switch always works.
		sources = append(sources, a.flags)
	}
	a.resolver = feature.NewResolver(feature.WithSource(sources), feature.WithLogger(a.log))

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return nil
}

func callerExtractor(ctx context.Context) (slog.Attr, bool) {
	if id := feature.CallerIDFromContext(ctx); id != "" {
		return logger.CallerID(id), true
	}
	return slog.Attr{}, false
}

func (a *app) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	cfg, err := config.Parse[pg.Config](a.envOptions()...)
	if err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.pool, a.pgCfg = pool, cfg
	a.onClose(func(context.Context) error {
		pool.Close()
		return nil
	})
	return pool, nil
}

func (a *app) redisClient(ctx context.Context) (*goredis.Client, error) {
	if a.rdb != nil {
		return a.rdb, nil
	}
	cfg, err := config.Parse[redis.Config](a.envOptions()...)
	if err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.rdb, a.redis = client, cfg
	a.onClose(func(context.Context) error { return client.Close() })
	return client, nil
}

// reporter builds the telemetry pipeline: log and Prometheus synchronously,
// Postgres through a bounded async queue when persistence is on.
func (a *app) reporter() (telemetry.Reporter, *telemetry.AsyncReporter, error) {
	prom, err := telemetry.NewPrometheusReporter(a.registry, a.cfg.Telemetry.Namespace)
	if err != nil {
		return nil, nil, err
	}
	reporters := []telemetry.Reporter{telemetry.NewLogReporter(a.log), prom}

	var queue *telemetry.AsyncReporter
	if a.cfg.Telemetry.Persist {
		if a.pool == nil {
			return nil, nil, errors.New("telemetry persistence needs a postgres connection")
		}
		queue = telemetry.NewAsyncReporter(telemetry.Nop(),
			a.cfg.Telemetry.BufferSize, a.cfg.Telemetry.Workers,
			telemetry.WithSink(telemetry.NewPGSink(a.pool)),
			telemetry.WithAsyncLogger(a.log),
		)
		a.onClose(queue.Close)
		reporters = append(reporters, queue)
	}
	return telemetry.Multi(reporters...), queue, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close runs closers in reverse order of registration.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// closing runs a command and then releases every connection it opened,
// whether or not the command failed.
func (a *app) closing(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() { err = errors.Join(err, a.close()) }()
		return run(cmd, args)
	}
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
