// Package config loads typed configuration structs from environment
// variables.
//
// It wraps github.com/caarlos0/env/v11 for tag-driven parsing and
// github.com/joho/godotenv for optional .env files.
//
// Two entry points are provided:
//
//   - Load parses a struct type once per process and serves later calls from
//     a cache. Services use it for their long-lived settings.
//   - Parse always reads fresh values and accepts options (WithPrefix,
//     WithEnvFiles, WithEnvironment). Tools and tests use it when they need
//     explicit control over the source.
//
// # Usage
//
//	type Config struct {
//		DSN      string        `env:"PG_DSN,required"`
//		Timeout  time.Duration `env:"PG_CONNECT_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	cfg, err := config.Parse[Config](config.WithPrefix("DATALAYER_"))
//
// # Errors
//
// Parsing failures wrap ErrParsingConfig; unreadable dotenv files requested
// through WithEnvFiles wrap ErrEnvFile. A failed Load is not cached, so a
// later call retries.
//
// Reset clears the cache and exists for tests.
package config
