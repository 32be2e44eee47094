package httpserver

import "time"

// Config is the environment configuration of the operator server.
type Config struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":9090"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Options converts cfg to server options.
func (c Config) Options() []Option {
	return []Option{
		WithAddr(c.Addr),
		WithTimeouts(c.ReadTimeout, c.WriteTimeout, c.IdleTimeout),
		WithShutdownTimeout(c.ShutdownTimeout),
	}
}
