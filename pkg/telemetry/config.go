package telemetry

// Config tunes the telemetry pipeline built by the CLI.
type Config struct {
	BufferSize int    `env:"TELEMETRY_BUFFER_SIZE" envDefault:"1024"`
	Workers    int    `env:"TELEMETRY_WORKERS" envDefault:"1"`
	Persist    bool   `env:"TELEMETRY_PERSIST" envDefault:"false"` // Persist writes events to Postgres via PGSink.
	Namespace  string `env:"TELEMETRY_METRICS_NAMESPACE" envDefault:"datalayer"`
}
