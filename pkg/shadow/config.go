package shadow

import (
	"log/slog"
	"time"

	"github.com/wigg/datalayer/pkg/telemetry"
)

// Config holds shadow comparison settings loaded from the environment.
type Config struct {
	TolerancesFile string        `env:"SHADOW_TOLERANCES_FILE"`                // TolerancesFile is an optional TOML file of per-field tolerances.
	DedupeSize     int           `env:"SHADOW_DEDUPE_SIZE" envDefault:"10000"` // DedupeSize bounds the number of remembered divergence fingerprints.
	DedupeTTL      time.Duration `env:"SHADOW_DEDUPE_TTL" envDefault:"10m"`    // DedupeTTL is how long an identical divergence stays suppressed.
	History        int           `env:"SHADOW_HISTORY" envDefault:"100"`       // History is how many recent divergences each recorder keeps.
	Rate           RateConfig
}

// Tolerances loads TolerancesFile, or returns nil when it is unset.
func (c Config) Tolerances() (Tolerances, error) {
	if c.TolerancesFile == "" {
		return nil, nil
	}
	return LoadTolerances(c.TolerancesFile)
}

// Options builds the recorder options shared by every entity: one deduper
// and one rate monitor reporting to r.
func (c Config) Options(r telemetry.Reporter, log *slog.Logger) ([]RecorderOption, *RateMonitor, error) {
	rate, err := NewRateMonitor(c.Rate, r)
	if err != nil {
		return nil, nil, err
	}
	opts := []RecorderOption{
		WithReporter(r),
		WithRateMonitor(rate),
		WithLogger(log),
		WithHistory(c.History),
	}
	if c.DedupeTTL > 0 {
		opts = append(opts, WithDeduper(NewDeduper(c.DedupeSize, c.DedupeTTL)))
	}
	return opts, rate, nil
}
