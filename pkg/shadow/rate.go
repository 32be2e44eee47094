package shadow

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/wigg/datalayer/pkg/telemetry"
)

// RateConfig tunes when a RateMonitor raises a divergence_rate event.
type RateConfig struct {
	Window     int     `env:"SHADOW_RATE_WINDOW" envDefault:"200"`     // Window is the number of most recent comparisons considered.
	Threshold  float64 `env:"SHADOW_RATE_THRESHOLD" envDefault:"0.05"` // Threshold is the divergent share that triggers an alert.
	MinSamples int     `env:"SHADOW_RATE_MIN_SAMPLES" envDefault:"20"` // MinSamples is required before any alert fires.
}

func (c RateConfig) validate() error {
	if c.Window <= 0 || c.MinSamples <= 0 || c.MinSamples > c.Window {
		return errors.Join(ErrInvalidRateConfig, errors.New("window and min samples must be positive and min samples <= window"))
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return errors.Join(ErrInvalidRateConfig, errors.New("threshold must be in (0, 1]"))
	}
	return nil
}

// RateSnapshot describes one entity's recent comparisons.
type RateSnapshot struct {
	EntityKey string  `json:"entity_key" yaml:"entity_key"`
	Samples   int     `json:"samples" yaml:"samples"`
	Divergent int     `json:"divergent" yaml:"divergent"`
	Rate      float64 `json:"rate" yaml:"rate"`
	Alerting  bool    `json:"alerting" yaml:"alerting"`
}

// RateMonitor tracks the share of divergent comparisons per entity over a
// sliding window of the most recent comparisons. It reports once when the
// rate rises above the threshold and re-arms when it falls back to or below it.
type RateMonitor struct {
	cfg      RateConfig
	reporter telemetry.Reporter
	mu       sync.Mutex
	windows  map[string]*window
}

type window struct {
	ring      []bool
	next      int
	filled    int
	divergent int
	alerting  bool
}

// NewRateMonitor validates cfg and returns a monitor reporting to r.
func NewRateMonitor(cfg RateConfig, r telemetry.Reporter) (*RateMonitor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if r == nil {
		r = telemetry.Nop()
	}
	return &RateMonitor{cfg: cfg, reporter: r, windows: make(map[string]*window)}, nil
}

// Observe records one comparison for entityKey.
func (m *RateMonitor) Observe(ctx context.Context, entityKey string, divergent bool) {
	m.mu.Lock()
	w, ok := m.windows[entityKey]
	if !ok {
		w = &window{ring: make([]bool, m.cfg.Window)}
		m.windows[entityKey] = w
	}

	if w.filled == len(w.ring) {
		if w.ring[w.next] {
			w.divergent--
		}
	} else {
		w.filled++
	}
	w.ring[w.next] = divergent
	if divergent {
		w.divergent++
	}
	w.next = (w.next + 1) % len(w.ring)

	snap := w.snapshot(entityKey)
	fire := false
	if snap.Samples >= m.cfg.MinSamples {
		switch {
		case snap.Rate > m.cfg.Threshold && !w.alerting:
			w.alerting, fire = true, true
		case snap.Rate <= m.cfg.Threshold:
			w.alerting = false
		}
	}
	snap.Alerting = w.alerting
	m.mu.Unlock()

	if fire {
		m.reporter.Record(ctx, telemetry.NewEvent(telemetry.KindDivergenceRate, entityKey, "", map[string]any{
			"rate":      snap.Rate,
			"samples":   snap.Samples,
			"divergent": snap.Divergent,
			"threshold": m.cfg.Threshold,
		}))
	}
}

// Snapshot returns every tracked entity sorted by key.
func (m *RateMonitor) Snapshot() []RateSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RateSnapshot, 0, len(m.windows))
	for key, w := range m.windows {
		s := w.snapshot(key)
		s.Alerting = w.alerting
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityKey < out[j].EntityKey })
	return out
}

func (w *window) snapshot(key string) RateSnapshot {
	s := RateSnapshot{EntityKey: key, Samples: w.filled, Divergent: w.divergent}
	if w.filled > 0 {
		s.Rate = float64(w.divergent) / float64(w.filled)
	}
	return s
}
