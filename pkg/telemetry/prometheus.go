package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusReporter counts events by kind and entity, and divergences by field.
type PrometheusReporter struct {
	events      *prometheus.CounterVec
	divergences *prometheus.CounterVec
	rate        *prometheus.GaugeVec
}

// NewPrometheusReporter registers its collectors on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusReporter(reg prometheus.Registerer, namespace string) (*PrometheusReporter, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "datalayer"
	}

	r := &PrometheusReporter{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shadow",
			Name:      "events_total",
			Help:      "Telemetry events emitted by the data layer, by kind and entity.",
		}, []string{"kind", "entity"}),
		divergences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shadow",
			Name:      "divergences_total",
			Help:      "Fields that differed between legacy and new adapters.",
		}, []string{"entity", "field"}),
		rate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "shadow",
			Name:      "divergence_rate",
			Help:      "Last reported divergence rate per entity when it crossed the alert threshold.",
		}, []string{"entity"}),
	}

	for _, c := range []prometheus.Collector{r.events, r.divergences, r.rate} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register telemetry collector: %w", err)
		}
	}
	return r, nil
}

// Record implements Reporter.
func (r *PrometheusReporter) Record(_ context.Context, e Event) {
	r.events.WithLabelValues(string(e.Kind), e.EntityKey).Inc()

	switch e.Kind {
	case KindDivergence:
		field, _ := e.Payload["field"].(string)
		r.divergences.WithLabelValues(e.EntityKey, field).Inc()
	case KindDivergenceRate:
		if rate, ok := e.Payload["rate"].(float64); ok {
			r.rate.WithLabelValues(e.EntityKey).Set(rate)
		}
	}
}
