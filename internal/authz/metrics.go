package authz

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Decision results.
const (
	resultAllow = "allow"
	resultDeny  = "deny"
	resultError = "error"
)

// Role lookup sources.
const (
	sourceCache = "cache"
	sourceStore = "store"
)

// Metrics contains authorization metrics.
type Metrics struct {
	// decisionTotal counts guard decisions.
	decisionTotal *prometheus.CounterVec

	// roleLookupTotal counts role lookups by source and result.
	roleLookupTotal *prometheus.CounterVec

	// roleLookupDuration measures role lookup duration.
	roleLookupDuration *prometheus.HistogramVec
}

// NewMetrics creates authorization metrics.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "restaurant"
	}

	return &Metrics{
		decisionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "authz",
				Name:      "decisions_total",
				Help:      "Total number of authorization guard decisions",
			},
			[]string{"guard", "result"},
		),
		roleLookupTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "authz",
				Name:      "role_lookups_total",
				Help:      "Total number of role lookups",
			},
			[]string{"source", "result"},
		),
		roleLookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "authz",
				Name:      "role_lookup_duration_seconds",
				Help:      "Role lookup duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"source"},
		),
	}
}

// RecordDecision records a guard decision.
func (m *Metrics) RecordDecision(guard, result string) {
	m.decisionTotal.WithLabelValues(guard, result).Inc()
}

// RecordRoleLookup records a role lookup.
func (m *Metrics) RecordRoleLookup(source, result string, d time.Duration) {
	m.roleLookupTotal.WithLabelValues(source, result).Inc()
	m.roleLookupDuration.WithLabelValues(source).Observe(d.Seconds())
}

// MustRegister registers the metrics with registry. Collectors that are
// already registered are ignored.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	for _, c := range []prometheus.Collector{m.decisionTotal, m.roleLookupTotal, m.roleLookupDuration} {
		if err := registry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}
