package payment

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess  = "success"
	resultError    = "error"
	resultTimeout  = "timeout"
	resultRejected = "rejected"
)

// Metrics holds Prometheus metrics for payment intents.
type Metrics struct {
	intentsTotal      *prometheus.CounterVec
	intentDuration    prometheus.Histogram
	breakerState      *prometheus.GaugeVec
	breakerTransition *prometheus.CounterVec
}

// NewMetrics creates payment metrics.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "restaurant"
	}
	return &Metrics{
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "intents_total",
			Help:      "Total number of payment intent requests",
		}, []string{"result"}),
		intentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "intent_duration_seconds",
			Help:      "Payment processor call duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
		breakerTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "circuit_breaker_transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		}, []string{"name", "from", "to"}),
	}
}

// RecordIntent records a processor call.
func (m *Metrics) RecordIntent(result string, d time.Duration) {
	m.intentsTotal.WithLabelValues(result).Inc()
	m.intentDuration.Observe(d.Seconds())
}

// MustRegister registers the metrics with registry. Collectors that are
// already registered are ignored.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	for _, c := range []prometheus.Collector{m.intentsTotal, m.intentDuration, m.breakerState, m.breakerTransition} {
		if err := registry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}
