package jwt

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	resultSuccess      = "success"
	resultExpired      = "expired"
	resultInvalid      = "invalid"
	resultMissingEmail = "missing_email"
)

// Metrics holds Prometheus metrics for token operations.
type Metrics struct {
	issueTotal           *prometheus.CounterVec
	issueDuration        prometheus.Histogram
	verificationTotal    *prometheus.CounterVec
	verificationDuration prometheus.Histogram
}

// NewMetrics creates token metrics. They are not registered until
// MustRegister is called.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "restaurant"
	}
	buckets := []float64{.0001, .0005, .001, .005, .01, .025, .05, .1}

	return &Metrics{
		issueTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "issue_total",
			Help:      "Total number of token issuance attempts",
		}, []string{"status"}),
		issueDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "issue_duration_seconds",
			Help:      "Token issuance duration in seconds",
			Buckets:   buckets,
		}),
		verificationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "verification_total",
			Help:      "Total number of token verifications by result",
		}, []string{"result"}),
		verificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "verification_duration_seconds",
			Help:      "Token verification duration in seconds",
			Buckets:   buckets,
		}),
	}
}

// RecordIssue records an issuance attempt.
func (m *Metrics) RecordIssue(status string, d time.Duration) {
	m.issueTotal.WithLabelValues(status).Inc()
	m.issueDuration.Observe(d.Seconds())
}

// RecordVerification records a verification attempt.
func (m *Metrics) RecordVerification(result string, d time.Duration) {
	m.verificationTotal.WithLabelValues(result).Inc()
	m.verificationDuration.Observe(d.Seconds())
}

// MustRegister registers the metrics with registry. Collectors that are
// already registered are ignored.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		m.issueTotal,
		m.issueDuration,
		m.verificationTotal,
		m.verificationDuration,
	} {
		if err := registry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}
