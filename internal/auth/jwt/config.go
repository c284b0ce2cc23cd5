package jwt

import (
	"time"

	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// DefaultTTL is the lifetime of issued tokens when none is configured.
const DefaultTTL = time.Hour

// Config configures token issuance and verification. The secret is
// injected once at construction and never changes afterwards.
type Config struct {
	Secret    []byte
	TTL       time.Duration
	ClockSkew time.Duration
	Issuer    string
}

func (c Config) validate() error {
	if len(c.Secret) == 0 {
		return ErrNoSecret
	}
	if c.TTL < 0 {
		return ErrInvalidTTL
	}
	return nil
}

// Option configures a Signer or Verifier.
type Option func(*options)

type options struct {
	logger  observability.Logger
	metrics *Metrics
	now     func() time.Time
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: observability.NopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics("restaurant")
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
