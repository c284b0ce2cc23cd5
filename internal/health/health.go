package health

import (
	"context"
	"sync"
	"time"

	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// Status represents the health status.
type Status string

const (
	// StatusHealthy indicates the service is healthy.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the service is unhealthy.
	StatusUnhealthy Status = "unhealthy"
)

// DefaultReadinessProbeTimeout bounds the whole readiness run.
const DefaultReadinessProbeTimeout = 5 * time.Second

// HealthResponse represents the liveness response.
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse represents the readiness response.
type ReadinessResponse struct {
	Status    Status           `json:"status"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Check represents an individual check result.
type Check struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration"`
}

// CheckFunc checks a dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Checker runs the registered dependency checks.
type Checker struct {
	version   string
	startTime time.Time
	timeout   time.Duration
	logger    observability.Logger
	metrics   *Metrics

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Checker) { c.logger = logger }
}

// WithMetrics sets the metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Checker) { c.metrics = m }
}

// WithTimeout sets the readiness check timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewChecker creates a new health checker.
func NewChecker(version string, opts ...Option) *Checker {
	c := &Checker{
		version:   version,
		startTime: time.Now(),
		timeout:   DefaultReadinessProbeTimeout,
		logger:    observability.NopLogger(),
		checks:    make(map[string]CheckFunc),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics("")
	}
	return c
}

// RegisterCheck registers a readiness check under name, replacing any
// check of the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Health returns the liveness status. It never consults dependencies.
func (c *Checker) Health() HealthResponse {
	c.metrics.checksTotal.WithLabelValues("liveness").Inc()
	return HealthResponse{
		Status:    StatusHealthy,
		Version:   c.version,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
}

// Readiness runs every registered check concurrently under the check
// timeout. The response is unhealthy if any check failed.
func (c *Checker) Readiness(ctx context.Context) ReadinessResponse {
	c.metrics.checksTotal.WithLabelValues("readiness").Inc()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	response := ReadinessResponse{
		Status:    StatusHealthy,
		Checks:    make(map[string]Check, len(checks)),
		Timestamp: time.Now().UTC(),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, fn := range checks {
		wg.Add(1)
		go func(name string, fn CheckFunc) {
			defer wg.Done()

			start := time.Now()
			err := fn(ctx)
			duration := time.Since(start)

			result := Check{Status: StatusHealthy, Duration: duration.String()}
			if err != nil {
				result.Status = StatusUnhealthy
				result.Message = err.Error()
				c.logger.Warn("readiness check failed",
					observability.String("check", name),
					observability.Error(err),
					observability.Duration("duration", duration),
				)
			}
			c.metrics.setStatus(name, err == nil)

			mu.Lock()
			defer mu.Unlock()
			response.Checks[name] = result
			if err != nil {
				response.Status = StatusUnhealthy
			}
		}(name, fn)
	}
	wg.Wait()

	c.metrics.setStatus("overall", response.Status == StatusHealthy)
	return response
}
