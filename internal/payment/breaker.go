package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// ErrCircuitOpen is returned while the breaker rejects processor calls.
var ErrCircuitOpen = errors.New("payment processor circuit open")

// BreakerProcessor guards a Processor with a circuit breaker. Calls fail
// fast with ErrCircuitOpen while the breaker is open.
type BreakerProcessor struct {
	next    Processor
	cb      *gobreaker.CircuitBreaker
	logger  observability.Logger
	metrics *Metrics
}

// NewBreakerProcessor wraps next. The breaker trips once at least threshold
// requests were seen in the current interval and half of them failed; it
// stays open for timeout.
func NewBreakerProcessor(
	next Processor,
	threshold int,
	timeout time.Duration,
	logger observability.Logger,
	metrics *Metrics,
) *BreakerProcessor {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics("")
	}
	b := &BreakerProcessor{next: next, logger: logger, metrics: metrics}

	thresholdU32 := safeIntToUint32(threshold)
	const name = "payment-processor"

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    timeout,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= thresholdU32 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellations say nothing about the processor's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			b.logger.Warn("payment circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			b.metrics.breakerState.WithLabelValues(name).Set(float64(to))
			b.metrics.breakerTransition.WithLabelValues(name, from.String(), to.String()).Inc()

			_, span := paymentTracer.Start(context.Background(), "payment.breaker.state_change",
				trace.WithSpanKind(trace.SpanKindInternal))
			span.AddEvent("state_change", trace.WithAttributes(
				attribute.String("circuitbreaker.name", name),
				attribute.String("circuitbreaker.from", from.String()),
				attribute.String("circuitbreaker.to", to.String()),
			))
			span.End()
		},
	})
	b.metrics.breakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return b
}

// CreatePaymentIntent forwards to the wrapped processor unless the breaker is open.
func (b *BreakerProcessor) CreatePaymentIntent(ctx context.Context, amount int64, currency string, methods []string) (*Intent, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		intent, err := b.next.CreatePaymentIntent(ctx, amount, currency, methods)
		if err == nil && intent == nil {
			return nil, ErrNoIntent
		}
		return intent, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		return nil, err
	}
	intent, _ := res.(*Intent)
	return intent, nil
}

// State returns the breaker state.
func (b *BreakerProcessor) State() gobreaker.State {
	return b.cb.State()
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}
