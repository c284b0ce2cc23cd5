package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
	"github.com/vyrodovalexey/restaurant/internal/observability"
)

var paymentTracer = otel.Tracer("restaurant/payment")

// DefaultTimeout bounds a processor call when none is configured.
const DefaultTimeout = 10 * time.Second

var hundred = decimal.NewFromInt(100)

// ErrNoIntent is returned when a processor reports success without an intent.
var ErrNoIntent = errors.New("payment processor returned no intent")

// Intent is a payment intent as reported by the processor.
type Intent struct {
	ID           string
	Amount       int64
	Currency     string
	ClientSecret string
}

// Processor creates payment intents at an external payment processor.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, methods []string) (*Intent, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, amount int64, currency string, methods []string) (*Intent, error)

// CreatePaymentIntent calls f.
func (f ProcessorFunc) CreatePaymentIntent(ctx context.Context, amount int64, currency string, methods []string) (*Intent, error) {
	return f(ctx, amount, currency, methods)
}

// IntentResponse is the client-visible part of a payment intent.
type IntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// ToMinorUnits converts a price to minor units by multiplying by 100 and
// truncating toward zero. 19.995 becomes 1999.
func ToMinorUnits(price decimal.Decimal) int64 {
	return price.Mul(hundred).IntPart()
}

// Facade forwards payment intent requests to a processor with a fixed
// currency and set of accepted payment methods.
type Facade struct {
	processor Processor
	currency  string
	methods   []string
	timeout   time.Duration
	logger    observability.Logger
	metrics   *Metrics
}

// Option configures a Facade.
type Option func(*Facade)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(f *Facade) {
		f.logger = logger
	}
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(f *Facade) {
		f.metrics = metrics
	}
}

// WithTimeout bounds each processor call.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Facade) {
		f.timeout = timeout
	}
}

// NewFacade creates a facade.
func NewFacade(processor Processor, currency string, methods []string, opts ...Option) *Facade {
	f := &Facade{
		processor: processor,
		currency:  currency,
		methods:   append([]string(nil), methods...),
		timeout:   DefaultTimeout,
		logger:    observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.metrics == nil {
		f.metrics = NewMetrics("")
	}
	return f
}

// CreateIntent creates a payment intent for price and returns only its
// client secret.
func (f *Facade) CreateIntent(ctx context.Context, price decimal.Decimal) (*IntentResponse, error) {
	amount := ToMinorUnits(price)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	ctx, span := paymentTracer.Start(ctx, "payment.CreateIntent",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int64("payment.amount", amount),
			attribute.String("payment.currency", f.currency),
		),
	)
	defer span.End()

	start := time.Now()
	intent, err := f.processor.CreatePaymentIntent(ctx, amount, f.currency, f.methods)
	if err == nil && intent == nil {
		err = ErrNoIntent
	}
	if err != nil {
		f.metrics.RecordIntent(intentResult(err), time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment intent failed")
		f.logger.WithContext(ctx).Error("payment intent failed",
			observability.Int64("amount", amount),
			observability.Error(err))
		return nil, apperr.Upstream("payment processor unavailable", err)
	}

	f.metrics.RecordIntent(resultSuccess, time.Since(start))
	f.logger.WithContext(ctx).Debug("payment intent created",
		observability.String("intent", intent.ID),
		observability.Int64("amount", amount))
	return &IntentResponse{ClientSecret: intent.ClientSecret}, nil
}

func intentResult(err error) string {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return resultRejected
	case errors.Is(err, context.DeadlineExceeded):
		return resultTimeout
	default:
		return resultError
	}
}
