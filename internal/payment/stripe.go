package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// ErrNoSecretKey is returned when the processor secret key is missing.
var ErrNoSecretKey = errors.New("payment processor secret key is required")

// StripeProcessor creates payment intents through the Stripe API.
type StripeProcessor struct {
	api *client.API
}

// StripeConfig configures the Stripe client.
type StripeConfig struct {
	SecretKey string

	// URL overrides the API base URL. Empty uses Stripe's.
	URL string

	HTTPClient *http.Client
	Logger     observability.Logger
}

// NewStripeProcessor creates a Stripe processor. The client never retries
// on its own; failures surface to the caller.
func NewStripeProcessor(cfg StripeConfig) (*StripeProcessor, error) {
	if cfg.SecretKey == "" {
		return nil, ErrNoSecretKey
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger()
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripeLogger{logger: cfg.Logger},
	}
	if cfg.URL != "" {
		backendCfg.URL = stripe.String(cfg.URL)
	}

	backends := &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
	}
	return &StripeProcessor{api: client.New(cfg.SecretKey, backends)}, nil
}

// CreatePaymentIntent creates a Stripe PaymentIntent.
func (p *StripeProcessor) CreatePaymentIntent(ctx context.Context, amount int64, currency string, methods []string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice(methods),
	}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return &Intent{
		ID:           pi.ID,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
	}, nil
}

// stripeLogger routes stripe-go logs into the service logger.
type stripeLogger struct {
	logger observability.Logger
}

func (l *stripeLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), observability.String("component", "stripe"))
}

func (l *stripeLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), observability.String("component", "stripe"))
}

func (l *stripeLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), observability.String("component", "stripe"))
}

func (l *stripeLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), observability.String("component", "stripe"))
}
