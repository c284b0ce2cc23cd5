package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
)

type recordingProcessor struct {
	calls    atomic.Int32
	amount   int64
	currency string
	methods  []string
	err      error
}

func (p *recordingProcessor) CreatePaymentIntent(_ context.Context, amount int64, currency string, methods []string) (*Intent, error) {
	p.calls.Add(1)
	p.amount = amount
	p.currency = currency
	p.methods = methods
	if p.err != nil {
		return nil, p.err
	}
	return &Intent{ID: "pi_1", Amount: amount, Currency: currency, ClientSecret: "pi_1_secret"}, nil
}

func TestToMinorUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		price string
		want  int64
	}{
		{price: "19.99", want: 1999},
		{price: "19.995", want: 1999},
		{price: "0.1", want: 10},
		{price: "10", want: 1000},
		{price: "0.009", want: 0},
		{price: "-1.005", want: -100},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.price)))
		})
	}
}

func TestFacade_CreateIntent(t *testing.T) {
	t.Parallel()

	p := &recordingProcessor{}
	metrics := NewMetrics("test")
	f := NewFacade(p, "usd", []string{"card"}, WithMetrics(metrics))

	resp, err := f.CreateIntent(context.Background(), decimal.RequireFromString("19.995"))
	require.NoError(t, err)
	assert.Equal(t, &IntentResponse{ClientSecret: "pi_1_secret"}, resp)
	assert.Equal(t, int64(1999), p.amount)
	assert.Equal(t, "usd", p.currency)
	assert.Equal(t, []string{"card"}, p.methods)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.intentsTotal.WithLabelValues(resultSuccess)))
}

func TestFacade_ProcessorFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("card declined")
	f := NewFacade(&recordingProcessor{err: cause}, "usd", []string{"card"})

	resp, err := f.CreateIntent(context.Background(), decimal.NewFromInt(5))
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, apperr.ErrUpstreamFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, apperr.Status(err))
}

func TestFacade_NoIntent(t *testing.T) {
	t.Parallel()

	empty := ProcessorFunc(func(context.Context, int64, string, []string) (*Intent, error) {
		return nil, nil
	})

	tests := []struct {
		name      string
		processor Processor
	}{
		{name: "direct", processor: empty},
		{name: "behind breaker", processor: NewBreakerProcessor(empty, 5, time.Minute, nil, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := NewFacade(tt.processor, "usd", []string{"card"})
			var (
				resp *IntentResponse
				err  error
			)
			require.NotPanics(t, func() {
				resp, err = f.CreateIntent(context.Background(), decimal.NewFromInt(3))
			})
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, apperr.ErrUpstreamFailure)
			assert.ErrorIs(t, err, ErrNoIntent)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.intentsTotal.WithLabelValues(resultError)))
		})
	}
}

func TestFacade_Timeout(t *testing.T) {
	t.Parallel()

	slow := ProcessorFunc(func(ctx context.Context, _ int64, _ string, _ []string) (*Intent, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	f := NewFacade(slow, "usd", []string{"card"}, WithTimeout(20*time.Millisecond))

	_, err := f.CreateIntent(context.Background(), decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Equal(t, http.StatusGatewayTimeout, apperr.Status(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.intentsTotal.WithLabelValues(resultTimeout)))
}

func TestBreakerProcessor(t *testing.T) {
	t.Parallel()

	p := &recordingProcessor{err: errors.New("503")}
	b := NewBreakerProcessor(p, 2, time.Minute, nil, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := b.CreatePaymentIntent(ctx, 100, "usd", []string{"card"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.CreatePaymentIntent(ctx, 100, "usd", []string{"card"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), p.calls.Load())

	assert.Equal(t, 2.0, testutil.ToFloat64(b.metrics.breakerState.WithLabelValues("payment-processor")))

	f := NewFacade(b, "usd", []string{"card"}, WithMetrics(b.metrics))
	_, err = f.CreateIntent(ctx, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, apperr.ErrUpstreamFailure)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.intentsTotal.WithLabelValues(resultRejected)))
}

func TestBreakerProcessor_PassesThrough(t *testing.T) {
	t.Parallel()

	p := &recordingProcessor{}
	b := NewBreakerProcessor(p, 5, time.Minute, nil, nil)

	intent, err := b.CreatePaymentIntent(context.Background(), 250, "usd", []string{"card"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func newStripeServer(t *testing.T, handler http.HandlerFunc) *StripeProcessor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewStripeProcessor(StripeConfig{SecretKey: "sk_test_123", URL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return p
}

func TestStripeProcessor(t *testing.T) {
	t.Parallel()

	p := newStripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "1999", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "card", r.PostForm.Get("payment_method_types[0]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":1999,"currency":"usd","client_secret":"pi_123_secret_abc"}`))
	})

	intent, err := p.CreatePaymentIntent(context.Background(), 1999, "usd", []string{"card"})
	require.NoError(t, err)
	assert.Equal(t, &Intent{ID: "pi_123", Amount: 1999, Currency: "usd", ClientSecret: "pi_123_secret_abc"}, intent)
}

func TestStripeProcessor_Error(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := newStripeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
	})

	_, err := p.CreatePaymentIntent(context.Background(), 100, "usd", []string{"card"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declined")
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewStripeProcessor_NoKey(t *testing.T) {
	t.Parallel()

	_, err := NewStripeProcessor(StripeConfig{})
	assert.ErrorIs(t, err, ErrNoSecretKey)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	p := &recordingProcessor{}
	r := gin.New()
	r.POST("/create-payment-intent", Handler(NewFacade(p, "usd", []string{"card"})))

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/create-payment-intent", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"price": 19.99}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, map[string]any{"clientSecret": "pi_1_secret"}, resp)
	assert.Equal(t, int64(1999), p.amount)

	rec = post(`{"price": "12.5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1250), p.amount)

	assert.Equal(t, http.StatusBadRequest, post(`{}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"price": "abc"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)
}

func TestMetrics_MustRegister(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics("")
	m.MustRegister(reg)
	m.MustRegister(reg)
}
