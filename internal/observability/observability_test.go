package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  LogConfig
		wantErr bool
	}{
		{name: "default config", config: DefaultLogConfig()},
		{name: "console format", config: LogConfig{Level: "debug", Format: "console"}},
		{name: "stderr output", config: LogConfig{Level: "warn", Output: "stderr"}},
		{name: "empty level", config: LogConfig{}},
		{name: "invalid level", config: LogConfig{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, err := NewLogger(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewLogger(LogConfig{Level: "info", Format: "json", Writer: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.With(String("component", "test")).Info("visible", Int("count", 3))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "test", entry["component"])
	assert.EqualValues(t, 3, entry["count"])
}

func TestLogger_WithContext(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromZap(zap.New(core))

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithTraceID(ctx, "trace-1")

	logger.WithContext(ctx).Info("handled")
	logger.WithContext(context.Background()).Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "trace-1", entries[0].ContextMap()["trace_id"])
	assert.Empty(t, entries[1].ContextMap())
}

func TestContextIDs_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	logger := NopLogger()
	logger.Info("discarded", String("k", "v"))
	assert.NotNil(t, logger.With(Bool("b", true)))
}

func TestMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordRequest(http.MethodGet, "/menu/:id", http.StatusOK, 20*time.Millisecond, 128)
	m.RecordRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond, -1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/menu/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", UnmatchedRoute, "404")))

	m.IncActive()
	m.IncActive()
	m.DecActive()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeRequests))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")
	m.SetBuildInfo("1.0.0", "abc", "now")
	m.RecordRequest(http.MethodPost, "/jwt", http.StatusOK, time.Millisecond, 10)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "restaurant_http_requests_total")
	assert.Contains(t, body, "restaurant_build_info")
	assert.NotNil(t, m.Registry())
}

func TestMetrics_BuildInfoLabels(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")
	m.SetBuildInfo("1.2.3", "deadbeef", "2024-01-01")

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var buildInfo *io_prometheus_client.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "restaurant_build_info" {
			buildInfo = mf
		}
	}
	require.NotNil(t, buildInfo)
	require.Len(t, buildInfo.GetMetric(), 1)

	labels := make(map[string]string)
	for _, lp := range buildInfo.GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, map[string]string{"version": "1.2.3", "commit": "deadbeef", "build_time": "2024-01-01"}, labels)
	assert.Equal(t, 1.0, buildInfo.GetMetric()[0].GetGauge().GetValue())
}

func TestTracer_Disabled(t *testing.T) {
	t.Parallel()

	tracer, err := NewTracer(context.Background(), TracerConfig{ServiceName: "restaurant"})
	require.NoError(t, err)

	_, span := tracer.Start(context.Background(), "op")
	span.End()
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestTracer_FromProvider(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := NewTracerFromProvider(tp, "test")
	_, span := tracer.Start(context.Background(), "store.find")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "store.find", spans[0].Name)
}

func TestSampler(t *testing.T) {
	t.Parallel()

	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestNoopTracer(t *testing.T) {
	t.Parallel()

	_, span := NoopTracer().Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}
