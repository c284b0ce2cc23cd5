package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
	"github.com/vyrodovalexey/restaurant/internal/config"
	"github.com/vyrodovalexey/restaurant/internal/observability"
	"github.com/vyrodovalexey/restaurant/internal/server/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.ServerConfig {
	cfg := config.DefaultConfig().Server
	cfg.Address = "127.0.0.1"
	cfg.Port = 0
	return cfg
}

func TestServer_StartStop(t *testing.T) {
	s := New(testConfig(), nil, WithMetrics(observability.NewMetrics("test")), WithTracing("test"))
	s.Engine().GET("/", func(c *gin.Context) { c.String(http.StatusOK, "up") })

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, s.IsRunning())

	resp, err := http.Get("http://" + s.Addr() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "up", string(body))
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, <-errCh)
	assert.False(t, s.IsRunning())
}

func TestServer_StopBeforeStart(t *testing.T) {
	s := New(testConfig(), nil)
	assert.NoError(t, s.Stop(context.Background()))
	assert.Empty(t, s.Addr())
}

func TestServer_ListenError(t *testing.T) {
	cfg := testConfig()
	cfg.Port = -1
	s := New(cfg, nil)
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestServer_UnknownRoute(t *testing.T) {
	s := New(testConfig(), nil)
	s.Engine().GET("/known", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	var body apperr.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperr.Body{Error: apperr.KindNotFound, Message: "route not found"}, body)
}
