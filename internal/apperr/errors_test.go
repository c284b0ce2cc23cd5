package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", Upstream("store unavailable", cause))

	assert.True(t, errors.Is(err, ErrUpstreamFailure))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, &Error{Kind: KindUpstreamFailure}))
	assert.False(t, errors.Is(err, ErrForbidden))
}

func TestError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not_found: no such item", NotFound("no such item").Error())
	assert.Equal(t, "bad_request: invalid id: bad hex", BadRequest("invalid id", errors.New("bad hex")).Error())
}

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "bad request", err: BadRequest("x", nil), want: http.StatusBadRequest},
		{name: "unauthorized", err: Unauthorized(nil), want: http.StatusUnauthorized},
		{name: "forbidden", err: Forbidden(nil), want: http.StatusForbidden},
		{name: "not found", err: NotFound("x"), want: http.StatusNotFound},
		{name: "upstream", err: Upstream("x", errors.New("down")), want: http.StatusBadGateway},
		{name: "upstream deadline", err: Upstream("x", context.DeadlineExceeded), want: http.StatusGatewayTimeout},
		{name: "internal", err: Internal("x", nil), want: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("plain"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestMessage_HidesCause(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "store unavailable", Message(Upstream("store unavailable", errors.New("dial tcp 10.0.0.1"))))
	assert.Equal(t, "an unexpected error occurred", Message(errors.New("secret detail")))
}

func TestAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/users", nil)

	Abort(c, Forbidden(nil))

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.Len(t, c.Errors, 1)

	var body Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, KindForbidden, body.Error)
	assert.Equal(t, "forbidden access", body.Message)
}
