package resource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
)

type adminSet map[string]bool

func (a adminSet) IsAdmin(_ context.Context, email string) (bool, error) {
	if email == "broken@x.com" {
		return false, apperr.Upstream("role lookup failed", errors.New("down"))
	}
	return a[email], nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *Dispatcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	d, _ := newTestDispatcher(t)
	h := NewHandler(d, adminSet{"boss@x.com": true}, nil)

	r := gin.New()
	r.GET("/users", h.ListAccounts)
	r.GET("/user/admin/:email", h.AdminStatus)
	r.POST("/create-users", h.CreateAccount)
	r.PATCH("/user/admin/:id", h.PromoteAccount)
	r.DELETE("/users/:id", h.DeleteAccount)
	r.GET("/carts", h.ListCarts)
	r.POST("/carts", h.CreateCartItem)
	r.DELETE("/carts/:id", h.DeleteCartItem)
	r.GET("/api/v1/menu-read", h.ListMenu)
	r.GET("/menu/:id", h.GetMenuItem)
	r.POST("/menu", h.CreateMenuItem)
	r.PATCH("/menu/:id", h.UpdateMenuItem)
	r.DELETE("/menu/:id", h.DeleteMenuItem)
	r.GET("/reviews", h.ListReviews)
	return r, d
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHandler_Accounts(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodPost, "/create-users", `{"name":"Alice","email":"a@x.com","role":"admin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ins := decode[map[string]any](t, rec)
	assert.Equal(t, true, ins["acknowledged"])
	id, ok := ins["insertedId"].(string)
	require.True(t, ok)
	assert.Len(t, id, 24)

	rec = do(r, http.MethodPost, "/create-users", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"user already exists"}`, rec.Body.String())

	rec = do(r, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	accounts := decode[[]Account](t, rec)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Alice", accounts[0].Name)
	assert.Empty(t, accounts[0].Role)

	rec = do(r, http.MethodPatch, "/user/admin/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	upd := decode[map[string]any](t, rec)
	assert.Equal(t, 1.0, upd["matchedCount"])
	assert.Equal(t, 1.0, upd["modifiedCount"])

	rec = do(r, http.MethodDelete, "/users/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":1}`, rec.Body.String())

	rec = do(r, http.MethodDelete, "/users/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[apperr.Body](t, rec)
	assert.Equal(t, apperr.KindBadRequest, body.Error)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/create-users", `{"name":"no email"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/create-users", `{`).Code)
}

func TestHandler_AdminStatus(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodGet, "/user/admin/boss@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isAdmin":true}`, rec.Body.String())

	rec = do(r, http.MethodGet, "/user/admin/a@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isAdmin":false}`, rec.Body.String())

	rec = do(r, http.MethodGet, "/user/admin/broken@x.com", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandler_Carts(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	for _, body := range []string{
		`{"menuId":"m1","email":"a@x.com","name":"Soup","price":4.5,"quantity":1}`,
		`{"menuId":"m2","email":"a@x.com","name":"Stew","price":7,"quantity":2}`,
		`{"menuId":"m1","email":"b@x.com","name":"Soup","price":4.5,"quantity":1}`,
	} {
		require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/carts", body).Code)
	}

	rec := do(r, http.MethodGet, "/carts?email=a@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]CartItem](t, rec)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, "a@x.com", item.Email)
	}

	rec = do(r, http.MethodGet, "/carts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(r, http.MethodDelete, "/carts/"+items[0].ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":1}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/carts", `{"name":"ownerless"}`).Code)
}

func TestHandler_Menu(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodPost, "/menu", `{"name":"Soup","image":"soup.png","category":"starter","price":4.5,"recipe":"water"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[map[string]any](t, rec)["insertedId"].(string)

	rec = do(r, http.MethodGet, "/menu/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode[MenuItem](t, rec)
	assert.Equal(t, "Soup", item.Name)
	assert.Equal(t, 4.5, item.Price)

	rec = do(r, http.MethodPatch, "/menu/"+id, `{"name":"Stew","price":6,"rating":5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/menu/"+id, "")
	item = decode[MenuItem](t, rec)
	assert.Equal(t, "Stew", item.Name)
	assert.Equal(t, 6.0, item.Price)
	assert.Empty(t, item.Image)

	rec = do(r, http.MethodGet, "/api/v1/menu-read", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]MenuItem](t, rec), 1)

	rec = do(r, http.MethodDelete, "/menu/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/menu/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/menu/xyz", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/menu", `{"name":"Free","price":-1}`).Code)
}

func TestHandler_UpdateMenuItem_EmptyBody(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodPost, "/menu", `{"name":"Soup","price":4.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[map[string]any](t, rec)["insertedId"].(string)

	rec = do(r, http.MethodPatch, "/menu/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	item := decode[MenuItem](t, do(r, http.MethodGet, "/menu/"+id, ""))
	assert.Empty(t, item.Name)
	assert.Zero(t, item.Price)
}

func TestHandler_Reviews(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodGet, "/reviews", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
