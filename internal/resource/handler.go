package resource

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// AdminChecker reports whether the account with email holds the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// Handler exposes the dispatcher over HTTP.
type Handler struct {
	dispatcher *Dispatcher
	admins     AdminChecker
	logger     observability.Logger
}

// NewHandler creates a handler.
func NewHandler(d *Dispatcher, admins AdminChecker, logger observability.Logger) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Handler{dispatcher: d, admins: admins, logger: logger}
}

// ListAccounts handles GET /users.
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.dispatcher.ListAccounts(c.Request.Context())
	h.respond(c, accounts, err)
}

// AdminStatus handles GET /user/admin/:email. The caller has already been
// checked to be the owner of :email.
func (h *Handler) AdminStatus(c *gin.Context) {
	isAdmin, err := h.admins.IsAdmin(c.Request.Context(), c.Param("email"))
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, AdminStatus{IsAdmin: isAdmin})
}

// CreateAccount handles POST /create-users.
func (h *Handler) CreateAccount(c *gin.Context) {
	var acc Account
	if err := c.ShouldBindJSON(&acc); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid account", err))
		return
	}
	res, err := h.dispatcher.CreateAccount(c.Request.Context(), &acc)
	h.respond(c, res, err)
}

// PromoteAccount handles PATCH /user/admin/:id.
func (h *Handler) PromoteAccount(c *gin.Context) {
	res, err := h.dispatcher.PromoteAccount(c.Request.Context(), c.Param("id"))
	h.respond(c, res, err)
}

// DeleteAccount handles DELETE /users/:id.
func (h *Handler) DeleteAccount(c *gin.Context) {
	res, err := h.dispatcher.DeleteAccount(c.Request.Context(), c.Param("id"))
	h.respond(c, res, err)
}

// ListCarts handles GET /carts?email=.
func (h *Handler) ListCarts(c *gin.Context) {
	var email *string
	if v, ok := c.GetQuery("email"); ok {
		email = &v
	}
	items, err := h.dispatcher.ListCarts(c.Request.Context(), email)
	h.respond(c, items, err)
}

// CreateCartItem handles POST /carts.
func (h *Handler) CreateCartItem(c *gin.Context) {
	var item CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid cart item", err))
		return
	}
	res, err := h.dispatcher.CreateCartItem(c.Request.Context(), &item)
	h.respond(c, res, err)
}

// DeleteCartItem handles DELETE /carts/:id.
func (h *Handler) DeleteCartItem(c *gin.Context) {
	res, err := h.dispatcher.DeleteCartItem(c.Request.Context(), c.Param("id"))
	h.respond(c, res, err)
}

// ListMenu handles GET /api/v1/menu-read.
func (h *Handler) ListMenu(c *gin.Context) {
	items, err := h.dispatcher.ListMenu(c.Request.Context())
	h.respond(c, items, err)
}

// GetMenuItem handles GET /menu/:id. An unknown id yields a null body.
func (h *Handler) GetMenuItem(c *gin.Context) {
	item, err := h.dispatcher.GetMenuItem(c.Request.Context(), c.Param("id"))
	h.respond(c, item, err)
}

// CreateMenuItem handles POST /menu.
func (h *Handler) CreateMenuItem(c *gin.Context) {
	var item MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid menu item", err))
		return
	}
	res, err := h.dispatcher.CreateMenuItem(c.Request.Context(), &item)
	h.respond(c, res, err)
}

// UpdateMenuItem handles PATCH /menu/:id. An empty body clears every
// replaceable field.
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	var patch MenuPatch
	if err := c.ShouldBindJSON(&patch); err != nil && !errors.Is(err, io.EOF) {
		apperr.Abort(c, apperr.BadRequest("invalid menu item", err))
		return
	}
	res, err := h.dispatcher.UpdateMenuItem(c.Request.Context(), c.Param("id"), &patch)
	h.respond(c, res, err)
}

// DeleteMenuItem handles DELETE /menu/:id.
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	res, err := h.dispatcher.DeleteMenuItem(c.Request.Context(), c.Param("id"))
	h.respond(c, res, err)
}

// ListReviews handles GET /reviews.
func (h *Handler) ListReviews(c *gin.Context) {
	reviews, err := h.dispatcher.ListReviews(c.Request.Context())
	h.respond(c, reviews, err)
}

func (h *Handler) respond(c *gin.Context, body any, err error) {
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Warn("resource operation failed",
			observability.String("route", c.FullPath()),
			observability.Error(err))
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}
