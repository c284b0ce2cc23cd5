package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
)

// IntentRequest is the body of POST /create-payment-intent.
type IntentRequest struct {
	Price *decimal.Decimal `json:"price"`
}

// Handler returns the gin handler for POST /create-payment-intent.
func Handler(f *Facade) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Abort(c, apperr.BadRequest("invalid price", err))
			return
		}
		if req.Price == nil {
			apperr.Abort(c, apperr.BadRequest("price is required", errors.New("missing price")))
			return
		}

		resp, err := f.CreateIntent(c.Request.Context(), *req.Price)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
