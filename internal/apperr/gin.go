package apperr

import (
	"github.com/gin-gonic/gin"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error   Kind   `json:"error"`
	Message string `json:"message"`
}

// Abort records err on the gin context and aborts the chain with the mapped
// status and a structured body.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(Status(err), Body{
		Error:   KindOf(err),
		Message: Message(err),
	})
}
