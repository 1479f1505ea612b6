package middleware

import (
	"github.com/gin-gonic/gin"

	"tripvote/internal/transport/httpdto"
	"tripvote/pkg/logger"
)

// ErrorHandler turns errors attached to the gin context into the uniform
// response envelope. Handlers that already wrote a body never reach here.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.WithContext(c.Request.Context()).Sugar().Errorf("request error: %s", err.Error())
		}
		c.JSON(c.Writer.Status(), httpdto.NewErrorResponse(err.Error(), "INTERNAL_ERROR"))
	}
}
