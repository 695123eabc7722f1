package middleware

import (
	"errors"

	"github.com/gtn1024/puratodo-sub001/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last error attached to the context. Errors that are not
// an errutil.BaseError are reported as internal without leaking their text.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		var base errutil.BaseError
		if !errors.As(last.Err, &base) {
			status := errutil.StatusOf(last.Err)
			base = errutil.BaseError{Code: status, Message: string(status)}
		}

		if base.Code.HTTPStatus() >= 500 {
			zap.L().Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(last.Err),
			)
			base.Err = nil
		}

		c.AbortWithStatusJSON(base.Code.HTTPStatus(), base.JSON())
	}
}
