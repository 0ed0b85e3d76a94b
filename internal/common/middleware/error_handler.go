package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/common/errors"
)

// ErrorHandler recovers panics and renders errors attached with c.Error
// when the handler did not write a response itself.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
				)
				appErr := errors.Internal("internal server error", "")
				c.AbortWithStatusJSON(appErr.Status, appErr)
			}
		}()
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		JSONErrorResponse(c, c.Errors.Last().Err)
	}
}

// JSONErrorResponse wraps errors in consistent JSON format
func JSONErrorResponse(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal("internal server error", "")
	}
	if appErr.Status == 0 {
		appErr.Status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(appErr.Status, appErr)
}
