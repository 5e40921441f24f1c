package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/facecast/server/internal/shared/logger"
	"github.com/facecast/server/internal/shared/response"
)

// Recovery returns a middleware that recovers from panics.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.Abort()
				response.InternalError(c, "")
			}
		}()
		c.Next()
	}
}
