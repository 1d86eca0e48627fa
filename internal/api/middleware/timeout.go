package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bassista/go_school/internal/logger"
	"github.com/bassista/go_school/internal/repository"
	"github.com/gin-gonic/gin"
)

// RequestTimeout sets a per-request context deadline.
// Handlers are not killed; the cache and providers stop waiting once ctx is done.
// A request that timed out without writing gets a 504 shaped like a failed Result.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			logger.WithComponent("http").Warnf("%s %s timed out after %v", c.Request.Method, c.Request.URL.Path, d)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"success": false,
				"kind":    repository.KindRemoteUnavailable,
				"error":   "request timeout",
			})
		}
	}
}
