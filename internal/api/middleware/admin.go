package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/bassista/go_school/internal/logger"
	"github.com/bassista/go_school/internal/repository"
	"github.com/gin-gonic/gin"
)

// AdminToken guards the write endpoints with a shared bearer token.
// With no token configured the guarded endpoints answer 503.
func AdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"kind":    repository.KindConfigurationMissing,
				"error":   "admin token is not configured",
			})
			return
		}

		scheme, given, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			logger.WithComponent("admin").Warnf("rejected %s %s from %s", c.Request.Method, c.Request.URL.Path, c.ClientIP())
			c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			return
		}
		c.Next()
	}
}
