package route

import (
	"time"

	"github.com/bassista/go_school/internal/api/controller"
	"github.com/bassista/go_school/internal/api/middleware"
	"github.com/bassista/go_school/internal/cache"
	"github.com/gin-gonic/gin"
)

// NewCacheRouter sets up collection statistics and cache administration routes.
// Invalidation goes through admin.
func NewCacheRouter(timeout time.Duration, group *gin.RouterGroup, registry cache.Registry, admin gin.HandlerFunc) {
	cc := controller.NewCacheController(registry)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("stats", timeoutMiddleware, cc.Stats)
	group.GET("cache", cc.Entries)
	group.POST("cache/:collection/invalidate", admin, cc.Invalidate)
}
