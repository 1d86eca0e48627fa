package route

import (
	"net/http"

	"github.com/bassista/go_school/internal/api/middleware"
	"github.com/bassista/go_school/internal/app"
	"github.com/bassista/go_school/internal/logger"
	"github.com/gin-gonic/gin"
)

// SetupRoutes builds the engine serving the site API and, when present, the static frontend.
func SetupRoutes(appCtx *app.App) *gin.Engine {
	cfg := appCtx.Config

	r := gin.New()
	r.Use(gin.LoggerWithWriter(logger.Logger.Writer(), "/health"))
	r.Use(middleware.HoneybadgerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})

	api := r.Group("/api")
	timeout := cfg.Server.RequestTimeout
	admin := middleware.AdminToken(cfg.Server.AdminToken)

	NewCollectionRouter(timeout, api, appCtx.Collections, admin)
	NewCacheRouter(timeout, api, appCtx.Store, admin)
	NewSchoolInfoRouter(timeout, api, appCtx.InfoRepo, appCtx.Info, admin)
	NewConfigurationRouter(timeout, api, cfg)
	NewUploadRouter(timeout+cfg.Upload.Timeout, api, appCtx.Uploader, cfg.Upload.MaxBytes, admin)

	NewUIRouter(r, cfg.Server.StaticDir)
	return r
}
