package route

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bassista/go_school/internal/logger"
	"github.com/gin-gonic/gin"
)

// NewUIRouter serves the built site from dir: assets as files and index.html for
// every other non-API path (client-side routing). Unknown /api paths get a JSON 404.
// Without an index.html in dir only the JSON 404 is installed.
func NewUIRouter(r *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	_, err := os.Stat(index)
	hasUI := dir != "" && err == nil
	if hasUI {
		r.Static("/assets", filepath.Join(dir, "assets"))
		r.StaticFile("/favicon.ico", filepath.Join(dir, "favicon.ico"))
		logger.WithComponent("ui").Infof("serving site from %s", dir)
	} else {
		logger.WithComponent("ui").Debugf("no site found in %q, serving API only", dir)
	}

	r.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if hasUI && c.Request.Method == http.MethodGet && p != "/api" && !strings.HasPrefix(p, "/api/") {
			c.File(index)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
