package route

import (
	"time"

	"github.com/bassista/go_school/internal/api/controller"
	"github.com/bassista/go_school/internal/api/middleware"
	"github.com/bassista/go_school/internal/upload"
	"github.com/gin-gonic/gin"
)

// NewUploadRouter sets up the image upload route, behind admin. Its timeout covers the
// round trip to the image host, so it is longer than the one of the other API routes,
// and the connection deadlines are pushed out to match.
func NewUploadRouter(timeout time.Duration, group *gin.RouterGroup, uploader upload.Uploader, maxBytes int64, admin gin.HandlerFunc) {
	uc := controller.NewUploadController(uploader, maxBytes, timeout)

	group.POST("uploads", admin, middleware.RequestTimeout(timeout), uc.Upload)
}
