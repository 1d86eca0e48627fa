package route

import (
	"time"

	"github.com/bassista/go_school/internal/api/controller"
	"github.com/bassista/go_school/internal/api/middleware"
	"github.com/bassista/go_school/internal/repository"
	"github.com/gin-gonic/gin"
)

// NewSchoolInfoRouter serves the school information document; updates go through admin.
func NewSchoolInfoRouter(timeout time.Duration, group *gin.RouterGroup, repo repository.SchoolInfoRepository, store repository.InfoStore, admin gin.HandlerFunc) {
	sc := controller.NewSchoolInfoController(repo, store)

	group.GET("school-info", sc.Get)
	group.PUT("school-info", admin, middleware.RequestTimeout(timeout), sc.Update)
}
