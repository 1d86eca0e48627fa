package route

import (
	"time"

	"github.com/bassista/go_school/internal/api/controller"
	"github.com/bassista/go_school/internal/api/middleware"
	"github.com/bassista/go_school/internal/app"
	"github.com/bassista/go_school/internal/repository"
	"github.com/gin-gonic/gin"
)

// NewCollectionRouter registers list/create/delete endpoints for every cached collection.
// Create and delete go through admin.
func NewCollectionRouter(timeout time.Duration, group *gin.RouterGroup, collections app.Collections, admin gin.HandlerFunc) {
	g := group.Group("", middleware.RequestTimeout(timeout))

	controller.NewSubjectController(collections.Subjects).RegisterCrudRoutes(g, repository.CollectionSubjects, admin)
	controller.NewPublicationController(collections.Publications).RegisterCrudRoutes(g, repository.CollectionPublications, admin)
	controller.NewResourceController(collections.Resources).RegisterCrudRoutes(g, repository.CollectionResources, admin)
}
