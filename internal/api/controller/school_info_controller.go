package controller

import (
	"net/http"
	"time"

	"github.com/bassista/go_school/internal/logger"
	"github.com/bassista/go_school/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// SchoolInfoController serves and edits the school information document.
type SchoolInfoController struct {
	repo      repository.SchoolInfoRepository
	store     repository.InfoStore
	validator *validator.Validate
	now       func() time.Time
}

func NewSchoolInfoController(repo repository.SchoolInfoRepository, store repository.InfoStore) *SchoolInfoController {
	return &SchoolInfoController{
		repo:      repo,
		store:     store,
		validator: validator.New(),
		now:       time.Now,
	}
}

// SchoolInfoResponse is the document plus its display fields in page order.
type SchoolInfoResponse struct {
	Info   repository.SchoolInfo  `json:"info"`
	Fields []repository.InfoField `json:"fields"`
}

// Get handles GET /school-info from memory.
func (sc *SchoolInfoController) Get(c *gin.Context) {
	info := sc.store.Snapshot()
	c.JSON(http.StatusOK, SchoolInfoResponse{Info: info, Fields: info.DisplayFields()})
}

// Update handles PUT /school-info. The document is written to disk first and only
// then swapped in memory; the watcher sees the same content and skips the reload.
func (sc *SchoolInfoController) Update(c *gin.Context) {
	var info repository.SchoolInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := sc.validator.Struct(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info.LastUpdate = sc.now().UnixMilli()

	if err := sc.repo.Save(c.Request.Context(), &info); err != nil {
		logger.WithComponent("school-info-controller").Errorf("save failed: %v", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save school info"})
		return
	}
	sc.store.Replace(info)
	logger.WithComponent("school-info-controller").Info("school info updated")
	c.JSON(http.StatusOK, SchoolInfoResponse{Info: info, Fields: info.DisplayFields()})
}
