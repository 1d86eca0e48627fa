package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/bassista/go_school/internal/cache"
	"github.com/bassista/go_school/internal/logger"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// CacheController exposes collection statistics and cache administration.
type CacheController struct {
	registry cache.Registry
	now      func() time.Time
}

func NewCacheController(registry cache.Registry) *CacheController {
	return &CacheController{registry: registry, now: time.Now}
}

// StatsResponse holds the size of every collection. A collection that could not be
// counted reports 0.
type StatsResponse struct {
	Counts  map[string]int    `json:"counts"`
	Display map[string]string `json:"display"`
}

// Stats handles GET /stats.
func (cc *CacheController) Stats(c *gin.Context) {
	counts := cc.registry.Stats(c.Request.Context())
	display := make(map[string]string, len(counts))
	for name, n := range counts {
		display[name] = humanize.Comma(int64(n))
	}
	c.JSON(http.StatusOK, StatsResponse{Counts: counts, Display: display})
}

// EntryView is a cache entry with its age in words.
type EntryView struct {
	cache.EntryInfo
	Age string `json:"age,omitempty"`
}

// Entries handles GET /cache.
func (cc *CacheController) Entries(c *gin.Context) {
	infos := cc.registry.Infos()
	now := cc.now()
	views := make([]EntryView, len(infos))
	for i, info := range infos {
		views[i] = EntryView{EntryInfo: info}
		if info.FetchedAt != nil {
			views[i].Age = humanize.RelTime(*info.FetchedAt, now, "ago", "from now")
		}
	}
	c.JSON(http.StatusOK, views)
}

// Invalidate handles POST /cache/:collection/invalidate.
func (cc *CacheController) Invalidate(c *gin.Context) {
	name := c.Param("collection")
	if err := cc.registry.Invalidate(name); err != nil {
		if errors.Is(err, cache.ErrUnknownCollection) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.WithCollection("cache-controller", name).Info("cache invalidated on request")
	c.Status(http.StatusNoContent)
}
