package controller

import (
	"net/http"

	"github.com/bassista/go_school/internal/config"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// ConfigurationResponse is the part of the configuration the frontend needs.
type ConfigurationResponse struct {
	Backend            string `json:"backend"`
	CacheDurationSec   int    `json:"cacheDurationSec"`
	UploadEnabled      bool   `json:"uploadEnabled"`
	UploadMaxBytes     int64  `json:"uploadMaxBytes"`
	UploadMaxSize      string `json:"uploadMaxSize"`
	UploadMaxWidthPx   int    `json:"uploadMaxWidthPx"`
	RefreshIntervalSec int    `json:"refreshIntervalSec"`
}

// ConfigurationController handles configuration-related API endpoints.
type ConfigurationController struct {
	config *config.Config
}

// NewConfigurationController creates a new ConfigurationController.
func NewConfigurationController(cfg *config.Config) *ConfigurationController {
	return &ConfigurationController{
		config: cfg,
	}
}

// GetConfiguration returns the application configuration for the frontend.
// Credentials are never included.
func (cc *ConfigurationController) GetConfiguration(c *gin.Context) {
	response := ConfigurationResponse{
		Backend:            cc.config.Backend.Driver,
		CacheDurationSec:   int(cc.config.Cache.Duration.Seconds()),
		UploadEnabled:      cc.config.Upload.APIKey != "",
		UploadMaxBytes:     cc.config.Upload.MaxBytes,
		UploadMaxSize:      humanize.Bytes(uint64(cc.config.Upload.MaxBytes)),
		UploadMaxWidthPx:   cc.config.Upload.MaxWidth,
		RefreshIntervalSec: int(cc.config.Cache.RefreshInterval.Seconds()),
	}
	c.JSON(http.StatusOK, response)
}
