package confighandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thaiduongngo/cool-asa/internal/config"
)

// ClientConfig is what the browser needs to validate attachments before upload.
type ClientConfig struct {
	MaxFileSizeMB    int      `json:"maxFileSizeMB"`
	AllowedFileTypes []string `json:"allowedFileTypes"`
}

// ConfigHandler exposes client-facing configuration.
type ConfigHandler struct {
	clientConfig ClientConfig
}

// NewConfigHandler snapshots the client configuration at startup.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		clientConfig: ClientConfig{
			MaxFileSizeMB:    cfg.MaxFileSizeMB,
			AllowedFileTypes: cfg.AllowedFileTypeList(),
		},
	}
}

// Get handles GET /api/config.
func (h *ConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.clientConfig)
}
