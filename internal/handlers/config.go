package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/draftdesk/draftdesk-backend/internal/sources"
)

// ConfigHandler exposes the closed sets clients can pick from when
// creating a desk.
type ConfigHandler struct {
	registry *sources.Registry
}

func NewConfigHandler(registry *sources.Registry) *ConfigHandler {
	return &ConfigHandler{registry: registry}
}

// GET /config/content-types
func (h *ConfigHandler) ContentTypes(c *gin.Context) {
	RespondOK(c, gin.H{"content_types": h.registry.ContentTypes()})
}

// GET /config/platforms
func (h *ConfigHandler) Platforms(c *gin.Context) {
	RespondOK(c, gin.H{"platforms": sources.Platforms()})
}
