package handlers

import (
	"net/http"

	"bendy/services"

	"github.com/gin-gonic/gin"
)

// ConditionsHandler serves the live-conditions proxy endpoints.
type ConditionsHandler struct {
	conditions *services.Conditions
}

// NewConditionsHandler creates a new conditions handler.
func NewConditionsHandler(conditions *services.Conditions) *ConditionsHandler {
	return &ConditionsHandler{conditions: conditions}
}

// MountainHandler returns Mt. Bachelor conditions. Always a 200; the
// fallback payload carries its own error field.
func (h *ConditionsHandler) MountainHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.conditions.Mountain(c.Request.Context()))
}

// RoadsHandler returns pass conditions near Bend.
func (h *ConditionsHandler) RoadsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.conditions.Roads(c.Request.Context()))
}
