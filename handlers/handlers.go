package handlers

import (
	"net/http"
	"strconv"

	"bendy/locations"
	"bendy/models"
	"bendy/services"
	ws "bendy/websocket"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// ReportsHandler serves the crowd-report endpoints.
type ReportsHandler struct {
	reports *services.Reports
	catalog *locations.Catalog
	hub     *ws.Hub
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reports *services.Reports, catalog *locations.Catalog, hub *ws.Hub) *ReportsHandler {
	return &ReportsHandler{
		reports: reports,
		catalog: catalog,
		hub:     hub,
	}
}

// HealthHandler returns service health with websocket statistics.
func (h *ReportsHandler) HealthHandler(c *gin.Context) {
	connected, lastID := h.hub.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"service":           "bendy-backend",
		"connected_clients": connected,
		"last_broadcast_id": lastID,
	})
}

// LocationsHandler returns the popular-spot catalog.
func (h *ReportsHandler) LocationsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"locations": h.catalog.All()})
}

// NearestLocationHandler returns the catalog spot closest to the given
// coordinates.
func (h *ReportsHandler) NearestLocationHandler(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat must be a number"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lng must be a number"})
		return
	}

	spot, distanceKm := h.catalog.Nearest(lat, lng)
	c.JSON(http.StatusOK, gin.H{
		"location":    spot,
		"distance_km": distanceKm,
	})
}

// SubmitReportHandler handles a crowd report submission. Business
// failures (cooldown, store trouble, bad fields) come back as a 200
// with success=false and a message, the contract the SPA expects; only
// an unreadable payload is a 400.
func (h *ReportsHandler) SubmitReportHandler(c *gin.Context) {
	var req models.SubmitReportRequest
	if err := c.BindJSON(&req); err != nil {
		log.Errorf("failed to bind submit request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, report := h.reports.Submit(c.Request.Context(), req.LocationID, req.LocationName, req.CrowdLevel, req.Comment)
	if report != nil {
		h.hub.BroadcastReport(*report)
	}
	c.JSON(http.StatusOK, result)
}

// CurrentReportsHandler returns the unexpired reports, optionally for
// one location.
func (h *ReportsHandler) CurrentReportsHandler(c *gin.Context) {
	reports, err := h.reports.Current(c.Request.Context(), c.Query("location_id"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to load crowd reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

// HistoryHandler returns daily summaries for one location over the
// trailing window.
func (h *ReportsHandler) HistoryHandler(c *gin.Context) {
	daysBack := 0
	if raw := c.Query("days_back"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days_back must be a number"})
			return
		}
		daysBack = parsed
	}

	summaries, err := h.reports.History(c.Request.Context(), c.Query("location_id"), daysBack)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summaries": summaries,
		"count":     len(summaries),
	})
}
