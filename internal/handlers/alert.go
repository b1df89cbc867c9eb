package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Cyvadra/tv-relay/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AlertHandler serves the alert history
type AlertHandler struct {
	alertService *services.AlertService
}

// NewAlertHandler creates a new alert handler. A nil service disables the history endpoints.
func NewAlertHandler(alertService *services.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// GetAlerts retrieves all alerts with pagination
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	if !h.available(c) {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	status := c.Query("status")

	alerts, total, err := h.alertService.GetAlerts(page, limit, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetAlert retrieves a specific alert by ID
func (h *AlertHandler) GetAlert(c *gin.Context) {
	if !h.available(c) {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert ID"})
		return
	}

	alert, err := h.alertService.GetAlert(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alert"})
		return
	}

	c.JSON(http.StatusOK, alert)
}

func (h *AlertHandler) available(c *gin.Context) bool {
	if h.alertService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Alert history is disabled"})
		return false
	}
	return true
}
