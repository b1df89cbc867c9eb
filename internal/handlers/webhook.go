package handlers

import (
	"io"
	"net/http"

	"github.com/Cyvadra/tv-relay/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// WebhookHandler handles incoming alert webhooks
type WebhookHandler struct {
	relay *services.RelayService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(relay *services.RelayService) *WebhookHandler {
	return &WebhookHandler{relay: relay}
}

// HandleWebhook accepts a JSON or plain text alert and relays it to the configured channels
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	// The content type is not trusted; the body is always read raw.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.WithError(err).Error("failed to read webhook body")
		internalError(c)
		return
	}

	result, err := h.relay.Process(c.Request.Context(), body)
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message(),
	})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "Internal Error",
	})
}
