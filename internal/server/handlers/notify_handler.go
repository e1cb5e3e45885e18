package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/domain/models"
	"github.com/k2nservice/console/internal/service/notify"
)

// SendNotification pushes an operator written WhatsApp message.
func (h *Handler) SendNotification(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if h.deps.Notifier == nil {
		h.fail(c, notify.ErrDisabled, nil)
		return
	}

	err := h.deps.Notifier.SendOutbound(c.Request.Context(), req)
	if errors.Is(err, notify.ErrDisabled) {
		h.fail(c, err, nil)
		return
	}
	if err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}
