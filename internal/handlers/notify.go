package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/models"
	"realtime-service/internal/realtime"
	"realtime-service/internal/telemetry"
)

// NotifyHandler exposes the collaborator-facing API used by the CRUD
// service: pushing events into personal rooms and querying presence.
type NotifyHandler struct {
	hub     *realtime.Hub
	auditor *telemetry.AuditEmitter
}

// NewNotifyHandler builds a NotifyHandler.
func NewNotifyHandler(hub *realtime.Hub, auditor *telemetry.AuditEmitter) *NotifyHandler {
	return &NotifyHandler{hub: hub, auditor: auditor}
}

// PushNotification delivers an event to the personal rooms of the listed
// users. Recipients without a live connection are skipped; durability is
// the caller's concern.
func (h *NotifyHandler) PushNotification(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required,min=1"`
		Event   struct {
			Type string `json:"type" binding:"required"`
			Data any    `json:"data"`
		} `json:"event" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	delivered := h.hub.NotifyExternal(req.UserIDs, models.Event{
		Type: req.Event.Type,
		Data: req.Event.Data,
	})

	h.auditor.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("external notify type=%s requested=%d delivered=%d", req.Event.Type, len(req.UserIDs), delivered),
		requestIDFromContext(c), callerFromContext(c))

	c.JSON(http.StatusOK, gin.H{
		"requested": len(req.UserIDs),
		"delivered": delivered,
	})
}

// GetPresence reports whether a single user is currently reachable.
func (h *NotifyHandler) GetPresence(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"online":  h.hub.IsOnline(userID),
	})
}

// ListOnline returns every user id with a live connection.
func (h *NotifyHandler) ListOnline(c *gin.Context) {
	users := h.hub.OnlineUsers()
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"online": users})
}
