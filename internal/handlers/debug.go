package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/realtime"
	"realtime-service/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, hub *realtime.Hub, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/threads/:thread_id", func(c *gin.Context) {
		threadID := c.Param("thread_id")
		c.JSON(http.StatusOK, gin.H{
			"thread_id": threadID,
			"members":   hub.MembersOf(threadID),
			"typing":    hub.Typists(threadID),
		})
	})

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), callerFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
