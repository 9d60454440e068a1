package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"realtime-service/internal/identity"
	"realtime-service/internal/models"
	"realtime-service/internal/observability"
	"realtime-service/internal/realtime"
)

const wsEventsRoutingKey = "ws_events.realtime"

// GatewayHandler upgrades client connections, verifies their credential and
// feeds their events into the hub.
type GatewayHandler struct {
	hub              *realtime.Hub
	verifier         identity.Verifier
	handshakeTimeout time.Duration
}

// NewGatewayHandler constructs a GatewayHandler.
func NewGatewayHandler(hub *realtime.Hub, verifier identity.Verifier, handshakeTimeout time.Duration) *GatewayHandler {
	return &GatewayHandler{hub: hub, verifier: verifier, handshakeTimeout: handshakeTimeout}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle verifies the credential, upgrades the connection and registers the
// session. Verification runs under a bounded timeout; a timeout or verifier
// error rejects the handshake before any state is touched.
func (h *GatewayHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("realtime-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}

	verifyCtx, cancel := context.WithTimeout(ctx, h.handshakeTimeout)
	id, err := h.verifier.Verify(verifyCtx, token)
	cancel()
	if err != nil {
		observability.IncWSEvent("ws_auth_reject")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      id.UserID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	headers := observability.BuildHeaders(requestID, traceID)

	sess := realtime.NewSession(info.ConnID, id.UserID, id.DisplayName, conn)
	h.hub.Register(sess)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, wsEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   lifecyclePayload(info, "ws_connect", ""),
	}, headers)

	go func() {
		var closeReason string
		defer func() {
			h.hub.Unregister(sess)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			_ = observability.PublishEvent(ctx, wsEventsRoutingKey, observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   lifecyclePayload(info, "ws_disconnect", closeReason),
			}, headers)
			conn.Close()
		}()
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
					_ = observability.PublishEvent(ctx, wsEventsRoutingKey, observability.EventEnvelope{
						EventType: "ws_events",
						EventName: "ws_error",
						Payload:   lifecyclePayload(info, "ws_error", closeReason),
					}, headers)
				}
				return
			}
			h.dispatch(sess, frame)
		}
	}()
}

// dispatch decodes one inbound frame and routes it to the hub. Errors are
// reported to the originating connection only and never stop the loop.
func (h *GatewayHandler) dispatch(sess *realtime.Session, frame []byte) {
	var event models.ClientEvent
	if err := json.Unmarshal(frame, &event); err != nil {
		h.sendError(sess, models.ErrCodeValidationFailed, "malformed event")
		return
	}

	observability.IncWSEvent(event.Type)

	switch event.Type {
	case models.ActionJoinThread:
		h.hub.JoinThread(sess, event.ThreadID)
	case models.ActionLeaveThread:
		h.hub.LeaveThread(sess, event.ThreadID)
	case models.ActionSendMessage:
		h.hub.SendMessage(sess, event.ThreadID, event.Body)
	case models.ActionTypingStart:
		h.hub.StartTyping(sess, event.ThreadID)
	case models.ActionTypingStop:
		h.hub.StopTyping(sess, event.ThreadID)
	case models.ActionMarkRead:
		h.hub.MarkRead(sess, event.ThreadID, event.MessageID)
	case models.ActionUpdateStatus:
		h.hub.UpdateStatus(sess, event.Status)
	default:
		h.sendError(sess, models.ErrCodeUnknownEvent, "unknown event type")
	}
}

func (h *GatewayHandler) sendError(sess *realtime.Session, code, message string) {
	err := sess.Send(models.Event{
		Type: models.EventError,
		Data: models.ErrorPayload{Code: code, Message: message},
	})
	if err != nil {
		log.Printf("websocket write error: %v", err)
	}
}

func lifecyclePayload(info ConnInfo, event, reason string) map[string]interface{} {
	durationMS := int64(0)
	if event != "ws_connect" {
		durationMS = time.Since(info.ConnectedAt).Milliseconds()
	}
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
