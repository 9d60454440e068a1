package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"realtime-service/internal/models"
	"realtime-service/internal/observability"
)

// Hub coordinates the in-memory tables behind the realtime layer: the
// session registry, room membership, and typing state. All mutation goes
// through its methods; no table is reachable from the outside. Methods
// never hold two table locks at once: they snapshot under one lock and fan
// out after releasing it.
type Hub struct {
	registry *Registry
	rooms    *Rooms
	typing   *TypingState
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		registry: NewRegistry(),
		rooms:    NewRooms(),
		typing:   NewTypingState(),
	}
}

// Register records a freshly verified session, auto-joins its personal room
// and announces presence platform-wide. If the user already had a live
// session it is told it was replaced and closed; its stale memberships are
// cleared when its read loop runs reconciliation.
func (h *Hub) Register(s *Session) {
	displaced := h.registry.Register(s)
	h.rooms.Join(s, PersonalRoom(s.UserID))

	if displaced != nil {
		if err := displaced.Send(models.Event{Type: models.EventSessionReplaced}); err != nil {
			log.Printf("websocket write error: %v", err)
		}
		_ = displaced.Close()
	}

	h.broadcastAll(models.Event{
		Type: models.EventUserStatusChange,
		Data: models.PresenceUpdate{UserID: s.UserID, Online: true},
	})

	observability.SetOnlineUsers(len(h.registry.OnlineUsers()))
}

// Unregister runs disconnect reconciliation. Every step executes
// unconditionally and is individually idempotent, so a disconnect racing an
// explicit leave, or the late cleanup of a displaced session, can never
// leave a dangling membership or typing entry.
func (h *Hub) Unregister(s *Session) {
	_, lastForUser := h.registry.Remove(s)

	for _, threadID := range h.typing.RemoveConn(s.UserID, s.ID) {
		h.Broadcast(ThreadRoom(threadID), models.Event{
			Type: models.EventUserTyping,
			Data: models.TypingNotice{ThreadID: threadID, UserID: s.UserID, IsTyping: false},
		}, s.ID)
	}

	h.rooms.RemoveAll(s)

	if lastForUser {
		h.broadcastAll(models.Event{
			Type: models.EventUserStatusChange,
			Data: models.PresenceUpdate{UserID: s.UserID, Online: false},
		})
	}

	observability.SetOnlineUsers(len(h.registry.OnlineUsers()))
}

// JoinThread subscribes the session to a thread room. Membership proof is
// the caller's responsibility; the hub only tracks who asked to subscribe.
func (h *Hub) JoinThread(s *Session, threadID string) {
	if threadID == "" {
		h.sendError(s, models.ErrCodeValidationFailed, "thread_id is required")
		return
	}
	h.rooms.Join(s, ThreadRoom(threadID))
}

// LeaveThread drops the subscription. A room that never existed is fine.
func (h *Hub) LeaveThread(s *Session, threadID string) {
	if threadID == "" {
		h.sendError(s, models.ErrCodeValidationFailed, "thread_id is required")
		return
	}
	h.rooms.Leave(s, ThreadRoom(threadID))
}

// StartTyping flags the sender as typing and notifies the other members.
func (h *Hub) StartTyping(s *Session, threadID string) {
	if threadID == "" {
		h.sendError(s, models.ErrCodeValidationFailed, "thread_id is required")
		return
	}
	h.typing.Start(threadID, s.UserID, s.ID)
	h.Broadcast(ThreadRoom(threadID), models.Event{
		Type: models.EventUserTyping,
		Data: models.TypingNotice{ThreadID: threadID, UserID: s.UserID, IsTyping: true},
	}, s.ID)
}

// StopTyping clears the flag and notifies the other members.
func (h *Hub) StopTyping(s *Session, threadID string) {
	if threadID == "" {
		h.sendError(s, models.ErrCodeValidationFailed, "thread_id is required")
		return
	}
	h.typing.Stop(threadID, s.UserID)
	h.Broadcast(ThreadRoom(threadID), models.Event{
		Type: models.EventUserTyping,
		Data: models.TypingNotice{ThreadID: threadID, UserID: s.UserID, IsTyping: false},
	}, s.ID)
}

// SendMessage fans a message out to the thread room and acks the sender.
// Sending does not imply joining: a sender outside the room gets only the
// ack, while every actual member receives the broadcast.
func (h *Hub) SendMessage(s *Session, threadID string, body json.RawMessage) {
	if threadID == "" || len(body) == 0 {
		h.sendError(s, models.ErrCodeValidationFailed, "thread_id and body are required")
		return
	}

	msg := models.MessagePayload{
		MessageID: uuid.NewString(),
		ThreadID:  threadID,
		SenderID:  s.UserID,
		Body:      body,
		SentAt:    time.Now().UTC(),
	}

	h.Broadcast(ThreadRoom(threadID), models.Event{Type: models.EventNewMessage, Data: msg}, "")
	if err := s.Send(models.Event{Type: models.EventMessageSent, Data: msg}); err != nil {
		log.Printf("websocket write error: %v", err)
	}
}

// MarkRead broadcasts a read receipt to the thread room.
func (h *Hub) MarkRead(s *Session, threadID, messageID string) {
	if threadID == "" || messageID == "" {
		h.sendError(s, models.ErrCodeValidationFailed, "thread_id and message_id are required")
		return
	}
	h.Broadcast(ThreadRoom(threadID), models.Event{
		Type: models.EventMessageRead,
		Data: models.ReadReceipt{
			ThreadID:  threadID,
			MessageID: messageID,
			ReadBy:    s.UserID,
			ReadAt:    time.Now().UTC(),
		},
	}, "")
}

// UpdateStatus re-broadcasts a status string to the user's personal room,
// independent of the online/offline signal.
func (h *Hub) UpdateStatus(s *Session, status string) {
	if status == "" {
		h.sendError(s, models.ErrCodeValidationFailed, "status is required")
		return
	}
	h.Broadcast(PersonalRoom(s.UserID), models.Event{
		Type: models.EventUserStatusUpdate,
		Data: models.StatusUpdate{UserID: s.UserID, Status: status},
	}, "")
}

// NotifyExternal pushes an event into the personal rooms of the given
// users. Called by the REST layer for messages created through the CRUD
// API. Returns how many of the users were reachable.
func (h *Hub) NotifyExternal(userIDs []string, event models.Event) int {
	delivered := 0
	for _, userID := range userIDs {
		if _, ok := h.registry.Lookup(userID); !ok {
			continue
		}
		h.Broadcast(PersonalRoom(userID), event, "")
		delivered++
	}
	return delivered
}

// IsOnline reports whether the user has a live connection.
func (h *Hub) IsOnline(userID string) bool {
	_, ok := h.registry.Lookup(userID)
	return ok
}

// OnlineUsers returns the ids of all users with a live connection.
func (h *Hub) OnlineUsers() []string {
	return h.registry.OnlineUsers()
}

// MembersOf exposes a read-only membership snapshot of a thread room.
func (h *Hub) MembersOf(threadID string) []string {
	return h.rooms.MembersOf(ThreadRoom(threadID))
}

// Typists exposes the current typing set of a thread.
func (h *Hub) Typists(threadID string) []string {
	return h.typing.Typists(threadID)
}

// Broadcast delivers the event to every member of the room except the
// excluded connection. A failed write drops only the dead connection from
// the room; full reconciliation happens when its read loop notices the
// close.
func (h *Hub) Broadcast(roomID string, event models.Event, excludeConnID string) {
	sessions := h.rooms.Snapshot(roomID)
	if len(sessions) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	sent := 0
	for _, s := range sessions {
		if s.ID == excludeConnID {
			continue
		}
		if err := s.SendRaw(payload); err != nil {
			log.Printf("websocket write error: %v", err)
			_ = s.Close()
			h.rooms.Leave(s, roomID)
			observability.IncWSEvent("ws_error")
			continue
		}
		sent++
	}
	observability.AddBroadcastRecipients(RoomKind(roomID), sent)
}

// broadcastAll delivers an event to every registered connection. Used for
// platform-wide presence transitions, which the source broadcasts globally.
func (h *Hub) broadcastAll(event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	sent := 0
	for _, s := range h.registry.Sessions() {
		if err := s.SendRaw(payload); err != nil {
			log.Printf("websocket write error: %v", err)
			observability.IncWSEvent("ws_error")
			continue
		}
		sent++
	}
	observability.AddBroadcastRecipients("global", sent)
}

func (h *Hub) sendError(s *Session, code, message string) {
	err := s.Send(models.Event{
		Type: models.EventError,
		Data: models.ErrorPayload{Code: code, Message: message},
	})
	if err != nil {
		log.Printf("websocket write error: %v", err)
	}
}
