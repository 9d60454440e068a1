package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"realtime-service/internal/models"
)

// EventWriter is the write half of a transport link. *websocket.Conn
// satisfies it; tests substitute an in-memory fake.
type EventWriter interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session is one live connection bound to a verified user. The transport
// write is serialized with a mutex because broadcasts arrive from other
// connections' goroutines while the owning read loop sends acks.
type Session struct {
	ID          string
	UserID      string
	DisplayName string
	ConnectedAt time.Time

	mu sync.Mutex
	w  EventWriter
}

// NewSession binds a verified identity to a transport writer.
func NewSession(id, userID, displayName string, w EventWriter) *Session {
	return &Session{
		ID:          id,
		UserID:      userID,
		DisplayName: displayName,
		ConnectedAt: time.Now(),
		w:           w,
	}
}

// Send marshals and writes a single event to this connection.
func (s *Session) Send(event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.SendRaw(payload)
}

// SendRaw writes an already-marshaled frame.
func (s *Session) SendRaw(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.WriteMessage(websocket.TextMessage, payload)
}

// Close shuts the transport writer. Safe to call more than once for the
// writers used here.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
