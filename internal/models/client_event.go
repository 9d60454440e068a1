package models

import "encoding/json"

// Inbound event types accepted from websocket clients.
const (
	ActionJoinThread   = "join_thread"
	ActionLeaveThread  = "leave_thread"
	ActionSendMessage  = "send_message"
	ActionTypingStart  = "typing_start"
	ActionTypingStop   = "typing_stop"
	ActionMarkRead     = "mark_read"
	ActionUpdateStatus = "update_status"
)

// ClientEvent is the tagged union decoded from every inbound frame.
// Fields beyond Type are populated depending on the event type.
type ClientEvent struct {
	Type      string          `json:"type"`
	ThreadID  string          `json:"thread_id,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	Status    string          `json:"status,omitempty"`
	Body      json.RawMessage `json:"body,omitempty"`
}
