package models

import (
	"encoding/json"
	"time"
)

// Outbound event types pushed to websocket clients.
const (
	EventNewMessage       = "new_message"
	EventMessageSent      = "message_sent"
	EventUserTyping       = "user_typing"
	EventMessageRead      = "message_read"
	EventUserStatusChange = "user_status_change"
	EventUserStatusUpdate = "user_status_update"
	EventSessionReplaced  = "session_replaced"
	EventError            = "error"
)

// Error codes carried by EventError payloads.
const (
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeValidationFailed     = "validation_failed"
	ErrCodeNotAMember           = "not_a_member"
	ErrCodeUnknownEvent         = "unknown_event"
	ErrCodeInternalFailure      = "internal_failure"
)

// Event is the envelope broadcast through websockets.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// MessagePayload is the body of new_message and message_sent events.
type MessagePayload struct {
	MessageID string          `json:"message_id"`
	ThreadID  string          `json:"thread_id"`
	SenderID  string          `json:"sender_id"`
	Body      json.RawMessage `json:"body"`
	SentAt    time.Time       `json:"sent_at"`
}

// TypingNotice signals a typing transition inside a thread.
type TypingNotice struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// ReadReceipt is broadcast when a member marks a message read.
type ReadReceipt struct {
	ThreadID  string    `json:"thread_id"`
	MessageID string    `json:"message_id"`
	ReadBy    string    `json:"read_by"`
	ReadAt    time.Time `json:"read_at"`
}

// PresenceUpdate announces an online/offline transition.
type PresenceUpdate struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

// StatusUpdate syncs a user-chosen status string across the user's tabs.
type StatusUpdate struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// ErrorPayload is delivered to the originating connection only.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
