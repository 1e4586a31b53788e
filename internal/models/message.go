package models

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message statuses
const (
	StatusPending  = "pending"  // assistant response still streaming
	StatusComplete = "complete" // finalized, immutable from here on
	StatusError    = "error"    // failed or aborted, partial content kept
)

// Error reasons attached to a message in StatusError
const (
	ReasonCancelled = "cancelled"
	ReasonTransport = "transport"
)

// Message represents a single turn in a chat
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage,omitempty"`      // agent node currently running, display only
	ErrReason string    `json:"err_reason,omitempty"` // "cancelled" or "transport" when Status is error
	CreatedAt time.Time `json:"created_at"`
}

// Pending reports whether the message is still streaming
func (m *Message) Pending() bool {
	return m.Status == StatusPending
}

// Failed reports whether the message ended in error
func (m *Message) Failed() bool {
	return m.Status == StatusError
}

// Cancelled reports whether the message failed due to a user abort
func (m *Message) Cancelled() bool {
	return m.Status == StatusError && m.ErrReason == ReasonCancelled
}
