package models

import "time"

// Chat is a titled, ordered conversation of messages
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ThreadID  string    `json:"thread_id,omitempty"` // backend thread, empty until the first exchange
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers never alias live store memory
func (c *Chat) Clone() *Chat {
	cp := *c
	cp.Messages = make([]Message, len(c.Messages))
	copy(cp.Messages, c.Messages)
	return &cp
}

// LastMessage returns the most recent message, or nil for an empty chat
func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// FirstUserContent returns the first user message's content, used for titles
func (c *Chat) FirstUserContent() string {
	for i := range c.Messages {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i].Content
		}
	}
	return ""
}

// MessageByID returns the message with the given id, or nil
func (c *Chat) MessageByID(id string) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i]
		}
	}
	return nil
}
