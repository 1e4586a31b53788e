package models

// EventType identifies a server-sent event on the chat stream
type EventType string

// Stream event types emitted by the backend
const (
	EventStateUpdate EventType = "state_update" // graph node produced output
	EventMessage     EventType = "message"      // plain content fragment
	EventError       EventType = "error"        // pipeline failed, stream ends
	EventComplete    EventType = "complete"     // graph execution finished
)

// StreamEvent is one decoded event from the backend's SSE stream
type StreamEvent struct {
	Type   EventType
	Text   string // content fragment carried by the event
	Stage  string // graph node that produced it, when reported
	Report bool   // Text holds final report content rather than chat output
	Err    string // backend error description for EventError
}

// Terminal reports whether the event ends the stream
func (e *StreamEvent) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
