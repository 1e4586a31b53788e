package session

// EventKind identifies a store mutation
type EventKind int

// Store event kinds
const (
	ChatCreated EventKind = iota
	ChatDeleted
	ChatRenamed
	ChatTouched
	MessageAppended
	MessageUpdated
)

// String returns a readable name for debug logging
func (k EventKind) String() string {
	switch k {
	case ChatCreated:
		return "chat_created"
	case ChatDeleted:
		return "chat_deleted"
	case ChatRenamed:
		return "chat_renamed"
	case ChatTouched:
		return "chat_touched"
	case MessageAppended:
		return "message_appended"
	case MessageUpdated:
		return "message_updated"
	default:
		return "unknown"
	}
}

// Event describes one store mutation. It is emitted after the mutation is
// applied, so a subscriber that reads the store on receipt always observes
// the post-mutation state.
type Event struct {
	Kind      EventKind
	ChatID    string
	MessageID string
}
