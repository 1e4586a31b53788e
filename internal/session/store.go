// Package session holds the authoritative in-memory chat state and the
// dispatcher that drives it against the backend.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	apierrors "github.com/rcanete/orion/internal/errors"
	"github.com/rcanete/orion/internal/models"
)

// eventBuffer is the per-subscriber channel capacity. A slow subscriber
// loses intermediate events, never their order.
const eventBuffer = 64

// Store is the single source of truth for chats and their transcripts.
// All reads return copies; callers never alias store memory.
type Store struct {
	mu    sync.RWMutex
	chats map[string]*models.Chat
	order []string // chat ids, most recent activity first
	subs  map[chan Event]struct{}
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		chats: make(map[string]*models.Chat),
		subs:  make(map[chan Event]struct{}),
	}
}

// Subscribe registers an observer of store mutations
func (s *Store) Subscribe() chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, eventBuffer)
	s.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes the observer and closes its channel
func (s *Store) Unsubscribe(ch chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

// emit delivers an event to every subscriber. Called with s.mu held so
// delivery order matches mutation order.
func (s *Store) emit(event Event) {
	for ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// CreateChat creates a new empty chat with a timestamped title
func (s *Store) CreateChat() *models.Chat {
	return s.CreateChatWithTitle("Chat " + time.Now().Format("2006-01-02 15:04"))
}

// CreateChatWithTitle creates a new empty chat at the head of the list
func (s *Store) CreateChatWithTitle(title string) *models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	chat := &models.Chat{
		ID:        models.NewID("chat-"),
		Title:     title,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.chats[chat.ID] = chat
	s.order = append([]string{chat.ID}, s.order...)

	s.emit(Event{Kind: ChatCreated, ChatID: chat.ID})
	return chat.Clone()
}

// AdoptChat inserts an externally built chat, keeping its id. Used when
// loading a saved conversation back into the live session.
func (s *Store) AdoptChat(chat *models.Chat) error {
	if chat == nil || chat.ID == "" {
		return fmt.Errorf("chat must have an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chats[chat.ID]; exists {
		return fmt.Errorf("chat already loaded: %s", chat.ID)
	}

	s.chats[chat.ID] = chat.Clone()
	s.order = append([]string{chat.ID}, s.order...)

	s.emit(Event{Kind: ChatCreated, ChatID: chat.ID})
	return nil
}

// DeleteChat removes a chat. A missing id is reported as NotFound and
// leaves the list unchanged.
func (s *Store) DeleteChat(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; !ok {
		return apierrors.NewNotFoundError("chat", id)
	}

	delete(s.chats, id)
	for i, chatID := range s.order {
		if chatID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.emit(Event{Kind: ChatDeleted, ChatID: id})
	return nil
}

// RenameChat sets a chat's title
func (s *Store) RenameChat(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return apierrors.NewNotFoundError("chat", id)
	}

	chat.Title = title
	chat.UpdatedAt = time.Now()

	s.emit(Event{Kind: ChatRenamed, ChatID: id})
	return nil
}

// TouchChat marks a chat as the most recently used, bumping it to the
// front of the list.
func (s *Store) TouchChat(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return apierrors.NewNotFoundError("chat", chatID)
	}

	chat.UpdatedAt = time.Now()
	s.moveToFront(chatID)

	s.emit(Event{Kind: ChatTouched, ChatID: chatID})
	return nil
}

// AppendMessage appends a message to a chat, stamping its id and creation
// time, and moves the chat to the head of the list. At most one pending
// message may exist per chat.
func (s *Store) AppendMessage(chatID string, msg models.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return "", apierrors.NewNotFoundError("chat", chatID)
	}

	if msg.Status == models.StatusPending {
		for i := range chat.Messages {
			if chat.Messages[i].Status == models.StatusPending {
				return "", apierrors.NewBusyError(chatID)
			}
		}
	}

	if msg.ID == "" {
		msg.ID = models.NewID("msg-")
	}
	if msg.Status == "" {
		msg.Status = models.StatusComplete
	}
	msg.CreatedAt = time.Now()

	chat.Messages = append(chat.Messages, msg)
	chat.UpdatedAt = msg.CreatedAt
	s.moveToFront(chatID)

	s.emit(Event{Kind: MessageAppended, ChatID: chatID, MessageID: msg.ID})
	return msg.ID, nil
}

// MessagePatch mutates a message in place. Nil fields leave the
// corresponding field untouched; AppendContent adds to existing content.
type MessagePatch struct {
	AppendContent string
	SetContent    *string
	Status        *string
	Stage         *string
	ErrReason     *string
}

// UpdateMessage applies a patch to a message. Completed messages are
// immutable; regeneration goes through ResetMessage instead.
func (s *Store) UpdateMessage(chatID, messageID string, patch MessagePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return apierrors.NewNotFoundError("chat", chatID)
	}

	msg := chat.MessageByID(messageID)
	if msg == nil {
		return apierrors.NewNotFoundError("message", messageID)
	}

	if msg.Status == models.StatusComplete {
		return fmt.Errorf("message %s is complete and cannot be updated", messageID)
	}

	if patch.SetContent != nil {
		msg.Content = *patch.SetContent
	}
	if patch.AppendContent != "" {
		msg.Content += patch.AppendContent
	}
	if patch.Stage != nil {
		msg.Stage = *patch.Stage
	}
	if patch.ErrReason != nil {
		msg.ErrReason = *patch.ErrReason
	}
	if patch.Status != nil {
		msg.Status = *patch.Status
	}

	chat.UpdatedAt = time.Now()

	s.emit(Event{Kind: MessageUpdated, ChatID: chatID, MessageID: messageID})
	return nil
}

// ResetMessage returns a finished assistant message to pending with empty
// content, reusing its identifier. This is the regeneration path.
func (s *Store) ResetMessage(chatID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return apierrors.NewNotFoundError("chat", chatID)
	}

	msg := chat.MessageByID(messageID)
	if msg == nil {
		return apierrors.NewNotFoundError("message", messageID)
	}
	if msg.Role != models.RoleAssistant {
		return fmt.Errorf("only assistant messages can be regenerated")
	}

	for i := range chat.Messages {
		if chat.Messages[i].Status == models.StatusPending && chat.Messages[i].ID != messageID {
			return apierrors.NewBusyError(chatID)
		}
	}

	msg.Content = ""
	msg.Stage = ""
	msg.ErrReason = ""
	msg.Status = models.StatusPending
	chat.UpdatedAt = time.Now()

	s.emit(Event{Kind: MessageUpdated, ChatID: chatID, MessageID: messageID})
	return nil
}

// SetThreadID records the backend thread id learned from a response
func (s *Store) SetThreadID(chatID, threadID string) error {
	if threadID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return apierrors.NewNotFoundError("chat", chatID)
	}
	chat.ThreadID = threadID
	return nil
}

// Chats returns snapshots of all chats, most recent activity first
func (s *Store) Chats() []*models.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chats := make([]*models.Chat, 0, len(s.order))
	for _, id := range s.order {
		if chat, ok := s.chats[id]; ok {
			chats = append(chats, chat.Clone())
		}
	}
	return chats
}

// Chat returns a snapshot of one chat
func (s *Store) Chat(id string) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, apierrors.NewNotFoundError("chat", id)
	}
	return chat.Clone(), nil
}

// Messages returns a copy of a chat's transcript in append order
func (s *Store) Messages(chatID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, apierrors.NewNotFoundError("chat", chatID)
	}

	messages := make([]models.Message, len(chat.Messages))
	copy(messages, chat.Messages)
	return messages, nil
}

// PendingMessage returns a copy of the chat's pending message, or nil
func (s *Store) PendingMessage(chatID string) *models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil
	}
	for i := range chat.Messages {
		if chat.Messages[i].Status == models.StatusPending {
			msg := chat.Messages[i]
			return &msg
		}
	}
	return nil
}

// Len returns the number of chats
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}

// moveToFront bumps a chat to the head of the order list. Caller holds s.mu.
func (s *Store) moveToFront(chatID string) {
	for i, id := range s.order {
		if id == chatID {
			if i == 0 {
				return
			}
			s.order = append(s.order[:i], s.order[i+1:]...)
			s.order = append([]string{chatID}, s.order...)
			return
		}
	}
}
