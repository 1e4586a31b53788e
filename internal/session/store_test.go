package session

import (
	"fmt"
	"strings"
	"testing"

	apierrors "github.com/rcanete/orion/internal/errors"
	"github.com/rcanete/orion/internal/models"
)

func TestCreateChat(t *testing.T) {
	store := NewStore()

	chat := store.CreateChat()
	if chat.ID == "" {
		t.Fatal("expected chat id")
	}
	if !strings.HasPrefix(chat.ID, "chat-") {
		t.Errorf("chat id = %q, want chat- prefix", chat.ID)
	}
	if len(chat.ID) != len("chat-")+12 {
		t.Errorf("chat id length = %d, want 12 hex chars after prefix", len(chat.ID))
	}
	if chat.Title == "" {
		t.Error("expected default title")
	}
	if chat.CreatedAt.IsZero() {
		t.Error("expected creation timestamp")
	}

	chats := store.Chats()
	if len(chats) != 1 {
		t.Fatalf("store has %d chats, want 1", len(chats))
	}
	if chats[0].ID != chat.ID {
		t.Errorf("listed chat id = %q, want %q", chats[0].ID, chat.ID)
	}
}

func TestCreateChatWithTitle(t *testing.T) {
	store := NewStore()

	chat := store.CreateChatWithTitle("Quantum research")
	if chat.Title != "Quantum research" {
		t.Errorf("title = %q, want %q", chat.Title, "Quantum research")
	}
}

func TestNewChatsListedFirst(t *testing.T) {
	store := NewStore()

	first := store.CreateChatWithTitle("first")
	second := store.CreateChatWithTitle("second")

	chats := store.Chats()
	if chats[0].ID != second.ID || chats[1].ID != first.ID {
		t.Error("newest chat should be listed first")
	}
}

func TestAppendMessageOrder(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()

	var wantOrder []string
	for i := 0; i < 10; i++ {
		id, err := store.AppendMessage(chat.ID, models.Message{
			Role:    models.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		})
		if err != nil {
			t.Fatalf("AppendMessage %d failed: %v", i, err)
		}
		wantOrder = append(wantOrder, id)
	}

	messages, err := store.Messages(chat.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(messages) != len(wantOrder) {
		t.Fatalf("got %d messages, want %d", len(messages), len(wantOrder))
	}
	for i, msg := range messages {
		if msg.ID != wantOrder[i] {
			t.Errorf("position %d holds %q, want %q", i, msg.ID, wantOrder[i])
		}
		if msg.Content != fmt.Sprintf("message %d", i) {
			t.Errorf("position %d content = %q", i, msg.Content)
		}
	}
}

func TestAppendMessageStampsDefaults(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()

	id, err := store.AppendMessage(chat.ID, models.Message{Role: models.RoleUser, Content: "hi"})
	if err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if !strings.HasPrefix(id, "msg-") {
		t.Errorf("message id = %q, want msg- prefix", id)
	}

	messages, _ := store.Messages(chat.ID)
	if messages[0].Status != models.StatusComplete {
		t.Errorf("default status = %q, want complete", messages[0].Status)
	}
	if messages[0].CreatedAt.IsZero() {
		t.Error("expected creation timestamp")
	}
}

func TestAppendMessageMissingChat(t *testing.T) {
	store := NewStore()

	_, err := store.AppendMessage("chat-missing", models.Message{Role: models.RoleUser, Content: "hi"})
	if !apierrors.IsNotFound(err) {
		t.Errorf("error = %v, want NotFound", err)
	}
}

func TestAtMostOnePendingPerChat(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()

	first, err := store.AppendMessage(chat.ID, models.Message{
		Role:   models.RoleAssistant,
		Status: models.StatusPending,
	})
	if err != nil {
		t.Fatalf("first pending append failed: %v", err)
	}

	_, err = store.AppendMessage(chat.ID, models.Message{
		Role:   models.RoleAssistant,
		Status: models.StatusPending,
	})
	if !apierrors.IsBusy(err) {
		t.Errorf("second pending append error = %v, want Busy", err)
	}

	pending := store.PendingMessage(chat.ID)
	if pending == nil || pending.ID != first {
		t.Error("pending message should be the first append")
	}

	// Another chat is unaffected
	other := store.CreateChat()
	if _, err := store.AppendMessage(other.ID, models.Message{
		Role:   models.RoleAssistant,
		Status: models.StatusPending,
	}); err != nil {
		t.Errorf("pending append on another chat failed: %v", err)
	}
}

func TestDeleteChat(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()

	if err := store.DeleteChat(chat.ID); err != nil {
		t.Fatalf("DeleteChat failed: %v", err)
	}
	if store.Len() != 0 {
		t.Error("chat should be gone")
	}
	if _, err := store.Chat(chat.ID); !apierrors.IsNotFound(err) {
		t.Error("deleted chat should be NotFound")
	}
}

func TestDeleteMissingChatLeavesListUnchanged(t *testing.T) {
	store := NewStore()
	kept := store.CreateChatWithTitle("kept")

	err := store.DeleteChat("chat-missing")
	if !apierrors.IsNotFound(err) {
		t.Errorf("error = %v, want NotFound", err)
	}

	chats := store.Chats()
	if len(chats) != 1 || chats[0].ID != kept.ID {
		t.Error("existing chat list should be unchanged")
	}
}

func TestRenameChat(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()

	if err := store.RenameChat(chat.ID, "Renamed"); err != nil {
		t.Fatalf("RenameChat failed: %v", err)
	}

	got, _ := store.Chat(chat.ID)
	if got.Title != "Renamed" {
		t.Errorf("title = %q, want Renamed", got.Title)
	}

	if err := store.RenameChat("chat-missing", "x"); !apierrors.IsNotFound(err) {
		t.Errorf("rename missing chat error = %v, want NotFound", err)
	}
	if err := store.RenameChat(chat.ID, "   "); err == nil {
		t.Error("blank title should be rejected")
	}
}

func TestTouchChat(t *testing.T) {
	store := NewStore()
	older := store.CreateChatWithTitle("Older")
	store.CreateChatWithTitle("Newer")

	if err := store.TouchChat(older.ID); err != nil {
		t.Fatalf("TouchChat failed: %v", err)
	}

	chats := store.Chats()
	if chats[0].ID != older.ID {
		t.Errorf("touched chat should be listed first, got %s", chats[0].ID)
	}

	if err := store.TouchChat("chat-missing"); !apierrors.IsNotFound(err) {
		t.Errorf("touch missing chat error = %v, want NotFound", err)
	}
}

func TestUpdateMessage(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()
	id, _ := store.AppendMessage(chat.ID, models.Message{
		Role:   models.RoleAssistant,
		Status: models.StatusPending,
	})

	if err := store.UpdateMessage(chat.ID, id, MessagePatch{AppendContent: "Hello"}); err != nil {
		t.Fatalf("UpdateMessage failed: %v", err)
	}
	if err := store.UpdateMessage(chat.ID, id, MessagePatch{AppendContent: ", world"}); err != nil {
		t.Fatalf("UpdateMessage failed: %v", err)
	}

	messages, _ := store.Messages(chat.ID)
	if messages[0].Content != "Hello, world" {
		t.Errorf("content = %q, want %q", messages[0].Content, "Hello, world")
	}

	status := models.StatusComplete
	if err := store.UpdateMessage(chat.ID, id, MessagePatch{Status: &status}); err != nil {
		t.Fatalf("status update failed: %v", err)
	}

	messages, _ = store.Messages(chat.ID)
	if messages[0].Status != models.StatusComplete {
		t.Errorf("status = %q, want complete", messages[0].Status)
	}
}

func TestUpdateMessageNotFound(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()

	if err := store.UpdateMessage("chat-missing", "msg-x", MessagePatch{}); !apierrors.IsNotFound(err) {
		t.Errorf("missing chat error = %v, want NotFound", err)
	}
	if err := store.UpdateMessage(chat.ID, "msg-missing", MessagePatch{}); !apierrors.IsNotFound(err) {
		t.Errorf("missing message error = %v, want NotFound", err)
	}
}

func TestCompleteMessageIsImmutable(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()
	id, _ := store.AppendMessage(chat.ID, models.Message{
		Role:    models.RoleAssistant,
		Content: "final answer",
		Status:  models.StatusComplete,
	})

	err := store.UpdateMessage(chat.ID, id, MessagePatch{AppendContent: "more"})
	if err == nil {
		t.Fatal("completed message should reject updates")
	}

	messages, _ := store.Messages(chat.ID)
	if messages[0].Content != "final answer" {
		t.Error("content should be unchanged")
	}
}

func TestResetMessage(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()
	userID, _ := store.AppendMessage(chat.ID, models.Message{Role: models.RoleUser, Content: "question"})
	asstID, _ := store.AppendMessage(chat.ID, models.Message{
		Role:    models.RoleAssistant,
		Content: "first answer",
		Status:  models.StatusComplete,
	})

	if err := store.ResetMessage(chat.ID, asstID); err != nil {
		t.Fatalf("ResetMessage failed: %v", err)
	}

	messages, _ := store.Messages(chat.ID)
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	reset := messages[1]
	if reset.ID != asstID {
		t.Error("reset message should keep its identifier")
	}
	if reset.Status != models.StatusPending || reset.Content != "" {
		t.Errorf("reset message = %+v, want empty pending", reset)
	}

	if err := store.ResetMessage(chat.ID, userID); err == nil {
		t.Error("user messages should not be resettable")
	}
}

func TestSetThreadID(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()

	if err := store.SetThreadID(chat.ID, "thread_abc123def456"); err != nil {
		t.Fatalf("SetThreadID failed: %v", err)
	}
	got, _ := store.Chat(chat.ID)
	if got.ThreadID != "thread_abc123def456" {
		t.Errorf("thread id = %q", got.ThreadID)
	}

	// Empty thread ids are ignored rather than clearing state
	if err := store.SetThreadID(chat.ID, ""); err != nil {
		t.Fatalf("empty SetThreadID failed: %v", err)
	}
	got, _ = store.Chat(chat.ID)
	if got.ThreadID != "thread_abc123def456" {
		t.Error("empty thread id should not clear the recorded one")
	}

	if err := store.SetThreadID("chat-missing", "thread_x"); !apierrors.IsNotFound(err) {
		t.Errorf("missing chat error = %v, want NotFound", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	store := NewStore()
	chat := store.CreateChat()
	store.AppendMessage(chat.ID, models.Message{Role: models.RoleUser, Content: "original"})

	snapshot, _ := store.Chat(chat.ID)
	snapshot.Title = "mutated"
	snapshot.Messages[0].Content = "mutated"

	fresh, _ := store.Chat(chat.ID)
	if fresh.Title == "mutated" || fresh.Messages[0].Content == "mutated" {
		t.Error("mutating a snapshot must not affect the store")
	}

	messages, _ := store.Messages(chat.ID)
	messages[0].Content = "mutated again"
	fresh, _ = store.Chat(chat.ID)
	if fresh.Messages[0].Content == "mutated again" {
		t.Error("mutating a message copy must not affect the store")
	}
}

func TestAdoptChat(t *testing.T) {
	store := NewStore()

	chat := &models.Chat{
		ID:    "chat-imported0001",
		Title: "Imported",
		Messages: []models.Message{
			{ID: "msg-1", Role: models.RoleUser, Content: "q", Status: models.StatusComplete},
		},
	}
	if err := store.AdoptChat(chat); err != nil {
		t.Fatalf("AdoptChat failed: %v", err)
	}

	got, err := store.Chat("chat-imported0001")
	if err != nil {
		t.Fatalf("adopted chat missing: %v", err)
	}
	if got.Title != "Imported" || len(got.Messages) != 1 {
		t.Errorf("adopted chat = %+v", got)
	}

	if err := store.AdoptChat(chat); err == nil {
		t.Error("adopting the same id twice should fail")
	}
	if err := store.AdoptChat(&models.Chat{}); err == nil {
		t.Error("adopting a chat without id should fail")
	}
}

func TestSubscribe(t *testing.T) {
	store := NewStore()
	sub := store.Subscribe()

	chat := store.CreateChat()

	event := <-sub
	if event.Kind != ChatCreated || event.ChatID != chat.ID {
		t.Errorf("event = %+v, want ChatCreated for %s", event, chat.ID)
	}

	// The event is emitted after the mutation: the store already holds
	// the message when the subscriber wakes.
	id, _ := store.AppendMessage(chat.ID, models.Message{Role: models.RoleUser, Content: "hi"})
	event = <-sub
	if event.Kind != MessageAppended || event.MessageID != id {
		t.Errorf("event = %+v, want MessageAppended %s", event, id)
	}
	messages, _ := store.Messages(chat.ID)
	if len(messages) != 1 {
		t.Error("subscriber should observe post-mutation state")
	}

	store.Unsubscribe(sub)
	if _, open := <-sub; open {
		t.Error("unsubscribed channel should be closed")
	}
	// Double unsubscribe must not panic
	store.Unsubscribe(sub)

	// Mutations continue without subscribers
	store.CreateChat()
}

func TestEventKindString(t *testing.T) {
	kinds := []EventKind{ChatCreated, ChatDeleted, ChatRenamed, ChatTouched, MessageAppended, MessageUpdated}
	seen := make(map[string]bool)
	for _, kind := range kinds {
		name := kind.String()
		if name == "" || name == "unknown" {
			t.Errorf("kind %d has no name", kind)
		}
		if seen[name] {
			t.Errorf("duplicate kind name %q", name)
		}
		seen[name] = true
	}
}
