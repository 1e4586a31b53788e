package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rcanete/orion/internal/models"
)

// mockHistoryStore is a mock implementation of HistoryStore for testing
type mockHistoryStore struct {
	chats []*models.Chat
	err   error
}

func (m *mockHistoryStore) ListChats() ([]*models.Chat, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.chats, nil
}

func TestNewHistorySelectorModel(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)

	if m.store != store {
		t.Error("Store not set correctly")
	}
	if !m.loading {
		t.Error("Model should be loading initially")
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestHistorySelectorModel_Init(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)

	cmd := m.Init()
	if cmd == nil {
		t.Error("Init should return a command")
	}
}

func TestHistorySelectorModel_Update_WindowSize(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)

	msg := tea.WindowSizeMsg{Width: 100, Height: 40}
	updatedModel, _ := m.Update(msg)

	if model, ok := updatedModel.(HistorySelectorModel); ok {
		if model.width != 100 {
			t.Errorf("width = %d, want 100", model.width)
		}
		if model.height != 40 {
			t.Errorf("height = %d, want 40", model.height)
		}
		if !model.ready {
			t.Error("Model should be ready after WindowSizeMsg")
		}
	} else {
		t.Error("Update should return HistorySelectorModel")
	}
}

func TestHistorySelectorModel_Update_HistoryLoaded(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.ready = true

	chats := []*models.Chat{
		{ID: "chat-1", Title: "First Chat"},
		{ID: "chat-2", Title: "Second Chat"},
	}

	msg := historyLoadedMsg{chats: chats}
	updatedModel, _ := m.Update(msg)

	if model, ok := updatedModel.(HistorySelectorModel); ok {
		if model.loading {
			t.Error("Model should not be loading after historyLoadedMsg")
		}
		if len(model.chats) != 2 {
			t.Errorf("chats length = %d, want 2", len(model.chats))
		}
		if model.err != nil {
			t.Errorf("err = %v, want nil", model.err)
		}
	} else {
		t.Error("Update should return HistorySelectorModel")
	}
}

func TestHistorySelectorModel_Update_HistoryLoadedError(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.ready = true

	testErr := errors.New("failed to load")
	msg := historyLoadedMsg{err: testErr}
	updatedModel, _ := m.Update(msg)

	if model, ok := updatedModel.(HistorySelectorModel); ok {
		if model.loading {
			t.Error("Model should not be loading after historyLoadedMsg")
		}
		if model.err == nil {
			t.Error("err should be set")
		}
	} else {
		t.Error("Update should return HistorySelectorModel")
	}
}

func TestHistorySelectorModel_Update_Navigation(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.loading = false
	m.ready = true
	m.chats = []*models.Chat{
		{ID: "chat-1", Title: "First Chat"},
		{ID: "chat-2", Title: "Second Chat"},
	}
	m.cursor = 0

	t.Run("down key", func(t *testing.T) {
		msg := tea.KeyMsg{Type: tea.KeyDown}
		updatedModel, _ := m.Update(msg)
		if model, ok := updatedModel.(HistorySelectorModel); ok {
			if model.cursor != 1 {
				t.Errorf("cursor = %d, want 1", model.cursor)
			}
		}
	})

	t.Run("up key", func(t *testing.T) {
		m.cursor = 1
		msg := tea.KeyMsg{Type: tea.KeyUp}
		updatedModel, _ := m.Update(msg)
		if model, ok := updatedModel.(HistorySelectorModel); ok {
			if model.cursor != 0 {
				t.Errorf("cursor = %d, want 0", model.cursor)
			}
		}
	})

	t.Run("j key (vim down)", func(t *testing.T) {
		m.cursor = 0
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
		updatedModel, _ := m.Update(msg)
		if model, ok := updatedModel.(HistorySelectorModel); ok {
			if model.cursor != 1 {
				t.Errorf("cursor = %d, want 1", model.cursor)
			}
		}
	})

	t.Run("k key (vim up)", func(t *testing.T) {
		m.cursor = 1
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
		updatedModel, _ := m.Update(msg)
		if model, ok := updatedModel.(HistorySelectorModel); ok {
			if model.cursor != 0 {
				t.Errorf("cursor = %d, want 0", model.cursor)
			}
		}
	})

	t.Run("wrap around down", func(t *testing.T) {
		m.cursor = len(m.chats) // Last item
		msg := tea.KeyMsg{Type: tea.KeyDown}
		updatedModel, _ := m.Update(msg)
		if model, ok := updatedModel.(HistorySelectorModel); ok {
			if model.cursor != 0 {
				t.Errorf("cursor = %d, want 0 (wrapped)", model.cursor)
			}
		}
	})

	t.Run("wrap around up", func(t *testing.T) {
		m.cursor = 0
		msg := tea.KeyMsg{Type: tea.KeyUp}
		updatedModel, _ := m.Update(msg)
		if model, ok := updatedModel.(HistorySelectorModel); ok {
			expectedCursor := len(m.chats) // +1 for "New Chat"
			if model.cursor != expectedCursor {
				t.Errorf("cursor = %d, want %d (wrapped)", model.cursor, expectedCursor)
			}
		}
	})
}

func TestHistorySelectorModel_Update_Enter_NewChat(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.loading = false
	m.ready = true
	m.chats = []*models.Chat{
		{ID: "chat-1", Title: "First Chat"},
	}
	m.cursor = 0 // "New Chat" is at index 0

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	updatedModel, cmd := m.Update(msg)

	if cmd == nil {
		t.Error("Enter should return a quit command")
	}

	if model, ok := updatedModel.(HistorySelectorModel); ok {
		if !model.confirmed {
			t.Error("confirmed should be true")
		}
		if !model.isNew {
			t.Error("isNew should be true")
		}
		if model.selected != nil {
			t.Error("selected should be nil for new chat")
		}
	} else {
		t.Error("Update should return HistorySelectorModel")
	}
}

func TestHistorySelectorModel_Update_Enter_ExistingChat(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.loading = false
	m.ready = true
	m.chats = []*models.Chat{
		{ID: "chat-1", Title: "First Chat"},
		{ID: "chat-2", Title: "Second Chat"},
	}
	m.cursor = 1 // First existing chat (index 0 is "New Chat")

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	updatedModel, cmd := m.Update(msg)

	if cmd == nil {
		t.Error("Enter should return a quit command")
	}

	if model, ok := updatedModel.(HistorySelectorModel); ok {
		if !model.confirmed {
			t.Error("confirmed should be true")
		}
		if model.isNew {
			t.Error("isNew should be false")
		}
		if model.selected == nil {
			t.Error("selected should not be nil")
		}
		if model.selected.ID != "chat-1" {
			t.Errorf("selected.ID = %s, want chat-1", model.selected.ID)
		}
	} else {
		t.Error("Update should return HistorySelectorModel")
	}
}

func TestHistorySelectorModel_Update_Quit(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.loading = false
	m.ready = true

	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"esc", tea.KeyMsg{Type: tea.KeyEscape}},
		{"q", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cmd := m.Update(tt.msg)
			if cmd == nil {
				t.Errorf("%s should return a quit command", tt.name)
			}
		})
	}
}

func TestHistorySelectorModel_View_NotReady(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.ready = false

	view := m.View()
	if !strings.Contains(view, "Initializing") {
		t.Error("View should show initializing message when not ready")
	}
}

func TestHistorySelectorModel_View_Loading(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.ready = true
	m.loading = true

	view := m.View()
	if !strings.Contains(view, "Loading") {
		t.Error("View should show loading message")
	}
}

func TestHistorySelectorModel_View_Error(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.ready = true
	m.loading = false
	m.err = errors.New("test error")

	view := m.View()
	if !strings.Contains(view, "Error") || !strings.Contains(view, "test error") {
		t.Error("View should show error message")
	}
}

func TestHistorySelectorModel_View_WithChats(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.ready = true
	m.loading = false
	m.width = 80
	m.height = 24
	m.chats = []*models.Chat{
		{ID: "chat-1", Title: "First Chat", UpdatedAt: time.Now().Add(-1 * time.Hour)},
		{ID: "chat-2", Title: "Second Chat", UpdatedAt: time.Now().Add(-24 * time.Hour)},
	}

	view := m.View()

	// Should contain header
	if !strings.Contains(view, "Select Chat") {
		t.Error("View should contain header")
	}

	// Should contain "New Chat" option
	if !strings.Contains(view, "New Chat") {
		t.Error("View should contain 'New Chat' option")
	}

	// Should contain chat titles
	if !strings.Contains(view, "First Chat") {
		t.Error("View should contain chat title")
	}
}

func TestHistorySelectorModel_View_EmptyChats(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.ready = true
	m.loading = false
	m.width = 80
	m.height = 24
	m.chats = []*models.Chat{}

	view := m.View()

	// Should contain "New Chat" option
	if !strings.Contains(view, "New Chat") {
		t.Error("View should contain 'New Chat' option")
	}

	// Should indicate no saved chats
	if !strings.Contains(view, "No saved chats") {
		t.Error("View should indicate no saved chats")
	}
}

func TestHistorySelectorModel_Result(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)

	t.Run("initial state", func(t *testing.T) {
		chat, isNew, confirmed := m.Result()
		if chat != nil {
			t.Error("Initial chat should be nil")
		}
		if isNew {
			t.Error("Initial isNew should be false")
		}
		if confirmed {
			t.Error("Initial confirmed should be false")
		}
	})

	t.Run("after new chat selection", func(t *testing.T) {
		m.confirmed = true
		m.isNew = true
		m.selected = nil

		chat, isNew, confirmed := m.Result()
		if chat != nil {
			t.Error("chat should be nil for new chat")
		}
		if !isNew {
			t.Error("isNew should be true")
		}
		if !confirmed {
			t.Error("confirmed should be true")
		}
	})

	t.Run("after existing chat selection", func(t *testing.T) {
		existing := &models.Chat{ID: "test-id", Title: "Test"}
		m.confirmed = true
		m.isNew = false
		m.selected = existing

		chat, isNew, confirmed := m.Result()
		if chat != existing {
			t.Error("chat should be the selected chat")
		}
		if isNew {
			t.Error("isNew should be false")
		}
		if !confirmed {
			t.Error("confirmed should be true")
		}
	})
}

func TestHistorySelectorResult_Struct(t *testing.T) {
	chat := &models.Chat{ID: "test"}
	result := HistorySelectorResult{
		Chat:      chat,
		IsNew:     false,
		Confirmed: true,
	}

	if result.Chat != chat {
		t.Error("Chat not set correctly")
	}
	if result.IsNew {
		t.Error("IsNew should be false")
	}
	if !result.Confirmed {
		t.Error("Confirmed should be true")
	}
}

func TestHistorySelectorModel_Update_HomeEnd(t *testing.T) {
	store := &mockHistoryStore{}
	m := NewHistorySelectorModel(store)
	m.loading = false
	m.ready = true
	m.chats = []*models.Chat{
		{ID: "chat-1"},
		{ID: "chat-2"},
		{ID: "chat-3"},
	}

	t.Run("home key", func(t *testing.T) {
		m.cursor = 2
		msg := tea.KeyMsg{Type: tea.KeyHome}
		updatedModel, _ := m.Update(msg)
		if model, ok := updatedModel.(HistorySelectorModel); ok {
			if model.cursor != 0 {
				t.Errorf("cursor = %d, want 0", model.cursor)
			}
		}
	})

	t.Run("g key (vim home)", func(t *testing.T) {
		m.cursor = 2
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}}
		updatedModel, _ := m.Update(msg)
		if model, ok := updatedModel.(HistorySelectorModel); ok {
			if model.cursor != 0 {
				t.Errorf("cursor = %d, want 0", model.cursor)
			}
		}
	})

	t.Run("end key", func(t *testing.T) {
		m.cursor = 0
		msg := tea.KeyMsg{Type: tea.KeyEnd}
		updatedModel, _ := m.Update(msg)
		if model, ok := updatedModel.(HistorySelectorModel); ok {
			expected := len(m.chats)
			if model.cursor != expected {
				t.Errorf("cursor = %d, want %d", model.cursor, expected)
			}
		}
	})

	t.Run("G key (vim end)", func(t *testing.T) {
		m.cursor = 0
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}}
		updatedModel, _ := m.Update(msg)
		if model, ok := updatedModel.(HistorySelectorModel); ok {
			expected := len(m.chats)
			if model.cursor != expected {
				t.Errorf("cursor = %d, want %d", model.cursor, expected)
			}
		}
	})
}

func TestHistorySelectorModel_LoadChats(t *testing.T) {
	chats := []*models.Chat{
		{ID: "chat-1", Title: "Test"},
	}
	store := &mockHistoryStore{chats: chats}
	m := NewHistorySelectorModel(store)

	cmd := m.loadChats()
	if cmd == nil {
		t.Error("loadChats should return a command")
	}

	// Execute the command
	msg := cmd()
	if loaded, ok := msg.(historyLoadedMsg); ok {
		if len(loaded.chats) != 1 {
			t.Errorf("Expected 1 chat, got %d", len(loaded.chats))
		}
	} else {
		t.Errorf("Expected historyLoadedMsg, got %T", msg)
	}
}

func TestHistorySelectorModel_LoadChats_Error(t *testing.T) {
	testErr := errors.New("load error")
	store := &mockHistoryStore{err: testErr}
	m := NewHistorySelectorModel(store)

	cmd := m.loadChats()
	msg := cmd()

	if loaded, ok := msg.(historyLoadedMsg); ok {
		if loaded.err == nil {
			t.Error("Expected error in historyLoadedMsg")
		}
	} else {
		t.Errorf("Expected historyLoadedMsg, got %T", msg)
	}
}
