package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rcanete/orion/internal/config"
	"github.com/rcanete/orion/internal/render"
)

// isolateHome points config reads and writes at a scratch directory
func isolateHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestNewConfigModel(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()

	if m.configDir == "" {
		t.Error("configDir should not be empty")
	}

	if m.historyDir == "" {
		t.Error("historyDir should not be empty")
	}

	if m.view != viewMain {
		t.Errorf("Expected view to be viewMain, got %v", m.view)
	}

	if m.cursor != 0 {
		t.Errorf("Expected cursor to be 0, got %d", m.cursor)
	}

	if m.modeCursor < 0 {
		t.Error("modeCursor should be non-negative")
	}

	if m.feedbackTimeout != 2*time.Second {
		t.Errorf("Expected feedbackTimeout to be 2s, got %v", m.feedbackTimeout)
	}
}

func TestConfigModel_Init(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()
	cmd := m.Init()

	if cmd != nil {
		t.Error("Init should return nil command")
	}
}

func TestClearFeedback(t *testing.T) {
	cmd := clearFeedback(time.Millisecond)

	if cmd == nil {
		t.Error("clearFeedback should return a command")
	}
}

func TestConfigModel_Update_WindowSize(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()

	msg := tea.WindowSizeMsg{Width: 100, Height: 40}
	updatedModel, cmd := m.Update(msg)

	if typedModel, ok := updatedModel.(ConfigModel); ok {
		if typedModel.width != 100 {
			t.Errorf("Expected width 100, got %d", typedModel.width)
		}
		if typedModel.height != 40 {
			t.Errorf("Expected height 40, got %d", typedModel.height)
		}
		if !typedModel.ready {
			t.Error("Model should be ready after WindowSizeMsg")
		}
	} else {
		t.Error("Update should return ConfigModel type")
	}

	if cmd != nil {
		t.Error("WindowSizeMsg should return nil command")
	}
}

func TestConfigModel_Update_feedbackClearMsg(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()
	m.feedback = "Test feedback"

	updatedModel, cmd := m.Update(feedbackClearMsg{})

	if typedModel, ok := updatedModel.(ConfigModel); ok {
		if typedModel.feedback != "" {
			t.Error("Feedback should be cleared")
		}
	} else {
		t.Error("Update should return ConfigModel type")
	}

	if cmd != nil {
		t.Error("feedbackClearMsg should return nil command")
	}
}

func TestConfigModel_Update_CtrlC(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	if cmd == nil {
		t.Error("Expected quit command for Ctrl+C")
	}
}

func TestConfigModel_Update_Escape(t *testing.T) {
	isolateHome(t)

	t.Run("from main view", func(t *testing.T) {
		m := NewConfigModel()

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

		if cmd == nil {
			t.Error("Expected quit command for Escape from main view")
		}
	})

	t.Run("from mode select view", func(t *testing.T) {
		m := NewConfigModel()
		m.view = viewModeSelect

		updatedModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

		if typedModel, ok := updatedModel.(ConfigModel); ok {
			if typedModel.view != viewMain {
				t.Error("Should return to main view")
			}
		}

		if cmd != nil {
			t.Errorf("Should not quit when escaping from mode select view, got cmd: %v", cmd)
		}
	})
}

func TestConfigModel_Update_Up(t *testing.T) {
	isolateHome(t)

	t.Run("from main view", func(t *testing.T) {
		m := NewConfigModel()
		m.cursor = 0

		updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})

		if typedModel, ok := updatedModel.(ConfigModel); ok {
			if typedModel.cursor != menuItemCount-1 {
				t.Errorf("Expected cursor to wrap to %d, got %d", menuItemCount-1, typedModel.cursor)
			}
		}
	})

	t.Run("from mode select view", func(t *testing.T) {
		m := NewConfigModel()
		m.view = viewModeSelect
		m.modeCursor = 0

		updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})

		if typedModel, ok := updatedModel.(ConfigModel); ok {
			modes := config.AvailableModes()
			if typedModel.modeCursor != len(modes)-1 {
				t.Errorf("Expected modeCursor to wrap to %d, got %d", len(modes)-1, typedModel.modeCursor)
			}
		}
	})
}

func TestConfigModel_Update_Down(t *testing.T) {
	isolateHome(t)

	t.Run("from main view", func(t *testing.T) {
		m := NewConfigModel()
		m.cursor = menuItemCount - 1

		updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})

		if typedModel, ok := updatedModel.(ConfigModel); ok {
			if typedModel.cursor != 0 {
				t.Errorf("Expected cursor to wrap to 0, got %d", typedModel.cursor)
			}
		}
	})

	t.Run("from style select view", func(t *testing.T) {
		m := NewConfigModel()
		m.view = viewStyleSelect
		m.styleCursor = len(render.StyleNames()) - 1

		updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})

		if typedModel, ok := updatedModel.(ConfigModel); ok {
			if typedModel.styleCursor != 0 {
				t.Errorf("Expected styleCursor to wrap to 0, got %d", typedModel.styleCursor)
			}
		}
	})
}

func TestConfigModel_HandleSelect_OpensSubmenus(t *testing.T) {
	isolateHome(t)

	tests := []struct {
		name   string
		cursor int
		want   configView
	}{
		{"default mode", menuDefaultMode, viewModeSelect},
		{"markdown style", menuStyle, viewStyleSelect},
		{"tui theme", menuTUITheme, viewTUIThemeSelect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConfigModel()
			m.cursor = tt.cursor

			updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

			if typedModel, ok := updatedModel.(ConfigModel); ok {
				if typedModel.view != tt.want {
					t.Errorf("Expected view %v, got %v", tt.want, typedModel.view)
				}
			}
		})
	}
}

func TestConfigModel_HandleSelect_TogglesVerbose(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()
	m.cursor = menuVerbose
	before := m.config.Verbose

	updatedModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	typedModel, ok := updatedModel.(ConfigModel)
	if !ok {
		t.Fatal("Update should return ConfigModel type")
	}
	if typedModel.config.Verbose == before {
		t.Error("Verbose should toggle")
	}
	if typedModel.feedback == "" {
		t.Error("Toggle should set feedback")
	}
	if cmd == nil {
		t.Error("Toggle should schedule feedback expiry")
	}

	// The toggle is persisted, so a fresh model sees the new value
	reloaded := NewConfigModel()
	if reloaded.config.Verbose == before {
		t.Error("Toggle should be saved to disk")
	}
}

func TestConfigModel_HandleSelect_CyclesTimeout(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()
	m.cursor = menuTimeout

	if m.config.RequestTimeout != 300 {
		t.Fatalf("expected default timeout 300, got %d", m.config.RequestTimeout)
	}

	updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if typedModel, ok := updatedModel.(ConfigModel); ok {
		if typedModel.config.RequestTimeout != 600 {
			t.Errorf("Expected timeout to advance to 600, got %d", typedModel.config.RequestTimeout)
		}
	}
}

func TestNextTimeout(t *testing.T) {
	tests := []struct {
		current int
		want    int
	}{
		{60, 120},
		{300, 600},
		{900, 60},  // wraps
		{42, 60},   // off-ladder values restart the ladder
	}

	for _, tt := range tests {
		if got := nextTimeout(tt.current); got != tt.want {
			t.Errorf("nextTimeout(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}
}

func TestConfigModel_HandleSelect_SelectsMode(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()
	m.view = viewModeSelect
	m.modeCursor = 1 // "deep"

	updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	typedModel, ok := updatedModel.(ConfigModel)
	if !ok {
		t.Fatal("Update should return ConfigModel type")
	}
	if typedModel.config.DefaultMode != "deep" {
		t.Errorf("Expected default mode deep, got %s", typedModel.config.DefaultMode)
	}
	if typedModel.view != viewMain {
		t.Error("Selection should return to main view")
	}
}

func TestConfigModel_HandleSelect_Exit(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()
	m.cursor = menuExit

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd == nil {
		t.Error("Exit should return quit command")
	}
}

func TestConfigModel_View(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()
	m.width = 100
	m.height = 40
	m.ready = true

	view := m.View()

	for _, want := range []string{"Configuration", "Settings", "Default Mode", "Request Timeout", "Backend"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}

	m.view = viewModeSelect
	if !strings.Contains(m.View(), "Select Default Mode") {
		t.Error("Mode select view should show its title")
	}

	m.view = viewTUIThemeSelect
	if !strings.Contains(m.View(), "Select TUI Theme") {
		t.Error("TUI theme view should show its title")
	}
}

func TestConfigModel_View_NotReady(t *testing.T) {
	isolateHome(t)

	m := NewConfigModel()

	if !strings.Contains(m.View(), "Initializing") {
		t.Error("View should show initialization before the first resize")
	}
}
