package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rcanete/orion/internal/history"
	"github.com/rcanete/orion/internal/models"
)

// HistoryStore defines the interface for archive operations needed by the selector
type HistoryStore interface {
	ListChats() ([]*models.Chat, error)
}

// historyLoadedMsg is sent when the archive listing is loaded
type historyLoadedMsg struct {
	chats []*models.Chat
	err   error
}

// HistorySelectorModel represents the history selector TUI state
type HistorySelectorModel struct {
	store HistoryStore

	// Data
	chats []*models.Chat

	// Navigation
	cursor int

	// State
	loading   bool
	err       error
	confirmed bool

	// Result
	selected *models.Chat // nil means new chat
	isNew    bool

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewHistorySelectorModel creates a new history selector model
func NewHistorySelectorModel(store HistoryStore) HistorySelectorModel {
	return HistorySelectorModel{
		store:   store,
		loading: true,
		cursor:  0, // Start at "New Chat"
	}
}

// Init initializes the model and starts loading the archive
func (m HistorySelectorModel) Init() tea.Cmd {
	return m.loadChats()
}

// loadChats returns a command that loads chats from the archive
func (m HistorySelectorModel) loadChats() tea.Cmd {
	return func() tea.Msg {
		chats, err := m.store.ListChats()
		if err != nil {
			return historyLoadedMsg{err: err}
		}
		return historyLoadedMsg{chats: chats}
	}
}

// Update handles messages and updates the model
func (m HistorySelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case historyLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.chats = msg.chats
		}

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc", "q":
			return m, tea.Quit

		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				// Wrap to last item (+1 for "New Chat" option)
				m.cursor = len(m.chats)
			}

		case "down", "j":
			m.cursor++
			// +1 for "New Chat" option
			if m.cursor > len(m.chats) {
				m.cursor = 0
			}

		case "enter":
			m.confirmed = true
			if m.cursor == 0 {
				// "New Chat" selected
				m.isNew = true
				m.selected = nil
			} else {
				// Existing chat selected
				m.isNew = false
				m.selected = m.chats[m.cursor-1]
			}
			return m, tea.Quit

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = len(m.chats)
		}
	}

	return m, nil
}

// View renders the TUI
func (m HistorySelectorModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if m.loading {
		return loadingStyle.Render("  Loading chats...")
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	}

	var sections []string
	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	// Header
	header := m.renderHeader(contentWidth)
	sections = append(sections, header)

	// Chat list
	listPanel := m.renderList(contentWidth)
	sections = append(sections, listPanel)

	// Status bar
	statusBar := m.renderStatusBar(contentWidth)
	sections = append(sections, statusBar)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the header panel
func (m HistorySelectorModel) renderHeader(width int) string {
	title := configTitleStyle.Render("Select Chat")
	subtitle := hintStyle.Render(fmt.Sprintf("  %d saved", len(m.chats)))
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, title, subtitle)
	return configHeaderStyle.Width(width).Render(headerContent)
}

// renderList renders the chat list
func (m HistorySelectorModel) renderList(width int) string {
	title := configSectionTitleStyle.Render("Chats")

	var items []string

	// "New Chat" option (always first)
	newChatItem := m.renderItem(0, "+ New Chat", 0, time.Time{}, true, width-6)
	items = append(items, newChatItem)

	// Existing chats
	if len(m.chats) == 0 {
		items = append(items, hintStyle.Render("  No saved chats"))
	} else {
		// Calculate visible items based on available height
		availableHeight := m.height - 12
		maxItems := max(5, availableHeight/2)

		// Calculate scroll offset
		scrollOffset := 0
		if m.cursor >= maxItems {
			scrollOffset = m.cursor - maxItems + 1
		}

		endIdx := min(scrollOffset+maxItems, len(m.chats)+1)

		// Render visible items
		for i := scrollOffset; i < endIdx; i++ {
			if i == 0 {
				// Already rendered "New Chat"
				continue
			}
			chat := m.chats[i-1]
			item := m.renderItem(i, chat.Title, len(chat.Messages), chat.UpdatedAt, false, width-6)
			items = append(items, item)
		}

		// Scroll indicators
		if scrollOffset > 0 {
			items = append([]string{hintStyle.Render("  ...")}, items...)
		}
		if endIdx < len(m.chats)+1 {
			items = append(items, hintStyle.Render("  ..."))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, append([]string{title, ""}, items...)...)
	return configPanelStyle.Width(width).Render(content)
}

// renderItem renders a single chat item
func (m HistorySelectorModel) renderItem(index int, title string, msgCount int, updatedAt time.Time, isNew bool, width int) string {
	cursor := "  "
	titleStyle := configMenuItemStyle
	if index == m.cursor {
		cursor = configCursorStyle.Render("> ")
		titleStyle = configMenuSelectedStyle
	}

	if len(title) > 48 {
		title = title[:48] + "..."
	}
	titleText := titleStyle.Render(title)

	if isNew {
		return fmt.Sprintf("%s%s", cursor, titleText)
	}

	countInfo := hintStyle.Render(fmt.Sprintf(" (%d msgs)", msgCount))

	timeInfo := ""
	if !updatedAt.IsZero() {
		timeInfo = configDisabledStyle.Render(" - " + history.FormatRelativeTime(updatedAt))
	}

	return fmt.Sprintf("%s%s%s%s", cursor, titleText, countInfo, timeInfo)
}

// renderStatusBar renders the bottom status bar
func (m HistorySelectorModel) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"↑↓", "Navigate"},
		{"Enter", "Select"},
		{"Esc", "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  |  "))
	return configStatusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// Result returns the selected chat (nil for new) and whether confirmed
func (m HistorySelectorModel) Result() (*models.Chat, bool, bool) {
	return m.selected, m.isNew, m.confirmed
}

// HistorySelectorResult contains the result of running the history selector
type HistorySelectorResult struct {
	Chat      *models.Chat // nil for new chat
	IsNew     bool         // true if user selected "New Chat"
	Confirmed bool         // true if user confirmed selection
}

// RunHistorySelector starts the history selector TUI and returns the result
func RunHistorySelector(store HistoryStore) (HistorySelectorResult, error) {
	m := NewHistorySelectorModel(store)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return HistorySelectorResult{}, err
	}

	if hm, ok := finalModel.(HistorySelectorModel); ok {
		chat, isNew, confirmed := hm.Result()
		return HistorySelectorResult{
			Chat:      chat,
			IsNew:     isNew,
			Confirmed: confirmed,
		}, nil
	}

	return HistorySelectorResult{}, nil
}
