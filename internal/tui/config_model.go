package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rcanete/orion/internal/config"
	"github.com/rcanete/orion/internal/render"
)

// configView represents the current view in the config menu
type configView int

const (
	viewMain configView = iota
	viewModeSelect
	viewStyleSelect    // Markdown style
	viewTUIThemeSelect // TUI color theme
)

// Menu item indices for main view
const (
	menuDefaultMode = iota
	menuTimeout
	menuVerbose
	menuCopyToClipboard
	menuMarkdown
	menuStyle    // Markdown style
	menuTUITheme // TUI color theme
	menuExit
	menuItemCount
)

// timeoutPresets are the request timeout choices in seconds. Deep research
// runs can take several minutes, so the ladder goes well past a casual chat.
var timeoutPresets = []int{60, 120, 300, 600, 900}

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// ConfigModel represents the config TUI state
type ConfigModel struct {
	config     config.Config
	configDir  string
	historyDir string

	// Navigation
	view           configView
	cursor         int
	modeCursor     int
	styleCursor    int // Markdown style cursor
	tuiThemeCursor int // TUI theme cursor

	// Feedback
	feedback        string
	feedbackTimeout time.Duration

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewConfigModel creates a new config TUI model
func NewConfigModel() ConfigModel {
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	configDir, _ := config.GetConfigDir()
	historyDir, _ := config.GetHistoryDir()

	// Find current mode index
	modeCursor := 0
	modes := config.AvailableModes()
	for i, mode := range modes {
		if mode == cfg.DefaultMode {
			modeCursor = i
			break
		}
	}

	// Find current markdown style index
	styleCursor := 0
	styles := render.StyleNames()
	currentStyle := cfg.Markdown.Style
	if currentStyle == "" {
		currentStyle = render.DefaultStyle
	}
	for i, s := range styles {
		if s == currentStyle {
			styleCursor = i
			break
		}
	}

	// Find current TUI theme index
	tuiThemeCursor := 0
	tuiThemes := render.TUIThemeNames()
	currentTUITheme := cfg.TUITheme
	if currentTUITheme == "" {
		currentTUITheme = render.DefaultTUITheme
	}
	for i, t := range tuiThemes {
		if t == currentTUITheme {
			tuiThemeCursor = i
			break
		}
	}

	// Apply the configured TUI theme at startup
	if currentTUITheme != "" {
		render.SetTUITheme(currentTUITheme)
		UpdateTheme()
	}

	return ConfigModel{
		config:          cfg,
		configDir:       configDir,
		historyDir:      historyDir,
		view:            viewMain,
		cursor:          0,
		modeCursor:      modeCursor,
		styleCursor:     styleCursor,
		tuiThemeCursor:  tuiThemeCursor,
		feedbackTimeout: 2 * time.Second,
	}
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

// clearFeedback returns a command that clears the feedback message after a delay
func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.view == viewModeSelect || m.view == viewStyleSelect || m.view == viewTUIThemeSelect {
				m.view = viewMain
			} else {
				return m, tea.Quit
			}

		case "up", "k":
			if m.view == viewMain {
				m.cursor--
				if m.cursor < 0 {
					m.cursor = menuItemCount - 1
				}
			} else if m.view == viewModeSelect {
				m.modeCursor--
				if m.modeCursor < 0 {
					m.modeCursor = len(config.AvailableModes()) - 1
				}
			} else if m.view == viewStyleSelect {
				m.styleCursor--
				if m.styleCursor < 0 {
					m.styleCursor = len(render.StyleNames()) - 1
				}
			} else if m.view == viewTUIThemeSelect {
				m.tuiThemeCursor--
				if m.tuiThemeCursor < 0 {
					m.tuiThemeCursor = len(render.TUIThemeNames()) - 1
				}
			}

		case "down", "j":
			if m.view == viewMain {
				m.cursor++
				if m.cursor >= menuItemCount {
					m.cursor = 0
				}
			} else if m.view == viewModeSelect {
				m.modeCursor++
				if m.modeCursor >= len(config.AvailableModes()) {
					m.modeCursor = 0
				}
			} else if m.view == viewStyleSelect {
				m.styleCursor++
				if m.styleCursor >= len(render.StyleNames()) {
					m.styleCursor = 0
				}
			} else if m.view == viewTUIThemeSelect {
				m.tuiThemeCursor++
				if m.tuiThemeCursor >= len(render.TUIThemeNames()) {
					m.tuiThemeCursor = 0
				}
			}

		case "enter", " ":
			return m.handleSelect()
		}
	}

	return m, nil
}

// handleSelect handles menu item selection
func (m ConfigModel) handleSelect() (tea.Model, tea.Cmd) {
	if m.view == viewMain {
		switch m.cursor {
		case menuDefaultMode:
			m.view = viewModeSelect
			return m, nil

		case menuTimeout:
			m.config.RequestTimeout = nextTimeout(m.config.RequestTimeout)
			if err := config.SaveConfig(m.config); err != nil {
				m.feedback = fmt.Sprintf("Error: %v", err)
			} else {
				m.feedback = fmt.Sprintf("Request timeout set to %ds", m.config.RequestTimeout)
			}
			return m, clearFeedback(m.feedbackTimeout)

		case menuVerbose:
			m.config.Verbose = !m.config.Verbose
			if err := config.SaveConfig(m.config); err != nil {
				m.feedback = fmt.Sprintf("Error: %v", err)
			} else {
				state := "disabled"
				if m.config.Verbose {
					state = "enabled"
				}
				m.feedback = fmt.Sprintf("Verbose logging %s", state)
			}
			return m, clearFeedback(m.feedbackTimeout)

		case menuCopyToClipboard:
			m.config.CopyToClipboard = !m.config.CopyToClipboard
			if err := config.SaveConfig(m.config); err != nil {
				m.feedback = fmt.Sprintf("Error: %v", err)
			} else {
				state := "disabled"
				if m.config.CopyToClipboard {
					state = "enabled"
				}
				m.feedback = fmt.Sprintf("Copy to clipboard %s", state)
			}
			return m, clearFeedback(m.feedbackTimeout)

		case menuMarkdown:
			m.config.Markdown.Enabled = !m.config.Markdown.Enabled
			if err := config.SaveConfig(m.config); err != nil {
				m.feedback = fmt.Sprintf("Error: %v", err)
			} else {
				state := "disabled"
				if m.config.Markdown.Enabled {
					state = "enabled"
				}
				m.feedback = fmt.Sprintf("Markdown rendering %s", state)
			}
			return m, clearFeedback(m.feedbackTimeout)

		case menuStyle:
			m.view = viewStyleSelect
			return m, nil

		case menuTUITheme:
			m.view = viewTUIThemeSelect
			return m, nil

		case menuExit:
			return m, tea.Quit
		}
	} else if m.view == viewModeSelect {
		modes := config.AvailableModes()
		m.config.DefaultMode = modes[m.modeCursor]
		if err := config.SaveConfig(m.config); err != nil {
			m.feedback = fmt.Sprintf("Error: %v", err)
		} else {
			m.feedback = fmt.Sprintf("Default mode set to %s", m.config.DefaultMode)
		}
		m.view = viewMain
		return m, clearFeedback(m.feedbackTimeout)
	} else if m.view == viewStyleSelect {
		styles := render.StyleNames()
		m.config.Markdown.Style = styles[m.styleCursor]
		if err := config.SaveConfig(m.config); err != nil {
			m.feedback = fmt.Sprintf("Error: %v", err)
		} else {
			m.feedback = fmt.Sprintf("Markdown style set to %s", m.config.Markdown.Style)
		}
		m.view = viewMain
		return m, clearFeedback(m.feedbackTimeout)
	} else if m.view == viewTUIThemeSelect {
		tuiThemes := render.TUIThemeNames()
		selectedTheme := tuiThemes[m.tuiThemeCursor]
		m.config.TUITheme = selectedTheme

		// Apply the new TUI theme immediately
		render.SetTUITheme(selectedTheme)
		UpdateTheme()

		if err := config.SaveConfig(m.config); err != nil {
			m.feedback = fmt.Sprintf("Error: %v", err)
		} else {
			m.feedback = fmt.Sprintf("TUI theme set to %s", selectedTheme)
		}
		m.view = viewMain
		return m, clearFeedback(m.feedbackTimeout)
	}

	return m, nil
}

// nextTimeout advances to the next preset, wrapping at the end
func nextTimeout(current int) int {
	for i, preset := range timeoutPresets {
		if preset == current {
			return timeoutPresets[(i+1)%len(timeoutPresets)]
		}
	}
	return timeoutPresets[0]
}

// View renders the TUI
func (m ConfigModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	// ═════════════════════════════════════════════════════════════════
	// HEADER
	// ═════════════════════════════════════════════════════════════════
	headerContent := configTitleStyle.Render("✦ Configuration")
	header := configHeaderStyle.Width(contentWidth).Render(headerContent)
	sections = append(sections, header)

	// ═════════════════════════════════════════════════════════════════
	// BACKEND PANEL
	// ═════════════════════════════════════════════════════════════════
	backendTitle := configSectionTitleStyle.Render("🛰 Backend")

	backendContent := lipgloss.JoinVertical(lipgloss.Left,
		backendTitle,
		fmt.Sprintf("   URL:   %s", configPathStyle.Render(m.config.BackendURL)),
		fmt.Sprintf("   User:  %s", configPathStyle.Render(m.config.UserID)),
		hintStyle.Render("   change with: orion config set backend_url <url>"),
	)
	backendPanel := configPanelStyle.Width(contentWidth).Render(backendContent)
	sections = append(sections, backendPanel)

	// ═════════════════════════════════════════════════════════════════
	// PATHS PANEL
	// ═════════════════════════════════════════════════════════════════
	pathsTitle := configSectionTitleStyle.Render("📁 Paths")

	pathsContent := lipgloss.JoinVertical(lipgloss.Left,
		pathsTitle,
		fmt.Sprintf("   Config:  %s", configPathStyle.Render(m.configDir+"/config.json")),
		fmt.Sprintf("   History: %s", configPathStyle.Render(m.historyDir)),
	)
	pathsPanel := configPanelStyle.Width(contentWidth).Render(pathsContent)
	sections = append(sections, pathsPanel)

	// ═════════════════════════════════════════════════════════════════
	// SETTINGS/MENU PANEL
	// ═════════════════════════════════════════════════════════════════
	var settingsContent string
	switch m.view {
	case viewMain:
		settingsContent = m.renderMainMenu(contentWidth)
	case viewModeSelect:
		settingsContent = m.renderModeSelect(contentWidth)
	case viewStyleSelect:
		settingsContent = m.renderStyleSelect(contentWidth)
	case viewTUIThemeSelect:
		settingsContent = m.renderTUIThemeSelect(contentWidth)
	}

	settingsPanel := configPanelStyle.Width(contentWidth).Render(settingsContent)
	sections = append(sections, settingsPanel)

	// ═════════════════════════════════════════════════════════════════
	// FEEDBACK MESSAGE
	// ═════════════════════════════════════════════════════════════════
	if m.feedback != "" {
		feedbackMsg := configFeedbackStyle.Render("✓ " + m.feedback)
		sections = append(sections, feedbackMsg)
	}

	// ═════════════════════════════════════════════════════════════════
	// STATUS BAR
	// ═════════════════════════════════════════════════════════════════
	statusBar := m.renderStatusBar(contentWidth)
	sections = append(sections, statusBar)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderMainMenu renders the main settings menu
func (m ConfigModel) renderMainMenu(width int) string {
	title := configSectionTitleStyle.Render("⚙ Settings")

	var items []string

	// Default Mode
	cursor := "  "
	style := configMenuItemStyle
	if m.cursor == menuDefaultMode {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	modeValue := configValueStyle.Render(m.config.DefaultMode)
	items = append(items, fmt.Sprintf("%s%s%s%s",
		cursor,
		style.Render("Default Mode"),
		strings.Repeat(" ", 8),
		modeValue,
	))

	// Request Timeout
	cursor = "  "
	style = configMenuItemStyle
	if m.cursor == menuTimeout {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	timeoutValue := configValueStyle.Render(fmt.Sprintf("%ds", m.config.RequestTimeout))
	items = append(items, fmt.Sprintf("%s%s%s%s",
		cursor,
		style.Render("Request Timeout"),
		strings.Repeat(" ", 5),
		timeoutValue,
	))

	// Verbose
	cursor = "  "
	style = configMenuItemStyle
	if m.cursor == menuVerbose {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	verboseValue := m.renderBoolValue(m.config.Verbose)
	items = append(items, fmt.Sprintf("%s%s%s%s",
		cursor,
		style.Render("Verbose Logging"),
		strings.Repeat(" ", 5),
		verboseValue,
	))

	// Copy to Clipboard
	cursor = "  "
	style = configMenuItemStyle
	if m.cursor == menuCopyToClipboard {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	clipboardValue := m.renderBoolValue(m.config.CopyToClipboard)
	items = append(items, fmt.Sprintf("%s%s%s%s",
		cursor,
		style.Render("Copy to Clipboard"),
		strings.Repeat(" ", 3),
		clipboardValue,
	))

	// Markdown Rendering
	cursor = "  "
	style = configMenuItemStyle
	if m.cursor == menuMarkdown {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	markdownValue := m.renderBoolValue(m.config.Markdown.Enabled)
	items = append(items, fmt.Sprintf("%s%s%s%s",
		cursor,
		style.Render("Markdown Rendering"),
		strings.Repeat(" ", 2),
		markdownValue,
	))

	// Markdown Style
	cursor = "  "
	style = configMenuItemStyle
	if m.cursor == menuStyle {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	currentStyle := m.config.Markdown.Style
	if currentStyle == "" {
		currentStyle = render.DefaultStyle
	}
	styleValue := configValueStyle.Render(currentStyle)
	items = append(items, fmt.Sprintf("%s%s%s%s",
		cursor,
		style.Render("Markdown Style"),
		strings.Repeat(" ", 6),
		styleValue,
	))

	// TUI Theme
	cursor = "  "
	style = configMenuItemStyle
	if m.cursor == menuTUITheme {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	currentTUITheme := m.config.TUITheme
	if currentTUITheme == "" {
		currentTUITheme = render.DefaultTUITheme
	}
	tuiThemeValue := configValueStyle.Render(currentTUITheme)
	items = append(items, fmt.Sprintf("%s%s%s%s",
		cursor,
		style.Render("TUI Theme"),
		strings.Repeat(" ", 11),
		tuiThemeValue,
	))

	// Separator
	items = append(items, "")

	// Exit
	cursor = "  "
	style = configMenuItemStyle
	if m.cursor == menuExit {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	items = append(items, cursor+style.Render("Exit"))

	return lipgloss.JoinVertical(lipgloss.Left,
		append([]string{title, ""}, items...)...,
	)
}

// renderModeSelect renders the mode selection sub-menu
func (m ConfigModel) renderModeSelect(width int) string {
	title := configSectionTitleStyle.Render("🔬 Select Default Mode")

	descriptions := map[string]string{
		"standard": "fast single-pass answers",
		"deep":     "multi-agent research with plan review",
	}

	modes := config.AvailableModes()
	var items []string

	for i, mode := range modes {
		cursor := "  "
		style := configMenuItemStyle
		if m.modeCursor == i {
			cursor = configCursorStyle.Render("▸ ")
			style = configMenuSelectedStyle
		}

		current := ""
		if mode == m.config.DefaultMode {
			current = configStatusOkStyle.Render(" (current)")
		}

		modeText := fmt.Sprintf("%s - %s", mode, descriptions[mode])
		items = append(items, cursor+style.Render(modeText)+current)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		append([]string{title, ""}, items...)...,
	)
}

// renderStyleSelect renders the markdown style selection sub-menu
func (m ConfigModel) renderStyleSelect(width int) string {
	title := configSectionTitleStyle.Render("🎨 Select Markdown Style")

	styles := render.AvailableStyles()
	var items []string

	currentStyle := m.config.Markdown.Style
	if currentStyle == "" {
		currentStyle = render.DefaultStyle
	}

	for i, s := range styles {
		cursor := "  "
		style := configMenuItemStyle
		if m.styleCursor == i {
			cursor = configCursorStyle.Render("▸ ")
			style = configMenuSelectedStyle
		}

		current := ""
		if s.Name == currentStyle {
			current = configStatusOkStyle.Render(" (current)")
		}

		// Format: "style-name - description"
		styleText := fmt.Sprintf("%s - %s", s.Name, s.Description)
		items = append(items, cursor+style.Render(styleText)+current)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		append([]string{title, ""}, items...)...,
	)
}

// renderTUIThemeSelect renders the TUI color theme selection sub-menu
func (m ConfigModel) renderTUIThemeSelect(width int) string {
	title := configSectionTitleStyle.Render("🎨 Select TUI Theme")

	themes := render.AvailableTUIThemes()
	var items []string

	currentTUITheme := m.config.TUITheme
	if currentTUITheme == "" {
		currentTUITheme = render.DefaultTUITheme
	}

	for i, theme := range themes {
		cursor := "  "
		style := configMenuItemStyle
		if m.tuiThemeCursor == i {
			cursor = configCursorStyle.Render("▸ ")
			style = configMenuSelectedStyle
		}

		current := ""
		if theme.Name == currentTUITheme {
			current = configStatusOkStyle.Render(" (current)")
		}

		// Format: "theme-name - description"
		themeText := fmt.Sprintf("%s - %s", theme.Name, theme.Description)
		items = append(items, cursor+style.Render(themeText)+current)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		append([]string{title, ""}, items...)...,
	)
}

// renderBoolValue renders a boolean value with appropriate styling
func (m ConfigModel) renderBoolValue(value bool) string {
	if value {
		return configEnabledStyle.Render("enabled")
	}
	return configDisabledStyle.Render("disabled")
}

// renderStatusBar renders the bottom status bar
func (m ConfigModel) renderStatusBar(width int) string {
	var shortcuts []struct {
		key  string
		desc string
	}

	if m.view == viewMain {
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"↑↓", "Navigate"},
			{"Enter", "Select"},
			{"Esc", "Exit"},
		}
	} else {
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"↑↓", "Navigate"},
			{"Enter", "Select"},
			{"Esc", "Back"},
		}
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

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return configStatusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// RunConfig starts the config TUI
func RunConfig() error {
	m := NewConfigModel()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
