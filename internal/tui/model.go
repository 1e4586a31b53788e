package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rcanete/orion/internal/config"
	"github.com/rcanete/orion/internal/debug"
	"github.com/rcanete/orion/internal/history"
	"github.com/rcanete/orion/internal/models"
	"github.com/rcanete/orion/internal/render"
	"github.com/rcanete/orion/internal/session"
)

// defaultChatTitle marks a chat that has not earned a real title yet.
// The first archived snapshot replaces it with a title derived from the
// opening message.
const defaultChatTitle = "New Chat"

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// storeEventMsg forwards a session store mutation into the update loop
	storeEventMsg session.Event

	// eventsClosedMsg arrives when the store subscription is gone
	eventsClosedMsg struct{}

	// sendResultMsg reports the synchronous outcome of a dispatch
	sendResultMsg struct {
		messageID string
		err       error
	}

	// statusClearMsg clears the transient status note
	statusClearMsg struct{}
)

// Model represents the chat TUI state
type Model struct {
	store      *session.Store
	dispatcher *session.Dispatcher
	archive    *history.Store // nil disables persistence
	events     chan session.Event

	chatID   string
	title    string
	threadID string

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	loading        bool
	ready          bool
	err            error
	animationFrame int
	stage          string // agent node currently running, from the pending message
	statusNote     string

	// Markdown rendering
	markdownOn   bool
	markdownOpts render.Options

	// Review overlay state
	reviewing    bool
	reviewTyping bool
	reviewCursor int
	reviewInput  textinput.Model

	// History manager overlay (nil when closed)
	manager *HistoryManagerModel

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a chat TUI model starting on a fresh chat
func NewChatModel(store *session.Store, dispatcher *session.Dispatcher, archive *history.Store) Model {
	m := newBaseModel(store, dispatcher, archive)

	chat := store.CreateChatWithTitle(defaultChatTitle)
	m.chatID = chat.ID
	m.title = chat.Title
	return m
}

// NewChatModelWithChat creates a chat TUI model resuming an existing chat.
// The chat is adopted into the live session if it is not already there.
func NewChatModelWithChat(store *session.Store, dispatcher *session.Dispatcher, archive *history.Store, chat *models.Chat) Model {
	m := newBaseModel(store, dispatcher, archive)

	if _, err := store.Chat(chat.ID); err != nil {
		if aerr := store.AdoptChat(chat); aerr != nil {
			m.err = aerr
		}
	}
	m.chatID = chat.ID
	m.title = chat.Title
	m.threadID = chat.ThreadID
	return m
}

// newBaseModel builds the shared component state
func newBaseModel(store *session.Store, dispatcher *session.Dispatcher, archive *history.Store) Model {
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	// Apply the configured TUI theme before the first render
	if cfg.TUITheme != "" {
		render.SetTUITheme(cfg.TUITheme)
		UpdateTheme()
	}

	// Create textarea for input
	ta := textarea.New()
	ta.Placeholder = "Ask a question..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	// Style the textarea
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	// Create spinner
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	// Feedback input for the review overlay
	ti := textinput.New()
	ti.Placeholder = "Feedback for the researcher..."
	ti.CharLimit = 500

	return Model{
		store:        store,
		dispatcher:   dispatcher,
		archive:      archive,
		events:       store.Subscribe(),
		textarea:     ta,
		spinner:      s,
		reviewInput:  ti,
		markdownOn:   cfg.Markdown.Enabled,
		markdownOpts: render.FromConfig(cfg),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		waitForEvent(m.events),
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// waitForEvent blocks on the store subscription and forwards the next
// mutation into the program
func waitForEvent(events chan session.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return storeEventMsg(event)
	}
}

// clearStatusNote expires the transient status note
func clearStatusNote() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	// Store events and dispatch results are handled in every mode so a
	// running stream keeps flowing while an overlay is open.
	switch msg := msg.(type) {
	case storeEventMsg:
		event := session.Event(msg)
		if event.Kind == session.MessageUpdated && m.store.PendingMessage(event.ChatID) == nil {
			// The exchange just settled, snapshot it
			m.archiveChat(event.ChatID)
		}
		if event.ChatID == m.chatID {
			m.refreshFromStore()
		}
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case sendResultMsg:
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
		}
		return m, nil

	case statusClearMsg:
		m.statusNote = ""
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			return m, animationTick()
		}
		return m, nil
	}

	if m.manager != nil {
		return m.updateManager(msg)
	}
	if m.reviewing {
		return m.updateReview(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.archiveChat(m.chatID)
			return m, tea.Quit

		case "esc":
			if m.loading {
				m.dispatcher.Cancel(m.chatID)
				m.loading = false
			} else {
				m.archiveChat(m.chatID)
				return m, tea.Quit
			}

		case "ctrl+t":
			if m.dispatcher.Mode().DeepResearch {
				m.dispatcher.SetMode(models.ModeStandard)
				cmds = append(cmds, m.note("Mode: standard"))
			} else {
				m.dispatcher.SetMode(models.ModeDeep)
				cmds = append(cmds, m.note("Mode: deep research"))
			}

		case "ctrl+r":
			if !m.loading {
				if msgs, err := m.store.Messages(m.chatID); err != nil || len(msgs) == 0 {
					cmds = append(cmds, m.note("Nothing to retry yet"))
				} else {
					m.loading = true
					m.err = nil
					m.animationFrame = 0
					return m, tea.Batch(
						m.regenerate(),
						m.spinner.Tick,
						animationTick(),
					)
				}
			}

		case "ctrl+e":
			if !m.loading {
				if m.threadID == "" {
					cmds = append(cmds, m.note("No research thread to review yet"))
				} else {
					m.reviewing = true
					m.reviewTyping = false
					m.reviewCursor = 0
					m.reviewInput.Reset()
				}
			}

		case "ctrl+h":
			if m.archive != nil && !m.loading {
				mgr := NewHistoryManagerModel(m.archive)
				mgr.embedded = true
				mgr.width = m.width
				mgr.height = m.height
				mgr.ready = m.ready
				m.manager = &mgr
				return m, m.manager.Init()
			}

		case "ctrl+n":
			if !m.loading {
				m.archiveChat(m.chatID)
				chat := m.store.CreateChatWithTitle(defaultChatTitle)
				m.chatID = chat.ID
				m.err = nil
				m.refreshFromStore()
				cmds = append(cmds, m.note("Started a new chat"))
			}

		case "ctrl+y":
			if text := m.lastAnswer(); text != "" {
				if err := clipboard.WriteAll(text); err != nil {
					cmds = append(cmds, m.note("Clipboard copy failed"))
				} else {
					cmds = append(cmds, m.note("Copied last answer"))
				}
			}

		case "enter":
			if !m.loading && strings.TrimSpace(m.textarea.Value()) != "" {
				input := strings.TrimSpace(m.textarea.Value())
				if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
					m.archiveChat(m.chatID)
					return m, tea.Quit
				}

				m.textarea.Reset()
				m.loading = true
				m.err = nil
				m.animationFrame = 0
				m.stage = ""

				return m, tea.Batch(
					m.sendMessage(input),
					m.spinner.Tick,
					animationTick(),
				)
			}
		}
	}

	// Update child components - only pass KeyMsg to textarea to prevent
	// escape sequence leaks
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// resize recalculates component dimensions for a new terminal size
func (m *Model) resize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	// Calculate component heights
	headerHeight := 4 // Header panel with border
	inputHeight := 6  // Input panel with border
	statusHeight := 1 // Status bar
	padding := 2      // Extra spacing

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}

	contentWidth := m.width - 4

	// Initialize viewport on first size message
	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.textarea.SetWidth(contentWidth - 4)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
		m.textarea.SetWidth(contentWidth - 4)
	}
	m.updateViewport()
}

// updateManager routes messages to the history manager overlay
func (m Model) updateManager(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.resize(ws)
	}

	updated, cmd := m.manager.Update(msg)
	mgr, ok := updated.(HistoryManagerModel)
	if !ok {
		return m, cmd
	}

	if chat, done := mgr.Result(); done {
		m.manager = nil
		if chat != nil {
			m.openChat(chat)
		}
		return m, nil
	}

	m.manager = &mgr
	return m, cmd
}

// updateReview handles input while the review overlay is open
func (m Model) updateReview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.resize(ws)
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		// Cursor blink and friends belong to the feedback input
		var cmd tea.Cmd
		m.reviewInput, cmd = m.reviewInput.Update(msg)
		return m, cmd
	}

	if m.reviewTyping {
		switch keyMsg.String() {
		case "esc":
			m.reviewTyping = false
			m.reviewInput.Blur()
			return m, nil

		case "enter":
			action := models.AllReviewActions()[m.reviewCursor]
			feedback := strings.TrimSpace(m.reviewInput.Value())
			return m.submitReview(action, feedback)

		default:
			var cmd tea.Cmd
			m.reviewInput, cmd = m.reviewInput.Update(msg)
			return m, cmd
		}
	}

	switch keyMsg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.reviewing = false

	case "up", "k":
		m.reviewCursor--
		if m.reviewCursor < 0 {
			m.reviewCursor = len(models.AllReviewActions()) - 1
		}

	case "down", "j":
		m.reviewCursor++
		if m.reviewCursor >= len(models.AllReviewActions()) {
			m.reviewCursor = 0
		}

	case "enter":
		action := models.AllReviewActions()[m.reviewCursor]
		if action == models.ReviewApprove {
			return m.submitReview(action, "")
		}
		// refine and re-research carry feedback text
		m.reviewTyping = true
		m.reviewInput.Focus()
		return m, textinput.Blink
	}

	return m, nil
}

// submitReview closes the overlay and resumes the paused research run
func (m Model) submitReview(action models.ReviewAction, feedback string) (tea.Model, tea.Cmd) {
	m.reviewing = false
	m.reviewTyping = false
	m.reviewInput.Blur()
	m.loading = true
	m.err = nil
	m.animationFrame = 0

	return m, tea.Batch(
		m.review(action, feedback),
		m.spinner.Tick,
		animationTick(),
	)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if m.manager != nil {
		return m.manager.View()
	}

	if m.reviewing {
		return m.renderReviewPrompt()
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{
		titleStyle.Render("✦ Orion"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.modeBadge()),
	}
	if m.title != "" && m.title != defaultChatTitle {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(truncateTitle(m.title, 32)),
		)
	}
	if m.threadID != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			hintStyle.Render("thread "+shortID(m.threadID)),
		)
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	header := headerStyle.Width(contentWidth).Render(headerContent)
	sections = append(sections, header)

	// Messages area
	var messagesContent string
	if m.transcriptEmpty() {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}

	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent)
	sections = append(sections, messagesPanel)

	// Input area
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}

	inputPanel := inputPanelStyle.Width(contentWidth).Render(inputContent)
	sections = append(sections, inputPanel)

	// Status bar
	statusBar := m.renderStatusBar(contentWidth)
	sections = append(sections, statusBar)

	// Transient feedback
	if m.statusNote != "" {
		sections = append(sections, configFeedbackStyle.Render("  "+m.statusNote))
	}

	// Error display
	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("Welcome to Orion")
	subtitle := welcomeStyle.Width(width).Render(
		"Ask a question below, or press Ctrl+T to switch into deep research mode")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
	)

	// Center vertically
	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	// Animation characters
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	// Get current animation frame
	frame := m.animationFrame

	// Render spinning character with color
	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	// Render animated bar with gradient
	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		// Calculate which color to use based on position and frame
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)

		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	// Animated dots
	dots := ""
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dotColor := gradientColors[(frame+i)%len(gradientColors)]
		dots += lipgloss.NewStyle().Foreground(dotColor).Render("●")
	}
	for i := numDots; i < 3; i++ {
		dots += lipgloss.NewStyle().Foreground(colorTextMute).Render("○")
	}

	// The current pipeline stage replaces the generic label once known
	label := " Orion is thinking "
	if m.stage != "" {
		label = " " + stageLabel(m.stage) + " "
	}
	text := lipgloss.NewStyle().Foreground(colorText).Render(label)

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	type shortcut struct {
		key  string
		desc string
	}

	var shortcuts []shortcut
	if m.loading {
		shortcuts = []shortcut{
			{"Esc", "Cancel"},
			{"↑↓", "Scroll"},
		}
	} else {
		shortcuts = []shortcut{
			{"Enter", "Send"},
			{"Ctrl+T", "Mode"},
			{"Ctrl+R", "Retry"},
			{"Ctrl+E", "Review"},
			{"Ctrl+H", "History"},
			{"Ctrl+N", "New"},
			{"Esc", "Quit"},
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
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// renderReviewPrompt renders the review action overlay
func (m Model) renderReviewPrompt() string {
	width := m.width - 8
	if width < 40 {
		width = 40
	}

	var content strings.Builder

	content.WriteString(configTitleStyle.Render("⚖ Review research plan"))
	content.WriteString("\n")
	content.WriteString(hintStyle.Render("  The researcher paused for your verdict"))
	content.WriteString("\n\n")

	descriptions := map[models.ReviewAction]string{
		models.ReviewApprove:    "run the research as planned",
		models.ReviewRefine:     "adjust the plan with feedback",
		models.ReviewReResearch: "redo the research in a new direction",
	}

	for i, action := range models.AllReviewActions() {
		cursor := "  "
		style := configMenuItemStyle
		if i == m.reviewCursor {
			cursor = configCursorStyle.Render("▸ ")
			style = configMenuSelectedStyle
		}

		line := fmt.Sprintf("%s%s %s",
			cursor,
			style.Render(string(action)),
			hintStyle.Render("- "+descriptions[action]),
		)
		content.WriteString(line)
		content.WriteString("\n")
	}

	if m.reviewTyping {
		content.WriteString("\n")
		content.WriteString(configSectionTitleStyle.Render("Feedback:"))
		content.WriteString("\n")
		content.WriteString(m.reviewInput.View())
		content.WriteString("\n")
	}

	content.WriteString("\n")
	shortcuts := []string{
		statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Navigate"),
		statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Confirm"),
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Cancel"),
	}
	content.WriteString(strings.Join(shortcuts, "  │  "))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2).
		Width(width)

	return boxStyle.Render(content.String())
}

// sendMessage creates a command that dispatches a user message
func (m Model) sendMessage(content string) tea.Cmd {
	dispatcher := m.dispatcher
	chatID := m.chatID
	return func() tea.Msg {
		id, err := dispatcher.Send(context.Background(), chatID, content)
		return sendResultMsg{messageID: id, err: err}
	}
}

// regenerate creates a command that retries the last exchange
func (m Model) regenerate() tea.Cmd {
	dispatcher := m.dispatcher
	chatID := m.chatID
	return func() tea.Msg {
		id, err := dispatcher.Regenerate(context.Background(), chatID)
		return sendResultMsg{messageID: id, err: err}
	}
}

// review creates a command that resumes a paused research run
func (m Model) review(action models.ReviewAction, feedback string) tea.Cmd {
	dispatcher := m.dispatcher
	chatID := m.chatID
	return func() tea.Msg {
		id, err := dispatcher.Review(context.Background(), chatID, action, feedback)
		return sendResultMsg{messageID: id, err: err}
	}
}

// note sets a transient status message and schedules its removal
func (m *Model) note(text string) tea.Cmd {
	m.statusNote = text
	return clearStatusNote()
}

// refreshFromStore re-reads the visible chat and rebuilds derived state
func (m *Model) refreshFromStore() {
	chat, err := m.store.Chat(m.chatID)
	if err != nil {
		return
	}
	m.title = chat.Title
	m.threadID = chat.ThreadID

	if pending := m.store.PendingMessage(m.chatID); pending != nil {
		m.loading = true
		m.stage = pending.Stage
	} else {
		m.loading = false
		m.stage = ""
	}

	if m.ready {
		m.updateViewport()
		m.viewport.GotoBottom()
	}
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	messages, err := m.store.Messages(m.chatID)
	if err != nil {
		m.viewport.SetContent("")
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.Role == models.RoleUser {
			// User message
			label := userLabelStyle.Render("⬤ You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble)
		} else {
			// Assistant message
			label := assistantLabelStyle.Render("✦ Orion")
			content.WriteString(label + "\n")

			// Show the running stage while the answer streams
			if msg.Pending() && msg.Stage != "" {
				stageLine := stageStyle.Width(bubbleWidth - 4).Render("◉ " + stageLabel(msg.Stage))
				content.WriteString(stageLine + "\n")
			}

			if msg.Content != "" {
				body := msg.Content
				if m.markdownOn {
					rendered, rerr := render.Markdown(body, m.markdownOpts.WithWidth(bubbleWidth-4))
					if rerr == nil {
						// Trim trailing newlines from glamour
						body = strings.TrimRight(rendered, "\n")
					}
				}
				bubble := assistantBubbleStyle.Width(bubbleWidth).Render(body)
				content.WriteString(bubble)
			}

			if msg.Failed() {
				note := "✗ request failed"
				if msg.Cancelled() {
					note = "✗ cancelled"
				}
				if msg.Content != "" {
					content.WriteString("\n")
				}
				content.WriteString(errorStyle.Render(note))
			}
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// archiveChat snapshots a chat into the history store, deriving a title
// from the first user message when none has been set
func (m *Model) archiveChat(chatID string) {
	if m.archive == nil {
		return
	}

	chat, err := m.store.Chat(chatID)
	if err != nil || len(chat.Messages) == 0 {
		return
	}

	if chat.Title == defaultChatTitle {
		if first := chat.FirstUserContent(); first != "" {
			title := history.DeriveTitle(first)
			if err := m.store.RenameChat(chatID, title); err == nil {
				chat.Title = title
			}
		}
	}

	if err := m.archive.SaveChat(chat); err != nil {
		debug.Logger().Debug("archive save failed", "chat_id", chatID, "err", err)
	}
}

// openChat switches the visible chat, adopting it into the session first
// when it only exists in the archive
func (m *Model) openChat(chat *models.Chat) {
	if _, err := m.store.Chat(chat.ID); err != nil {
		if aerr := m.store.AdoptChat(chat); aerr != nil {
			m.err = aerr
			return
		}
	} else {
		_ = m.store.TouchChat(chat.ID)
	}
	m.chatID = chat.ID
	m.err = nil
	m.refreshFromStore()
}

// lastAnswer returns the most recent completed assistant content
func (m Model) lastAnswer() string {
	messages, err := m.store.Messages(m.chatID)
	if err != nil {
		return ""
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleAssistant &&
			messages[i].Status == models.StatusComplete &&
			messages[i].Content != "" {
			return messages[i].Content
		}
	}
	return ""
}

// transcriptEmpty reports whether the visible chat has no messages
func (m Model) transcriptEmpty() bool {
	messages, err := m.store.Messages(m.chatID)
	return err != nil || len(messages) == 0
}

// modeBadge names the active send mode for the header
func (m Model) modeBadge() string {
	if m.dispatcher.Mode().DeepResearch {
		return "deep research"
	}
	return "standard"
}

// stageLabel turns a backend node name into display text
func stageLabel(stage string) string {
	return strings.ReplaceAll(stage, "_", " ")
}

// shortID returns the tail of an identifier for compact display
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}

// RunChat starts the chat TUI on a fresh chat
func RunChat(store *session.Store, dispatcher *session.Dispatcher, archive *history.Store) error {
	m := NewChatModel(store, dispatcher, archive)
	return runChatProgram(m, store, dispatcher)
}

// RunChatWithChat starts the chat TUI resuming an existing chat
func RunChatWithChat(store *session.Store, dispatcher *session.Dispatcher, archive *history.Store, chat *models.Chat) error {
	m := NewChatModelWithChat(store, dispatcher, archive, chat)
	return runChatProgram(m, store, dispatcher)
}

// runChatProgram runs the program and tears down session plumbing
func runChatProgram(m Model, store *session.Store, dispatcher *session.Dispatcher) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()

	dispatcher.CancelAll()
	store.Unsubscribe(m.events)
	return err
}
