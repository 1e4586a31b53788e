package commands

import (
	"github.com/rcanete/orion/internal/history"
	"github.com/rcanete/orion/internal/models"
	"github.com/rcanete/orion/internal/session"
	"github.com/rcanete/orion/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(store *session.Store, dispatcher *session.Dispatcher, archive *history.Store) error
	RunChatWithChat(store *session.Store, dispatcher *session.Dispatcher, archive *history.Store, chat *models.Chat) error
	RunHistorySelector(store tui.HistoryStore) (tui.HistorySelectorResult, error)
	RunHistoryManager(store tui.HistoryManagerStore) (tui.HistoryManagerResult, error)
	RunConfig() error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// TUI is the terminal user interface.
	TUI TUIInterface
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(store *session.Store, dispatcher *session.Dispatcher, archive *history.Store) error {
	return tui.RunChat(store, dispatcher, archive)
}

func (d *DefaultTUI) RunChatWithChat(store *session.Store, dispatcher *session.Dispatcher, archive *history.Store, chat *models.Chat) error {
	return tui.RunChatWithChat(store, dispatcher, archive, chat)
}

func (d *DefaultTUI) RunHistorySelector(store tui.HistoryStore) (tui.HistorySelectorResult, error) {
	return tui.RunHistorySelector(store)
}

func (d *DefaultTUI) RunHistoryManager(store tui.HistoryManagerStore) (tui.HistoryManagerResult, error) {
	return tui.RunHistoryManager(store)
}

func (d *DefaultTUI) RunConfig() error {
	return tui.RunConfig()
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI: &DefaultTUI{},
	}
}

// deps is the dependency set commands run against. Tests swap it for stubs.
var deps = NewDependencies()
