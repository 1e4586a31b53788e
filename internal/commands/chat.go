package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcanete/orion/internal/api"
	"github.com/rcanete/orion/internal/history"
	"github.com/rcanete/orion/internal/models"
	"github.com/rcanete/orion/internal/session"
)

var (
	chatResumeFlag string
	chatPickFlag   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the research assistant.

Answers stream into the conversation as they are produced. Use -c to
resume a saved conversation by reference (@last, an index from
'orion history list', an id, or a title fragment), or --pick to choose
one from a list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatResumeFlag, "chat", "c", "", "Resume a saved conversation (@last, index, id, or title)")
	chatCmd.Flags().BoolVar(&chatPickFlag, "pick", false, "Pick a saved conversation from a list")
}

// chatSession bundles the plumbing every chat entry point needs
type chatSession struct {
	client     *api.ResearchClient
	archive    *history.Store
	store      *session.Store
	dispatcher *session.Dispatcher
}

func newChatSession() (*chatSession, error) {
	cfg := loadSettings()

	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	archive, err := history.DefaultStore()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	store := session.NewStore()
	dispatcher := session.NewDispatcher(store, client)
	dispatcher.SetMode(models.ModeFromName(cfg.DefaultMode))

	return &chatSession{
		client:     client,
		archive:    archive,
		store:      store,
		dispatcher: dispatcher,
	}, nil
}

func (s *chatSession) close() {
	s.client.Close()
}

func runChat() error {
	sess, err := newChatSession()
	if err != nil {
		return err
	}
	defer sess.close()

	// Resume a specific conversation by reference
	if chatResumeFlag != "" {
		resolver := history.NewResolver(sess.archive)
		chat, err := resolver.ResolveChat(chatResumeFlag)
		if err != nil {
			return err
		}
		return deps.TUI.RunChatWithChat(sess.store, sess.dispatcher, sess.archive, chat)
	}

	// Pick a conversation interactively
	if chatPickFlag {
		result, err := deps.TUI.RunHistorySelector(sess.archive)
		if err != nil {
			return err
		}
		if !result.Confirmed {
			return nil
		}
		if result.IsNew || result.Chat == nil {
			return deps.TUI.RunChat(sess.store, sess.dispatcher, sess.archive)
		}
		return deps.TUI.RunChatWithChat(sess.store, sess.dispatcher, sess.archive, result.Chat)
	}

	return deps.TUI.RunChat(sess.store, sess.dispatcher, sess.archive)
}

// runChatResumed opens the chat TUI on an already-loaded conversation
func runChatResumed(chat *models.Chat) error {
	sess, err := newChatSession()
	if err != nil {
		return err
	}
	defer sess.close()

	return deps.TUI.RunChatWithChat(sess.store, sess.dispatcher, sess.archive, chat)
}
