package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcanete/orion/internal/history"
	"github.com/rcanete/orion/internal/models"
)

var (
	historyForceFlag         bool
	historyFavoritesFlag     bool
	historySearchContentFlag bool
	historyExportFormatFlag  string
	historyExportOutputFlag  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage conversation history",
	Long: `View and manage your local conversation history.

Commands that take a <ref> accept ` + history.ListAliases() + `.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all conversations",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search conversations",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySearch,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyRenameCmd = &cobra.Command{
	Use:   "rename <ref> <title>",
	Short: "Rename a conversation",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryRename,
}

var historyFavoriteCmd = &cobra.Command{
	Use:   "favorite <ref>",
	Short: "Toggle a conversation's favorite mark",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryFavorite,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <ref>",
	Short: "Export a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

var historyPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull conversations from the backend archive",
	RunE:  runHistoryPull,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all conversations",
	RunE:  runHistoryClear,
}

var historyManageCmd = &cobra.Command{
	Use:   "manage",
	Short: "Manage conversations interactively",
	RunE:  runHistoryManage,
}

func init() {
	historyListCmd.Flags().BoolVar(&historyFavoritesFlag, "favorites", false, "Show only favorites")
	historyDeleteCmd.Flags().BoolVar(&historyForceFlag, "force", false, "Skip confirmation")
	historyClearCmd.Flags().BoolVar(&historyForceFlag, "force", false, "Skip confirmation")
	historySearchCmd.Flags().BoolVar(&historySearchContentFlag, "content", false, "Search message content as well as titles")
	historyExportCmd.Flags().StringVar(&historyExportFormatFlag, "format", "md", "Export format: md or json")
	historyExportCmd.Flags().StringVarP(&historyExportOutputFlag, "output", "o", "", "Write to file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyRenameCmd)
	historyCmd.AddCommand(historyFavoriteCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyPullCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyManageCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	chats, err := store.ListChats()
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(chats) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tID\tTITLE\tMSGS\tUPDATED")
	_, _ = fmt.Fprintln(w, "-\t--\t-----\t----\t-------")

	for i, chat := range chats {
		fav, _ := store.IsFavorite(chat.ID)
		if historyFavoritesFlag && !fav {
			continue
		}

		updated := chat.UpdatedAt.Format("2006-01-02 15:04")
		title := truncate(chat.Title, 40)
		if fav {
			title = "★ " + title
		}
		// The index stays stable across filters so it remains a usable <ref>
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			i+1, chat.ID, title, len(chat.Messages), updated)
	}

	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	chat, err := history.NewResolver(store).ResolveChat(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ID: %s\n", chat.ID)
	fmt.Printf("Title: %s\n", chat.Title)
	if chat.ThreadID != "" {
		fmt.Printf("Thread: %s\n", chat.ThreadID)
	}
	fmt.Printf("Created: %s\n", chat.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated: %s\n", chat.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Messages: %d\n", len(chat.Messages))
	fmt.Println()

	for i, msg := range chat.Messages {
		role := "You"
		if msg.Role == models.RoleAssistant {
			role = "Orion"
		}
		fmt.Printf("[%d] %s (%s):\n", i+1, role, msg.CreatedAt.Format("15:04"))

		if msg.Failed() {
			fmt.Printf("  ✗ failed (%s)\n", msg.ErrReason)
		}

		fmt.Printf("  %s\n\n", truncate(msg.Content, 500))
	}

	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	results, err := store.SearchChats(args[0], historySearchContentFlag)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matches found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tMATCH")
	_, _ = fmt.Fprintln(w, "--\t-----\t-----")

	for _, res := range results {
		title := truncate(res.Chat.Title, 40)
		snippet := strings.ReplaceAll(res.MatchSnippet, "\n", " ")
		if res.MatchField == "content" {
			snippet = fmt.Sprintf("msg %d: %s", res.MatchIndex+1, snippet)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", res.Chat.ID, title, snippet)
	}

	return w.Flush()
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	chat, err := history.NewResolver(store).ResolveChat(args[0])
	if err != nil {
		return err
	}

	if !historyForceFlag {
		fmt.Printf("Delete %q? (y/N): ", chat.Title)
		var response string
		fmt.Scanln(&response)
		if strings.ToLower(strings.TrimSpace(response)) != "y" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := store.DeleteChat(chat.ID); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	fmt.Printf("Deleted conversation: %s\n", chat.ID)
	return nil
}

func runHistoryRename(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	chat, err := history.NewResolver(store).ResolveChat(args[0])
	if err != nil {
		return err
	}

	title := strings.TrimSpace(args[1])
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	if err := store.RenameChat(chat.ID, title); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}

	fmt.Printf("Renamed %s to %q\n", chat.ID, title)
	return nil
}

func runHistoryFavorite(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	chat, err := history.NewResolver(store).ResolveChat(args[0])
	if err != nil {
		return err
	}

	isFavorite, err := store.ToggleFavorite(chat.ID)
	if err != nil {
		return fmt.Errorf("failed to toggle favorite: %w", err)
	}

	if isFavorite {
		fmt.Printf("★ %q added to favorites\n", chat.Title)
	} else {
		fmt.Printf("☆ %q removed from favorites\n", chat.Title)
	}
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	chat, err := history.NewResolver(store).ResolveChat(args[0])
	if err != nil {
		return err
	}

	var data []byte
	switch historyExportFormatFlag {
	case "md", "markdown":
		text, err := store.ExportToMarkdown(chat.ID)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		data = []byte(text)
	case "json":
		data, err = store.ExportToJSON(chat.ID)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q (valid: md, json)", historyExportFormatFlag)
	}

	if historyExportOutputFlag != "" {
		if err := os.WriteFile(historyExportOutputFlag, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export file: %w", err)
		}
		fmt.Printf("Exported to %s\n", historyExportOutputFlag)
		return nil
	}

	fmt.Print(string(data))
	return nil
}

func runHistoryPull(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	cfg := loadSettings()
	client, err := newAPIClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	spin := newSpinner("Pulling conversations")
	spin.start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	count, err := store.Pull(ctx, client, cfg.UserID)
	if err != nil {
		spin.stopWithError()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Pull failed"))
		return fmt.Errorf("pull failed: %w", err)
	}

	spin.stopWithSuccess(fmt.Sprintf("Pulled %d conversations", count))
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	if !historyForceFlag {
		count, _ := store.Len()
		fmt.Printf("Delete all %d conversations? (y/N): ", count)
		var response string
		fmt.Scanln(&response)
		if strings.ToLower(strings.TrimSpace(response)) != "y" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := store.ClearAll(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Println("All conversations deleted.")
	return nil
}

func runHistoryManage(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	result, err := deps.TUI.RunHistoryManager(store)
	if err != nil {
		return err
	}

	// Opening a chat from the manager drops straight into the chat TUI
	if result.Chat != nil {
		return runChatResumed(result.Chat)
	}

	return nil
}

// truncate shortens s to max characters, marking the cut with an ellipsis
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
