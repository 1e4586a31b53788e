package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rcanete/orion/internal/models"
)

// ExportFormat represents the format for exporting chats
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ExportOptions configures how chats are exported
type ExportOptions struct {
	Format          ExportFormat
	IncludeMetadata bool // Include the backend thread id
	IncludeFailed   bool // Include failed messages with their error reason
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:          ExportFormatMarkdown,
		IncludeMetadata: false,
		IncludeFailed:   true,
	}
}

// ExportToMarkdown exports a chat to Markdown format
func (s *Store) ExportToMarkdown(id string) (string, error) {
	return s.ExportToMarkdownWithOptions(id, DefaultExportOptions())
}

// ExportToMarkdownWithOptions exports a chat to Markdown with options
func (s *Store) ExportToMarkdownWithOptions(id string, opts ExportOptions) (string, error) {
	chat, err := s.GetChat(id)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(chat.Title)
	sb.WriteString("\n\n")

	if opts.IncludeMetadata && chat.ThreadID != "" {
		sb.WriteString("**Thread:** ")
		sb.WriteString(chat.ThreadID)
		sb.WriteString("\n")
	}
	sb.WriteString("**Created:** ")
	sb.WriteString(chat.CreatedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString("**Updated:** ")
	sb.WriteString(chat.UpdatedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString("**Messages:** ")
	sb.WriteString(fmt.Sprintf("%d", len(chat.Messages)))
	sb.WriteString("\n\n---\n\n")

	first := true
	for _, msg := range chat.Messages {
		if msg.Failed() && !opts.IncludeFailed {
			continue
		}

		if !first {
			sb.WriteString("\n---\n\n")
		}
		first = false

		role := "User"
		if msg.Role == models.RoleAssistant {
			role = "Assistant"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if !msg.CreatedAt.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(msg.CreatedAt.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if msg.Failed() {
			sb.WriteString("\n> request failed")
			if msg.ErrReason != "" {
				sb.WriteString(": ")
				sb.WriteString(msg.ErrReason)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

// ExportToJSON exports a chat to JSON format
func (s *Store) ExportToJSON(id string) ([]byte, error) {
	return s.ExportToJSONWithOptions(id, DefaultExportOptions())
}

// ExportToJSONWithOptions exports a chat to JSON with options
func (s *Store) ExportToJSONWithOptions(id string, opts ExportOptions) ([]byte, error) {
	chat, err := s.GetChat(id)
	if err != nil {
		return nil, err
	}

	type ExportMessage struct {
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		Status    string    `json:"status,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}

	type ExportChat struct {
		ID        string          `json:"id"`
		Title     string          `json:"title"`
		ThreadID  string          `json:"thread_id,omitempty"`
		CreatedAt time.Time       `json:"created_at"`
		UpdatedAt time.Time       `json:"updated_at"`
		Messages  []ExportMessage `json:"messages"`
	}

	export := ExportChat{
		ID:        chat.ID,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
	if opts.IncludeMetadata {
		export.ThreadID = chat.ThreadID
	}

	for _, msg := range chat.Messages {
		if msg.Failed() && !opts.IncludeFailed {
			continue
		}
		export.Messages = append(export.Messages, ExportMessage{
			Role:      msg.Role,
			Content:   msg.Content,
			Status:    msg.Status,
			Timestamp: msg.CreatedAt,
		})
	}
	if export.Messages == nil {
		export.Messages = []ExportMessage{}
	}

	return json.MarshalIndent(export, "", "  ")
}

// SearchResult represents a search match in the archive
type SearchResult struct {
	Chat         *models.Chat
	MatchSnippet string // Snippet where the term was found
	MatchField   string // "title" or "content"
	MatchIndex   int    // Message index if MatchField is "content", -1 for title
}

// SearchChats searches chat titles and optionally message content
func (s *Store) SearchChats(query string, searchContent bool) ([]*SearchResult, error) {
	chats, err := s.ListChats()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var results []*SearchResult

	for _, chat := range chats {
		if strings.Contains(strings.ToLower(chat.Title), queryLower) {
			results = append(results, &SearchResult{
				Chat:         chat,
				MatchSnippet: chat.Title,
				MatchField:   "title",
				MatchIndex:   -1,
			})
			continue // Don't search content if title matched
		}

		if searchContent {
			for i, msg := range chat.Messages {
				if strings.Contains(strings.ToLower(msg.Content), queryLower) {
					results = append(results, &SearchResult{
						Chat:         chat,
						MatchSnippet: extractSnippet(msg.Content, query, 100),
						MatchField:   "content",
						MatchIndex:   i,
					})
					break // Only one match per chat
				}
			}
		}
	}

	return results, nil
}

// extractSnippet extracts a snippet around the first occurrence of query
func extractSnippet(content, query string, maxLen int) string {
	contentLower := strings.ToLower(content)
	queryLower := strings.ToLower(query)

	idx := strings.Index(contentLower, queryLower)
	if idx == -1 {
		if len(content) > maxLen {
			return content[:maxLen] + "..."
		}
		return content
	}

	half := maxLen / 2
	start := idx - half
	end := idx + len(query) + half

	if start < 0 {
		start = 0
		end = maxLen
	}
	if end > len(content) {
		end = len(content)
		start = end - maxLen
		if start < 0 {
			start = 0
		}
	}

	snippet := content[start:end]

	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}

	return snippet
}

// FormatRelativeTime formats a time as a short relative string
func FormatRelativeTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(diff.Hours()/24/7))
	case diff < 365*24*time.Hour:
		return fmt.Sprintf("%dmo ago", int(diff.Hours()/24/30))
	default:
		return t.Format("2006-01-02")
	}
}
