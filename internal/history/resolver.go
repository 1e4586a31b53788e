package history

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rcanete/orion/internal/models"
)

// Resolver resolves user-friendly references to archived chat IDs
type Resolver struct {
	store *Store
}

// NewResolver creates a new reference resolver
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve converts a user-friendly reference to a chat ID
//
// Supported references:
//   - "@last" - most recently updated chat
//   - "@first" - oldest chat in the archive
//   - "1", "2", "3" - by index (1-based, from most recent)
//   - "substring" - match on title (error if multiple matches)
//   - "chat-..." - direct ID
func (r *Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	chats, err := r.store.ListChats()
	if err != nil {
		return "", fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(chats) == 0 {
		return "", fmt.Errorf("no conversations found")
	}

	switch strings.ToLower(ref) {
	case "@last":
		// Already sorted by UpdatedAt descending
		return chats[0].ID, nil
	case "@first":
		return chats[len(chats)-1].ID, nil
	}

	// Numeric index (1-based)
	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(chats) {
			return "", fmt.Errorf("index %d out of range (1-%d)", index, len(chats))
		}
		return chats[index-1].ID, nil
	}

	// Direct ID
	if strings.HasPrefix(ref, "chat-") {
		for _, chat := range chats {
			if chat.ID == ref {
				return chat.ID, nil
			}
		}
		return "", fmt.Errorf("conversation not found: %s", ref)
	}

	// Substring match on title (case-insensitive)
	refLower := strings.ToLower(ref)
	var matches []*models.Chat
	for _, chat := range chats {
		if strings.Contains(strings.ToLower(chat.Title), refLower) {
			matches = append(matches, chat)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no conversation matching '%s'", ref)
	case 1:
		return matches[0].ID, nil
	default:
		var titles []string
		for _, m := range matches {
			titles = append(titles, fmt.Sprintf("'%s'", m.Title))
		}
		return "", fmt.Errorf("multiple conversations match '%s': %s. Use ID or be more specific",
			ref, strings.Join(titles, ", "))
	}
}

// ResolveChat resolves a reference and loads the chat it names
func (r *Resolver) ResolveChat(ref string) (*models.Chat, error) {
	id, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}

	return r.store.GetChat(id)
}

// ListAliases returns information about supported references
func ListAliases() string {
	return `Supported references:
  @last          Most recently updated conversation
  @first         Oldest conversation in the archive
  1, 2, 3        By index (1-based, from most recent)
  "text"         Search by title substring
  chat-...       Direct conversation ID`
}
