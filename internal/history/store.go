// Package history provides the local conversation archive.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rcanete/orion/internal/config"
	"github.com/rcanete/orion/internal/models"
)

// Store manages archived chats, one JSON file per chat
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// NewStore creates a history store rooted at dir, creating it if needed
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &Store{
		baseDir: dir,
	}, nil
}

// DefaultStore creates a store at the standard location under ~/.orion
func DefaultStore() (*Store, error) {
	dir, err := config.GetHistoryDir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir)
}

// SaveChat writes a chat snapshot to the archive, replacing any previous
// version. The live session owns mutation; the archive only sees snapshots.
func (s *Store) SaveChat(chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat.ID == "" {
		return fmt.Errorf("chat has no id")
	}
	if chat.UpdatedAt.IsZero() {
		chat.UpdatedAt = time.Now()
	}

	return s.writeChat(chat)
}

// GetChat retrieves an archived chat by ID
func (s *Store) GetChat(id string) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readChat(id)
}

// ListChats returns all archived chats, most recently updated first.
// Corrupted files are skipped; orphaned metadata entries are pruned.
func (s *Store) ListChats() ([]*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	existing := make(map[string]bool)
	var chats []*models.Chat
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if entry.Name() == metaFileName {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		chat, err := s.readChat(id)
		if err != nil {
			continue // Skip corrupted files
		}
		existing[chat.ID] = true
		chats = append(chats, chat)
	}

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})

	// Self-heal metadata that points at deleted files
	if meta, err := s.loadMeta(); err == nil {
		if s.cleanOrphanedMeta(meta, existing) {
			_ = s.saveMeta(meta)
		}
	}

	return chats, nil
}

// DeleteChat removes a chat from the archive
func (s *Store) DeleteChat(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.chatPath(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("conversation not found: %s", id)
		}
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	return s.removeFromMeta(id)
}

// RenameChat updates an archived chat's title
func (s *Store) RenameChat(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, err := s.readChat(id)
	if err != nil {
		return err
	}

	chat.Title = title
	chat.UpdatedAt = time.Now()

	if err := s.writeChat(chat); err != nil {
		return err
	}
	return s.updateTitleInMeta(id, title)
}

// ClearAll deletes every archived chat and the metadata file
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to read history directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.baseDir, entry.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// Len returns the number of archived chats
func (s *Store) Len() (int, error) {
	chats, err := s.ListChats()
	if err != nil {
		return 0, err
	}
	return len(chats), nil
}

// DeriveTitle builds a chat title from the first user message. Long
// content is truncated on a rune boundary.
func DeriveTitle(content string) string {
	title := strings.TrimSpace(content)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}

	runes := []rune(title)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return title
}

// Internal methods

func (s *Store) chatPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *Store) readChat(id string) (*models.Chat, error) {
	path := s.chatPath(id)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("conversation not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	var chat models.Chat
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, fmt.Errorf("failed to parse conversation: %w", err)
	}
	if chat.ID == "" {
		chat.ID = id
	}

	return &chat, nil
}

func (s *Store) writeChat(chat *models.Chat) error {
	data, err := json.MarshalIndent(chat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	path := s.chatPath(chat.ID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}

	return nil
}
