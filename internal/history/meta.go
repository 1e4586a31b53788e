package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	metaFileName = "meta.json"
	metaVersion  = 1
)

// ChatMeta stores archive-level metadata for one chat
type ChatMeta struct {
	ID         string `json:"id"`
	Title      string `json:"title"` // Cached title for quick listing
	IsFavorite bool   `json:"is_favorite"`
}

// ArchiveMeta stores display order and favorites across the archive
type ArchiveMeta struct {
	Version int                  `json:"version"` // For future migration
	Order   []string             `json:"order"`   // IDs in display order
	Meta    map[string]*ChatMeta `json:"meta"`    // Metadata per ID
}

func newArchiveMeta() *ArchiveMeta {
	return &ArchiveMeta{
		Version: metaVersion,
		Order:   []string{},
		Meta:    make(map[string]*ChatMeta),
	}
}

func (s *Store) metaPath() string {
	return filepath.Join(s.baseDir, metaFileName)
}

// loadMeta loads meta.json, or a fresh ArchiveMeta if it doesn't exist
func (s *Store) loadMeta() (*ArchiveMeta, error) {
	data, err := os.ReadFile(s.metaPath())
	if err != nil {
		if os.IsNotExist(err) {
			return newArchiveMeta(), nil
		}
		return nil, fmt.Errorf("failed to read meta file: %w", err)
	}

	var meta ArchiveMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta file: %w", err)
	}

	if meta.Meta == nil {
		meta.Meta = make(map[string]*ChatMeta)
	}
	if meta.Order == nil {
		meta.Order = []string{}
	}

	return &meta, nil
}

func (s *Store) saveMeta(meta *ArchiveMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}

	if err := os.WriteFile(s.metaPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write meta file: %w", err)
	}

	return nil
}

// removeFromMeta drops a chat from order and metadata
func (s *Store) removeFromMeta(id string) error {
	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	newOrder := make([]string, 0, len(meta.Order))
	for _, oid := range meta.Order {
		if oid != id {
			newOrder = append(newOrder, oid)
		}
	}
	meta.Order = newOrder
	delete(meta.Meta, id)

	return s.saveMeta(meta)
}

// updateTitleInMeta refreshes the cached title, if the chat is tracked
func (s *Store) updateTitleInMeta(id, title string) error {
	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	if m, exists := meta.Meta[id]; exists {
		m.Title = title
		return s.saveMeta(meta)
	}

	return nil
}

// ensureTracked adds the chat to the metadata map and order if absent
func (s *Store) ensureTracked(meta *ArchiveMeta, id, title string) *ChatMeta {
	if m, exists := meta.Meta[id]; exists {
		return m
	}

	m := &ChatMeta{ID: id, Title: title}
	meta.Meta[id] = m

	for _, oid := range meta.Order {
		if oid == id {
			return m
		}
	}
	meta.Order = append(meta.Order, id)
	return m
}

// IsFavorite returns whether a chat is marked as favorite
func (s *Store) IsFavorite(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.loadMeta()
	if err != nil {
		return false, err
	}

	if m, exists := meta.Meta[id]; exists {
		return m.IsFavorite, nil
	}

	return false, nil
}

// ToggleFavorite flips the favorite flag and returns the new value
func (s *Store) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, err := s.readChat(id)
	if err != nil {
		return false, err
	}

	meta, err := s.loadMeta()
	if err != nil {
		return false, err
	}

	m := s.ensureTracked(meta, id, chat.Title)
	m.IsFavorite = !m.IsFavorite

	if err := s.saveMeta(meta); err != nil {
		return false, err
	}

	return m.IsFavorite, nil
}

// SetFavorite sets the favorite flag to a specific value
func (s *Store) SetFavorite(id string, isFavorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, err := s.readChat(id)
	if err != nil {
		return err
	}

	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	s.ensureTracked(meta, id, chat.Title).IsFavorite = isFavorite

	return s.saveMeta(meta)
}

// MoveChat moves a chat to a new position in the display order.
// newIndex is 0-based and clamped to the list bounds.
func (s *Store) MoveChat(id string, newIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	currentIndex := -1
	for i, oid := range meta.Order {
		if oid == id {
			currentIndex = i
			break
		}
	}
	if currentIndex == -1 {
		return fmt.Errorf("conversation not found in order: %s", id)
	}

	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex >= len(meta.Order) {
		newIndex = len(meta.Order) - 1
	}
	if currentIndex == newIndex {
		return nil
	}

	meta.Order = append(meta.Order[:currentIndex], meta.Order[currentIndex+1:]...)
	meta.Order = append(meta.Order[:newIndex], append([]string{id}, meta.Order[newIndex:]...)...)

	return s.saveMeta(meta)
}

// SwapChats swaps the display positions of two chats
func (s *Store) SwapChats(id1, id2 string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	idx1, idx2 := -1, -1
	for i, oid := range meta.Order {
		if oid == id1 {
			idx1 = i
		}
		if oid == id2 {
			idx2 = i
		}
	}
	if idx1 == -1 {
		return fmt.Errorf("conversation not found: %s", id1)
	}
	if idx2 == -1 {
		return fmt.Errorf("conversation not found: %s", id2)
	}

	meta.Order[idx1], meta.Order[idx2] = meta.Order[idx2], meta.Order[idx1]

	return s.saveMeta(meta)
}

// GetOrderIndex returns the chat's position in the display order, or -1
func (s *Store) GetOrderIndex(id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.loadMeta()
	if err != nil {
		return -1, err
	}

	for i, oid := range meta.Order {
		if oid == id {
			return i, nil
		}
	}

	return -1, nil
}

// cleanOrphanedMeta drops metadata entries whose chat files are gone.
// Reports whether anything changed. Caller holds s.mu.
func (s *Store) cleanOrphanedMeta(meta *ArchiveMeta, existing map[string]bool) bool {
	changed := false

	newOrder := make([]string, 0, len(meta.Order))
	for _, id := range meta.Order {
		if existing[id] {
			newOrder = append(newOrder, id)
		} else {
			changed = true
		}
	}
	meta.Order = newOrder

	for id := range meta.Meta {
		if !existing[id] {
			delete(meta.Meta, id)
			changed = true
		}
	}

	return changed
}
