package history

import (
	"testing"
	"time"
)

func seedChats(t *testing.T, store *Store, ids ...string) {
	t.Helper()
	base := time.Now()
	for i, id := range ids {
		chat := testChat(id, "chat "+id, base.Add(time.Duration(i)*time.Minute))
		if err := store.SaveChat(chat); err != nil {
			t.Fatalf("SaveChat(%s) failed: %v", id, err)
		}
	}
}

func TestToggleFavorite(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	seedChats(t, store, "chat-fav00000001")

	isFav, err := store.ToggleFavorite("chat-fav00000001")
	if err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if !isFav {
		t.Error("expected favorite to be true after first toggle")
	}

	isFav, err = store.IsFavorite("chat-fav00000001")
	if err != nil {
		t.Fatalf("IsFavorite failed: %v", err)
	}
	if !isFav {
		t.Error("IsFavorite should return true")
	}

	isFav, err = store.ToggleFavorite("chat-fav00000001")
	if err != nil {
		t.Fatalf("second ToggleFavorite failed: %v", err)
	}
	if isFav {
		t.Error("expected favorite to be false after second toggle")
	}
}

func TestToggleFavorite_NonexistentChat(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	_, err := store.ToggleFavorite("chat-nonexistent")
	if err == nil {
		t.Error("expected error for nonexistent chat")
	}
}

func TestSetFavorite(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	seedChats(t, store, "chat-set00000001")

	if err := store.SetFavorite("chat-set00000001", true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}
	isFav, _ := store.IsFavorite("chat-set00000001")
	if !isFav {
		t.Error("favorite should be set")
	}

	// Setting the same value again is fine
	if err := store.SetFavorite("chat-set00000001", true); err != nil {
		t.Fatalf("repeated SetFavorite failed: %v", err)
	}

	if err := store.SetFavorite("chat-set00000001", false); err != nil {
		t.Fatalf("SetFavorite(false) failed: %v", err)
	}
	isFav, _ = store.IsFavorite("chat-set00000001")
	if isFav {
		t.Error("favorite should be cleared")
	}
}

func TestIsFavorite_UntrackedChat(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	seedChats(t, store, "chat-plain000001")

	// Never toggled: not a favorite, no error
	isFav, err := store.IsFavorite("chat-plain000001")
	if err != nil {
		t.Fatalf("IsFavorite failed: %v", err)
	}
	if isFav {
		t.Error("untracked chat should not be favorite")
	}
}

func TestMoveChat(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	seedChats(t, store, "chat-m1000000001", "chat-m2000000001", "chat-m3000000001")

	// Track all three in order
	for _, id := range []string{"chat-m1000000001", "chat-m2000000001", "chat-m3000000001"} {
		if err := store.SetFavorite(id, false); err != nil {
			t.Fatalf("SetFavorite(%s) failed: %v", id, err)
		}
	}

	if err := store.MoveChat("chat-m3000000001", 0); err != nil {
		t.Fatalf("MoveChat failed: %v", err)
	}

	idx, err := store.GetOrderIndex("chat-m3000000001")
	if err != nil {
		t.Fatalf("GetOrderIndex failed: %v", err)
	}
	if idx != 0 {
		t.Errorf("index = %d, want 0", idx)
	}

	idx, _ = store.GetOrderIndex("chat-m1000000001")
	if idx != 1 {
		t.Errorf("displaced chat index = %d, want 1", idx)
	}
}

func TestMoveChat_ClampsIndex(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	seedChats(t, store, "chat-c1000000001", "chat-c2000000001")
	store.SetFavorite("chat-c1000000001", false)
	store.SetFavorite("chat-c2000000001", false)

	// Far out of range clamps to the end
	if err := store.MoveChat("chat-c1000000001", 99); err != nil {
		t.Fatalf("MoveChat failed: %v", err)
	}
	idx, _ := store.GetOrderIndex("chat-c1000000001")
	if idx != 1 {
		t.Errorf("index = %d, want 1 (clamped)", idx)
	}

	if err := store.MoveChat("chat-c1000000001", -5); err != nil {
		t.Fatalf("MoveChat failed: %v", err)
	}
	idx, _ = store.GetOrderIndex("chat-c1000000001")
	if idx != 0 {
		t.Errorf("index = %d, want 0 (clamped)", idx)
	}
}

func TestMoveChat_Untracked(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	err := store.MoveChat("chat-nonexistent", 0)
	if err == nil {
		t.Error("expected error for untracked chat")
	}
}

func TestSwapChats(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	seedChats(t, store, "chat-s1000000001", "chat-s2000000001")
	store.SetFavorite("chat-s1000000001", false)
	store.SetFavorite("chat-s2000000001", false)

	if err := store.SwapChats("chat-s1000000001", "chat-s2000000001"); err != nil {
		t.Fatalf("SwapChats failed: %v", err)
	}

	idx1, _ := store.GetOrderIndex("chat-s1000000001")
	idx2, _ := store.GetOrderIndex("chat-s2000000001")
	if idx1 != 1 || idx2 != 0 {
		t.Errorf("indexes after swap = %d, %d; want 1, 0", idx1, idx2)
	}
}

func TestSwapChats_MissingChat(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	seedChats(t, store, "chat-s3000000001")
	store.SetFavorite("chat-s3000000001", false)

	if err := store.SwapChats("chat-s3000000001", "chat-nonexistent"); err == nil {
		t.Error("expected error for missing chat")
	}
	if err := store.SwapChats("chat-nonexistent", "chat-s3000000001"); err == nil {
		t.Error("expected error for missing chat")
	}
}

func TestGetOrderIndex_Untracked(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	idx, err := store.GetOrderIndex("chat-nonexistent")
	if err != nil {
		t.Fatalf("GetOrderIndex failed: %v", err)
	}
	if idx != -1 {
		t.Errorf("index = %d, want -1", idx)
	}
}

func TestMetaSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)
	seedChats(t, store, "chat-p1000000001")
	store.SetFavorite("chat-p1000000001", true)

	// A second store over the same directory sees the same metadata
	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	isFav, err := reopened.IsFavorite("chat-p1000000001")
	if err != nil {
		t.Fatalf("IsFavorite failed: %v", err)
	}
	if !isFav {
		t.Error("favorite flag should persist across stores")
	}
}

func TestListChats_PrunesOrphanedMeta(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	seedChats(t, store, "chat-o1000000001", "chat-o2000000001")
	store.SetFavorite("chat-o1000000001", true)
	store.SetFavorite("chat-o2000000001", true)

	// Remove the file behind the store's back, simulating a crashed delete
	if err := store.DeleteChat("chat-o1000000001"); err != nil {
		t.Fatalf("DeleteChat failed: %v", err)
	}
	meta, _ := store.loadMeta()
	meta.Order = append(meta.Order, "chat-ghost000001")
	meta.Meta["chat-ghost000001"] = &ChatMeta{ID: "chat-ghost000001", Title: "ghost"}
	if err := store.saveMeta(meta); err != nil {
		t.Fatalf("saveMeta failed: %v", err)
	}

	if _, err := store.ListChats(); err != nil {
		t.Fatalf("ListChats failed: %v", err)
	}

	meta, _ = store.loadMeta()
	if _, exists := meta.Meta["chat-ghost000001"]; exists {
		t.Error("ghost metadata should be pruned")
	}
	for _, id := range meta.Order {
		if id == "chat-ghost000001" {
			t.Error("ghost id should be pruned from order")
		}
	}
	if _, exists := meta.Meta["chat-o2000000001"]; !exists {
		t.Error("live chat metadata should survive pruning")
	}
}
