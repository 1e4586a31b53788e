package render

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsKnownStyle(t *testing.T) {
	testCases := []struct {
		style string
		want  bool
	}{
		{"dark", true},
		{"light", true},
		{"dracula", true},
		{"tokyo-night", true},
		{"notty", true},
		{"ascii", true},
		{"auto", true},
		{"solarized", false},
		{"", false},
		{"/nonexistent/theme.json", false},
	}

	for _, tc := range testCases {
		if got := IsKnownStyle(tc.style); got != tc.want {
			t.Errorf("IsKnownStyle(%q) = %v, want %v", tc.style, got, tc.want)
		}
	}
}

func TestIsKnownStyle_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("failed to write style file: %v", err)
	}

	if !IsKnownStyle(path) {
		t.Error("existing .json file should be a known style")
	}
}

func TestStyleNames(t *testing.T) {
	names := StyleNames()
	if len(names) == 0 {
		t.Fatal("expected at least one style")
	}

	found := make(map[string]bool)
	for _, name := range names {
		if name == "" {
			t.Error("style name should not be empty")
		}
		found[name] = true
	}

	for _, want := range []string{"dark", "light", "notty"} {
		if !found[want] {
			t.Errorf("style %q missing from StyleNames", want)
		}
	}
}

func TestAvailableStyles_HaveDescriptions(t *testing.T) {
	for _, style := range AvailableStyles() {
		if style.Description == "" {
			t.Errorf("style %q has no description", style.Name)
		}
	}
}

func TestDefaultStyleIsKnown(t *testing.T) {
	if !IsKnownStyle(DefaultStyle) {
		t.Errorf("default style %q should be known", DefaultStyle)
	}
}
