package render

import (
	"os"
	"strings"
)

// DefaultStyle is used when the configuration names no markdown style.
const DefaultStyle = "dark"

// StyleInfo describes a selectable markdown style for display purposes.
type StyleInfo struct {
	Name        string
	Description string
}

// AvailableStyles lists the glamour styles the client exposes.
func AvailableStyles() []StyleInfo {
	return []StyleInfo{
		{Name: "dark", Description: "Dark theme (default)"},
		{Name: "light", Description: "Light theme for bright terminals"},
		{Name: "dracula", Description: "Dracula color scheme"},
		{Name: "tokyo-night", Description: "Tokyo Night color scheme"},
		{Name: "pink", Description: "Pink accent scheme"},
		{Name: "auto", Description: "Pick dark or light from the terminal"},
		{Name: "notty", Description: "Plain text (no styling)"},
		{Name: "ascii", Description: "ASCII-only output"},
	}
}

// StyleNames returns just the style names for selection.
func StyleNames() []string {
	styles := AvailableStyles()
	names := make([]string, len(styles))
	for i, s := range styles {
		names[i] = s.Name
	}
	return names
}

// IsKnownStyle reports whether style names a built-in glamour style or
// points at an existing style JSON file.
func IsKnownStyle(style string) bool {
	for _, s := range AvailableStyles() {
		if s.Name == style {
			return true
		}
	}
	if strings.HasSuffix(style, ".json") {
		_, err := os.Stat(style)
		return err == nil
	}
	return false
}
