// Package render turns markdown into styled terminal output.
package render

import (
	"os"

	"github.com/rcanete/orion/internal/config"
)

// Options configures the markdown renderer behavior.
type Options struct {
	// Width defines the maximum output width (default: 80)
	Width int

	// Style is a glamour style name or a path to a style JSON file
	Style string

	// PreserveNewLines preserves original line breaks
	PreserveNewLines bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            DefaultStyle,
		PreserveNewLines: true,
	}
}

// WithWidth returns Options with the specified width.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// WithPreserveNewLines returns Options with newline preservation enabled/disabled.
func (o Options) WithPreserveNewLines(enabled bool) Options {
	o.PreserveNewLines = enabled
	return o
}

// FromConfig derives render options from the user configuration.
// The GLAMOUR_STYLE environment variable overrides the configured style.
func FromConfig(cfg config.Config) Options {
	opts := DefaultOptions()

	if cfg.Markdown.Style != "" {
		opts.Style = cfg.Markdown.Style
	}
	opts.PreserveNewLines = cfg.Markdown.PreserveNewLines

	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}

	return opts
}

// FromConfigWithWidth derives options from config at a specific width.
func FromConfigWithWidth(cfg config.Config, width int) Options {
	return FromConfig(cfg).WithWidth(width)
}

// Markdown renders markdown content for terminal display.
// Uses a pooled renderer for better performance and thread safety.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := pool.get(opts)
	if err != nil {
		return "", err
	}
	defer pool.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownWithWidth is a convenience function for rendering with specific width.
// Uses default options with the specified width.
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}
