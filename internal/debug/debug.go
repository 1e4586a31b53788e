// Package debug provides a file-backed logger for TUI sessions, where
// writing to stdout would corrupt the terminal.
package debug

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// Logger returns a singleton slog logger. Logging is enabled by setting
// ORION_DEBUG=1; otherwise all records are discarded.
func Logger() *slog.Logger {
	once.Do(func() {
		if os.Getenv("ORION_DEBUG") != "1" {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			return
		}
		f, err := os.OpenFile(logPath(), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			return
		}
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	})
	return logger
}

func logPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "orion-debug.log")
	}
	return filepath.Join(home, ".orion", "debug.log")
}
