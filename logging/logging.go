package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// New configures a text slog logger on w and makes it the default, so the
// stdlib log package routes through it too.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// NewFile logs to path, truncating it. Used when stderr belongs to the TUI.
func NewFile(path string, debug bool) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, err
	}
	return New(f, debug), f.Close, nil
}

func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
