package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// newLogger returns a text logger writing to path, or to stderr when path is
// "-". The returned closer releases the log file.
func newLogger(path string, debug bool) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closer := func() error { return nil }

	if path != "-" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closer = f.Close
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, closer, nil
}
