package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// DebugLogName is the default debug log file, written to the working directory.
const DebugLogName = "lidtone-debug.log"

// OpenDebugLog appends text slog records to path, creating it if needed. Every
// record carries the session ID so several runs can share one file. The returned
// closer must be closed when the run ends.
func OpenDebugLog(path, sessionID string, verbose bool) (*slog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return NewDebugLogger(f, sessionID, verbose), f, nil
}

// NewDebugLogger writes text records to w. Debug records are kept only when verbose.
func NewDebugLogger(w io.Writer, sessionID string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("session", sessionID)
}
