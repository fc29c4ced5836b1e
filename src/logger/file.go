package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileLogger appends one text line per event to a processing log file.
// It is safe for concurrent use.
type FileLogger struct {
	file   *os.File
	logger *slog.Logger
}

// NewFileLogger opens (or creates) path for appending. Debug events are
// written only when debug is true.
func NewFileLogger(path string, debug bool) (*FileLogger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open processing log: %w", err)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: level})

	return &FileLogger{file: file, logger: slog.New(handler)}, nil
}

// Path returns the file being written.
func (f *FileLogger) Path() string {
	return f.file.Name()
}

func (f *FileLogger) Info(msg string, args ...interface{}) {
	f.log(slog.LevelInfo, msg, args)
}

func (f *FileLogger) Warn(msg string, args ...interface{}) {
	f.log(slog.LevelWarn, msg, args)
}

func (f *FileLogger) Error(msg string, args ...interface{}) {
	f.log(slog.LevelError, msg, args)
}

func (f *FileLogger) Debug(msg string, args ...interface{}) {
	f.log(slog.LevelDebug, msg, args)
}

func (f *FileLogger) log(level slog.Level, msg string, args []interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	f.logger.Log(context.Background(), level, msg)
}

// Close flushes and closes the log file.
func (f *FileLogger) Close() error {
	if err := f.file.Sync(); err != nil {
		f.file.Close()
		return fmt.Errorf("failed to sync processing log: %w", err)
	}
	return f.file.Close()
}
