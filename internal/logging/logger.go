// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the operator-facing diagnostic channel.
//
// The TUI owns stdout and stderr while it runs, so diagnostics go to a
// file under the dot-dir instead. Failures here degrade to a silent
// logger; diagnostics are never worth crashing the chat over.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Level controls how much gets written.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger is a leveled wrapper around a standard logger.
type Logger struct {
	level Level
	inner *log.Logger
	file  *os.File
}

// Open creates a logger appending to the given file path, creating parent
// directories as needed. On any failure it returns a logger that discards
// everything, plus the error for the caller to surface once.
func Open(path string, level Level) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return discard(level), err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return discard(level), err
	}
	return &Logger{
		level: level,
		inner: log.New(f, "", log.LstdFlags),
		file:  f,
	}, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return discard(LevelError)
}

func discard(level Level) *Logger {
	return &Logger{level: level, inner: log.New(io.Discard, "", 0)}
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, "ERROR", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, "WARN", format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, "INFO", format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, "DEBUG", format, args...)
}

func (l *Logger) logf(level Level, tag, format string, args ...any) {
	if level > l.level {
		return
	}
	l.inner.Print("[" + tag + "] " + fmt.Sprintf(format, args...))
}
