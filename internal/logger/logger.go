// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger builds the structured loggers used by the command line
// tools.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with evaluation specific helpers.
type Logger struct {
	*slog.Logger
}

// New returns a logger writing to stderr at the given level.  format is
// "json" or "text".
func New(level, format string) *Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return NewWithWriter(io.Discard, "error", "text")
}

// WithCaller returns a logger tagging records with a caller identifier.
func (l *Logger) WithCaller(caller string) *Logger {
	return &Logger{Logger: l.With("caller", caller)}
}

// WithRun returns a logger tagging records with a run name.
func (l *Logger) WithRun(run string) *Logger {
	return &Logger{Logger: l.With("run", run)}
}

// WithError returns a logger carrying err.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.With("error", err.Error())}
}

// ParseLevel maps a level name to a slog level.  Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
