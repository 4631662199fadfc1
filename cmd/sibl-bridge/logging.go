// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/jedfrechette/sibl-gui-for-blender/lib/config"
)

func isTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
}

// newLogHandler builds the headless log handler: text on a terminal and
// JSON otherwise unless log.format says which, plus a JSON file handler
// when logOutput is set. The returned function closes the file.
func newLogHandler(logConfig config.LogConfig, w io.Writer, terminal bool, logOutput string) (slog.Handler, func(), error) {
	options := &slog.HandlerOptions{Level: logConfig.SlogLevel()}

	var handler slog.Handler
	switch {
	case logConfig.Format == "text", logConfig.Format == "auto" && terminal:
		handler = slog.NewTextHandler(w, options)
	default:
		handler = slog.NewJSONHandler(w, options)
	}

	if logOutput == "" {
		return handler, func() {}, nil
	}
	fileHandler, closeFile, err := openFileLogHandler(logOutput, logConfig.SlogLevel())
	if err != nil {
		return nil, nil, usageErrorf("cannot open log file %s: %w", logOutput, err)
	}
	return fanoutHandler{handler, fileHandler}, closeFile, nil
}

// openFileLogHandler creates a slog.JSONHandler writing to path. The
// file is created or truncated.
func openFileLogHandler(path string, level slog.Level) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler sends each record to every handler enabled for its
// level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
