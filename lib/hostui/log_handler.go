// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package hostui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the model for display in the
// status line.
type logRecordMsg struct {
	// Sequence orders records; the model ignores a record older than
	// the one it is showing.
	Sequence uint64

	// Summary is the one-line "message (key=value, ...)" text.
	Summary string

	Level slog.Level
}

// logRecordFadeMsg clears the status line if it still shows the record
// with the same sequence number.
type logRecordFadeMsg struct {
	Sequence uint64
}

// logRecordFadeDelay is how long a record stays in the status line.
const logRecordFadeDelay = 5 * time.Second

// messageSender is the part of *tea.Program the handler uses.
type messageSender interface {
	Send(message tea.Msg)
}

// logTarget is shared by a handler and every handler derived from it.
type logTarget struct {
	program  atomic.Pointer[messageSender]
	sequence atomic.Uint64
}

// TUILogHandler is a slog.Handler that routes records into a bubbletea
// program as messages. Records below the configured level are dropped,
// as are records arriving before SetProgram.
//
// Delivery is asynchronous: the bridge logs from inside Update (a start
// or a load runs there), and a synchronous Send from the event loop's
// own goroutine would never be received.
type TUILogHandler struct {
	level  slog.Level
	target *logTarget
	attrs  []slog.Attr
	groups []string
}

// NewTUILogHandler creates a handler that delivers records at or above
// level. Call SetProgram once the tea.Program exists.
func NewTUILogHandler(level slog.Level) *TUILogHandler {
	return &TUILogHandler{
		level:  level,
		target: &logTarget{},
	}
}

// SetProgram sets the program that receives records. Propagates to all
// handlers derived via WithAttrs/WithGroup.
func (handler *TUILogHandler) SetProgram(program *tea.Program) {
	handler.setSender(program)
}

func (handler *TUILogHandler) setSender(sender messageSender) {
	handler.target.program.Store(&sender)
}

// Enabled reports whether records at level are delivered.
func (handler *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level
}

// Handle formats the record and sends it to the program.
func (handler *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	sender := handler.target.program.Load()
	if sender == nil {
		return nil
	}

	message := logRecordMsg{
		Sequence: handler.target.sequence.Add(1),
		Summary:  handler.summarize(record),
		Level:    record.Level,
	}
	go (*sender).Send(message)
	return nil
}

// summarize builds "message (key=value, ...)", handler attributes
// first, group names joined with dots.
func (handler *TUILogHandler) summarize(record slog.Record) string {
	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}

	var parts []string
	for _, attr := range handler.attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value))
		return true
	})

	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

// WithAttrs returns a handler with attrs appended, sharing the program.
func (handler *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}
	derived := &TUILogHandler{
		level:  handler.level,
		target: handler.target,
		attrs:  sliceClone(handler.attrs),
		groups: sliceClone(handler.groups),
	}
	for _, attr := range attrs {
		derived.attrs = append(derived.attrs, slog.Attr{Key: prefix + attr.Key, Value: attr.Value})
	}
	return derived
}

// WithGroup returns a handler with name appended to the group path,
// sharing the program.
func (handler *TUILogHandler) WithGroup(name string) slog.Handler {
	return &TUILogHandler{
		level:  handler.level,
		target: handler.target,
		attrs:  sliceClone(handler.attrs),
		groups: append(sliceClone(handler.groups), name),
	}
}

func sliceClone[T any](source []T) []T {
	if source == nil {
		return nil
	}
	result := make([]T, len(source))
	copy(result, source)
	return result
}
