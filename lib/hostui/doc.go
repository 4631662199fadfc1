// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostui is the interactive host for the bridge: a bubbletea
// program whose Update loop plays the part of the host application's
// main thread.
//
// The model owns three things:
//
//   - The poll schedule. While a server runs, a tea.Tick chain calls
//     the consumer's Poll every poll interval from inside Update, so
//     delivered scripts are loaded on the same goroutine that renders
//     the UI. The chain ends by itself when Poll reports that no server
//     is running and is re-armed by the next successful start.
//   - The status panel: whether the TCP server is running, its address
//     and port, the sIBL GUI executable, and the most recent loads.
//   - The key bindings: start, stop, launch sIBL GUI, and quit.
//     Quitting stops the server before the program exits.
//
// Background log records reach the status line through
// [TUILogHandler], which turns slog records into tea messages instead
// of writing to the terminal the alt screen occupies.
package hostui
