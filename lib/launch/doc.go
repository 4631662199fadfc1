// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package launch starts sIBL GUI for the user.
//
// [Launcher.Launch] refuses to start a second copy of an executable
// that is already running and instead reports the running instance's
// PID. Running processes are enumerated through gopsutil, which works
// the same way on Linux, macOS and Windows. A started process is put in
// its own process group so that an interrupt aimed at the bridge does
// not reach it, and it is reaped on a background goroutine.
package launch
