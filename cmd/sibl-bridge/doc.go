// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Sibl-bridge receives load requests from sIBL GUI over TCP and loads
// the delivered scripts on its main loop.
//
// sIBL GUI connects to host:port (localhost:2048 by default), writes the
// path of a generated script and closes. The bridge keeps only the most
// recent path and loads it at the next poll of its main loop, either
// recording the load or running the configured load command with the
// path appended.
//
// Interactive mode (default) shows a status panel with key bindings to
// start and stop the server and to launch sIBL GUI. Headless mode
// (--headless) starts the server immediately and polls until SIGINT or
// SIGTERM.
package main
