// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for the bridge
// binaries: fatal error reporting to stderr for errors that reach
// main() before or after the structured logger exists, and the exit
// code convention that goes with it.
package process
