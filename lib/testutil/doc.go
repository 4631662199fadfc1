// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve, and [RequireEventually] polls a condition that another
// goroutine will make true (a handler finishing its write, a server
// finishing its shutdown). These are the only places in the test suite
// that use real wall-clock timeouts; everything that schedules polls
// goes through lib/clock.
//
// All helpers call t.Fatalf on failure.
package testutil
