// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides the socket helpers behind the bridge
// listener.
//
// [Listen] binds a TCP listener with SO_REUSEADDR set before bind, so a
// bridge that was just stopped can be restarted on the same port while
// the previous socket still lingers in TIME_WAIT.
//
// [IsAddressInUse] and [IsPermissionDenied] classify bind failures by
// errno so callers can tell "another process owns this port" apart from
// a generic I/O failure. [IsExpectedCloseError] classifies the errors a
// connection read produces when the peer or the server tears the
// connection down.
package netutil
