// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge receives "script ready" notifications from sIBL GUI and
// hands them to the host's main loop.
//
// sIBL GUI writes the path of a generated loader script to a TCP
// connection and closes it. The host must pick the path up without
// blocking its own loop, and must only perform the load from that loop,
// because loading mutates host state that is not safe to touch from a
// network goroutine.
//
// The package is a producer/consumer pair joined by a single-slot
// mailbox:
//
//   - [Server] binds the listener (SO_REUSEADDR, so a stop/start cycle on
//     the same port succeeds) and accepts on a background goroutine, one
//     goroutine per connection. Each connection carries exactly one
//     payload of at most [DefaultMaxPayloadSize] bytes; nothing is
//     written back.
//   - [Pending] is the mailbox. Handlers overwrite it (latest wins, no
//     queue); [Pending.ReadAndClear] drains it.
//   - [Consumer] is polled from the host's main loop every
//     [DefaultPollInterval]. It is the only code path that reaches the
//     [Loader], so a load can never run on a network goroutine. When no
//     server is running the consumer reports that it is finished and
//     the host stops scheduling it.
//   - [Manager] owns the Stopped/Running state machine. Start while
//     running and Stop while stopped are no-ops. A failed bind returns
//     a [*BindError] that matches [ErrAddressInUse] or
//     [ErrPermissionDenied] under errors.Is.
//
// Wire format: connect, write one UTF-8 path, close. Surrounding
// whitespace is stripped. Payloads that are empty or not valid UTF-8
// are dropped without touching the mailbox.
package bridge
