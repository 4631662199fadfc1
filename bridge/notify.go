// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"net"
)

// Notify is the client side of the wire protocol, as sIBL GUI speaks
// it: connect to address, write path, close. There is no reply; a nil
// error means the bytes were handed to the kernel, not that the host
// loaded anything.
func Notify(ctx context.Context, address, path string) error {
	if len(path) > DefaultMaxPayloadSize {
		return fmt.Errorf("bridge: path is %d bytes, limit is %d", len(path), DefaultMaxPayloadSize)
	}
	var dialer net.Dialer
	connection, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("bridge: connecting to %s: %w", address, err)
	}
	defer connection.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = connection.SetWriteDeadline(deadline)
	}
	if _, err := connection.Write([]byte(path)); err != nil {
		return fmt.Errorf("bridge: writing to %s: %w", address, err)
	}
	return connection.Close()
}
