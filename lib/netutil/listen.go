// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"net"
)

// Listen binds a TCP listener on address with address reuse enabled.
func Listen(ctx context.Context, address string) (net.Listener, error) {
	config := net.ListenConfig{Control: reuseAddressControl}
	return config.Listen(ctx, "tcp", address)
}
