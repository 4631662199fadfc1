// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package netutil

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddressControl sets SO_REUSEADDR on the socket before bind.
func reuseAddressControl(network, address string, raw syscall.RawConn) error {
	var setError error
	err := raw.Control(func(fd uintptr) {
		setError = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return setError
}

// IsAddressInUse reports whether err is a bind failure caused by
// another socket already owning the address (EADDRINUSE).
func IsAddressInUse(err error) bool {
	return errors.Is(err, unix.EADDRINUSE)
}

// IsPermissionDenied reports whether err is a bind failure caused by
// missing privileges, e.g. a port below 1024 (EACCES).
func IsPermissionDenied(err error) bool {
	return errors.Is(err, unix.EACCES)
}

func isConnectionReset(err error) bool {
	return errors.Is(err, unix.EPIPE) || errors.Is(err, unix.ECONNRESET)
}
