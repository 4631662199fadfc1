// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package netutil

import (
	"errors"
	"syscall"
)

// On Windows SO_REUSEADDR lets a second process steal a bound port, so
// it is left unset. A stopped listener releases its port immediately
// there anyway.
func reuseAddressControl(network, address string, raw syscall.RawConn) error {
	return nil
}

// Winsock codes the runtime returns for bind failures and torn-down
// connections.
const (
	wsaeacces       syscall.Errno = 10013
	wsaeaddrinuse   syscall.Errno = 10048
	wsaeconnaborted syscall.Errno = 10053
	wsaeconnreset   syscall.Errno = 10054
)

// IsAddressInUse reports whether err is a bind failure caused by
// another socket already owning the address.
func IsAddressInUse(err error) bool {
	return errors.Is(err, wsaeaddrinuse) || errors.Is(err, syscall.EADDRINUSE)
}

// IsPermissionDenied reports whether err is a bind failure caused by
// missing privileges.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, wsaeacces) || errors.Is(err, syscall.EACCES)
}

func isConnectionReset(err error) bool {
	return errors.Is(err, wsaeconnreset) || errors.Is(err, wsaeconnaborted) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE)
}
