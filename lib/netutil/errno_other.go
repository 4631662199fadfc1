// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix && !windows

package netutil

import (
	"errors"
	"io/fs"
	"strings"
	"syscall"
)

// Plan 9, js/wasm and wasip1 expose no socket options, so listeners
// are bound without SO_REUSEADDR.
func reuseAddressControl(network, address string, raw syscall.RawConn) error {
	return nil
}

// IsAddressInUse reports whether err is a bind failure caused by
// another socket already owning the address. These platforms have no
// common errno for it, so the message text is matched.
func IsAddressInUse(err error) bool {
	return errorTextContains(err, "address already in use", "address in use")
}

// IsPermissionDenied reports whether err is a bind failure caused by
// missing privileges.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}

func isConnectionReset(err error) bool {
	return errorTextContains(err, "connection reset", "broken pipe")
}

func errorTextContains(err error, fragments ...string) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	for _, fragment := range fragments {
		if strings.Contains(text, fragment) {
			return true
		}
	}
	return false
}
