// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"

	"github.com/jedfrechette/sibl-gui-for-blender/lib/netutil"
)

var (
	// ErrAddressInUse matches a *BindError whose address is owned by
	// another socket.
	ErrAddressInUse = errors.New("bridge: address already in use")

	// ErrPermissionDenied matches a *BindError caused by missing
	// privileges for the address.
	ErrPermissionDenied = errors.New("bridge: permission denied")

	// ErrInvalidUTF8 is the reason for dropping a payload that does not
	// decode as UTF-8.
	ErrInvalidUTF8 = errors.New("bridge: payload is not valid UTF-8")

	// ErrEmptyPayload is the reason for dropping a payload that is
	// empty after whitespace is stripped.
	ErrEmptyPayload = errors.New("bridge: empty payload")
)

// BindError is returned by Start when the listening socket cannot be
// bound. It is the only error that propagates out of the bridge to the
// caller of Start.
type BindError struct {
	// Address is the host:port that failed to bind.
	Address string

	// Err is the underlying listen error.
	Err error
}

func (e *BindError) Error() string {
	switch {
	case netutil.IsAddressInUse(e.Err):
		return fmt.Sprintf("bridge: bind %s: address already in use", e.Address)
	case netutil.IsPermissionDenied(e.Err):
		return fmt.Sprintf("bridge: bind %s: permission denied", e.Address)
	default:
		return fmt.Sprintf("bridge: bind %s: %v", e.Address, e.Err)
	}
}

func (e *BindError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrAddressInUse) and
// errors.Is(err, ErrPermissionDenied) classify the failure without the
// caller inspecting errno values.
func (e *BindError) Is(target error) bool {
	switch target {
	case ErrAddressInUse:
		return netutil.IsAddressInUse(e.Err)
	case ErrPermissionDenied:
		return netutil.IsPermissionDenied(e.Err)
	}
	return false
}

// DecodeError describes a payload that was dropped. It never leaves the
// connection that produced it; handlers log it and close.
type DecodeError struct {
	// Size is the number of payload bytes received.
	Size int

	// Err is ErrInvalidUTF8 or ErrEmptyPayload.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v (%d bytes)", e.Err, e.Size)
}

func (e *DecodeError) Unwrap() error { return e.Err }
