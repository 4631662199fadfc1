// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package launch

import "syscall"

// detachedAttributes puts the child in its own process group so a
// terminal interrupt sent to the bridge does not reach it.
func detachedAttributes() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
