// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package launch

import "syscall"

func detachedAttributes() *syscall.SysProcAttr {
	return nil
}
