// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import "sync"

// Pending is the single-slot mailbox between connection handlers and
// the Consumer. It remembers at most one path: a write overwrites any
// path not yet read. The zero value is an empty, clean mailbox.
type Pending struct {
	mu    sync.Mutex
	path  string
	dirty bool
}

// Write stores path and marks the mailbox dirty. Safe to call from any
// number of goroutines.
func (p *Pending) Write(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.path = path
	p.dirty = true
}

// ReadAndClear returns the stored path and clears the dirty flag in one
// step. Returns "", false when nothing has been written since the last
// read.
func (p *Pending) ReadAndClear() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty {
		return "", false
	}
	p.dirty = false
	return p.path, true
}

// Dirty reports whether a path is waiting to be read.
func (p *Pending) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}
