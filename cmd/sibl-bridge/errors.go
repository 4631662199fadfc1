// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "fmt"

// commandError carries an exit code and a hint for process.Fatal.
type commandError struct {
	err  error
	code int
	hint string
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }
func (e *commandError) ExitCode() int { return e.code }
func (e *commandError) Hint() string  { return e.hint }

func (e *commandError) withHint(hint string) *commandError {
	e.hint = hint
	return e
}

// usageErrorf reports bad flags or configuration; exit code 2.
func usageErrorf(format string, args ...any) *commandError {
	return &commandError{err: fmt.Errorf(format, args...), code: 2}
}

// wrapError attaches exit code 1 to err so a hint can be added.
func wrapError(err error) *commandError {
	return &commandError{err: err, code: 1}
}
