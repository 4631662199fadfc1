// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sync"
)

// ErrExecutableNotFound is returned when there is no executable to
// launch: none is configured and none was found on PATH.
var ErrExecutableNotFound = errors.New("launch: sIBL GUI executable not found, set gui.executable")

// Result describes a successful Launch.
type Result struct {
	// Executable is the resolved path that was launched or found
	// running.
	Executable string

	// PID identifies the process.
	PID int32

	// AlreadyRunning is true when no process was started because one
	// was already running from Executable.
	AlreadyRunning bool
}

// RunningProcess is one entry of a process table snapshot.
type RunningProcess struct {
	PID        int32
	Executable string
}

// ProcessLister snapshots the running processes.
type ProcessLister interface {
	RunningProcesses(ctx context.Context) ([]RunningProcess, error)
}

// Launcher starts GUI processes. The zero value is not usable; use New.
type Launcher struct {
	lister ProcessLister
	logger *slog.Logger

	// children tracks reaper goroutines.
	children sync.WaitGroup
}

// New returns a Launcher that checks lister for running instances. A
// nil lister uses the system process table.
func New(lister ProcessLister, logger *slog.Logger) *Launcher {
	if lister == nil {
		lister = SystemProcesses{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{lister: lister, logger: logger}
}

// Launch starts executable unless a process from the same file is
// already running. An empty executable is ErrExecutableNotFound. A
// failure to list processes is logged and the launch goes ahead.
func (l *Launcher) Launch(ctx context.Context, executable string) (Result, error) {
	if executable == "" {
		return Result{}, ErrExecutableNotFound
	}

	resolved, err := resolve(executable)
	if err != nil {
		return Result{}, fmt.Errorf("launch: %w", err)
	}
	logger := l.logger.With("executable", resolved)

	if pid, found, err := l.findRunning(ctx, resolved); err != nil {
		logger.Warn("listing processes failed, launching anyway", "error", err)
	} else if found {
		logger.Info("sIBL GUI already running", "pid", pid)
		return Result{Executable: resolved, PID: pid, AlreadyRunning: true}, nil
	}

	command := exec.Command(resolved)
	command.Dir = filepath.Dir(resolved)
	command.SysProcAttr = detachedAttributes()
	if err := command.Start(); err != nil {
		return Result{}, fmt.Errorf("launch: starting %s: %w", resolved, err)
	}
	pid := int32(command.Process.Pid)
	logger.Info("sIBL GUI launched", "pid", pid)

	l.children.Add(1)
	go func() {
		defer l.children.Done()
		err := command.Wait()
		logger.Info("sIBL GUI exited", "pid", pid, "error", err)
	}()

	return Result{Executable: resolved, PID: pid}, nil
}

// Wait blocks until every process started by this Launcher has exited.
func (l *Launcher) Wait() {
	l.children.Wait()
}

func (l *Launcher) findRunning(ctx context.Context, resolved string) (int32, bool, error) {
	processes, err := l.lister.RunningProcesses(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, process := range processes {
		if process.Executable == "" {
			continue
		}
		candidate, err := filepath.EvalSymlinks(process.Executable)
		if err != nil {
			candidate = process.Executable
		}
		if candidate == resolved {
			return process.PID, true, nil
		}
	}
	return 0, false, nil
}

// resolve returns the absolute, symlink-free form of executable.
func resolve(executable string) (string, error) {
	absolute, err := filepath.Abs(executable)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(absolute)
}
