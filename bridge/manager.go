// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a Manager.
type State int

const (
	// Stopped means no server is bound.
	Stopped State = iota
	// Running means a server is bound and accepting.
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Status is what a status display needs about the bridge.
type Status struct {
	State State

	// Host and Port are the bound address. Port is the real port when
	// the server was started on port 0. Empty/zero when stopped.
	Host string
	Port int

	// Pending reports a path waiting for the next poll.
	Pending bool

	Stats Stats
}

// Address returns host:port, or "" when stopped.
func (s Status) Address() string {
	if s.State != Running {
		return ""
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Manager owns the single bridge server of a host process. Start and
// Stop are serialized and idempotent. The current server is published
// through an atomic pointer, so Current never blocks behind a Stop in
// progress.
type Manager struct {
	logger *slog.Logger

	lifecycle sync.Mutex
	current   atomic.Pointer[Server]
}

// NewManager returns a Manager in the Stopped state.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// Start binds a server for config if none is running. Starting while
// running returns nil without binding anything, even if config differs
// from the running server's. A bind failure leaves the Manager stopped
// and is returned as a *BindError.
func (m *Manager) Start(ctx context.Context, config Config) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if running := m.current.Load(); running != nil {
		m.logger.Debug("bridge already running, start ignored",
			"listen_addr", running.Addr().String(),
		)
		return nil
	}

	server, err := Start(ctx, config, m.logger)
	if err != nil {
		m.logger.Warn("bridge start failed", "address", config.Address(), "error", err)
		return err
	}
	m.current.Store(server)

	// A server ended by ctx cancellation rather than Stop must not be
	// reported as running.
	go func() {
		server.Wait()
		m.current.CompareAndSwap(server, nil)
	}()
	return nil
}

// Stop stops the running server, waits for it to finish and discards
// it. Stopping while stopped is a no-op.
func (m *Manager) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	server := m.current.Swap(nil)
	if server == nil {
		return
	}
	server.Stop()
}

// Close stops the server at process teardown. Equivalent to Stop.
func (m *Manager) Close() error {
	m.Stop()
	return nil
}

// Current returns the running server, if any. The presence check and
// the returned handle are one observation: a caller that got a server
// can keep using it even if Stop runs concurrently; its mailbox simply
// receives no further writes.
func (m *Manager) Current() (*Server, bool) {
	server := m.current.Load()
	return server, server != nil
}

// State reports Running or Stopped.
func (m *Manager) State() State {
	if _, ok := m.Current(); ok {
		return Running
	}
	return Stopped
}

// Status returns a snapshot for status displays.
func (m *Manager) Status() Status {
	server, ok := m.Current()
	if !ok {
		return Status{State: Stopped}
	}
	status := Status{
		State:   Running,
		Host:    server.Config().Host,
		Port:    server.Config().Port,
		Pending: server.Pending().Dirty(),
		Stats:   server.Stats(),
	}
	if address, ok := server.Addr().(*net.TCPAddr); ok {
		status.Port = address.Port
	}
	return status
}
