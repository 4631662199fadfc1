// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jedfrechette/sibl-gui-for-blender/lib/netutil"
)

// Server is one running bridge listener together with the mailbox its
// handlers write to. A Server is created by Start and is finished once
// Stop returns; it is never restarted. Use Manager to get idempotent
// start/stop semantics.
type Server struct {
	config  Config
	logger  *slog.Logger
	pending *Pending

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	connections sync.WaitGroup
	activeMu    sync.Mutex
	active      map[net.Conn]struct{}

	accepted  atomic.Int64
	delivered atomic.Int64
	rejected  atomic.Int64
}

// Stats counts connection outcomes since the server started.
type Stats struct {
	// Accepted is the number of connections accepted.
	Accepted int64

	// Delivered is the number of payloads written to the mailbox.
	Delivered int64

	// Rejected is the number of connections dropped without a write:
	// decode failures, read failures, and reads cut short by Stop.
	Rejected int64
}

// Start binds the listener and begins accepting connections on a
// background goroutine. It returns once the socket is bound. A bind
// failure is returned as a *BindError. The server runs until Stop is
// called or ctx is cancelled.
func Start(ctx context.Context, config Config, logger *slog.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	address := config.Address()
	listener, err := netutil.Listen(ctx, address)
	if err != nil {
		if netutil.IsAddressInUse(err) || netutil.IsPermissionDenied(err) {
			return nil, &BindError{Address: address, Err: err}
		}
		return nil, fmt.Errorf("bridge: failed to listen on %s: %w", address, err)
	}

	return newServer(ctx, config, logger, listener), nil
}

// newServer wraps a bound listener and starts the accept loop.
func newServer(ctx context.Context, config Config, logger *slog.Logger, listener net.Listener) *Server {
	server := &Server{
		config:   config,
		logger:   logger.With("listen_addr", listener.Addr().String()),
		pending:  &Pending{},
		listener: listener,
		done:     make(chan struct{}),
		active:   make(map[net.Conn]struct{}),
	}
	server.ctx, server.cancel = context.WithCancel(ctx)

	go func() {
		defer close(server.done)
		server.acceptLoop()
	}()

	// Cancelling the parent context stops the server the same way Stop
	// does.
	go func() {
		select {
		case <-server.ctx.Done():
			server.shutdown()
		case <-server.done:
		}
	}()

	server.logger.Info("bridge server started")
	return server
}

// Addr returns the bound address. When Config.Port was 0 this carries
// the ephemeral port the kernel picked.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Config returns the configuration the server was started with,
// defaults applied.
func (s *Server) Config() Config {
	return s.config
}

// Pending returns the server's mailbox.
func (s *Server) Pending() *Pending {
	return s.pending
}

// Stats returns a snapshot of the connection counters.
func (s *Server) Stats() Stats {
	return Stats{
		Accepted:  s.accepted.Load(),
		Delivered: s.delivered.Load(),
		Rejected:  s.rejected.Load(),
	}
}

// Stop closes the listener, cuts short any in-flight reads and waits
// until the accept loop and every handler have returned. The port is
// free once Stop returns. Safe to call more than once and from several
// goroutines.
func (s *Server) Stop() {
	s.shutdown()
	<-s.done
}

// Wait blocks until the server has fully stopped.
func (s *Server) Wait() {
	<-s.done
}

// shutdown unblocks everything the server is waiting on. Closing the
// listener is what wakes a pending Accept; the cancelled context alone
// would not.
func (s *Server) shutdown() {
	s.stopOnce.Do(func() {
		s.logger.Info("bridge server stopping")
		s.cancel()
		_ = s.listener.Close()

		s.activeMu.Lock()
		for connection := range s.active {
			_ = connection.SetReadDeadline(time.Now()) //nolint:realclock socket deadline
		}
		s.activeMu.Unlock()
	})
}

// Accept failures that are not caused by shutdown (for example running
// out of file descriptors) are retried with an exponential delay
// between these bounds.
const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// acceptLoop accepts until the listener is closed, then waits for all
// handlers so that closing done means the server is quiescent.
func (s *Server) acceptLoop() {
	var connectionCount int64
	var backoff time.Duration

	for {
		connection, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				s.connections.Wait()
				s.logger.Info("bridge server stopped",
					"accepted", s.accepted.Load(),
					"delivered", s.delivered.Load(),
				)
				return
			}
			if backoff == 0 {
				backoff = minAcceptBackoff
			} else {
				backoff = min(2*backoff, maxAcceptBackoff)
			}
			s.logger.Error("accept failed", "error", err, "retry_in", backoff)
			timer := time.NewTimer(backoff) //nolint:realclock accept backoff
			select {
			case <-timer.C:
			case <-s.ctx.Done():
				timer.Stop()
			}
			continue
		}
		backoff = 0

		connectionCount++
		connectionID := connectionCount
		s.accepted.Add(1)
		if !s.track(connection) {
			connection.Close()
			continue
		}
		s.connections.Add(1)
		go func() {
			defer s.connections.Done()
			defer s.untrack(connection)
			s.handleConnection(connection, connectionID)
		}()
	}
}

// track registers a connection so shutdown can interrupt its read, and
// arms its read deadline. Both happen under activeMu so shutdown's
// immediate deadline always lands after this one. Returns false if
// shutdown has already begun.
func (s *Server) track(connection net.Conn) bool {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	_ = connection.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)) //nolint:realclock socket deadline
	s.active[connection] = struct{}{}
	return true
}

func (s *Server) untrack(connection net.Conn) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	delete(s.active, connection)
}
