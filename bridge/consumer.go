// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jedfrechette/sibl-gui-for-blender/lib/clock"
)

// Loader performs the host-side load of a delivered path. It is only
// ever called from Consumer.Poll, on the host's main loop. Reporting a
// failure to the user is the Loader's job; the bridge logs the error
// and keeps polling.
type Loader interface {
	Load(path string) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string) error

// Load calls f(path).
func (f LoaderFunc) Load(path string) error { return f(path) }

// HandleSource yields the running server, if any. *Manager implements
// it.
type HandleSource interface {
	Current() (*Server, bool)
}

// Consumer drains the running server's mailbox from the host's main
// loop and triggers the load.
type Consumer struct {
	source HandleSource
	loader Loader
	logger *slog.Logger
}

// NewConsumer returns a Consumer reading servers from source and
// loading through loader.
func NewConsumer(source HandleSource, loader Loader, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{source: source, loader: loader, logger: logger}
}

// Poll performs one scheduled invocation and must be called from the
// host's main loop. It never blocks beyond the mailbox's lock and the
// load itself.
//
// Returns false when no server is running: the consumer is finished and
// the caller must stop scheduling it. Returns true otherwise, whether
// or not a load happened.
func (c *Consumer) Poll() bool {
	server, ok := c.source.Current()
	if !ok {
		return false
	}
	path, ok := server.Pending().ReadAndClear()
	if !ok {
		return true
	}

	c.logger.Debug("dispatching load", "path", path)
	if err := c.load(path); err != nil {
		c.logger.Warn("load failed", "path", path, "error", err)
	}
	return true
}

// load calls the Loader, turning a panic into an error so one bad load
// cannot end the poll schedule.
func (c *Consumer) load(path string) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("bridge: loader panicked: %v", recovered)
		}
	}()
	return c.loader.Load(path)
}

// Run is a headless host main loop: it calls Poll on the calling
// goroutine every interval until ctx is cancelled or Poll reports that
// no server is running.
func (c *Consumer) Run(ctx context.Context, clk clock.Clock, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("bridge: poll interval must be positive, got %v", interval)
	}
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !c.Poll() {
				c.logger.Info("bridge not running, poll loop finished")
				return nil
			}
		}
	}
}
