// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultHost is the address sIBL GUI connects to unless told
	// otherwise.
	DefaultHost = "localhost"

	// DefaultPort is sIBL GUI's default command port.
	DefaultPort = 2048

	// DefaultMaxPayloadSize bounds the single read performed per
	// connection. Longer payloads are truncated at this size.
	DefaultMaxPayloadSize = 1024

	// DefaultReadTimeout bounds how long a handler waits for a client
	// that connects but neither writes nor closes.
	DefaultReadTimeout = 5 * time.Second

	// DefaultPollInterval is the period between Consumer polls.
	DefaultPollInterval = 100 * time.Millisecond
)

// Config is the listener configuration read once at server start.
// Host must already be "localhost" or an IP literal; coercing user
// input is the preferences layer's job.
type Config struct {
	Host string
	Port int

	// ReadTimeout bounds each connection's read. Zero means
	// DefaultReadTimeout.
	ReadTimeout time.Duration

	// MaxPayloadSize bounds each connection's payload. Zero means
	// DefaultMaxPayloadSize.
	MaxPayloadSize int
}

// DefaultConfig returns the listener configuration sIBL GUI expects.
func DefaultConfig() Config {
	return Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		ReadTimeout:    DefaultReadTimeout,
		MaxPayloadSize: DefaultMaxPayloadSize,
	}
}

// Address returns the host:port string to bind.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the port range and limits. Port 0 is accepted and
// binds an ephemeral port.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("bridge: host is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("bridge: port %d out of range 0-65535", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("bridge: negative read timeout %v", c.ReadTimeout)
	}
	if c.MaxPayloadSize < 0 {
		return fmt.Errorf("bridge: negative max payload size %d", c.MaxPayloadSize)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.MaxPayloadSize == 0 {
		c.MaxPayloadSize = DefaultMaxPayloadSize
	}
	return c
}
