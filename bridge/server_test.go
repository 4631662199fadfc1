// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/jedfrechette/sibl-gui-for-blender/lib/testutil"
)

// testConfig binds an ephemeral loopback port.
func testConfig() Config {
	config := DefaultConfig()
	config.Host = "127.0.0.1"
	config.Port = 0
	return config
}

// startServer starts a server and stops it when the test completes.
func startServer(t *testing.T, config Config) *Server {
	t.Helper()
	server, err := Start(context.Background(), config, testutil.Logger(t))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(server.Stop)
	return server
}

// send writes payload on a fresh connection and closes it.
func send(t *testing.T, address net.Addr, payload []byte) {
	t.Helper()
	connection, err := net.Dial("tcp", address.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if _, err := connection.Write(payload); err != nil {
		connection.Close()
		t.Fatalf("Write: %v", err)
	}
	if err := connection.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// waitHandled waits until the server has finished n connections,
// delivered or not.
func waitHandled(t *testing.T, server *Server, n int64) {
	t.Helper()
	testutil.RequireEventually(t, func() bool {
		stats := server.Stats()
		return stats.Delivered+stats.Rejected >= n
	}, 5*time.Second, "waiting for %d handled connections", n)
}

func TestStartInvalidConfig(t *testing.T) {
	cases := []struct {
		name   string
		config Config
	}{
		{"missing host", Config{Port: 2048}},
		{"port too large", Config{Host: "127.0.0.1", Port: 65536}},
		{"negative port", Config{Host: "127.0.0.1", Port: -1}},
		{"negative timeout", Config{Host: "127.0.0.1", ReadTimeout: -time.Second}},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			server, err := Start(context.Background(), testCase.config, testutil.Logger(t))
			if err == nil {
				server.Stop()
				t.Fatal("expected error")
			}
			var bindError *BindError
			if errors.As(err, &bindError) {
				t.Fatalf("config error reported as BindError: %v", err)
			}
		})
	}
}

func TestAddrAfterStart(t *testing.T) {
	server := startServer(t, testConfig())

	tcpAddress, ok := server.Addr().(*net.TCPAddr)
	if !ok {
		t.Fatalf("expected *net.TCPAddr, got %T", server.Addr())
	}
	if tcpAddress.Port == 0 {
		t.Fatal("expected non-zero port after binding to port 0")
	}
	if got := server.Config().MaxPayloadSize; got != DefaultMaxPayloadSize {
		t.Fatalf("MaxPayloadSize = %d, want default %d", got, DefaultMaxPayloadSize)
	}
}

func TestConnectionDeliversPath(t *testing.T) {
	server := startServer(t, testConfig())

	send(t, server.Addr(), []byte("/tmp/scene.ibl\n"))
	waitHandled(t, server, 1)

	path, ok := server.Pending().ReadAndClear()
	if !ok {
		t.Fatal("nothing pending after delivery")
	}
	if path != "/tmp/scene.ibl" {
		t.Fatalf("pending path = %q, want %q", path, "/tmp/scene.ibl")
	}
	if stats := server.Stats(); stats.Accepted != 1 || stats.Delivered != 1 || stats.Rejected != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestInvalidPayloadLeavesPendingUntouched(t *testing.T) {
	server := startServer(t, testConfig())

	send(t, server.Addr(), []byte{'/', 't', 'm', 'p', '/', 0xc3, 0x28})
	waitHandled(t, server, 1)
	if server.Pending().Dirty() {
		t.Fatal("invalid UTF-8 payload marked the mailbox dirty")
	}

	send(t, server.Addr(), []byte("   "))
	waitHandled(t, server, 2)
	if server.Pending().Dirty() {
		t.Fatal("whitespace payload marked the mailbox dirty")
	}

	// The server keeps serving after dropped payloads.
	send(t, server.Addr(), []byte("/tmp/next.py"))
	waitHandled(t, server, 3)
	path, ok := server.Pending().ReadAndClear()
	if !ok || path != "/tmp/next.py" {
		t.Fatalf("pending = %q, %v; want /tmp/next.py", path, ok)
	}
	if stats := server.Stats(); stats.Rejected != 2 || stats.Delivered != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestInvalidPayloadKeepsEarlierPath(t *testing.T) {
	server := startServer(t, testConfig())

	send(t, server.Addr(), []byte("/tmp/good.py"))
	waitHandled(t, server, 1)
	send(t, server.Addr(), []byte{0xff})
	waitHandled(t, server, 2)

	path, ok := server.Pending().ReadAndClear()
	if !ok || path != "/tmp/good.py" {
		t.Fatalf("pending = %q, %v; a dropped payload must not replace /tmp/good.py", path, ok)
	}
}

func TestPayloadTruncatedAtMaxSize(t *testing.T) {
	config := testConfig()
	config.MaxPayloadSize = 16
	server := startServer(t, config)

	send(t, server.Addr(), []byte("/tmp/0123456789abcdefghij"))
	waitHandled(t, server, 1)

	path, ok := server.Pending().ReadAndClear()
	if !ok {
		t.Fatal("nothing pending")
	}
	if path != "/tmp/0123456789a" {
		t.Fatalf("pending = %q, want first 16 bytes", path)
	}
}

func TestDefaultPayloadLimitIs1024(t *testing.T) {
	server := startServer(t, testConfig())

	long := "/" + strings.Repeat("a", 2000)
	connection, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	// The server may close after 1024 bytes while we are still
	// writing; the write error is irrelevant.
	connection.Write([]byte(long))
	connection.Close()
	waitHandled(t, server, 1)

	path, ok := server.Pending().ReadAndClear()
	if !ok {
		t.Fatal("nothing pending")
	}
	if len(path) != DefaultMaxPayloadSize {
		t.Fatalf("pending path has %d bytes, want %d", len(path), DefaultMaxPayloadSize)
	}
}

func TestStalledClientDeliversAfterTimeout(t *testing.T) {
	config := testConfig()
	config.ReadTimeout = 50 * time.Millisecond
	server := startServer(t, config)

	connection, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer connection.Close()
	if _, err := connection.Write([]byte("/tmp/stalled.py")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// No close: the read deadline ends the message.
	waitHandled(t, server, 1)
	path, ok := server.Pending().ReadAndClear()
	if !ok || path != "/tmp/stalled.py" {
		t.Fatalf("pending = %q, %v; want /tmp/stalled.py", path, ok)
	}
}

func TestSilentClientIsDropped(t *testing.T) {
	config := testConfig()
	config.ReadTimeout = 50 * time.Millisecond
	server := startServer(t, config)

	connection, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer connection.Close()

	waitHandled(t, server, 1)
	if server.Pending().Dirty() {
		t.Fatal("silent connection marked the mailbox dirty")
	}
	if stats := server.Stats(); stats.Rejected != 1 {
		t.Fatalf("Rejected = %d, want 1", stats.Rejected)
	}
}

func TestBindAddressInUse(t *testing.T) {
	first := startServer(t, testConfig())

	config := testConfig()
	config.Port = first.Addr().(*net.TCPAddr).Port
	second, err := Start(context.Background(), config, testutil.Logger(t))
	if err == nil {
		second.Stop()
		t.Fatal("expected bind failure on a port already in use")
	}

	var bindError *BindError
	if !errors.As(err, &bindError) {
		t.Fatalf("expected *BindError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrAddressInUse) {
		t.Fatalf("errors.Is(err, ErrAddressInUse) = false for %v", err)
	}
	if errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("address-in-use error also matched ErrPermissionDenied: %v", err)
	}
	if bindError.Address != config.Address() {
		t.Fatalf("BindError.Address = %q, want %q", bindError.Address, config.Address())
	}
	if !strings.Contains(err.Error(), "address already in use") {
		t.Fatalf("error text %q does not mention address already in use", err.Error())
	}

	// The first server is untouched.
	send(t, first.Addr(), []byte("/tmp/still-serving.py"))
	waitHandled(t, first, 1)
	if path, ok := first.Pending().ReadAndClear(); !ok || path != "/tmp/still-serving.py" {
		t.Fatalf("first server pending = %q, %v", path, ok)
	}
}

func TestStopReleasesPort(t *testing.T) {
	server, err := Start(context.Background(), testConfig(), testutil.Logger(t))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	port := server.Addr().(*net.TCPAddr).Port

	// Leave a handled connection behind so the port has socket state
	// lingering after close.
	send(t, server.Addr(), []byte("/tmp/a.py"))
	waitHandled(t, server, 1)
	server.Stop()

	config := testConfig()
	config.Port = port
	restarted, err := Start(context.Background(), config, testutil.Logger(t))
	if err != nil {
		t.Fatalf("restart on port %d: %v", port, err)
	}
	defer restarted.Stop()

	if restarted.Pending().Dirty() {
		t.Fatal("restarted server inherited a pending path")
	}
}

func TestStopIdempotent(t *testing.T) {
	server, err := Start(context.Background(), testConfig(), testutil.Logger(t))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	server.Stop()
	server.Stop()
}

func TestStopInterruptsStalledConnection(t *testing.T) {
	config := testConfig()
	config.ReadTimeout = time.Hour
	server, err := Start(context.Background(), config, testutil.Logger(t))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	connection, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer connection.Close()
	testutil.RequireEventually(t, func() bool { return server.Stats().Accepted == 1 },
		5*time.Second, "connection accepted")

	stopped := make(chan struct{})
	go func() {
		server.Stop()
		close(stopped)
	}()
	testutil.RequireClosed(t, stopped, 5*time.Second, "Stop did not interrupt a connection with an hour-long read timeout")
}

func TestStopDiscardsInFlightPayload(t *testing.T) {
	config := testConfig()
	config.ReadTimeout = time.Hour
	server, err := Start(context.Background(), config, testutil.Logger(t))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	connection, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer connection.Close()
	if _, err := connection.Write([]byte("/tmp/half-sent.py")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	testutil.RequireEventually(t, func() bool { return server.Stats().Accepted == 1 },
		5*time.Second, "connection accepted")

	server.Stop()
	if server.Pending().Dirty() {
		t.Fatal("payload cut short by Stop was delivered")
	}
}

func TestContextCancelStopsServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server, err := Start(ctx, testConfig(), testutil.Logger(t))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	cancel()
	done := make(chan struct{})
	go func() {
		server.Wait()
		close(done)
	}()
	testutil.RequireClosed(t, done, 5*time.Second, "server did not stop after context cancel")

	if _, err := net.Dial("tcp", server.Addr().String()); err == nil {
		t.Fatal("listener still accepting after context cancel")
	}
}

func TestNotify(t *testing.T) {
	server := startServer(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Notify(ctx, server.Addr().String(), "/tmp/notified.py"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	waitHandled(t, server, 1)
	if path, ok := server.Pending().ReadAndClear(); !ok || path != "/tmp/notified.py" {
		t.Fatalf("pending = %q, %v", path, ok)
	}
}

func TestNotifyRejectsOversizedPath(t *testing.T) {
	err := Notify(context.Background(), "127.0.0.1:1", "/"+strings.Repeat("x", DefaultMaxPayloadSize))
	if err == nil {
		t.Fatal("expected error for a path longer than the payload limit")
	}
}
