// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jedfrechette/sibl-gui-for-blender/lib/clock"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/testutil"
)

func itoa(n int) string { return strconv.Itoa(n) }

// recordingLoader records every path it is asked to load.
type recordingLoader struct {
	mu    sync.Mutex
	paths []string
	err   error
	loads chan string
}

func newRecordingLoader() *recordingLoader {
	return &recordingLoader{loads: make(chan string, 64)}
}

func (l *recordingLoader) Load(path string) error {
	l.mu.Lock()
	l.paths = append(l.paths, path)
	err := l.err
	l.mu.Unlock()
	l.loads <- path
	return err
}

func (l *recordingLoader) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}

// startManager returns a running Manager on an ephemeral port.
func startManager(t *testing.T) (*Manager, *Server) {
	t.Helper()
	manager := newManager(t)
	if err := manager.Start(context.Background(), testConfig()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	server, _ := manager.Current()
	return manager, server
}

func TestPollWithoutServerFinishes(t *testing.T) {
	manager := newManager(t)
	loader := newRecordingLoader()
	consumer := NewConsumer(manager, loader, testutil.Logger(t))

	if consumer.Poll() {
		t.Fatal("Poll() = true with no server running")
	}
	if len(loader.Paths()) != 0 {
		t.Fatal("loader called with no server running")
	}
}

func TestPollLoadsPendingPathOnce(t *testing.T) {
	manager, server := startManager(t)
	loader := newRecordingLoader()
	consumer := NewConsumer(manager, loader, testutil.Logger(t))

	if !consumer.Poll() {
		t.Fatal("Poll() = false with a server running")
	}
	if len(loader.Paths()) != 0 {
		t.Fatal("loader called with nothing pending")
	}

	send(t, server.Addr(), []byte("/tmp/scene.ibl\n"))
	waitHandled(t, server, 1)

	if !consumer.Poll() {
		t.Fatal("Poll() = false with a server running")
	}
	if !consumer.Poll() {
		t.Fatal("Poll() = false with a server running")
	}
	paths := loader.Paths()
	if len(paths) != 1 || paths[0] != "/tmp/scene.ibl" {
		t.Fatalf("loads = %q, want exactly [/tmp/scene.ibl]", paths)
	}
}

func TestPollCoalescesToLatest(t *testing.T) {
	manager, server := startManager(t)
	loader := newRecordingLoader()
	consumer := NewConsumer(manager, loader, testutil.Logger(t))

	send(t, server.Addr(), []byte("/tmp/first.py"))
	waitHandled(t, server, 1)
	send(t, server.Addr(), []byte("/tmp/second.py"))
	waitHandled(t, server, 2)

	consumer.Poll()
	paths := loader.Paths()
	if len(paths) != 1 || paths[0] != "/tmp/second.py" {
		t.Fatalf("loads = %q, want only the latest path", paths)
	}
}

func TestPollContinuesAfterLoadError(t *testing.T) {
	manager, server := startManager(t)
	loader := newRecordingLoader()
	loader.err = errors.New("script raised")
	consumer := NewConsumer(manager, loader, testutil.Logger(t))

	send(t, server.Addr(), []byte("/tmp/broken.py"))
	waitHandled(t, server, 1)
	if !consumer.Poll() {
		t.Fatal("a failed load ended the poll schedule")
	}

	send(t, server.Addr(), []byte("/tmp/next.py"))
	waitHandled(t, server, 2)
	if !consumer.Poll() {
		t.Fatal("Poll() = false after a failed load")
	}
	paths := loader.Paths()
	if len(paths) != 2 || paths[1] != "/tmp/next.py" {
		t.Fatalf("loads = %q", paths)
	}
}

func TestPollRecoversLoaderPanic(t *testing.T) {
	manager, server := startManager(t)
	calls := 0
	consumer := NewConsumer(manager, LoaderFunc(func(path string) error {
		calls++
		if calls == 1 {
			panic("loader exploded")
		}
		return nil
	}), testutil.Logger(t))

	send(t, server.Addr(), []byte("/tmp/panics.py"))
	waitHandled(t, server, 1)
	if !consumer.Poll() {
		t.Fatal("a panicking load ended the poll schedule")
	}

	send(t, server.Addr(), []byte("/tmp/fine.py"))
	waitHandled(t, server, 2)
	consumer.Poll()
	if calls != 2 {
		t.Fatalf("loader called %d times, want 2", calls)
	}
}

func TestPollAfterStopFinishes(t *testing.T) {
	manager, server := startManager(t)
	loader := newRecordingLoader()
	consumer := NewConsumer(manager, loader, testutil.Logger(t))

	send(t, server.Addr(), []byte("/tmp/never-loaded.py"))
	waitHandled(t, server, 1)
	manager.Stop()

	if consumer.Poll() {
		t.Fatal("Poll() = true after Stop")
	}
	if len(loader.Paths()) != 0 {
		t.Fatal("mailbox of a stopped server was consumed")
	}
}

func TestRunRejectsNonPositiveInterval(t *testing.T) {
	consumer := NewConsumer(newManager(t), newRecordingLoader(), testutil.Logger(t))
	if err := consumer.Run(context.Background(), clock.Fake(time.Unix(0, 0)), 0); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

// runConsumer starts Run on a fake clock and returns a channel that
// receives Run's result.
func runConsumer(t *testing.T, ctx context.Context, consumer *Consumer, fakeClock *clock.FakeClock) <-chan error {
	t.Helper()
	result := make(chan error, 1)
	go func() {
		result <- consumer.Run(ctx, fakeClock, DefaultPollInterval)
	}()
	fakeClock.WaitForTickers(1)
	return result
}

func TestRunLoadsOnTick(t *testing.T) {
	manager, server := startManager(t)
	loader := newRecordingLoader()
	consumer := NewConsumer(manager, loader, testutil.Logger(t))
	fakeClock := clock.Fake(time.Unix(1_700_000_000, 0))

	ctx, cancel := context.WithCancel(context.Background())
	result := runConsumer(t, ctx, consumer, fakeClock)

	send(t, server.Addr(), []byte("/tmp/scene.ibl"))
	waitHandled(t, server, 1)

	fakeClock.Advance(DefaultPollInterval)
	path := testutil.RequireReceive(t, loader.loads, 5*time.Second, "waiting for load")
	if path != "/tmp/scene.ibl" {
		t.Fatalf("loaded %q, want /tmp/scene.ibl", path)
	}

	cancel()
	if err := testutil.RequireReceive(t, result, 5*time.Second, "Run did not return after cancel"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	fakeClock.WaitForNoTickers()
}

func TestRunFinishesWhenServerStops(t *testing.T) {
	manager, _ := startManager(t)
	consumer := NewConsumer(manager, newRecordingLoader(), testutil.Logger(t))
	fakeClock := clock.Fake(time.Unix(1_700_000_000, 0))

	result := runConsumer(t, context.Background(), consumer, fakeClock)

	manager.Stop()
	fakeClock.Advance(DefaultPollInterval)
	if err := testutil.RequireReceive(t, result, 5*time.Second, "Run did not finish after Stop"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	fakeClock.WaitForNoTickers()
}

func TestSequentialConnectionsLoadInOrder(t *testing.T) {
	manager, server := startManager(t)
	loader := newRecordingLoader()
	consumer := NewConsumer(manager, loader, testutil.Logger(t))

	const count = 50
	want := make([]string, 0, count)
	for i := range count {
		path := "/tmp/script-" + itoa(i) + ".py"
		want = append(want, path)
		send(t, server.Addr(), []byte(path))
		testutil.RequireEventually(t, func() bool { return server.Stats().Delivered == int64(i+1) },
			5*time.Second, "delivery of %s", path)
		consumer.Poll()
	}

	got := loader.Paths()
	if len(got) != count {
		t.Fatalf("got %d loads, want %d", len(got), count)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("load %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPausedConsumerLoadsOnlyLastOfFiftyConnections(t *testing.T) {
	manager, server := startManager(t)
	loader := newRecordingLoader()
	consumer := NewConsumer(manager, loader, testutil.Logger(t))

	const count = 50
	for i := range count {
		send(t, server.Addr(), []byte("/tmp/paused-"+itoa(i)+".py"))
		waitHandled(t, server, int64(i+1))
	}
	if stats := server.Stats(); stats.Delivered != count {
		t.Fatalf("Delivered = %d, want %d", stats.Delivered, count)
	}

	if !consumer.Poll() {
		t.Fatal("first Poll reported no server")
	}
	if !consumer.Poll() {
		t.Fatal("second Poll reported no server")
	}

	got := loader.Paths()
	if len(got) != 1 || got[0] != "/tmp/paused-49.py" {
		t.Fatalf("loads = %q, want only /tmp/paused-49.py", got)
	}
	if server.Pending().Dirty() {
		t.Fatal("mailbox still dirty after the load")
	}
}

func TestConcurrentConnectionsCollapseToOneLoad(t *testing.T) {
	manager, server := startManager(t)
	loader := newRecordingLoader()
	consumer := NewConsumer(manager, loader, testutil.Logger(t))

	const count = 50
	sent := make(map[string]bool, count)
	errs := make(chan error, count)
	var wg sync.WaitGroup
	for i := range count {
		path := "/tmp/concurrent-" + itoa(i) + ".py"
		sent[path] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- Notify(context.Background(), server.Addr().String(), path)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	waitHandled(t, server, count)
	if stats := server.Stats(); stats.Delivered != count {
		t.Fatalf("Delivered = %d, want %d", stats.Delivered, count)
	}

	consumer.Poll()
	consumer.Poll()

	got := loader.Paths()
	if len(got) != 1 || !sent[got[0]] {
		t.Fatalf("loads = %q, want exactly one of the sent paths", got)
	}
}
