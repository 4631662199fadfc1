// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jedfrechette/sibl-gui-for-blender/lib/clock"
)

// MaxScriptSize is the largest script a ScriptLoader accepts.
const MaxScriptSize = 16 << 20

// DefaultHistorySize is the history length used when New is given zero.
const DefaultHistorySize = 20

var (
	// ErrReentrantLoad is returned by Load when called while another
	// Load on the same ScriptLoader is still applying.
	ErrReentrantLoad = errors.New("loader: load already in progress")

	// ErrNotRegularFile is returned for directories, devices and other
	// non-regular paths.
	ErrNotRegularFile = errors.New("loader: not a regular file")

	// ErrScriptTooLarge is returned for files larger than MaxScriptSize.
	ErrScriptTooLarge = errors.New("loader: script too large")
)

// Script is a script file ready to apply.
type Script struct {
	// Path is the absolute path of the file.
	Path string

	// Directory is the directory containing the file. Scripts that
	// import siblings expect to run from here.
	Directory string

	// Digest is the BLAKE3 hash of the content at load time.
	Digest Digest

	// Size is the content length in bytes.
	Size int64
}

// ApplyFunc performs the host-specific part of a load.
type ApplyFunc func(script Script) error

// Outcome records one Load call.
type Outcome struct {
	// Path is the path Load was called with.
	Path string

	// Script is populated when the file was read successfully, even if
	// applying it failed.
	Script Script

	// Time is when the load finished.
	Time time.Time

	// Err is nil for a successful load.
	Err error
}

// ScriptLoader loads scripts one at a time and keeps a bounded history
// of outcomes. It implements bridge.Loader.
type ScriptLoader struct {
	apply       ApplyFunc
	clock       clock.Clock
	logger      *slog.Logger
	historySize int

	mu      sync.Mutex
	loading bool
	history []Outcome
}

// New returns a ScriptLoader that calls apply for every script read
// successfully. A nil apply only records loads. historySize <= 0 means
// DefaultHistorySize.
func New(apply ApplyFunc, clk clock.Clock, logger *slog.Logger, historySize int) *ScriptLoader {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &ScriptLoader{
		apply:       apply,
		clock:       clk,
		logger:      logger,
		historySize: historySize,
	}
}

// Load reads, fingerprints and applies the script at path. Failures are
// logged and returned; nothing is retried.
func (l *ScriptLoader) Load(path string) error {
	l.mu.Lock()
	if l.loading {
		l.mu.Unlock()
		l.logger.Warn("load ignored, another load is in progress", "path", path)
		return ErrReentrantLoad
	}
	l.loading = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.loading = false
		l.mu.Unlock()
	}()

	script, err := readScript(path)
	if err != nil {
		l.logger.Error("script load failed", "path", path, "error", err)
		l.record(Outcome{Path: path, Err: err})
		return err
	}

	logger := l.logger.With("path", script.Path, "digest", script.Digest.Short())
	if l.apply != nil {
		if err := l.apply(script); err != nil {
			err = fmt.Errorf("applying %s: %w", script.Path, err)
			logger.Error("script apply failed", "error", err)
			l.record(Outcome{Path: path, Script: script, Err: err})
			return err
		}
	}

	logger.Info("script loaded", "size", script.Size)
	l.record(Outcome{Path: path, Script: script})
	return nil
}

// History returns the recorded outcomes, oldest first.
func (l *ScriptLoader) History() []Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Outcome(nil), l.history...)
}

func (l *ScriptLoader) record(outcome Outcome) {
	outcome.Time = l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = append(l.history, outcome)
	if excess := len(l.history) - l.historySize; excess > 0 {
		l.history = append(l.history[:0:0], l.history[excess:]...)
	}
}

// readScript opens path and hashes its content, enforcing the regular
// file and size limits.
func readScript(path string) (Script, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return Script{}, fmt.Errorf("resolving %s: %w", path, err)
	}

	file, err := os.Open(absolute)
	if err != nil {
		return Script{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Script{}, fmt.Errorf("stat %s: %w", absolute, err)
	}
	if !info.Mode().IsRegular() {
		return Script{}, fmt.Errorf("%w: %s", ErrNotRegularFile, absolute)
	}
	if info.Size() > MaxScriptSize {
		return Script{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrScriptTooLarge, absolute, info.Size(), MaxScriptSize)
	}

	// The file may grow between Stat and the read.
	digest, size, err := hashReader(io.LimitReader(file, MaxScriptSize+1))
	if err != nil {
		return Script{}, fmt.Errorf("hashing %s: %w", absolute, err)
	}
	if size > MaxScriptSize {
		return Script{}, fmt.Errorf("%w: %s grew past %d bytes while reading", ErrScriptTooLarge, absolute, MaxScriptSize)
	}

	return Script{
		Path:      absolute,
		Directory: filepath.Dir(absolute),
		Digest:    digest,
		Size:      size,
	}, nil
}
