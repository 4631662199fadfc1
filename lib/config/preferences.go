// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// GUIExecutableName is looked up on PATH when no executable is
// configured.
const GUIExecutableName = "sIBL_GUI"

// ErrNotExecutable is returned by SetExecutable for a path that is not
// an executable regular file.
var ErrNotExecutable = errors.New("config: not an executable file")

// CoerceHost returns host if it is "localhost" or an IP literal, and
// "localhost" for anything else, including hostnames.
func CoerceHost(host string) string {
	if host == "localhost" || net.ParseIP(host) != nil {
		return host
	}
	return "localhost"
}

// GUIConfig configures the sIBL GUI launcher.
type GUIConfig struct {
	// Executable is the sIBL GUI binary. Empty means look up sIBL_GUI
	// on PATH at launch time.
	Executable string `yaml:"executable" json:"executable"`

	// invalid holds the SetExecutable failure for a value read from a
	// config file, reported by Config.Validate.
	invalid error
}

// SetExecutable replaces Executable with value if value names an
// executable file. An empty value clears the setting. On macOS an .app
// bundle is accepted and rewritten to the launcher inside it. On
// failure Executable keeps its previous value.
func (g *GUIConfig) SetExecutable(value string) error {
	return g.setExecutable(value, runtime.GOOS)
}

func (g *GUIConfig) setExecutable(value, goos string) error {
	if value == "" {
		g.Executable = ""
		g.invalid = nil
		return nil
	}

	if goos == "darwin" && strings.HasSuffix(strings.TrimRight(value, "/"), ".app") {
		value = filepath.Join(value, "Contents", "MacOS", "launcher")
	}

	info, err := os.Stat(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotExecutable, value, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotExecutable, value)
	}
	if goos != "windows" && info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s has no execute permission", ErrNotExecutable, value)
	}

	g.Executable = value
	g.invalid = nil
	return nil
}

// normalize runs a loaded Executable through the SetExecutable checks.
// The raw value stays in place on failure and the error is kept for
// Validate.
func (g *GUIConfig) normalize(goos string) {
	if err := g.setExecutable(g.Executable, goos); err != nil {
		g.invalid = err
	}
}

// Resolve returns the executable to launch: the configured one, else
// sIBL_GUI from PATH, else "".
func (g GUIConfig) Resolve() string {
	if g.Executable != "" {
		return g.Executable
	}
	path, err := exec.LookPath(GUIExecutableName)
	if err != nil {
		return ""
	}
	return path
}
