// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Bridge.Host != "localhost" {
		t.Errorf("expected host=localhost, got %s", cfg.Bridge.Host)
	}
	if cfg.Bridge.Port != 2048 {
		t.Errorf("expected port=2048, got %d", cfg.Bridge.Port)
	}
	if cfg.GUI.Executable != "" {
		t.Errorf("expected no GUI executable, got %s", cfg.GUI.Executable)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}

	interval, err := cfg.PollInterval()
	if err != nil {
		t.Fatalf("PollInterval: %v", err)
	}
	if interval != 100*time.Millisecond {
		t.Errorf("expected poll interval 100ms, got %v", interval)
	}
}

func TestLoad_WithoutEnvironmentUsesDefaults(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bridge.Port != 2048 {
		t.Errorf("expected default port, got %d", cfg.Bridge.Port)
	}
}

func TestLoad_WithEnvironment(t *testing.T) {
	path := writeFile(t, "sibl.yaml", "bridge:\n  port: 4096\n")
	t.Setenv(EnvironmentVariable, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bridge.Port != 4096 {
		t.Errorf("expected port=4096, got %d", cfg.Bridge.Port)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Bridge.Host != "localhost" {
		t.Errorf("expected default host, got %s", cfg.Bridge.Host)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(EnvironmentVariable, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "sibl.yaml", `
bridge:
  host: 127.0.0.1
  port: 3000
  poll_interval: 250ms
  read_timeout: 2s
load:
  command: ["blender", "--python"]
  history: 5
log:
  level: debug
  format: json
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Bridge.Host != "127.0.0.1" || cfg.Bridge.Port != 3000 {
		t.Errorf("unexpected bridge section: %+v", cfg.Bridge)
	}
	if got := strings.Join(cfg.Load.Command, " "); got != "blender --python" {
		t.Errorf("unexpected load command: %q", got)
	}
	if cfg.Load.History != 5 {
		t.Errorf("expected history=5, got %d", cfg.Load.History)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.Log.SlogLevel())
	}

	bridgeConfig, err := cfg.BridgeConfig()
	if err != nil {
		t.Fatalf("BridgeConfig: %v", err)
	}
	if bridgeConfig.Address() != "127.0.0.1:3000" {
		t.Errorf("unexpected address %s", bridgeConfig.Address())
	}
	if bridgeConfig.ReadTimeout != 2*time.Second {
		t.Errorf("expected read timeout 2s, got %v", bridgeConfig.ReadTimeout)
	}
	if bridgeConfig.MaxPayloadSize != 1024 {
		t.Errorf("expected max payload 1024, got %d", bridgeConfig.MaxPayloadSize)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	path := writeFile(t, "sibl.jsonc", `{
  // sIBL GUI listens on a non-default port on this machine.
  "bridge": {"port": 2049, "poll_interval": "50ms",},
  /* trailing commas and comments are allowed */
  "log": {"format": "text"},
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Bridge.Port != 2049 {
		t.Errorf("expected port=2049, got %d", cfg.Bridge.Port)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected format=text, got %s", cfg.Log.Format)
	}
	if cfg.Bridge.ReadTimeout != "5s" {
		t.Errorf("expected default read timeout, got %s", cfg.Bridge.ReadTimeout)
	}
}

func TestLoadFile_CoercesHost(t *testing.T) {
	path := writeFile(t, "sibl.yaml", "bridge:\n  host: render-node.example.com\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Bridge.Host != "localhost" {
		t.Errorf("expected hostname coerced to localhost, got %s", cfg.Bridge.Host)
	}
}

func TestLoadFile_ExpandsVariables(t *testing.T) {
	t.Setenv("HOME", "/home/artist")
	t.Setenv("SIBL_TEST_BLENDER", "")
	path := writeFile(t, "sibl.yaml", `
gui:
  executable: ${HOME}/sIBL_GUI/sIBL_GUI
load:
  command: ["${SIBL_TEST_BLENDER:-blender}", "--python"]
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.GUI.Executable != "/home/artist/sIBL_GUI/sIBL_GUI" {
		t.Errorf("unexpected executable %s", cfg.GUI.Executable)
	}
	if cfg.Load.Command[0] != "blender" {
		t.Errorf("expected default expansion to blender, got %s", cfg.Load.Command[0])
	}
}

func TestLoadFile_ChecksExecutable(t *testing.T) {
	directory := t.TempDir()
	executable := filepath.Join(directory, "sIBL_GUI")
	writeExecutable(t, executable, 0755)

	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, "sibl.yaml", "gui:\n  executable: "+executable+"\n")
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if cfg.GUI.Executable != executable {
			t.Errorf("Executable = %q, want %q", cfg.GUI.Executable, executable)
		}
	})

	t.Run("missing", func(t *testing.T) {
		missing := filepath.Join(directory, "absent", "sIBL_GUI")
		path := writeFile(t, "sibl.yaml", "gui:\n  executable: "+missing+"\n")
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		err = cfg.Validate()
		if !errors.Is(err, ErrNotExecutable) {
			t.Fatalf("Validate = %v, want ErrNotExecutable", err)
		}
		if !strings.Contains(err.Error(), "gui.executable") {
			t.Errorf("error %q does not mention gui.executable", err)
		}

		// A valid override replaces the bad file value.
		if err := cfg.GUI.SetExecutable(executable); err != nil {
			t.Fatalf("SetExecutable: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate after override: %v", err)
		}
	})
}

func TestLoadFile_Malformed(t *testing.T) {
	path := writeFile(t, "sibl.yaml", "bridge: [not, a, map\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"port too large", func(c *Config) { c.Bridge.Port = 70000 }, "bridge.port"},
		{"negative port", func(c *Config) { c.Bridge.Port = -1 }, "bridge.port"},
		{"empty host", func(c *Config) { c.Bridge.Host = "" }, "bridge.host"},
		{"zero poll interval", func(c *Config) { c.Bridge.PollInterval = "0s" }, "bridge.poll_interval"},
		{"unparseable read timeout", func(c *Config) { c.Bridge.ReadTimeout = "soon" }, "bridge.read_timeout"},
		{"negative history", func(c *Config) { c.Load.History = -1 }, "load.history"},
		{"unknown level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg := Default()
			testCase.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), testCase.want) {
				t.Errorf("error %q does not mention %s", err, testCase.want)
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Bridge.Port = -5
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "bridge.port") || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("expected both problems reported, got %q", err)
	}
}
