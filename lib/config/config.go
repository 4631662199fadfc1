// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/jedfrechette/sibl-gui-for-blender/bridge"
)

// EnvironmentVariable names the config file when no --config flag is
// given.
const EnvironmentVariable = "SIBL_BRIDGE_CONFIG"

// Config is the complete set of bridge preferences.
type Config struct {
	// Bridge configures the listener and the poll schedule.
	Bridge BridgeSection `yaml:"bridge" json:"bridge"`

	// GUI configures the sIBL GUI launcher.
	GUI GUIConfig `yaml:"gui" json:"gui"`

	// Load configures what happens to a delivered script.
	Load LoadConfig `yaml:"load" json:"load"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log" json:"log"`
}

// BridgeSection configures the listener. Durations are Go duration
// strings ("100ms", "5s").
type BridgeSection struct {
	// Host is the bind address. Values other than "localhost" and IP
	// literals are replaced with "localhost" on load.
	// Default: localhost
	Host string `yaml:"host" json:"host"`

	// Port is the TCP port sIBL GUI connects to.
	// Default: 2048
	Port int `yaml:"port" json:"port"`

	// PollInterval is the period of the main-loop poll.
	// Default: 100ms
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`

	// ReadTimeout bounds each connection's read.
	// Default: 5s
	ReadTimeout string `yaml:"read_timeout" json:"read_timeout"`
}

// LoadConfig configures the script loader.
type LoadConfig struct {
	// Command is run with the delivered script path appended, for
	// example ["blender", "--background", "--python"]. Empty means the
	// load is only recorded.
	Command []string `yaml:"command" json:"command"`

	// History is how many recent loads the status panel keeps.
	// Default: 20
	History int `yaml:"history" json:"history"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level" json:"level"`

	// Format is one of auto, text, json. auto picks text on a terminal
	// and JSON otherwise.
	// Default: auto
	Format string `yaml:"format" json:"format"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"auto", "text", "json"}
)

// Default returns the preferences the add-on ships with.
func Default() *Config {
	return &Config{
		Bridge: BridgeSection{
			Host:         bridge.DefaultHost,
			Port:         bridge.DefaultPort,
			PollInterval: bridge.DefaultPollInterval.String(),
			ReadTimeout:  bridge.DefaultReadTimeout.String(),
		},
		Load: LoadConfig{
			History: 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads the file named by SIBL_BRIDGE_CONFIG, or returns the
// defaults when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads preferences from path over the defaults. Keys missing
// from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	cfg.Bridge.Host = CoerceHost(cfg.Bridge.Host)
	cfg.expandVariables()
	cfg.GUI.normalize(runtime.GOOS)

	return cfg, nil
}

// loadFile decodes a single file into c, picking the decoder by
// extension.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return json.Unmarshal(jsonc.ToJSON(data), c)
	default:
		return yaml.Unmarshal(data, c)
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// path-valued fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.GUI.Executable = expandVars(c.GUI.Executable, vars)
	for i, arg := range c.Load.Command {
		c.Load.Command[i] = expandVars(arg, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Bridge.Host == "" {
		errs = append(errs, fmt.Errorf("bridge.host is required"))
	}
	if c.Bridge.Port < 0 || c.Bridge.Port > 65535 {
		errs = append(errs, fmt.Errorf("bridge.port %d out of range 0-65535", c.Bridge.Port))
	}
	if _, err := positiveDuration("bridge.poll_interval", c.Bridge.PollInterval); err != nil {
		errs = append(errs, err)
	}
	if _, err := positiveDuration("bridge.read_timeout", c.Bridge.ReadTimeout); err != nil {
		errs = append(errs, err)
	}
	if c.GUI.invalid != nil {
		errs = append(errs, fmt.Errorf("gui.executable: %w", c.GUI.invalid))
	}
	if c.Load.History < 0 {
		errs = append(errs, fmt.Errorf("load.history must not be negative, got %d", c.Load.History))
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", logFormats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func positiveDuration(field, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return duration, nil
}

// BridgeConfig returns the listener configuration for bridge.Start.
func (c *Config) BridgeConfig() (bridge.Config, error) {
	readTimeout, err := positiveDuration("bridge.read_timeout", c.Bridge.ReadTimeout)
	if err != nil {
		return bridge.Config{}, err
	}
	return bridge.Config{
		Host:           c.Bridge.Host,
		Port:           c.Bridge.Port,
		ReadTimeout:    readTimeout,
		MaxPayloadSize: bridge.DefaultMaxPayloadSize,
	}, nil
}

// PollInterval returns the parsed bridge.poll_interval.
func (c *Config) PollInterval() (time.Duration, error) {
	return positiveDuration("bridge.poll_interval", c.Bridge.PollInterval)
}

// SlogLevel maps log.level to a slog level. Unknown values map to
// Info; Validate rejects them first.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
