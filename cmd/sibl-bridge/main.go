// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/jedfrechette/sibl-gui-for-blender/bridge"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/clock"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/config"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/hostui"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/launch"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/loader"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/process"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

// options holds the parsed command line.
type options struct {
	configPath string
	host       string
	port       int
	gui        string
	headless   bool
	verbose    bool
	logOutput  string
	version    bool
	help       bool

	// changed records which overriding flags were given.
	changed map[string]bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	parsed := &options{changed: make(map[string]bool)}

	flagSet := pflag.NewFlagSet("sibl-bridge", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVar(&parsed.configPath, "config", "", "config file (YAML, or JSON with comments for .json/.jsonc); default $"+config.EnvironmentVariable)
	flagSet.StringVar(&parsed.host, "host", "", "address to listen on: localhost or an IP (default localhost)")
	flagSet.IntVar(&parsed.port, "port", 0, "TCP port sIBL GUI connects to (default 2048)")
	flagSet.StringVar(&parsed.gui, "gui", "", "sIBL GUI executable, or .app bundle on macOS")
	flagSet.BoolVar(&parsed.headless, "headless", false, "run without the status panel until SIGINT/SIGTERM")
	flagSet.BoolVarP(&parsed.verbose, "verbose", "v", false, "enable per-connection debug logging")
	flagSet.StringVar(&parsed.logOutput, "log-output", "", "also write JSON log records to this file")
	flagSet.BoolVar(&parsed.version, "version", false, "print version and exit")
	flagSet.BoolVarP(&parsed.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			parsed.help = true
			return parsed, nil
		}
		return nil, usageErrorf("%v", err)
	}
	if flagSet.NArg() > 0 {
		return nil, usageErrorf("unexpected argument: %s", flagSet.Arg(0))
	}

	flagSet.Visit(func(flag *pflag.Flag) {
		parsed.changed[flag.Name] = true
	})
	return parsed, nil
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig(parsed *options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if parsed.configPath != "" {
		cfg, err = config.LoadFile(parsed.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if parsed.changed["host"] {
		cfg.Bridge.Host = config.CoerceHost(parsed.host)
	}
	if parsed.changed["port"] {
		cfg.Bridge.Port = parsed.port
	}
	if parsed.changed["gui"] {
		if err := cfg.GUI.SetExecutable(parsed.gui); err != nil {
			return nil, usageErrorf("--gui: %w", err).withHint(
				"pass the sIBL_GUI executable itself (or sIBL_GUI.app on macOS)")
		}
	}
	if parsed.verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, usageErrorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(args []string) error {
	parsed, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if parsed.help {
		printUsage(os.Stderr)
		return nil
	}
	if parsed.version {
		printVersion(os.Stdout, parsed.verbose)
		return nil
	}

	cfg, err := loadConfig(parsed)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if parsed.headless {
		handler, closeLog, err := newLogHandler(cfg.Log, os.Stderr, isTerminal(os.Stderr), parsed.logOutput)
		if err != nil {
			return err
		}
		defer closeLog()
		logger := slog.New(handler)

		host, err := newHost(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer host.Close()
		return runHeadless(ctx, host, clock.Real())
	}

	return runInteractive(ctx, cfg, parsed.logOutput)
}

// host is the set of components one bridge process runs.
type host struct {
	config   *config.Config
	logger   *slog.Logger
	manager  *bridge.Manager
	loader   *loader.ScriptLoader
	consumer *bridge.Consumer
	launcher *launch.Launcher
}

func newHost(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*host, error) {
	var apply loader.ApplyFunc
	if len(cfg.Load.Command) > 0 {
		var err error
		apply, err = loader.CommandApply(ctx, cfg.Load.Command, logger)
		if err != nil {
			return nil, usageErrorf("load.command: %w", err)
		}
	}

	manager := bridge.NewManager(logger)
	scripts := loader.New(apply, clock.Real(), logger, cfg.Load.History)
	return &host{
		config:   cfg,
		logger:   logger,
		manager:  manager,
		loader:   scripts,
		consumer: bridge.NewConsumer(manager, scripts, logger),
		launcher: launch.New(nil, logger),
	}, nil
}

// Close stops the server.
func (h *host) Close() error {
	return h.manager.Close()
}

// runHeadless starts the server and polls on the calling goroutine
// until ctx is cancelled or the server stops.
func runHeadless(ctx context.Context, h *host, clk clock.Clock) error {
	bridgeConfig, err := h.config.BridgeConfig()
	if err != nil {
		return err
	}
	pollInterval, err := h.config.PollInterval()
	if err != nil {
		return err
	}

	if err := h.manager.Start(ctx, bridgeConfig); err != nil {
		return startError(err, bridgeConfig)
	}
	defer h.manager.Stop()

	status := h.manager.Status()
	h.logger.Info("waiting for sIBL GUI",
		"address", status.Address(),
		"gui", h.config.GUI.Resolve(),
	)
	return h.consumer.Run(ctx, clk, pollInterval)
}

// startError adds a hint to a bind failure.
func startError(err error, bridgeConfig bridge.Config) error {
	switch {
	case errors.Is(err, bridge.ErrAddressInUse):
		return wrapError(err).withHint(fmt.Sprintf(
			"another program is listening on %s; stop it or pick another port with --port", bridgeConfig.Address()))
	case errors.Is(err, bridge.ErrPermissionDenied):
		return wrapError(err).withHint("ports below 1024 need elevated privileges; use the default 2048")
	default:
		return err
	}
}

// runInteractive runs the status panel until the user quits.
func runInteractive(ctx context.Context, cfg *config.Config, logOutput string) error {
	// Debug records would flood the status line; --log-output keeps them.
	tuiHandler := hostui.NewTUILogHandler(max(cfg.Log.SlogLevel(), slog.LevelInfo))

	var handler slog.Handler = tuiHandler
	if logOutput != "" {
		fileHandler, closeFile, err := openFileLogHandler(logOutput, cfg.Log.SlogLevel())
		if err != nil {
			return usageErrorf("cannot open log file %s: %w", logOutput, err)
		}
		defer closeFile()
		handler = fanoutHandler{tuiHandler, fileHandler}
	}
	logger := slog.New(handler)

	h, err := newHost(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	bridgeConfig, err := cfg.BridgeConfig()
	if err != nil {
		return err
	}
	pollInterval, err := cfg.PollInterval()
	if err != nil {
		return err
	}

	output := termenv.NewOutput(os.Stdout)
	model := hostui.NewModel(hostui.Options{
		Context:      ctx,
		Bridge:       h.manager,
		Consumer:     h.consumer,
		Config:       bridgeConfig,
		PollInterval: pollInterval,
		GUI:          cfg.GUI,
		Launcher:     h.launcher,
		History:      h.loader,
		StartOnInit:  true,
		Renderer:     hostui.NewRenderer(os.Stdout, output.EnvColorProfile()),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	tuiHandler.SetProgram(program)

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// printVersion writes the version line; verbose adds the Go version
// and platform.
func printVersion(w io.Writer, verbose bool) {
	if verbose {
		fmt.Fprintf(w, "sibl-bridge %s\n", version.Full())
		return
	}
	version.Fprint(w, "sibl-bridge")
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `sibl-bridge - load sIBL GUI scripts sent over TCP

USAGE
    sibl-bridge [flags]

FLAGS
        --config <path>      Config file (default: $SIBL_BRIDGE_CONFIG, else built-in defaults)
        --host <addr>        Address to listen on: localhost or an IP (default: localhost)
        --port <n>           TCP port sIBL GUI connects to (default: 2048)
        --gui <path>         sIBL GUI executable, or sIBL_GUI.app on macOS
        --headless           No status panel; run until SIGINT/SIGTERM
    -v, --verbose            Enable per-connection debug logging
        --log-output <path>  Also write JSON log records to this file
        --version            Print version and exit (with -v: Go version and platform)
    -h, --help               Show this help

KEYS (interactive mode)
    s  start server    x  stop server    l  launch sIBL GUI    q  quit

EXAMPLES
    # Status panel on the default port
    sibl-bridge

    # Headless, running every delivered script through Blender
    sibl-bridge --headless --config ~/.config/sibl-bridge.yaml

sIBL GUI must be configured to send to the same host and port.
`)
}
