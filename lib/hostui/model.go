// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package hostui

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jedfrechette/sibl-gui-for-blender/bridge"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/config"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/launch"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/loader"
)

// Bridge is the lifecycle surface the model drives. *bridge.Manager
// implements it.
type Bridge interface {
	Start(ctx context.Context, config bridge.Config) error
	Stop()
	Status() bridge.Status
}

// Poller runs one poll of the mailbox. *bridge.Consumer implements it.
type Poller interface {
	Poll() bool
}

// Launcher starts sIBL GUI. *launch.Launcher implements it.
type Launcher interface {
	Launch(ctx context.Context, executable string) (launch.Result, error)
}

// HistorySource lists recent loads. *loader.ScriptLoader implements it.
type HistorySource interface {
	History() []loader.Outcome
}

// Options configures a Model. Bridge, Consumer and Config are
// required.
type Options struct {
	Context  context.Context
	Bridge   Bridge
	Consumer Poller
	Config   bridge.Config

	// PollInterval defaults to bridge.DefaultPollInterval.
	PollInterval time.Duration

	// GUI is resolved when the launch key is pressed.
	GUI      config.GUIConfig
	Launcher Launcher

	// History, if set, feeds the recent loads section.
	History HistorySource

	// StartOnInit starts the server as soon as the program runs.
	StartOnInit bool

	// Renderer defaults to a renderer for stdout.
	Renderer *lipgloss.Renderer
	Theme    *Theme
	Keys     *KeyMap
}

// Messages.
type (
	pollTickMsg     struct{}
	startRequestMsg struct{}

	launchResultMsg struct {
		result launch.Result
		err    error
	}
)

// Model is the bubbletea model of the interactive host.
type Model struct {
	ctx          context.Context
	bridge       Bridge
	consumer     Poller
	config       bridge.Config
	pollInterval time.Duration
	gui          config.GUIConfig
	launcher     Launcher
	history      HistorySource
	startOnInit  bool

	keys   KeyMap
	help   help.Model
	styles styles

	// polling is true while a tick chain is outstanding, so a restart
	// within one interval does not start a second chain.
	polling bool

	// notice is the status line: the last log record or action result.
	notice         string
	noticeLevel    slog.Level
	noticeSequence uint64

	width    int
	quitting bool
}

// NewModel returns a model for options.
func NewModel(options Options) Model {
	if options.Context == nil {
		options.Context = context.Background()
	}
	if options.PollInterval <= 0 {
		options.PollInterval = bridge.DefaultPollInterval
	}
	if options.Renderer == nil {
		options.Renderer = lipgloss.NewRenderer(os.Stdout)
	}
	theme := DefaultTheme
	if options.Theme != nil {
		theme = *options.Theme
	}
	keys := DefaultKeyMap
	if options.Keys != nil {
		keys = *options.Keys
	}

	helpModel := help.New()
	helpModel.Styles.ShortKey = options.Renderer.NewStyle().Foreground(theme.Label)
	helpModel.Styles.ShortDesc = options.Renderer.NewStyle().Foreground(theme.FaintText)
	helpModel.Styles.ShortSeparator = options.Renderer.NewStyle().Foreground(theme.Border)

	return Model{
		ctx:          options.Context,
		bridge:       options.Bridge,
		consumer:     options.Consumer,
		config:       options.Config,
		pollInterval: options.PollInterval,
		gui:          options.GUI,
		launcher:     options.Launcher,
		history:      options.History,
		startOnInit:  options.StartOnInit,
		keys:         keys,
		help:         helpModel,
		styles:       newStyles(options.Renderer, theme),
	}
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	if !model.startOnInit {
		return nil
	}
	return func() tea.Msg { return startRequestMsg{} }
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model.quit()
		case key.Matches(message, model.keys.Start):
			return model.start()
		case key.Matches(message, model.keys.Stop):
			return model.stop()
		case key.Matches(message, model.keys.Launch):
			return model.launch()
		}

	case startRequestMsg:
		return model.start()

	case pollTickMsg:
		return model.handlePollTick()

	case launchResultMsg:
		return model.handleLaunchResult(message)

	case logRecordMsg:
		if message.Sequence < model.noticeSequence {
			return model, nil
		}
		model.notice = message.Summary
		model.noticeLevel = message.Level
		model.noticeSequence = message.Sequence
		return model, fadeNotice(message.Sequence)

	case logRecordFadeMsg:
		if message.Sequence == model.noticeSequence {
			model.notice = ""
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.help.Width = message.Width
	}
	return model, nil
}

// start binds the server if it is not running and arms the poll chain.
func (model Model) start() (tea.Model, tea.Cmd) {
	if err := model.bridge.Start(model.ctx, model.config); err != nil {
		model.setNotice(startFailureText(err), slog.LevelError)
		return model, nil
	}
	if model.polling {
		return model, nil
	}
	model.polling = true
	return model, model.schedulePoll()
}

// startFailureText is the user-facing message for a failed start.
func startFailureText(err error) string {
	switch {
	case errors.Is(err, bridge.ErrAddressInUse):
		return "Address already in use"
	case errors.Is(err, bridge.ErrPermissionDenied):
		return "Permission denied"
	default:
		return err.Error()
	}
}

// stop stops the server. The poll chain ends at its next tick.
func (model Model) stop() (tea.Model, tea.Cmd) {
	model.bridge.Stop()
	return model, nil
}

// quit is the teardown transition: the server is stopped before the
// program exits.
func (model Model) quit() (tea.Model, tea.Cmd) {
	model.bridge.Stop()
	model.quitting = true
	return model, tea.Quit
}

func (model Model) handlePollTick() (tea.Model, tea.Cmd) {
	if model.consumer.Poll() {
		return model, model.schedulePoll()
	}
	model.polling = false
	return model, nil
}

func (model Model) schedulePoll() tea.Cmd {
	return tea.Tick(model.pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

// launch resolves the GUI executable and starts it off the event loop;
// scanning the process table can take a noticeable moment.
func (model Model) launch() (tea.Model, tea.Cmd) {
	if model.launcher == nil {
		return model, nil
	}
	executable := model.gui.Resolve()
	ctx := model.ctx
	launcher := model.launcher
	return model, func() tea.Msg {
		result, err := launcher.Launch(ctx, executable)
		return launchResultMsg{result: result, err: err}
	}
}

func (model Model) handleLaunchResult(message launchResultMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(message.err, launch.ErrExecutableNotFound):
		model.setNotice("sIBL GUI executable not found; set gui.executable", slog.LevelWarn)
	case message.err != nil:
		model.setNotice(message.err.Error(), slog.LevelError)
	case message.result.AlreadyRunning:
		model.setNotice(formatPID("sIBL GUI already running", message.result.PID), slog.LevelInfo)
	default:
		model.setNotice(formatPID("sIBL GUI launched", message.result.PID), slog.LevelInfo)
	}
	return model, nil
}

// setNotice shows an action result until the next log record or fade.
func (model *Model) setNotice(text string, level slog.Level) {
	model.notice = text
	model.noticeLevel = level
}

func fadeNotice(sequence uint64) tea.Cmd {
	return tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
		return logRecordFadeMsg{Sequence: sequence}
	})
}
