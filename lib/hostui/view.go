// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package hostui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jedfrechette/sibl-gui-for-blender/bridge"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/loader"
)

// recentLoadCount is how many history entries the panel shows.
const recentLoadCount = 5

// panelChrome is the horizontal space taken by the panel's border and
// padding.
const panelChrome = 4

// View implements tea.Model.
func (model Model) View() string {
	if model.quitting {
		return ""
	}

	var lines []string
	lines = append(lines, model.styles.title.Render("sIBL GUI Bridge"), "")
	lines = append(lines, model.renderServer(model.bridge.Status())...)
	lines = append(lines, "", model.field("sIBL GUI", model.guiDescription()))
	if loads := model.renderLoads(); len(loads) > 0 {
		lines = append(lines, "", model.styles.label.Render("Recent loads"))
		lines = append(lines, loads...)
	}

	contentWidth := model.width - panelChrome
	if contentWidth > 0 {
		for index, line := range lines {
			lines[index] = ansi.Truncate(line, contentWidth, "…")
		}
	}

	sections := []string{model.styles.panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))}
	if model.notice != "" {
		notice := model.notice
		if model.width > 0 {
			notice = ansi.Truncate(notice, model.width, "…")
		}
		sections = append(sections, model.styles.levelStyle(model.noticeLevel).Render(notice))
	}
	sections = append(sections, model.help.View(model.keys))
	return strings.Join(sections, "\n")
}

// renderServer renders the server section.
func (model Model) renderServer(status bridge.Status) []string {
	if status.State != bridge.Running {
		return []string{model.styles.notRunning.Render("TCP Server Not Running")}
	}
	lines := []string{
		model.styles.running.Render("TCP Server Running"),
		model.field("Address", status.Host),
		model.field("Port", strconv.Itoa(status.Port)),
	}
	if status.Pending {
		lines = append(lines, model.field("Pending", "load queued"))
	}
	return lines
}

func (model Model) guiDescription() string {
	if model.gui.Executable != "" {
		return model.gui.Executable
	}
	return "sIBL_GUI from PATH"
}

// renderLoads renders the most recent loads, newest first.
func (model Model) renderLoads() []string {
	if model.history == nil {
		return nil
	}
	history := model.history.History()
	if len(history) > recentLoadCount {
		history = history[len(history)-recentLoadCount:]
	}
	slices.Reverse(history)

	lines := make([]string, 0, len(history))
	for _, outcome := range history {
		lines = append(lines, model.renderOutcome(outcome))
	}
	return lines
}

func (model Model) renderOutcome(outcome loader.Outcome) string {
	timestamp := model.styles.faint.Render(outcome.Time.Format("15:04:05"))
	if outcome.Err != nil {
		return fmt.Sprintf("  %s  %s  %s", timestamp,
			model.styles.error.Render("failed      "), outcome.Err.Error())
	}
	return fmt.Sprintf("  %s  %s  %s", timestamp,
		model.styles.faint.Render(outcome.Script.Digest.Short()), outcome.Script.Path)
}

// field renders an indented "Label  value" line.
func (model Model) field(label, value string) string {
	return "  " + model.styles.label.Render(fmt.Sprintf("%-9s", label)) + " " + value
}

func formatPID(text string, pid int32) string {
	return fmt.Sprintf("%s (pid %d)", text, pid)
}
