// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
)

// maxReportedOutput bounds how much command output is quoted in an
// error.
const maxReportedOutput = 2048

// CommandApply returns an ApplyFunc that runs argv with the script path
// appended, in the script's directory, and waits for it to exit. A
// non-zero exit is an error carrying the tail of the command's
// combined output. ctx bounds every run.
func CommandApply(ctx context.Context, argv []string, logger *slog.Logger) (ApplyFunc, error) {
	if len(argv) == 0 {
		return nil, errors.New("loader: load command is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	program, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("loader: load command %q: %w", argv[0], err)
	}
	arguments := append([]string(nil), argv[1:]...)

	return func(script Script) error {
		command := exec.CommandContext(ctx, program, slices.Concat(arguments, []string{script.Path})...)
		command.Dir = script.Directory
		var output bytes.Buffer
		command.Stdout = &output
		command.Stderr = &output

		logger.Debug("running load command", "program", program, "script", script.Path)
		if err := command.Run(); err != nil {
			tail := strings.TrimSpace(output.String())
			if len(tail) > maxReportedOutput {
				tail = "..." + tail[len(tail)-maxReportedOutput:]
			}
			if tail == "" {
				return fmt.Errorf("%s: %w", program, err)
			}
			return fmt.Errorf("%s: %w: %s", program, err, tail)
		}
		return nil
	}, nil
}
