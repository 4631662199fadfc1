// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package launch

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// SystemProcesses lists the processes of the running system.
type SystemProcesses struct{}

// RunningProcesses returns every process whose executable path can be
// read. Processes that exit during the scan, or whose executable is
// hidden from this user, are skipped.
func (SystemProcesses) RunningProcesses(ctx context.Context) ([]RunningProcess, error) {
	processes, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	running := make([]RunningProcess, 0, len(processes))
	for _, p := range processes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		executable, err := p.ExeWithContext(ctx)
		if err != nil || executable == "" {
			continue
		}
		running = append(running, RunningProcess{PID: p.Pid, Executable: executable})
	}
	return running, nil
}
