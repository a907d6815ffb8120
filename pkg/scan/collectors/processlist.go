// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
)

type processEntry struct {
	Name string
	PID  int32
}

// listProcesses returns the running process table, preferring the fact
// provider and falling back to the portable process API when WMI is
// unavailable.
func listProcesses(ctx context.Context, provider facts.Provider) ([]processEntry, error) {
	if provider != nil && provider.Available() {
		var procs []win32Process
		if _, err := provider.Query(ctx, &procs, "Win32_Process", ""); err == nil {
			entries := make([]processEntry, 0, len(procs))
			for _, p := range procs {
				entries = append(entries, processEntry{Name: p.Name, PID: int32(p.ProcessId)})
			}
			return entries, nil
		}
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	entries := make([]processEntry, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		entries = append(entries, processEntry{Name: name, PID: p.Pid})
	}
	return entries, nil
}
