// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// WorkerTimeout bounds the hardware worker subprocess. Firmware-level WMI
// queries on broken machines can hang indefinitely; past this deadline the
// worker is killed and the scan continues with an empty hardware snapshot.
const WorkerTimeout = 120 * time.Second

// WorkerSubcommand is the hidden CLI verb that runs hardware collection in a
// child process and writes the payload to the file given by --output.
const WorkerSubcommand = "collect-hardware"

// WorkerPayload is the JSON handoff between the worker subprocess and the
// parent agent.
type WorkerPayload struct {
	Hardware scan.HardwareSnapshot `json:"hardware"`
	Errors   []string              `json:"errors"`
}

// HardwareRunner produces the hardware snapshot for a scan. The subprocess
// implementation isolates WMI crashes from the main process; the in-process
// implementation backs the worker subcommand itself.
type HardwareRunner interface {
	Run(ctx context.Context) (scan.HardwareSnapshot, []string, error)
}

// SubprocessRunner re-executes the current binary with the worker subcommand
// and reads the result back through a temp file.
type SubprocessRunner struct {
	logger  logr.Logger
	timeout time.Duration
	tempDir string

	// execPath overrides the spawned binary in tests.
	execPath string
}

var _ HardwareRunner = (*SubprocessRunner)(nil)

func NewSubprocessRunner(logger logr.Logger) *SubprocessRunner {
	return &SubprocessRunner{
		logger:  logger.WithName("hardware-worker"),
		timeout: WorkerTimeout,
		tempDir: os.TempDir(),
	}
}

func (r *SubprocessRunner) Run(ctx context.Context) (scan.HardwareSnapshot, []string, error) {
	var empty scan.HardwareSnapshot

	execPath := r.execPath
	if execPath == "" {
		path, err := os.Executable()
		if err != nil {
			return empty, nil, fmt.Errorf("failed to locate executable: %w", err)
		}
		execPath = path
	}

	outputPath := filepath.Join(r.tempDir, "wgd-hw-"+uuid.NewString()+".json")
	defer os.Remove(outputPath)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, execPath, WorkerSubcommand, "--output", outputPath)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return empty, nil, fmt.Errorf("hardware worker timed out after %s", r.timeout)
		}
		return empty, nil, fmt.Errorf("hardware worker failed: %w", err)
	}
	r.logger.V(1).Info("Hardware worker finished", "duration", time.Since(start))

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return empty, nil, fmt.Errorf("failed to read worker output: %w", err)
	}
	var payload WorkerPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return empty, nil, fmt.Errorf("failed to decode worker output: %w", err)
	}
	return payload.Hardware, payload.Errors, nil
}

// InProcessRunner runs hardware collection directly. The worker subcommand
// uses it; it is also the fallback when subprocess isolation is not wanted.
type InProcessRunner struct {
	collector HardwareCollector
}

// HardwareCollector is the slice of the hardware collector the runners need.
type HardwareCollector interface {
	CollectAll(ctx context.Context) (scan.HardwareSnapshot, []string)
}

var _ HardwareRunner = (*InProcessRunner)(nil)

func NewInProcessRunner(collector HardwareCollector) (*InProcessRunner, error) {
	if collector == nil {
		return nil, fmt.Errorf("hardware collector is required")
	}
	return &InProcessRunner{collector: collector}, nil
}

func (r *InProcessRunner) Run(ctx context.Context) (scan.HardwareSnapshot, []string, error) {
	snapshot, errs := r.collector.CollectAll(ctx)
	return snapshot, errs, nil
}

// WriteWorkerPayload serializes the worker result for the parent process.
func WriteWorkerPayload(path string, payload WorkerPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode worker payload: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write worker payload: %w", err)
	}
	return nil
}
