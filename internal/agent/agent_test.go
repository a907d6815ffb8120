// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package agent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// fakeCollector returns a canned value or error for a fixed kind.
type fakeCollector struct {
	kind  scan.CollectorKind
	name  string
	value any
	err   error
	panic string
}

func (c *fakeCollector) Kind() scan.CollectorKind { return c.kind }
func (c *fakeCollector) Name() string             { return c.name }

func (c *fakeCollector) Collect(ctx context.Context) (any, error) {
	if c.panic != "" {
		panic(c.panic)
	}
	return c.value, c.err
}

// fakeRunner stands in for the hardware worker.
type fakeRunner struct {
	snapshot scan.HardwareSnapshot
	errs     []string
	err      error
}

func (r *fakeRunner) Run(ctx context.Context) (scan.HardwareSnapshot, []string, error) {
	return r.snapshot, r.errs, r.err
}

// recordingProgress captures the lifecycle callbacks for assertions.
type recordingProgress struct {
	total    int
	started  []string
	finished []string
	statuses map[string]scan.CollectorStatus
	analysis bool
}

func newRecordingProgress() *recordingProgress {
	return &recordingProgress{statuses: make(map[string]scan.CollectorStatus)}
}

func (p *recordingProgress) CollectionStarted(total int) { p.total = total }
func (p *recordingProgress) CollectorStarted(name string) {
	p.started = append(p.started, name)
}
func (p *recordingProgress) CollectorFinished(name string, status scan.CollectorStatus, _ time.Duration) {
	p.finished = append(p.finished, name)
	p.statuses[name] = status
}
func (p *recordingProgress) CollectionFinished(time.Duration, int) {}
func (p *recordingProgress) AnalysisStarted()                      { p.analysis = true }

func newTestAgent(t *testing.T, config Config, runner HardwareRunner, progress Progress) *Agent {
	t.Helper()

	provider, err := facts.NewWMIProvider(logr.Discard(), facts.DefaultOptions())
	require.NoError(t, err)

	a, err := New(logr.Discard(), config, provider, facts.NewRegistry(), runner, progress)
	require.NoError(t, err)
	return a
}

func TestNewValidatesDependencies(t *testing.T) {
	logger := logr.Discard()
	provider, err := facts.NewWMIProvider(logger, facts.DefaultOptions())
	require.NoError(t, err)
	registry := facts.NewRegistry()
	runner := &fakeRunner{}

	tests := []struct {
		name     string
		config   Config
		provider facts.Provider
		registry facts.Registry
		runner   HardwareRunner
		wantErr  string
	}{
		{
			name:     "nil provider",
			config:   DefaultConfig(),
			registry: registry,
			runner:   runner,
			wantErr:  "fact provider is required",
		},
		{
			name:     "nil registry",
			config:   DefaultConfig(),
			provider: provider,
			runner:   runner,
			wantErr:  "registry reader is required",
		},
		{
			name:     "nil runner",
			config:   DefaultConfig(),
			provider: provider,
			registry: registry,
			wantErr:  "hardware runner is required",
		},
		{
			name:     "bad event log window",
			config:   Config{EventLogDays: 0},
			provider: provider,
			registry: registry,
			runner:   runner,
			wantErr:  "event log window must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(logger, tt.config, tt.provider, tt.registry, tt.runner, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewDefaultsProgressToNop(t *testing.T) {
	a := newTestAgent(t, DefaultConfig(), &fakeRunner{}, nil)
	assert.IsType(t, NopProgress{}, a.progress)
}

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())
	assert.Equal(t, 7, config.EventLogDays)
	assert.False(t, config.Quick)
}

func TestRunFullDiagnosticCollectsEverything(t *testing.T) {
	runner := &fakeRunner{
		snapshot: scan.HardwareSnapshot{
			CPU: &scan.CPUInfo{Name: "AMD Ryzen 7 5800X", Cores: 8, Threads: 16},
		},
	}
	progress := newRecordingProgress()
	a := newTestAgent(t, DefaultConfig(), runner, progress)
	a.collectors = []scan.Collector{
		&fakeCollector{
			kind:  scan.CollectorWindowsInfo,
			name:  "Windows Information",
			value: scan.WindowsInfo{Version: "Windows 11 Pro", Build: "22631"},
		},
		&fakeCollector{
			kind:  scan.CollectorProcesses,
			name:  "Running Processes",
			value: []scan.ProcessIssue{{Name: "Discord.exe", Impact: scan.ImpactMedium}},
		},
	}

	result, err := a.RunFullDiagnostic(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "AMD Ryzen 7 5800X", result.Snapshot.Hardware.CPU.Name)
	assert.Equal(t, "Windows 11 Pro", result.Snapshot.Windows.Version)
	require.Len(t, result.Snapshot.ProcessIssues, 1)
	assert.Empty(t, result.Snapshot.ErrorsEncountered)

	// one entry per collector plus the hardware worker, which runs right
	// after the Windows info collector
	assert.Equal(t, 3, progress.total)
	assert.Equal(t, []string{"Windows Information", "Hardware Inventory", "Running Processes"}, progress.started)
	assert.Equal(t, progress.started, progress.finished)
	assert.True(t, progress.analysis)
	for name, status := range progress.statuses {
		assert.Equal(t, scan.CollectorStatusOK, status, name)
	}
}

func TestRunFullDiagnosticIsolatesFailures(t *testing.T) {
	a := newTestAgent(t, DefaultConfig(), &fakeRunner{}, nil)
	a.collectors = []scan.Collector{
		&fakeCollector{
			kind: scan.CollectorDrivers,
			name: "Device Drivers",
			err:  facts.ErrUnavailable,
		},
		&fakeCollector{
			kind:  scan.CollectorWindowsInfo,
			name:  "Windows Information",
			value: scan.WindowsInfo{Version: "Windows 11 Home"},
		},
	}

	result, err := a.RunFullDiagnostic(context.Background())
	require.NoError(t, err)

	// the failed collector leaves its zero value and records the error
	assert.Zero(t, result.Snapshot.Drivers.TotalDrivers)
	assert.Equal(t, "Windows 11 Home", result.Snapshot.Windows.Version)
	require.Len(t, result.Snapshot.ErrorsEncountered, 1)
	assert.Contains(t, result.Snapshot.ErrorsEncountered[0], "Device Drivers collection failed")

	stat := result.Snapshot.CollectorStats[scan.CollectorDrivers]
	assert.Equal(t, scan.CollectorStatusFailed, stat.Status)
	assert.NotEmpty(t, stat.Error)
	assert.Equal(t, scan.CollectorStatusOK, result.Snapshot.CollectorStats[scan.CollectorWindowsInfo].Status)
}

func TestRunFullDiagnosticRecoversPanics(t *testing.T) {
	a := newTestAgent(t, DefaultConfig(), &fakeRunner{}, nil)
	a.collectors = []scan.Collector{
		&fakeCollector{
			kind:  scan.CollectorEventLogs,
			name:  "Event Logs",
			panic: "index out of range",
		},
		&fakeCollector{
			kind:  scan.CollectorNetwork,
			name:  "Network Diagnostics",
			value: scan.NetworkReport{Connected: true, ConnectionType: "Ethernet"},
		},
	}

	result, err := a.RunFullDiagnostic(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Snapshot.ErrorsEncountered, 1)
	assert.Contains(t, result.Snapshot.ErrorsEncountered[0], "collector panicked: index out of range")
	assert.Equal(t, scan.CollectorStatusFailed, result.Snapshot.CollectorStats[scan.CollectorEventLogs].Status)
	assert.True(t, result.Snapshot.Network.Connected)
}

func TestRunFullDiagnosticQuickSkipsBenchmarks(t *testing.T) {
	config := DefaultConfig()
	config.Quick = true
	a := newTestAgent(t, config, &fakeRunner{}, nil)
	a.collectors = nil

	result, err := a.RunFullDiagnostic(context.Background())
	require.NoError(t, err)

	stat, ok := result.Snapshot.CollectorStats[scan.CollectorBenchmarks]
	require.True(t, ok)
	assert.Equal(t, scan.CollectorStatusSkipped, stat.Status)
	assert.Empty(t, result.Snapshot.Benchmarks.Results)
}

func TestRunFullDiagnosticRecordsRunnerFailure(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("worker timed out")}
	a := newTestAgent(t, DefaultConfig(), runner, nil)
	a.collectors = nil

	result, err := a.RunFullDiagnostic(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Snapshot.ErrorsEncountered, 1)
	assert.Contains(t, result.Snapshot.ErrorsEncountered[0], "Hardware Inventory collection failed: worker timed out")
	assert.Equal(t, scan.CollectorStatusFailed, result.Snapshot.CollectorStats[scan.CollectorHardware].Status)
}

func TestRunFullDiagnosticKeepsWorkerWarnings(t *testing.T) {
	runner := &fakeRunner{
		snapshot: scan.HardwareSnapshot{CPU: &scan.CPUInfo{Name: "Intel Core i5-12400"}},
		errs:     []string{"GPU query failed: timeout"},
	}
	a := newTestAgent(t, DefaultConfig(), runner, nil)
	a.collectors = nil

	result, err := a.RunFullDiagnostic(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Intel Core i5-12400", result.Snapshot.Hardware.CPU.Name)
	require.Len(t, result.Snapshot.ErrorsEncountered, 1)
	assert.Equal(t, "GPU query failed: timeout", result.Snapshot.ErrorsEncountered[0])
	// partial results do not fail the collector
	assert.Equal(t, scan.CollectorStatusOK, result.Snapshot.CollectorStats[scan.CollectorHardware].Status)
}

func TestStoreRoutesEveryKind(t *testing.T) {
	a := newTestAgent(t, DefaultConfig(), &fakeRunner{}, nil)
	snapshot := &scan.SystemSnapshot{}

	a.store(snapshot, scan.CollectorWindowsInfo, scan.WindowsInfo{Version: "Windows 11 Pro"})
	a.store(snapshot, scan.CollectorEventLogs, scan.EventLogSummary{TotalEvents: 12})
	a.store(snapshot, scan.CollectorDrivers, scan.DriverReport{TotalDrivers: 3})
	a.store(snapshot, scan.CollectorLaunchers, scan.LauncherReport{TotalLaunchers: 2})
	a.store(snapshot, scan.CollectorNetwork, scan.NetworkReport{Connected: true})
	a.store(snapshot, scan.CollectorPrerequisites, scan.PrerequisitesReport{GameModeEnabled: true})
	a.store(snapshot, scan.CollectorProcesses, []scan.ProcessIssue{{Name: "OBS64.exe"}})
	a.store(snapshot, scan.CollectorBenchmarks, scan.BenchmarkSuite{Results: []scan.BenchmarkResult{{Name: "CPU Single-Core"}}})

	assert.Equal(t, "Windows 11 Pro", snapshot.Windows.Version)
	assert.Equal(t, 12, snapshot.Events.TotalEvents)
	assert.Equal(t, 3, snapshot.Drivers.TotalDrivers)
	assert.Equal(t, 2, snapshot.Launchers.TotalLaunchers)
	assert.True(t, snapshot.Network.Connected)
	assert.True(t, snapshot.Prerequisites.GameModeEnabled)
	require.Len(t, snapshot.ProcessIssues, 1)
	require.Len(t, snapshot.Benchmarks.Results, 1)
}

func TestStoreDropsMismatchedTypes(t *testing.T) {
	a := newTestAgent(t, DefaultConfig(), &fakeRunner{}, nil)
	snapshot := &scan.SystemSnapshot{}

	a.store(snapshot, scan.CollectorWindowsInfo, "not a windows info")
	a.store(snapshot, scan.CollectorKind("bogus"), scan.WindowsInfo{Version: "dropped"})

	assert.Zero(t, snapshot.Windows)
}
