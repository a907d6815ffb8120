// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package agent orchestrates a full diagnostic scan: it runs every collector
// in a fixed sequence with per-collector fault isolation, assembles the
// immutable system snapshot, and hands it to the analysis engine.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
	"github.com/mradaci/WinGamingDiag/pkg/scan/analysis"
	"github.com/mradaci/WinGamingDiag/pkg/scan/collectors"
)

// Config controls a diagnostic run.
type Config struct {
	// Quick skips the benchmark suite entirely.
	Quick bool
	// EventLogDays is the event-log analysis window.
	EventLogDays int
	// Thresholds feed the analysis engine.
	Thresholds analysis.Thresholds
}

func DefaultConfig() Config {
	return Config{
		EventLogDays: 7,
		Thresholds:   analysis.DefaultThresholds(),
	}
}

func (c Config) Validate() error {
	if c.EventLogDays <= 0 {
		return fmt.Errorf("event log window must be positive, got %d", c.EventLogDays)
	}
	return nil
}

// Agent runs diagnostic scans.
type Agent struct {
	logger   logr.Logger
	config   Config
	engine   *analysis.Engine
	runner   HardwareRunner
	progress Progress

	collectors []scan.Collector
	now        func() time.Time
}

// New wires up an agent. The hardware runner is injected so the CLI can pick
// subprocess isolation while tests run in-process.
func New(logger logr.Logger, config Config, provider facts.Provider, registry facts.Registry, runner HardwareRunner, progress Progress) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("fact provider is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry reader is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("hardware runner is required")
	}
	if progress == nil {
		progress = NopProgress{}
	}

	logger = logger.WithName("agent")

	windowsInfo, err := collectors.NewWindowsInfoCollector(logger, provider, registry)
	if err != nil {
		return nil, err
	}
	eventLogs, err := collectors.NewEventLogCollector(logger, provider, config.EventLogDays)
	if err != nil {
		return nil, err
	}
	drivers, err := collectors.NewDriverCollector(logger, provider)
	if err != nil {
		return nil, err
	}
	launchers, err := collectors.NewLauncherCollector(logger, provider, registry)
	if err != nil {
		return nil, err
	}
	network, err := collectors.NewNetworkCollector(logger, provider, registry)
	if err != nil {
		return nil, err
	}
	prereqs, err := collectors.NewPrerequisitesCollector(logger, registry)
	if err != nil {
		return nil, err
	}
	processes, err := collectors.NewProcessCollector(logger, provider)
	if err != nil {
		return nil, err
	}

	ordered := []scan.Collector{
		windowsInfo,
		eventLogs,
		drivers,
		launchers,
		network,
		prereqs,
		processes,
	}
	if !config.Quick {
		size := collectors.SizeDefault
		benchmarks, err := collectors.NewBenchmarkCollector(logger, size)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, benchmarks)
	}

	return &Agent{
		logger:     logger,
		config:     config,
		engine:     analysis.NewEngine(logger, config.Thresholds),
		runner:     runner,
		progress:   progress,
		collectors: ordered,
		now:        time.Now,
	}, nil
}

// RunFullDiagnostic performs the complete scan and returns the result. A
// failing collector never fails the scan: its default value is stored and the
// error is recorded on the snapshot.
func (a *Agent) RunFullDiagnostic(ctx context.Context) (scan.DiagnosticResult, error) {
	start := a.now()
	snapshot := scan.SystemSnapshot{
		Timestamp:      start,
		CollectorStats: make(map[scan.CollectorKind]scan.CollectorStat),
	}

	total := len(a.collectors) + 1 // plus the hardware worker
	if a.config.Quick {
		snapshot.CollectorStats[scan.CollectorBenchmarks] = scan.CollectorStat{Status: scan.CollectorStatusSkipped}
	}
	a.progress.CollectionStarted(total)

	// The hardware worker runs right after the Windows info collector to
	// keep the declared collection sequence.
	hardwareDone := false
	for _, c := range a.collectors {
		a.runCollector(ctx, c, &snapshot)
		if !hardwareDone && c.Kind() == scan.CollectorWindowsInfo {
			a.collectHardware(ctx, &snapshot)
			hardwareDone = true
		}
	}
	if !hardwareDone {
		a.collectHardware(ctx, &snapshot)
	}

	snapshot.CollectionDuration = a.now().Sub(start)
	a.progress.CollectionFinished(snapshot.CollectionDuration, len(snapshot.ErrorsEncountered))

	a.progress.AnalysisStarted()
	issues, ruleErrs := a.engine.Analyze(&snapshot)

	result := scan.NewDiagnosticResult(snapshot, issues, a.now().Sub(start))
	result.AnalysisErrors = ruleErrs
	a.logger.Info("Diagnostic complete",
		"healthScore", result.HealthScore(),
		"issues", len(issues),
		"collectorErrors", len(snapshot.ErrorsEncountered),
		"duration", result.ScanDuration)
	return result, nil
}

// collectHardware delegates to the isolated hardware runner; everything else
// runs in-process.
func (a *Agent) collectHardware(ctx context.Context, snapshot *scan.SystemSnapshot) {
	const name = "Hardware Inventory"
	a.progress.CollectorStarted(name)
	start := a.now()

	hw, errs, err := a.runner.Run(ctx)
	duration := a.now().Sub(start)
	stat := scan.CollectorStat{Status: scan.CollectorStatusOK, Duration: duration}

	snapshot.Hardware = hw
	snapshot.CollectorsUsed = append(snapshot.CollectorsUsed, string(scan.CollectorHardware))
	for _, e := range errs {
		snapshot.ErrorsEncountered = append(snapshot.ErrorsEncountered, e)
	}
	if err != nil {
		stat.Status = scan.CollectorStatusFailed
		stat.Error = err.Error()
		snapshot.ErrorsEncountered = append(snapshot.ErrorsEncountered,
			fmt.Sprintf("%s collection failed: %v", name, err))
		a.logger.Error(err, "Collector failed", "collector", scan.CollectorHardware)
	}
	snapshot.CollectorStats[scan.CollectorHardware] = stat
	a.progress.CollectorFinished(name, stat.Status, duration)
}

func (a *Agent) runCollector(ctx context.Context, c scan.Collector, snapshot *scan.SystemSnapshot) {
	a.progress.CollectorStarted(c.Name())
	start := a.now()

	value, err := a.safeCollect(ctx, c)
	duration := a.now().Sub(start)
	stat := scan.CollectorStat{Status: scan.CollectorStatusOK, Duration: duration}

	if value != nil {
		a.store(snapshot, c.Kind(), value)
	}
	snapshot.CollectorsUsed = append(snapshot.CollectorsUsed, string(c.Kind()))
	if err != nil {
		stat.Status = scan.CollectorStatusFailed
		stat.Error = err.Error()
		snapshot.ErrorsEncountered = append(snapshot.ErrorsEncountered,
			fmt.Sprintf("%s collection failed: %v", c.Name(), err))
		a.logger.V(1).Info("Collector failed", "collector", c.Kind(), "error", err)
	}
	snapshot.CollectorStats[c.Kind()] = stat
	a.progress.CollectorFinished(c.Name(), stat.Status, duration)
}

// safeCollect converts a collector panic into an error so one bad collector
// cannot take down the scan.
func (a *Agent) safeCollect(ctx context.Context, c scan.Collector) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			value = nil
			err = fmt.Errorf("collector panicked: %v", rec)
		}
	}()
	return c.Collect(ctx)
}

// store places a collector's typed result on the snapshot. Unknown kinds and
// mismatched types are dropped; the typed zero value already in place is the
// declared default.
func (a *Agent) store(snapshot *scan.SystemSnapshot, kind scan.CollectorKind, value any) {
	switch kind {
	case scan.CollectorWindowsInfo:
		if v, ok := value.(scan.WindowsInfo); ok {
			snapshot.Windows = v
		}
	case scan.CollectorEventLogs:
		if v, ok := value.(scan.EventLogSummary); ok {
			snapshot.Events = v
		}
	case scan.CollectorDrivers:
		if v, ok := value.(scan.DriverReport); ok {
			snapshot.Drivers = v
		}
	case scan.CollectorLaunchers:
		if v, ok := value.(scan.LauncherReport); ok {
			snapshot.Launchers = v
		}
	case scan.CollectorNetwork:
		if v, ok := value.(scan.NetworkReport); ok {
			snapshot.Network = v
		}
	case scan.CollectorPrerequisites:
		if v, ok := value.(scan.PrerequisitesReport); ok {
			snapshot.Prerequisites = v
		}
	case scan.CollectorProcesses:
		if v, ok := value.([]scan.ProcessIssue); ok {
			snapshot.ProcessIssues = v
		}
	case scan.CollectorBenchmarks:
		if v, ok := value.(scan.BenchmarkSuite); ok {
			snapshot.Benchmarks = v
		}
	default:
		a.logger.V(2).Info("Unknown collector kind", "kind", kind)
	}
}
