// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// CollectorKind identifies one collection domain.
type CollectorKind string

const (
	CollectorWindowsInfo   CollectorKind = "windows_info"
	CollectorHardware      CollectorKind = "hardware"
	CollectorEventLogs     CollectorKind = "event_logs"
	CollectorDrivers       CollectorKind = "drivers"
	CollectorLaunchers     CollectorKind = "launchers"
	CollectorNetwork       CollectorKind = "network"
	CollectorPrerequisites CollectorKind = "prerequisites"
	CollectorProcesses     CollectorKind = "processes"
	CollectorBenchmarks    CollectorKind = "benchmarks"
)

// CollectorStatus is the outcome of one collector invocation.
type CollectorStatus string

const (
	CollectorStatusOK      CollectorStatus = "ok"
	CollectorStatusFailed  CollectorStatus = "failed"
	CollectorStatusSkipped CollectorStatus = "skipped"
)

// CollectorStat tracks one collector's run within a scan.
type CollectorStat struct {
	Status   CollectorStatus
	Duration time.Duration
	Error    string
}

// SystemSnapshot is the immutable point-in-time aggregate of all collected
// facts. It is constructed exactly once per scan, after every collector has
// either returned or defaulted out, and is never mutated afterwards.
type SystemSnapshot struct {
	Timestamp time.Time

	Hardware      HardwareSnapshot
	Windows       WindowsInfo
	Events        EventLogSummary
	Drivers       DriverReport
	Launchers     LauncherReport
	Network       NetworkReport
	Prerequisites PrerequisitesReport
	ProcessIssues []ProcessIssue
	Benchmarks    BenchmarkSuite

	CollectionDuration time.Duration
	CollectorsUsed     []string
	ErrorsEncountered  []string
	CollectorStats     map[CollectorKind]CollectorStat
}

// DiagnosticResult is the final output of a scan: the snapshot, the analysis
// issues, and derived summary statistics. Severity counts and the health score
// are always recomputed from the issue list, never stored independently.
type DiagnosticResult struct {
	Snapshot SystemSnapshot
	Issues   []Issue

	ScanID       string
	ScanVersion  string
	ScanDuration time.Duration

	CriticalCount int
	HighCount     int
	MediumCount   int
	LowCount      int

	AnalysisErrors []string
}

// ScanVersion is stamped into every DiagnosticResult and report.
const Version = "1.0.0"

// NewDiagnosticResult assembles the final result, deriving the scan ID from
// the snapshot timestamp and the severity counts from the issue list.
func NewDiagnosticResult(snapshot SystemSnapshot, issues []Issue, duration time.Duration) DiagnosticResult {
	r := DiagnosticResult{
		Snapshot:     snapshot,
		Issues:       issues,
		ScanID:       scanID(snapshot.Timestamp),
		ScanVersion:  Version,
		ScanDuration: duration,
	}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			r.CriticalCount++
		case SeverityHigh:
			r.HighCount++
		case SeverityMedium:
			r.MediumCount++
		case SeverityLow:
			r.LowCount++
		}
	}
	return r
}

// HealthScore is the derived 0-100 score for this result.
func (r DiagnosticResult) HealthScore() int {
	return HealthScore(r.Issues)
}

// ExitCode maps the result onto the CLI exit-code convention:
// 0 = no high or critical issues, 1 = high issues present, 2 = critical.
func (r DiagnosticResult) ExitCode() int {
	if r.CriticalCount > 0 {
		return 2
	}
	if r.HighCount > 0 {
		return 1
	}
	return 0
}

func scanID(ts time.Time) string {
	sum := sha256.Sum256([]byte(ts.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:16]
}
