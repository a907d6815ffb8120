// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package report renders a diagnostic result for people: live console output
// during the scan, and text/HTML report files afterwards. File output is
// redacted; console output is not.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mradaci/WinGamingDiag/internal/redact"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// issueView is one issue prepared for rendering.
type issueView struct {
	Severity       string
	Title          string
	Category       string
	Description    string
	Recommendation string
	Confidence     string
}

// specLine is one label/value pair in the system specification section.
type specLine struct {
	Label string
	Value string
}

// benchView is one benchmark row.
type benchView struct {
	Name  string
	Score string
	Unit  string
}

// resultView is the renderer-facing projection of a DiagnosticResult. All
// strings are already redacted when the view was built with a redactor.
type resultView struct {
	ScanID      string
	ScanVersion string
	Timestamp   string
	Duration    string
	HealthScore int
	Status      string

	Critical int
	High     int
	Medium   int
	Low      int

	Issues     []issueView
	Specs      []specLine
	Benchmarks []benchView
	Errors     []string
}

// newResultView projects a result for rendering. A nil redactor leaves the
// text untouched.
func newResultView(result scan.DiagnosticResult, r *redact.Redactor) resultView {
	scrub := func(s string) string { return s }
	if r != nil {
		scrub = r.Text
	}

	v := resultView{
		ScanID:      result.ScanID,
		ScanVersion: result.ScanVersion,
		Timestamp:   result.Snapshot.Timestamp.Format(time.RFC3339),
		Duration:    fmt.Sprintf("%.2f seconds", result.ScanDuration.Seconds()),
		HealthScore: result.HealthScore(),
		Critical:    result.CriticalCount,
		High:        result.HighCount,
		Medium:      result.MediumCount,
		Low:         result.LowCount,
	}
	v.Status = healthStatus(v.HealthScore)

	for _, issue := range result.Issues {
		v.Issues = append(v.Issues, issueView{
			Severity:       strings.ToUpper(string(issue.Severity)),
			Title:          scrub(issue.Title),
			Category:       string(issue.Category),
			Description:    scrub(issue.Description),
			Recommendation: scrub(issue.Recommendation),
			Confidence:     fmt.Sprintf("%.0f%%", issue.Confidence*100),
		})
	}

	v.Specs = specLines(result.Snapshot, scrub)

	for _, b := range result.Snapshot.Benchmarks.Results {
		v.Benchmarks = append(v.Benchmarks, benchView{
			Name:  b.Name,
			Score: fmt.Sprintf("%.2f", b.Score),
			Unit:  b.Unit,
		})
	}

	for _, e := range result.Snapshot.ErrorsEncountered {
		v.Errors = append(v.Errors, scrub(e))
	}
	for _, e := range result.AnalysisErrors {
		v.Errors = append(v.Errors, scrub(e))
	}
	return v
}

func healthStatus(score int) string {
	switch {
	case score >= 90:
		return "EXCELLENT"
	case score >= 70:
		return "GOOD"
	case score >= 50:
		return "FAIR"
	default:
		return "POOR"
	}
}

func specLines(s scan.SystemSnapshot, scrub func(string) string) []specLine {
	var lines []specLine
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, specLine{Label: label, Value: scrub(value)})
		}
	}

	if s.Windows.Version != "" {
		add("Operating System", fmt.Sprintf("%s (build %s)", s.Windows.Version, s.Windows.Build))
	}
	if cpu := s.Hardware.CPU; cpu != nil {
		add("CPU", fmt.Sprintf("%s (%d cores / %d threads)", cpu.Name, cpu.Cores, cpu.Threads))
	}
	if mem := s.Hardware.Memory; mem != nil && mem.TotalGB > 0 {
		value := fmt.Sprintf("%.1f GB", mem.TotalGB)
		if mem.Type != "" {
			value += " " + mem.Type
		}
		if mem.SpeedMHz != nil {
			value += fmt.Sprintf(" @ %d MHz", *mem.SpeedMHz)
		}
		add("Memory", value)
	}
	for _, gpu := range s.Hardware.GPUs {
		value := gpu.Name
		if gpu.VRAMMB > 0 {
			value += fmt.Sprintf(" (%s VRAM)", humanize.IBytes(uint64(gpu.VRAMMB)<<20))
		}
		if gpu.DriverVersion != "" {
			value += ", driver " + gpu.DriverVersion
		}
		add("GPU", value)
	}
	for _, disk := range s.Hardware.Storage {
		label := "Storage"
		if disk.DriveLetter != "" {
			label = "Storage " + disk.DriveLetter
		}
		value := fmt.Sprintf("%s %s, %s free of %s",
			disk.Model, disk.Type,
			humanize.IBytes(uint64(disk.FreeGB*(1<<30))),
			humanize.IBytes(uint64(disk.TotalGB*(1<<30))))
		add(label, value)
	}
	if mb := s.Hardware.Motherboard; mb != nil {
		add("Motherboard", strings.TrimSpace(mb.Manufacturer+" "+mb.Model))
		add("BIOS", strings.TrimSpace(mb.BIOSVersion+" "+mb.BIOSMode))
	}
	if s.Network.ConnectionType != "" {
		add("Network", string(s.Network.ConnectionType))
	}
	if s.Launchers.TotalLaunchers > 0 {
		add("Game Launchers", fmt.Sprintf("%d installed, %d games", s.Launchers.TotalLaunchers, s.Launchers.TotalGames))
	}
	return lines
}
