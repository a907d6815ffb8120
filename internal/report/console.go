// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/mradaci/WinGamingDiag/internal/agent"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// maxIssuesDisplayed caps the detailed issue listing on the console. Critical
// issues are always shown, even past the cap.
const maxIssuesDisplayed = 10

// Console renders scan progress and results to a terminal. It implements the
// agent's progress interface so the live output interleaves with collection.
type Console struct {
	out     io.Writer
	verbose bool

	total int
	done  int
}

var _ agent.Progress = (*Console)(nil)

// NewConsole builds a console renderer. noColor disables ANSI colors for
// pipes and terminals that cannot render them.
func NewConsole(out io.Writer, verbose, noColor bool) *Console {
	if noColor {
		color.NoColor = true
	}
	return &Console{out: out, verbose: verbose}
}

func (c *Console) CollectionStarted(total int) {
	c.total = total
	c.done = 0
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, color.New(color.Bold).Sprint("Starting system diagnostic collection..."))
	fmt.Fprintln(c.out)
}

func (c *Console) CollectorStarted(name string) {
	if c.verbose {
		fmt.Fprintf(c.out, "  [%d/%d] %s...\n", c.done+1, c.total, name)
	}
}

func (c *Console) CollectorFinished(name string, status scan.CollectorStatus, d time.Duration) {
	c.done++
	mark := color.GreenString("✓")
	if status == scan.CollectorStatusFailed {
		mark = color.RedString("✗")
	}
	fmt.Fprintf(c.out, "  %s %-28s %s\n", mark, name, d.Round(time.Millisecond))
}

func (c *Console) CollectionFinished(d time.Duration, errors int) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, color.New(color.FgGreen, color.Bold).Sprint("Collection complete"))
	fmt.Fprintf(c.out, "  Duration: %.1f seconds\n", d.Seconds())
	if errors > 0 {
		fmt.Fprintf(c.out, "  %s\n", color.YellowString("%d collector error(s), see report for details", errors))
	}
	fmt.Fprintln(c.out)
}

func (c *Console) AnalysisStarted() {
	fmt.Fprintln(c.out, color.New(color.Bold).Sprint("Analyzing collected data..."))
}

// Render prints the final result: the health score box, the severity summary,
// the prioritized issue details, and the benchmark table.
func (c *Console) Render(result scan.DiagnosticResult) {
	c.renderScore(result.HealthScore())
	c.renderSummary(result)
	c.renderIssues(result)
	c.renderBenchmarks(result.Snapshot.Benchmarks)
}

func (c *Console) renderScore(score int) {
	status := healthStatus(score)
	scoreColor := color.New(color.FgGreen)
	switch {
	case score < 50:
		scoreColor = color.New(color.FgRed)
	case score < 90:
		scoreColor = color.New(color.FgYellow)
	}

	barWidth := 40
	filled := barWidth * score / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, scoreColor.Sprintf("  SYSTEM HEALTH SCORE: %d/100 (%s)", score, status))
	fmt.Fprintln(c.out, scoreColor.Sprintf("  [%s]", bar))
	fmt.Fprintln(c.out)
}

func (c *Console) renderSummary(result scan.DiagnosticResult) {
	fmt.Fprintln(c.out, color.New(color.Bold).Sprint("ISSUE SUMMARY"))
	if result.CriticalCount+result.HighCount+result.MediumCount+result.LowCount == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", color.GreenString("No issues detected. System is healthy."))
		return
	}
	if result.CriticalCount > 0 {
		fmt.Fprintf(c.out, "  %s\n", color.RedString("Critical: %d", result.CriticalCount))
	}
	if result.HighCount > 0 {
		fmt.Fprintf(c.out, "  %s\n", color.YellowString("High:     %d", result.HighCount))
	}
	if result.MediumCount > 0 {
		fmt.Fprintf(c.out, "  Medium:   %d\n", result.MediumCount)
	}
	if result.LowCount > 0 {
		fmt.Fprintf(c.out, "  Low:      %d\n", result.LowCount)
	}
	fmt.Fprintln(c.out)
}

func (c *Console) renderIssues(result scan.DiagnosticResult) {
	shown := 0
	display := func(issue scan.Issue) {
		sevColor := color.New(color.FgGreen)
		switch issue.Severity {
		case scan.SeverityCritical:
			sevColor = color.New(color.FgRed, color.Bold)
		case scan.SeverityHigh:
			sevColor = color.New(color.FgYellow, color.Bold)
		case scan.SeverityMedium:
			sevColor = color.New(color.FgYellow)
		}
		fmt.Fprintln(c.out, sevColor.Sprintf("[%s] %s", strings.ToUpper(string(issue.Severity)), issue.Title))
		fmt.Fprintf(c.out, "  Category: %s   Confidence: %.0f%%\n", issue.Category, issue.Confidence*100)
		fmt.Fprintf(c.out, "  %s\n", issue.Description)
		fmt.Fprintf(c.out, "  %s %s\n", color.CyanString("Recommendation:"), issue.Recommendation)
		fmt.Fprintln(c.out, strings.Repeat("-", 70))
		shown++
	}

	for _, issue := range result.Issues {
		if issue.Severity == scan.SeverityCritical {
			display(issue)
		}
	}
	for _, sev := range []scan.Severity{scan.SeverityHigh, scan.SeverityMedium} {
		for _, issue := range result.Issues {
			if issue.Severity == sev && shown < maxIssuesDisplayed {
				display(issue)
			}
		}
	}
	if remaining := len(result.Issues) - shown; remaining > 0 {
		fmt.Fprintf(c.out, "... and %d more issue(s) in the saved report.\n", remaining)
	}
}

func (c *Console) renderBenchmarks(suite scan.BenchmarkSuite) {
	if len(suite.Results) == 0 {
		return
	}
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, color.New(color.Bold).Sprint("PERFORMANCE BENCHMARKS"))
	for _, b := range suite.Results {
		fmt.Fprintf(c.out, "  %-24s %10.2f %s\n", b.Name, b.Score, b.Unit)
	}
	fmt.Fprintf(c.out, "  %-24s %10.1f\n", "Overall", suite.OverallScore())
	fmt.Fprintln(c.out)
}

// ReportSaved confirms where the file report landed.
func (c *Console) ReportSaved(path string) {
	fmt.Fprintf(c.out, "%s Report saved to: %s\n", color.GreenString("✓"), path)
}
