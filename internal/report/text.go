// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mradaci/WinGamingDiag/internal/redact"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

const rule70 = "======================================================================"
const line70 = "----------------------------------------------------------------------"

// WriteText writes the flat text report. The redactor scrubs every free-text
// field before it reaches the file.
func WriteText(w io.Writer, result scan.DiagnosticResult, r *redact.Redactor) error {
	v := newResultView(result, r)

	p := &errWriter{w: w}
	p.printf("%s\n", rule70)
	p.printf("WinGamingDiag - System Diagnostic Report\n")
	p.printf("%s\n", rule70)
	p.printf("Scan ID: %s\n", v.ScanID)
	p.printf("Version: %s\n", v.ScanVersion)
	p.printf("Timestamp: %s\n", v.Timestamp)
	p.printf("Duration: %s\n", v.Duration)
	p.printf("Health Score: %d/100 (%s)\n", v.HealthScore, v.Status)
	p.printf("\n")

	p.printf("%s\n", line70)
	p.printf("ISSUE SUMMARY\n")
	p.printf("%s\n", line70)
	p.printf("Critical: %d\n", v.Critical)
	p.printf("High: %d\n", v.High)
	p.printf("Medium: %d\n", v.Medium)
	p.printf("Low: %d\n", v.Low)
	p.printf("\n")

	if len(v.Issues) > 0 {
		p.printf("%s\n", line70)
		p.printf("DETAILED FINDINGS\n")
		p.printf("%s\n", line70)
		for _, issue := range v.Issues {
			p.printf("\n")
			p.printf("[%s] %s\n", issue.Severity, issue.Title)
			p.printf("Category: %s\n", issue.Category)
			p.printf("Confidence: %s\n", issue.Confidence)
			p.printf("\n")
			p.printf("%s\n", issue.Description)
			p.printf("\n")
			p.printf("Recommendation: %s\n", issue.Recommendation)
			p.printf("%s\n", line70)
		}
		p.printf("\n")
	}

	if len(v.Specs) > 0 {
		p.printf("%s\n", line70)
		p.printf("SYSTEM SPECIFICATIONS\n")
		p.printf("%s\n", line70)
		for _, s := range v.Specs {
			p.printf("%s: %s\n", s.Label, s.Value)
		}
		p.printf("\n")
	}

	if len(v.Benchmarks) > 0 {
		p.printf("%s\n", line70)
		p.printf("PERFORMANCE BENCHMARKS\n")
		p.printf("%s\n", line70)
		for _, b := range v.Benchmarks {
			p.printf("%s: %s %s\n", b.Name, b.Score, b.Unit)
		}
		p.printf("\n")
	}

	if len(v.Errors) > 0 {
		p.printf("%s\n", line70)
		p.printf("COLLECTION ERRORS\n")
		p.printf("%s\n", line70)
		for _, e := range v.Errors {
			p.printf("- %s\n", e)
		}
		p.printf("\n")
	}

	return p.err
}

// SaveText writes the text report to path, creating parent directories.
func SaveText(path string, result scan.DiagnosticResult, r *redact.Redactor) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	if err := WriteText(f, result, r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

// DefaultReportPath picks the report destination: the user's Desktop when it
// exists and is writable, else the current directory.
func DefaultReportPath(now time.Time) string {
	filename := "WinGamingDiag_Report_" + now.Format("20060102_150405") + ".txt"
	home, err := os.UserHomeDir()
	if err != nil {
		return filename
	}
	desktop := filepath.Join(home, "Desktop")
	if info, err := os.Stat(desktop); err == nil && info.IsDir() && writable(desktop) {
		return filepath.Join(desktop, filename)
	}
	return filename
}

func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".wgd-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// errWriter sticks at the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (p *errWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
