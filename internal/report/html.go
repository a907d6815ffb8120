// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mradaci/WinGamingDiag/internal/redact"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// htmlReport is parsed once; the template only reads resultView so redaction
// happens before rendering, not inside it.
var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"lower": strings.ToLower,
}).Parse(htmlReportBody))

const htmlReportBody = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>WinGamingDiag - System Diagnostic Report</title>
<style>
  body { font-family: "Segoe UI", system-ui, sans-serif; background: #12141a; color: #e6e6e6; margin: 0; }
  .container { max-width: 960px; margin: 0 auto; padding: 24px; }
  header { border-bottom: 1px solid #2a2e3a; padding-bottom: 16px; margin-bottom: 24px; }
  h1 { margin: 0 0 4px; font-size: 28px; }
  .meta { color: #8a8f9e; font-size: 13px; }
  .dashboard { display: flex; gap: 16px; flex-wrap: wrap; margin-bottom: 24px; }
  .card { background: #1b1e28; border: 1px solid #2a2e3a; border-radius: 8px; padding: 16px; flex: 1; min-width: 220px; }
  .card h2 { margin: 0 0 12px; font-size: 15px; color: #8a8f9e; text-transform: uppercase; }
  .score { font-size: 44px; font-weight: 700; }
  .score.good { color: #4caf78; }
  .score.fair { color: #e0b84c; }
  .score.poor { color: #e05c5c; }
  .counts { display: flex; gap: 18px; }
  .counts .n { font-size: 26px; font-weight: 700; display: block; }
  .critical { color: #e05c5c; }
  .high { color: #e08a4c; }
  .medium { color: #e0b84c; }
  .low { color: #4caf78; }
  .section { margin-bottom: 24px; }
  .issue { background: #1b1e28; border-left: 4px solid #2a2e3a; border-radius: 4px; padding: 12px 16px; margin-bottom: 12px; }
  .issue.critical { border-left-color: #e05c5c; }
  .issue.high { border-left-color: #e08a4c; }
  .issue.medium { border-left-color: #e0b84c; }
  .issue.low { border-left-color: #4caf78; }
  .issue h3 { margin: 0 0 6px; font-size: 16px; }
  .issue .tag { font-size: 12px; color: #8a8f9e; margin-right: 12px; }
  .issue .rec { color: #7cc5e6; margin-top: 8px; }
  table { width: 100%; border-collapse: collapse; }
  td, th { text-align: left; padding: 6px 8px; border-bottom: 1px solid #2a2e3a; font-size: 14px; }
  th { color: #8a8f9e; }
  footer { color: #8a8f9e; font-size: 12px; border-top: 1px solid #2a2e3a; padding-top: 12px; }
</style>
</head>
<body>
<div class="container">
  <header>
    <h1>WinGamingDiag Report</h1>
    <div class="meta">Scan {{.ScanID}} &middot; {{.Timestamp}} &middot; v{{.ScanVersion}}</div>
  </header>

  <div class="dashboard">
    <div class="card">
      <h2>System Health</h2>
      <div class="score {{if ge .HealthScore 70}}good{{else if ge .HealthScore 50}}fair{{else}}poor{{end}}">{{.HealthScore}}<small>/100</small></div>
      <div class="meta">{{.Status}}</div>
    </div>
    <div class="card">
      <h2>Issues</h2>
      <div class="counts">
        <div><span class="n critical">{{.Critical}}</span>Critical</div>
        <div><span class="n high">{{.High}}</span>High</div>
        <div><span class="n medium">{{.Medium}}</span>Medium</div>
        <div><span class="n low">{{.Low}}</span>Low</div>
      </div>
    </div>
  </div>

  {{if .Issues}}
  <div class="section">
    <h2>Detailed Findings</h2>
    {{range .Issues}}
    <div class="issue {{lower .Severity}}">
      <h3>[{{.Severity}}] {{.Title}}</h3>
      <span class="tag">Category: {{.Category}}</span>
      <span class="tag">Confidence: {{.Confidence}}</span>
      <p>{{.Description}}</p>
      <div class="rec">Recommendation: {{.Recommendation}}</div>
    </div>
    {{end}}
  </div>
  {{end}}

  {{if .Specs}}
  <div class="section">
    <h2>System Specifications</h2>
    <table>
      {{range .Specs}}<tr><th>{{.Label}}</th><td>{{.Value}}</td></tr>{{end}}
    </table>
  </div>
  {{end}}

  {{if .Benchmarks}}
  <div class="section">
    <h2>Performance Benchmarks</h2>
    <table>
      <tr><th>Benchmark</th><th>Score</th><th>Unit</th></tr>
      {{range .Benchmarks}}<tr><td>{{.Name}}</td><td>{{.Score}}</td><td>{{.Unit}}</td></tr>{{end}}
    </table>
  </div>
  {{end}}

  {{if .Errors}}
  <div class="section">
    <h2>Collection Errors</h2>
    <table>
      {{range .Errors}}<tr><td>{{.}}</td></tr>{{end}}
    </table>
  </div>
  {{end}}

  <footer>Generated by WinGamingDiag in {{.Duration}}. Sensitive values are redacted.</footer>
</div>
</body>
</html>
`

// WriteHTML renders the HTML report. The redactor scrubs every free-text
// field; the template escapes everything on top of that.
func WriteHTML(w io.Writer, result scan.DiagnosticResult, r *redact.Redactor) error {
	v := newResultView(result, r)
	if err := htmlReport.Execute(w, v); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}

// SaveHTML writes the HTML report to path, creating parent directories.
func SaveHTML(path string, result scan.DiagnosticResult, r *redact.Redactor) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	if err := WriteHTML(f, result, r); err != nil {
		return err
	}
	return f.Close()
}
