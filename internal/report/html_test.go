// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mradaci/WinGamingDiag/internal/redact"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleResult(), redact.New()))
	out := buf.String()

	assert.Contains(t, out, "<title>WinGamingDiag - System Diagnostic Report</title>")
	assert.Contains(t, out, "[CRITICAL] Insufficient RAM for Modern Gaming")
	assert.Contains(t, out, `class="issue critical"`)
	assert.Contains(t, out, "AMD Ryzen 7 5800X")
	assert.Contains(t, out, "Disk Sequential Write")
	assert.NotContains(t, out, "johndoe")
}

func TestWriteHTMLEscapesMarkup(t *testing.T) {
	snapshot := scan.SystemSnapshot{}
	issues := []scan.Issue{
		{
			Title:       "Bad issue <script>alert(1)</script>",
			Description: "see <b>details</b>",
			Category:    scan.CategorySoftware,
			Severity:    scan.SeverityMedium,
			Confidence:  0.7,
		},
	}
	result := scan.NewDiagnosticResult(snapshot, issues, 0)

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, result, nil))
	out := buf.String()

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestSaveHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "scan.html")
	require.NoError(t, SaveHTML(path, sampleResult(), redact.New()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
}
