// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history", "scans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func resultAt(ts time.Time, issues []scan.Issue) scan.DiagnosticResult {
	return scan.NewDiagnosticResult(scan.SystemSnapshot{Timestamp: ts}, issues, time.Second)
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := resultAt(base, []scan.Issue{
		{Title: "Slow Disk", Category: scan.CategoryPerformance, Severity: scan.SeverityHigh},
	})
	second := resultAt(base.Add(24*time.Hour), nil)

	require.NoError(t, store.Record(first))
	require.NoError(t, store.Record(second))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, second.ScanID, entries[0].ScanID)
	assert.Equal(t, 100, entries[0].HealthScore)
	assert.Equal(t, 0, entries[0].TotalIssues)

	assert.Equal(t, first.ScanID, entries[1].ScanID)
	assert.Equal(t, 85, entries[1].HealthScore)
	assert.Equal(t, 1, entries[1].High)
	assert.Equal(t, 1, entries[1].TotalIssues)
	assert.True(t, entries[1].Timestamp.Equal(base))
}

func TestRecordDeduplicatesScanID(t *testing.T) {
	store := openTestStore(t)
	result := resultAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), nil)

	require.NoError(t, store.Record(result))
	require.NoError(t, store.Record(result))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecentHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(resultAt(base.Add(time.Duration(i)*time.Hour), nil)))
	}

	entries, err := store.Recent(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))
}

func TestWindow(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Record(resultAt(base.Add(time.Duration(i)*24*time.Hour), nil)))
	}

	entries, err := store.Window(base.Add(36 * time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// oldest first inside the window
	assert.True(t, entries[0].Timestamp.Before(entries[1].Timestamp))
	assert.True(t, entries[0].Timestamp.Equal(base.Add(48*time.Hour)))
}

func TestAnalyzeTrend(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	record := func(t *testing.T, store *Store, scores []int) {
		t.Helper()
		for i, score := range scores {
			issues := issuesForScore(score)
			result := resultAt(base.Add(time.Duration(i)*24*time.Hour), issues)
			require.Equal(t, score, result.HealthScore(), "fixture score mismatch")
			require.NoError(t, store.Record(result))
		}
	}

	tests := []struct {
		name     string
		scores   []int
		expected Trend
	}{
		{
			name:     "improving",
			scores:   []int{60, 60, 85, 85},
			expected: TrendImproving,
		},
		{
			name:     "degrading",
			scores:   []int{100, 100, 60, 60},
			expected: TrendDegrading,
		},
		{
			name:     "stable",
			scores:   []int{85, 85, 85, 85},
			expected: TrendStable,
		},
		{
			name:     "small movement is stable",
			scores:   []int{85, 84, 85, 84},
			expected: TrendStable,
		},
		{
			name:     "one scan is insufficient",
			scores:   []int{85},
			expected: TrendInsufficient,
		},
		{
			name:     "empty history is insufficient",
			scores:   nil,
			expected: TrendInsufficient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := openTestStore(t)
			record(t, store, tt.scores)

			trend, err := store.AnalyzeTrend(base.Add(-time.Hour))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, trend)
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	entry := func(score int) Entry { return Entry{HealthScore: score} }

	tests := []struct {
		name     string
		entries  []Entry
		expected Trend
	}{
		{"empty", nil, TrendInsufficient},
		{"single", []Entry{entry(80)}, TrendInsufficient},
		{"improving pair", []Entry{entry(70), entry(90)}, TrendImproving},
		{"degrading pair", []Entry{entry(90), entry(70)}, TrendDegrading},
		{"exactly at threshold is stable", []Entry{entry(80), entry(85)}, TrendStable},
		{"just past threshold improves", []Entry{entry(80), entry(86)}, TrendImproving},
		{"odd length splits around midpoint", []Entry{entry(50), entry(90), entry(90)}, TrendImproving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyTrend(tt.entries))
		})
	}
}

// issuesForScore builds an issue list whose severity penalties land exactly on
// the requested health score.
func issuesForScore(score int) []scan.Issue {
	var issues []scan.Issue
	add := func(sev scan.Severity, n int, penalty int) int {
		for i := 0; i < n; i++ {
			issues = append(issues, scan.Issue{
				Title:    string(sev) + " fixture",
				Category: scan.CategoryPerformance,
				Severity: sev,
			})
		}
		return n * penalty
	}

	deficit := 100 - score
	deficit -= add(scan.SeverityHigh, deficit/15, 15)
	deficit -= add(scan.SeverityMedium, deficit/5, 5)
	deficit -= add(scan.SeverityLow, deficit, 1)
	return issues
}
