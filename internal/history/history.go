// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package history persists per-scan summary rows so repeated runs can be
// compared over time. Only derived numbers are stored, never raw facts.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// Entry is one recorded scan.
type Entry struct {
	ScanID      string
	Timestamp   time.Time
	HealthScore int
	Critical    int
	High        int
	Medium      int
	Low         int
	TotalIssues int
}

// Trend summarizes health-score movement over a window.
type Trend string

const (
	TrendImproving    Trend = "improving"
	TrendStable       Trend = "stable"
	TrendDegrading    Trend = "degrading"
	TrendInsufficient Trend = "insufficient_data"
)

// trendThreshold is the average health-score delta, in points, below which
// movement counts as stable.
const trendThreshold = 5.0

// Store wraps the SQLite history database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		scan_id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		health_score INTEGER NOT NULL,
		critical_count INTEGER NOT NULL,
		high_count INTEGER NOT NULL,
		medium_count INTEGER NOT NULL,
		low_count INTEGER NOT NULL,
		total_issues INTEGER NOT NULL,
		created_at TEXT DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one scan's summary. Recording the same scan ID twice is a
// no-op.
func (s *Store) Record(result scan.DiagnosticResult) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO scans
			(scan_id, timestamp, health_score, critical_count, high_count, medium_count, low_count, total_issues)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.ScanID,
		result.Snapshot.Timestamp.Format(time.RFC3339),
		result.HealthScore(),
		result.CriticalCount,
		result.HighCount,
		result.MediumCount,
		result.LowCount,
		len(result.Issues),
	)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	return nil
}

// Recent returns the newest scans, most recent first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT scan_id, timestamp, health_score, critical_count, high_count, medium_count, low_count, total_issues
		FROM scans
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Window returns scans newer than the cutoff, oldest first.
func (s *Store) Window(since time.Time) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT scan_id, timestamp, health_score, critical_count, high_count, medium_count, low_count, total_issues
		FROM scans
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`, since.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query history window: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// AnalyzeTrend compares the first and second half of the window's health
// scores. Fewer than two scans cannot establish a direction.
func (s *Store) AnalyzeTrend(since time.Time) (Trend, error) {
	entries, err := s.Window(since)
	if err != nil {
		return TrendInsufficient, err
	}
	return classifyTrend(entries), nil
}

func classifyTrend(entries []Entry) Trend {
	if len(entries) < 2 {
		return TrendInsufficient
	}
	mid := len(entries) / 2
	first := averageScore(entries[:mid])
	second := averageScore(entries[mid:])
	switch delta := second - first; {
	case delta > trendThreshold:
		return TrendImproving
	case delta < -trendThreshold:
		return TrendDegrading
	default:
		return TrendStable
	}
}

func averageScore(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.HealthScore
	}
	return float64(sum) / float64(len(entries))
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ScanID, &ts, &e.HealthScore, &e.Critical, &e.High, &e.Medium, &e.Low, &e.TotalIssues); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp in history row %s: %w", e.ScanID, err)
		}
		e.Timestamp = parsed
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
