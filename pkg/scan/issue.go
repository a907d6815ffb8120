// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// Severity classifies how badly an issue affects gaming on the scanned system.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns a numeric ordering for severities. Higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 0
	default:
		return -1
	}
}

// Category groups issues by the part of the system they concern.
type Category string

const (
	CategoryHardware    Category = "hardware"
	CategorySoftware    Category = "software"
	CategoryPerformance Category = "performance"
	CategoryStability   Category = "stability"
	CategorySecurity    Category = "security"
	CategoryGaming      Category = "gaming"
	CategoryNetwork     Category = "network"
)

// Evidence records where a finding came from and the values that support it.
type Evidence struct {
	Source    string
	Data      map[string]any
	RawValue  string
	Timestamp time.Time
}

// Issue is a single detected problem with remediation guidance.
type Issue struct {
	ID             string
	Title          string
	Description    string
	Category       Category
	Severity       Severity
	Confidence     float64
	Evidence       []Evidence
	Recommendation string
	AutoFixable    bool
	FixCommands    []string
	References     []string
}

// NewIssueID derives a stable identifier from the issue's content. Identical
// analyses of identical snapshots produce identical IDs; wall-clock time is
// deliberately excluded.
func NewIssueID(title string, category Category, evidence ...Evidence) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s", title, category)
	for _, ev := range evidence {
		fmt.Fprintf(h, "|%s", ev.Source)
		keys := make([]string, 0, len(ev.Data))
		for k := range ev.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "|%s=%v", k, ev.Data[k])
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// SortIssues orders issues by severity, critical first. The sort is stable so
// equal-severity issues keep their rule-evaluation order.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity.Rank() > issues[j].Severity.Rank()
	})
}

// severityWeights are the fixed health-score penalties per issue.
var severityWeights = map[Severity]int{
	SeverityCritical: 25,
	SeverityHigh:     15,
	SeverityMedium:   5,
	SeverityLow:      1,
}

// HealthScore derives the 0-100 system health score from an issue list.
// No issues means 100; the score floors at 0.
func HealthScore(issues []Issue) int {
	penalty := 0
	for _, issue := range issues {
		penalty += severityWeights[issue.Severity]
	}
	if penalty > 100 {
		return 0
	}
	return 100 - penalty
}
