// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package analysis turns a collected system snapshot into a ranked list of
// gaming-health issues. The engine is a pure function of its inputs: the same
// snapshot and thresholds always produce the same issues in the same order.
package analysis

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// Engine evaluates the rule battery against snapshots.
type Engine struct {
	logger     logr.Logger
	thresholds Thresholds
	rules      []rule
	now        func() time.Time
}

func NewEngine(logger logr.Logger, thresholds Thresholds) *Engine {
	return &Engine{
		logger:     logger.WithName("analysis"),
		thresholds: thresholds,
		rules:      ruleBattery(),
		now:        time.Now,
	}
}

// Analyze runs every rule against the snapshot. A panicking rule is recorded
// in the returned error strings and the remaining rules still run; issues are
// returned sorted by severity, critical first.
func (e *Engine) Analyze(snapshot *scan.SystemSnapshot) ([]scan.Issue, []string) {
	var issues []scan.Issue
	var errs []string
	now := e.now()

	for _, r := range e.rules {
		found, err := e.runRule(r, snapshot, now)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		issues = append(issues, found...)
	}

	scan.SortIssues(issues)
	e.logger.V(1).Info("Analysis complete", "issues", len(issues), "ruleErrors", len(errs))
	return issues, errs
}

func (e *Engine) runRule(r rule, snapshot *scan.SystemSnapshot, now time.Time) (issues []scan.Issue, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("rule %q panicked: %v", r.name, rec)
			e.logger.Error(err, "Rule evaluation failed", "rule", r.name)
			issues = nil
		}
	}()
	return r.eval(snapshot, e.thresholds, now), nil
}
