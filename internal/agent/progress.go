// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package agent

import (
	"time"

	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// Progress receives scan lifecycle notifications. Implementations must not
// block; the agent calls them inline and never waits on their behalf.
type Progress interface {
	CollectionStarted(total int)
	CollectorStarted(name string)
	CollectorFinished(name string, status scan.CollectorStatus, d time.Duration)
	CollectionFinished(d time.Duration, errors int)
	AnalysisStarted()
}

// NopProgress discards all notifications.
type NopProgress struct{}

var _ Progress = NopProgress{}

func (NopProgress) CollectionStarted(int)                                         {}
func (NopProgress) CollectorStarted(string)                                       {}
func (NopProgress) CollectorFinished(string, scan.CollectorStatus, time.Duration) {}
func (NopProgress) CollectionFinished(time.Duration, int)                         {}
func (NopProgress) AnalysisStarted()                                              {}
