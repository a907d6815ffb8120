// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

func TestFlagInterferers(t *testing.T) {
	procs := []processEntry{
		{Name: "svchost.exe", PID: 100},
		{Name: "Discord.exe", PID: 200}, // matching is case-insensitive
		{Name: "mcshield.exe", PID: 300},
		{Name: "OBS64.EXE", PID: 400},
		{Name: "game.exe", PID: 500},
	}

	issues := flagInterferers(procs)
	require.Len(t, issues, 3)

	byName := make(map[string]scan.ProcessIssue, len(issues))
	for _, issue := range issues {
		byName[issue.Name] = issue
	}

	discord, ok := byName["Discord.exe"]
	require.True(t, ok)
	assert.Equal(t, int32(200), discord.PID)
	assert.Equal(t, scan.ImpactMedium, discord.Impact)

	mcafee, ok := byName["mcshield.exe"]
	require.True(t, ok)
	assert.Equal(t, scan.ImpactHigh, mcafee.Impact)
	assert.Contains(t, mcafee.Description, "McAfee")

	obs, ok := byName["OBS64.EXE"]
	require.True(t, ok)
	assert.Equal(t, scan.ImpactHigh, obs.Impact)
}

func TestFlagInterferersEmpty(t *testing.T) {
	assert.Empty(t, flagInterferers(nil))
	assert.Empty(t, flagInterferers([]processEntry{{Name: "notepad.exe", PID: 1}}))
}

func TestProcessCollectorCollect(t *testing.T) {
	provider := &fakeProvider{
		available: true,
		handlers: map[string]func(dst any, where string) error{
			"Win32_Process": func(dst any, _ string) error {
				*(dst.(*[]win32Process)) = []win32Process{
					{Name: "chrome.exe", ProcessId: 4242},
					{Name: "explorer.exe", ProcessId: 1000},
				}
				return nil
			},
		},
	}

	collector, err := NewProcessCollector(logr.Discard(), provider)
	require.NoError(t, err)

	out, err := collector.Collect(context.Background())
	require.NoError(t, err)
	issues, ok := out.([]scan.ProcessIssue)
	require.True(t, ok)

	require.Len(t, issues, 1)
	assert.Equal(t, "chrome.exe", issues[0].Name)
	assert.Equal(t, int32(4242), issues[0].PID)
	assert.Equal(t, scan.ImpactHigh, issues[0].Impact)
}

func TestNewProcessCollectorRequiresProvider(t *testing.T) {
	_, err := NewProcessCollector(logr.Discard(), nil)
	assert.Error(t, err)
}
