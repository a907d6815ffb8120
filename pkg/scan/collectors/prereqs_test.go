// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// fakeSystemRoot builds a SystemRoot tree holding the named System32 DLLs.
func fakeSystemRoot(t *testing.T, dlls ...string) string {
	t.Helper()
	root := t.TempDir()
	system32 := filepath.Join(root, "System32")
	require.NoError(t, os.MkdirAll(system32, 0o755))
	for _, dll := range dlls {
		require.NoError(t, os.WriteFile(filepath.Join(system32, dll), []byte{0x4d, 0x5a}, 0o644))
	}
	return root
}

func findCheck(items []scan.PrerequisiteCheck, name string) *scan.PrerequisiteCheck {
	for i := range items {
		if items[i].Name == name {
			return &items[i]
		}
	}
	return nil
}

func TestPrerequisitesCollectorCollect(t *testing.T) {
	registry := &fakeRegistry{
		strings: map[string]string{
			regKey(vcRuntimeX64Key, "Version"): "v14.38.33135.00",
		},
		dwords: map[string]uint64{
			regKey(gameBarKey, "AllowAutoGameMode"): 0,
		},
	}

	collector, err := NewPrerequisitesCollector(logr.Discard(), registry)
	require.NoError(t, err)
	collector.systemRoot = fakeSystemRoot(t, "d3d12.dll", "d3d11.dll", "dxgi.dll")

	out, err := collector.Collect(context.Background())
	require.NoError(t, err)
	report, ok := out.(scan.PrerequisitesReport)
	require.True(t, ok)
	require.Len(t, report.Items, 3)

	x64 := findCheck(report.Items, "Visual C++ 2015-2022 Redistributable (x64)")
	require.NotNil(t, x64)
	assert.True(t, x64.Installed)
	assert.True(t, x64.Critical)
	assert.Equal(t, "v14.38.33135.00", x64.Version)

	x86 := findCheck(report.Items, "Visual C++ 2015-2022 Redistributable (x86)")
	require.NotNil(t, x86)
	assert.False(t, x86.Installed)
	assert.False(t, x86.Critical)

	dx := findCheck(report.Items, "DirectX Runtime")
	require.NotNil(t, dx)
	assert.True(t, dx.Installed)
	assert.Equal(t, "DirectX 12", dx.Version)

	// AllowAutoGameMode is explicitly 0.
	assert.False(t, report.GameModeEnabled)
}

func TestCheckDirectXVersions(t *testing.T) {
	tests := []struct {
		name          string
		dlls          []string
		wantInstalled bool
		wantVersion   string
	}{
		{name: "dx12", dlls: []string{"d3d12.dll"}, wantInstalled: true, wantVersion: "DirectX 12"},
		{name: "dx11", dlls: []string{"d3d11.dll", "dxgi.dll"}, wantInstalled: true, wantVersion: "DirectX 11"},
		{name: "d3d11 without dxgi", dlls: []string{"d3d11.dll"}, wantVersion: "Unknown / Missing"},
		{name: "nothing", wantVersion: "Unknown / Missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector, err := NewPrerequisitesCollector(logr.Discard(), &fakeRegistry{})
			require.NoError(t, err)
			collector.systemRoot = fakeSystemRoot(t, tt.dlls...)

			check := collector.checkDirectX()
			assert.Equal(t, tt.wantInstalled, check.Installed)
			assert.Equal(t, tt.wantVersion, check.Version)
		})
	}
}

func TestGameModeEnabled(t *testing.T) {
	newCollector := func(registry *fakeRegistry) *PrerequisitesCollector {
		c, err := NewPrerequisitesCollector(logr.Discard(), registry)
		require.NoError(t, err)
		return c
	}

	// Absent value means the Windows default, which is on.
	assert.True(t, newCollector(&fakeRegistry{}).gameModeEnabled())

	on := &fakeRegistry{dwords: map[string]uint64{regKey(gameBarKey, "AllowAutoGameMode"): 1}}
	assert.True(t, newCollector(on).gameModeEnabled())

	off := &fakeRegistry{dwords: map[string]uint64{regKey(gameBarKey, "AllowAutoGameMode"): 0}}
	assert.False(t, newCollector(off).gameModeEnabled())
}

func TestNewPrerequisitesCollectorRequiresRegistry(t *testing.T) {
	_, err := NewPrerequisitesCollector(logr.Discard(), nil)
	assert.Error(t, err)
}
