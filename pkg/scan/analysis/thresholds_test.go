// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validThresholdsYAML = `
ram_critical_gb: 12
ram_low_gb: 24
cpu_temp_critical_c: 95
cpu_temp_high_c: 80
`

func writeThresholds(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultThresholdsAreValid(t *testing.T) {
	assert.NoError(t, DefaultThresholds().validate())
}

func TestLoadThresholds(t *testing.T) {
	t.Run("overrides layer on defaults", func(t *testing.T) {
		got, err := LoadThresholds(writeThresholds(t, validThresholdsYAML))
		require.NoError(t, err)

		assert.Equal(t, 12.0, got.RAMCriticalGB)
		assert.Equal(t, 24.0, got.RAMLowGB)
		assert.Equal(t, 95.0, got.CPUTempCriticalC)
		// Untouched fields keep their defaults.
		assert.Equal(t, 2400, got.MemoryMinMHz)
		assert.Equal(t, 3, got.MaxRunningLaunchers)
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		got, err := LoadThresholds(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
		assert.Equal(t, DefaultThresholds(), got)
	})

	t.Run("malformed yaml falls back to defaults", func(t *testing.T) {
		got, err := LoadThresholds(writeThresholds(t, "ram_critical_gb: [not a number"))
		assert.Error(t, err)
		assert.Equal(t, DefaultThresholds(), got)
	})

	t.Run("inconsistent values fall back to defaults", func(t *testing.T) {
		// Critical above low inverts the tiering.
		got, err := LoadThresholds(writeThresholds(t, "ram_critical_gb: 32"))
		assert.Error(t, err)
		assert.Equal(t, DefaultThresholds(), got)
	})
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Thresholds)
	}{
		{name: "ram critical above low", mutate: func(t *Thresholds) { t.RAMCriticalGB = 32 }},
		{name: "zero memory speed", mutate: func(t *Thresholds) { t.MemoryMinMHz = 0 }},
		{name: "disk high above critical", mutate: func(t *Thresholds) { t.DiskHighPercent = 95 }},
		{name: "disk critical above hundred", mutate: func(t *Thresholds) { t.DiskCriticalPercent = 120 }},
		{name: "zero driver age", mutate: func(t *Thresholds) { t.DriverMaxAgeDays = 0 }},
		{name: "cpu high above critical", mutate: func(t *Thresholds) { t.CPUTempHighC = 99 }},
		{name: "zero launcher limit", mutate: func(t *Thresholds) { t.MaxRunningLaunchers = 0 }},
		{name: "disk write very low above low", mutate: func(t *Thresholds) { t.DiskWriteVeryLowMBs = 150 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			assert.Error(t, th.validate())
		})
	}
}
