// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package analysis

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds are the tunable constants the rule battery evaluates against.
// Users can override them through a YAML file; any load problem falls back to
// the defaults so a malformed file never blocks a scan.
type Thresholds struct {
	// Memory
	RAMCriticalGB float64 `yaml:"ram_critical_gb"`
	RAMLowGB      float64 `yaml:"ram_low_gb"`
	MemoryMinMHz  int     `yaml:"memory_min_mhz"`

	// Storage
	DiskCriticalPercent float64 `yaml:"disk_critical_percent"`
	DiskHighPercent     float64 `yaml:"disk_high_percent"`

	// GPU
	DriverMaxAgeDays int `yaml:"driver_max_age_days"`

	// CPU
	CPUTempCriticalC float64 `yaml:"cpu_temp_critical_c"`
	CPUTempHighC     float64 `yaml:"cpu_temp_high_c"`

	// Launchers
	MaxRunningLaunchers int `yaml:"max_running_launchers"`

	// Benchmarks
	DiskWriteLowMBs     float64 `yaml:"disk_write_low_mb_s"`
	DiskWriteVeryLowMBs float64 `yaml:"disk_write_very_low_mb_s"`
}

// DefaultThresholds returns the built-in rule constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RAMCriticalGB:       8,
		RAMLowGB:            16,
		MemoryMinMHz:        2400,
		DiskCriticalPercent: 90,
		DiskHighPercent:     85,
		DriverMaxAgeDays:    180,
		CPUTempCriticalC:    85,
		CPUTempHighC:        75,
		MaxRunningLaunchers: 3,
		DiskWriteLowMBs:     100,
		DiskWriteVeryLowMBs: 50,
	}
}

// LoadThresholds reads user overrides from path, layered on top of the
// defaults. Missing file, unreadable file, or invalid YAML all return the
// defaults along with the error for logging; the returned Thresholds are
// always usable.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultThresholds(), err
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return DefaultThresholds(), err
	}
	if err := t.validate(); err != nil {
		return DefaultThresholds(), err
	}
	return t, nil
}

func (t Thresholds) validate() error {
	checks := []struct {
		ok   bool
		name string
	}{
		{t.RAMCriticalGB > 0 && t.RAMCriticalGB <= t.RAMLowGB, "ram thresholds"},
		{t.MemoryMinMHz > 0, "memory_min_mhz"},
		{t.DiskHighPercent > 0 && t.DiskHighPercent <= t.DiskCriticalPercent && t.DiskCriticalPercent <= 100, "disk thresholds"},
		{t.DriverMaxAgeDays > 0, "driver_max_age_days"},
		{t.CPUTempHighC > 0 && t.CPUTempHighC <= t.CPUTempCriticalC, "cpu temperature thresholds"},
		{t.MaxRunningLaunchers > 0, "max_running_launchers"},
		{t.DiskWriteVeryLowMBs > 0 && t.DiskWriteVeryLowMBs <= t.DiskWriteLowMBs, "disk write thresholds"},
	}
	for _, c := range checks {
		if !c.ok {
			return &invalidThresholdError{field: c.name}
		}
	}
	return nil
}

type invalidThresholdError struct {
	field string
}

func (e *invalidThresholdError) Error() string {
	return "invalid threshold: " + e.field
}
