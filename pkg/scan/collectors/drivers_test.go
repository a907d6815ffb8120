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

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"551.23", "545.00", 1},
		{"545.00", "551.23", -1},
		{"551.23", "551.23", 0},
		{"31.0.101.5084", "31.0.101.5000", 1},
		{"6.0.9000.0", "6.0.9235.1", -1},
		{"24.1.1", "23.12.1", 1},
		{"10.0", "10.0.1", -1},
		{"", "", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareVersions(tt.a, tt.b), "compareVersions(%q, %q)", tt.a, tt.b)
	}
}

func TestCategorizeDriver(t *testing.T) {
	tests := []struct {
		name       string
		hardwareID string
		want       scan.DriverCategory
	}{
		{"NVIDIA GeForce RTX 3070", "", scan.DriverCategoryGPU},
		{"AMD Radeon RX 6800", "", scan.DriverCategoryGPU},
		{"Realtek High Definition Audio", "", scan.DriverCategoryAudio},
		{"Intel(R) Ethernet Connection", "", scan.DriverCategoryNetwork},
		{"Killer Wireless-n/a/ac", "", scan.DriverCategoryNetwork},
		{"Intel(R) Chipset Device", "", scan.DriverCategoryChipset},
		{"Standard NVMe Controller", "", scan.DriverCategoryStorage},
		{"USB Composite Device", "", scan.DriverCategoryOther},
		{"Generic Device", `PCI\VEN_10DE&NVIDIA`, scan.DriverCategoryGPU},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categorizeDriver(tt.name, tt.hardwareID), "categorizeDriver(%q)", tt.name)
	}
}

func TestDriverVendor(t *testing.T) {
	assert.Equal(t, "nvidia", driverVendor("NVIDIA GeForce RTX 3070", "NVIDIA"))
	assert.Equal(t, "amd", driverVendor("AMD Radeon RX 6800", "Advanced Micro Devices, Inc."))
	assert.Equal(t, "realtek", driverVendor("Realtek High Definition Audio", "Realtek"))
	assert.Equal(t, "intel", driverVendor("Intel(R) UHD Graphics 630", "Intel Corporation"))
	// Intel only counts for graphics parts; chipset drivers have no baseline.
	assert.Equal(t, "", driverVendor("Intel(R) Chipset Device", "Intel Corporation"))
	assert.Equal(t, "", driverVendor("Logitech USB Receiver", "Logitech"))
}

func TestGradeDriver(t *testing.T) {
	tests := []struct {
		name       string
		info       scan.DriverInfo
		wantStatus scan.DriverStatus
		wantLatest string
	}{
		{
			name: "unsigned gpu driver is critical regardless of version",
			info: scan.DriverInfo{
				Name:     "NVIDIA GeForce RTX 3070",
				Version:  "551.23",
				Category: scan.DriverCategoryGPU,
				IsSigned: false,
			},
			wantStatus: scan.DriverStatusCritical,
		},
		{
			name: "unsigned audio driver is critical",
			info: scan.DriverInfo{
				Name:     "Realtek High Definition Audio",
				Version:  "6.0.9235.1",
				Category: scan.DriverCategoryAudio,
				IsSigned: false,
			},
			wantStatus: scan.DriverStatusCritical,
		},
		{
			name: "gpu below minimum is critical",
			info: scan.DriverInfo{
				Name:     "NVIDIA GeForce RTX 3070",
				Version:  "531.79",
				Category: scan.DriverCategoryGPU,
				IsSigned: true,
			},
			wantStatus: scan.DriverStatusCritical,
			wantLatest: "551.23",
		},
		{
			name: "gpu behind latest has update available",
			info: scan.DriverInfo{
				Name:     "NVIDIA GeForce RTX 3070",
				Version:  "546.01",
				Category: scan.DriverCategoryGPU,
				IsSigned: true,
			},
			wantStatus: scan.DriverStatusUpdateAvailable,
			wantLatest: "551.23",
		},
		{
			name: "gpu at latest is up to date",
			info: scan.DriverInfo{
				Name:     "NVIDIA GeForce RTX 3070",
				Version:  "551.23",
				Category: scan.DriverCategoryGPU,
				IsSigned: true,
			},
			wantStatus: scan.DriverStatusUpToDate,
		},
		{
			name: "audio below minimum is an update, not critical",
			info: scan.DriverInfo{
				Name:     "Realtek High Definition Audio",
				Version:  "6.0.8500.0",
				Category: scan.DriverCategoryAudio,
				IsSigned: true,
			},
			wantStatus: scan.DriverStatusUpdateAvailable,
			wantLatest: "6.0.9235.1",
		},
		{
			name: "no known vendor stays unknown",
			info: scan.DriverInfo{
				Name:     "Logitech USB Receiver",
				Version:  "1.0.0.0",
				Category: scan.DriverCategoryOther,
				IsSigned: true,
				Status:   scan.DriverStatusUnknown,
			},
			wantStatus: scan.DriverStatusUnknown,
		},
		{
			name: "missing version stays unknown",
			info: scan.DriverInfo{
				Name:     "NVIDIA GeForce RTX 3070",
				Category: scan.DriverCategoryGPU,
				IsSigned: true,
				Status:   scan.DriverStatusUnknown,
			},
			wantStatus: scan.DriverStatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.info
			gradeDriver(&info)
			assert.Equal(t, tt.wantStatus, info.Status)
			assert.Equal(t, tt.wantLatest, info.LatestVersion)
		})
	}
}

func TestDriverCollectorCollect(t *testing.T) {
	provider := &fakeProvider{
		available: true,
		handlers: map[string]func(dst any, where string) error{
			"Win32_PnPSignedDriver": func(dst any, _ string) error {
				*(dst.(*[]win32PnPSignedDriver)) = []win32PnPSignedDriver{
					{
						DeviceName:         "NVIDIA GeForce RTX 3070",
						DriverProviderName: "NVIDIA",
						DriverVersion:      "531.79",
						DriverDate:         "20230401000000.000000+000",
						IsSigned:           boolPtr(true),
					},
					{
						DeviceName:         "Realtek High Definition Audio",
						DriverProviderName: "Realtek",
						DriverVersion:      "6.0.9235.1",
						IsSigned:           boolPtr(true),
					},
					{
						DeviceName:         "Intel(R) Ethernet Connection I219-V",
						DriverProviderName: "Intel",
						DriverVersion:      "12.18.9.23",
						IsSigned:           boolPtr(true),
					},
					{DeviceName: "   "}, // blank device names are dropped
				}
				return nil
			},
		},
	}

	collector, err := NewDriverCollector(logr.Discard(), provider)
	require.NoError(t, err)

	out, err := collector.Collect(context.Background())
	require.NoError(t, err)
	report, ok := out.(scan.DriverReport)
	require.True(t, ok)

	assert.Equal(t, 3, report.TotalDrivers)
	assert.Equal(t, 1, report.Critical)
	assert.Equal(t, 1, report.UpToDate)
	assert.Equal(t, 1, report.Unknown)

	require.Len(t, report.GPUDrivers, 1)
	gpu := report.GPUDrivers[0]
	assert.Equal(t, scan.DriverStatusCritical, gpu.Status)
	assert.Equal(t, "2023-04-01", gpu.Date)
	assert.Equal(t, "https://www.nvidia.com/drivers", gpu.UpdateURL)

	require.Len(t, report.CriticalIssues, 1)
	assert.Equal(t, "NVIDIA GeForce RTX 3070", report.CriticalIssues[0].Name)

	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "CRITICAL: 1 driver(s)")
}

func TestDriverCollectorUnavailableProvider(t *testing.T) {
	collector, err := NewDriverCollector(logr.Discard(), &fakeProvider{available: false})
	require.NoError(t, err)

	out, err := collector.Collect(context.Background())
	assert.ErrorIs(t, err, facts.ErrUnavailable)
	report, ok := out.(scan.DriverReport)
	require.True(t, ok)
	assert.Zero(t, report.TotalDrivers)
}

func TestNewDriverCollectorRequiresProvider(t *testing.T) {
	_, err := NewDriverCollector(logr.Discard(), nil)
	assert.Error(t, err)
}
