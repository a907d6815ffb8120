// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

const (
	gameBarKeyPath     = `Software\Microsoft\GameBar`
	gameModeValueName  = "AllowAutoGameMode"
	gpuSchedKeyPath    = `SYSTEM\CurrentControlSet\Control\GraphicsDrivers`
	gpuSchedValueName  = "HwSchMode"
	gpuSchedModeHWMode = 2
)

// Compile-time interface check
var _ scan.Collector = (*WindowsInfoCollector)(nil)

// WindowsInfoCollector gathers operating system version, edition, activation
// state, and the gaming-relevant feature flags.
type WindowsInfoCollector struct {
	scan.BaseCollector
	provider facts.Provider
	registry facts.Registry
}

func NewWindowsInfoCollector(logger logr.Logger, provider facts.Provider, registry facts.Registry) (*WindowsInfoCollector, error) {
	if provider == nil {
		return nil, fmt.Errorf("fact provider is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry reader is required")
	}
	return &WindowsInfoCollector{
		BaseCollector: scan.NewBaseCollector(scan.CollectorWindowsInfo, "Windows Info", logger),
		provider:      provider,
		registry:      registry,
	}, nil
}

func (c *WindowsInfoCollector) Collect(ctx context.Context) (any, error) {
	info := scan.WindowsInfo{
		Version:          "Unknown",
		Build:            "Unknown",
		Edition:          "Unknown",
		Architecture:     "Unknown",
		ActivationStatus: "Unknown",
	}

	if c.provider.Available() {
		var osRecords []win32OperatingSystem
		if _, err := c.provider.Query(ctx, &osRecords, "Win32_OperatingSystem", ""); err != nil {
			return info, fmt.Errorf("failed to query operating system: %w", err)
		}
		if len(osRecords) > 0 {
			rec := osRecords[0]
			info.Version = rec.Version
			info.Build = rec.BuildNumber
			info.Edition = rec.Caption
			info.Architecture = rec.OSArchitecture
			if ts, ok := facts.ParseWMIDateTime(rec.InstallDate); ok {
				info.InstallDate = ts.Format("2006-01-02")
			}
		}
		info.ActivationStatus = c.activationStatus(ctx)
	} else {
		hi, err := host.InfoWithContext(ctx)
		if err != nil {
			return info, fmt.Errorf("failed to collect host info: %w", err)
		}
		info.Version = hi.PlatformVersion
		info.Build = hi.KernelVersion
		info.Edition = hi.Platform
		info.Architecture = runtime.GOARCH
	}

	info.GameModeEnabled = c.gameModeEnabled()
	info.HardwareGPUScheduling = c.hardwareGPUScheduling()

	c.Logger().V(1).Info("Collected Windows info", "build", info.Build, "edition", info.Edition)
	return info, nil
}

func (c *WindowsInfoCollector) activationStatus(ctx context.Context) string {
	var products []softwareLicensingProduct
	where := "Name LIKE 'Windows%' AND PartialProductKey IS NOT NULL"
	if _, err := c.provider.Query(ctx, &products, "SoftwareLicensingProduct", where); err != nil {
		return "Unknown"
	}
	if len(products) == 0 {
		return "Unknown"
	}
	switch products[0].LicenseStatus {
	case 1:
		return "Activated"
	case 0:
		return "Unlicensed"
	default:
		return fmt.Sprintf("Status: %d", products[0].LicenseStatus)
	}
}

// gameModeEnabled reads the Game Bar auto-game-mode flag. Windows defaults
// the feature on, so an absent value reads as enabled.
func (c *WindowsInfoCollector) gameModeEnabled() bool {
	v, err := c.registry.DWORD(facts.RootCurrentUser, gameBarKeyPath, gameModeValueName)
	if err != nil {
		return true
	}
	return v == 1
}

func (c *WindowsInfoCollector) hardwareGPUScheduling() bool {
	v, err := c.registry.DWORD(facts.RootLocalMachine, gpuSchedKeyPath, gpuSchedValueName)
	if err != nil {
		return false
	}
	return v == gpuSchedModeHWMode
}
