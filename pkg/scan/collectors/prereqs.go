// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

const (
	vcRuntimeX64Key = `SOFTWARE\Microsoft\VisualStudio\14.0\VC\Runtimes\x64`
	vcRuntimeX86Key = `SOFTWARE\WOW6432Node\Microsoft\VisualStudio\14.0\VC\Runtimes\x86`
	gameBarKey      = `Software\Microsoft\GameBar`
)

var _ scan.Collector = (*PrerequisitesCollector)(nil)

// PrerequisitesCollector verifies the runtime libraries and OS settings games
// depend on: the Visual C++ redistributables, the DirectX runtime, and Game
// Mode.
type PrerequisitesCollector struct {
	scan.BaseCollector
	registry   facts.Registry
	systemRoot string
}

func NewPrerequisitesCollector(logger logr.Logger, registry facts.Registry) (*PrerequisitesCollector, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry reader is required")
	}
	root := os.Getenv("SystemRoot")
	if root == "" {
		root = `C:\Windows`
	}
	return &PrerequisitesCollector{
		BaseCollector: scan.NewBaseCollector(scan.CollectorPrerequisites, "Gaming Prerequisites", logger),
		registry:      registry,
		systemRoot:    root,
	}, nil
}

func (c *PrerequisitesCollector) Collect(ctx context.Context) (any, error) {
	report := scan.PrerequisitesReport{}

	report.Items = append(report.Items, c.checkVCRedist(
		"Visual C++ 2015-2022 Redistributable (x64)", vcRuntimeX64Key, true,
		"Required for most modern games built with Unreal Engine, Unity, and other frameworks."))
	report.Items = append(report.Items, c.checkVCRedist(
		"Visual C++ 2015-2022 Redistributable (x86)", vcRuntimeX86Key, false,
		"Required for some 32-bit games and applications."))
	report.Items = append(report.Items, c.checkDirectX())
	report.GameModeEnabled = c.gameModeEnabled()

	c.Logger().V(1).Info("Prerequisites checked",
		"items", len(report.Items), "gameMode", report.GameModeEnabled)
	return report, nil
}

func (c *PrerequisitesCollector) checkVCRedist(name, key string, critical bool, details string) scan.PrerequisiteCheck {
	check := scan.PrerequisiteCheck{
		Name:     name,
		Critical: critical,
		Details:  details,
	}
	if version, err := c.registry.String(facts.RootLocalMachine, key, "Version"); err == nil && version != "" {
		check.Installed = true
		check.Version = version
	}
	return check
}

// checkDirectX probes for the D3D runtime DLLs. The presence of d3d12.dll is
// the reliable marker for DirectX 12 availability.
func (c *PrerequisitesCollector) checkDirectX() scan.PrerequisiteCheck {
	check := scan.PrerequisiteCheck{
		Name:     "DirectX Runtime",
		Critical: true,
		Details:  "Graphics API required for all modern games. DX12 is preferred for new titles.",
	}
	system32 := filepath.Join(c.systemRoot, "System32")
	switch {
	case fileExists(filepath.Join(system32, "d3d12.dll")):
		check.Installed = true
		check.Version = "DirectX 12"
	case fileExists(filepath.Join(system32, "d3d11.dll")) && fileExists(filepath.Join(system32, "dxgi.dll")):
		check.Installed = true
		check.Version = "DirectX 11"
	default:
		check.Version = "Unknown / Missing"
	}
	return check
}

// gameModeEnabled reads the Game Bar setting; the key is absent on a default
// install where Game Mode is on, so absence reads as enabled.
func (c *PrerequisitesCollector) gameModeEnabled() bool {
	v, err := c.registry.DWORD(facts.RootCurrentUser, gameBarKey, "AllowAutoGameMode")
	if err != nil {
		return true
	}
	return v == 1
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
