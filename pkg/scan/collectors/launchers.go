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
	"regexp"
	"strings"

	"github.com/go-logr/logr"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// launcherSpec describes how one launcher is located on disk and in the
// registry.
type launcherSpec struct {
	name         string
	kind         scan.LauncherType
	registryKeys []string
	defaultPaths []string
	processName  string
	autoRunName  string
	libraryDirs  []string
}

var launcherSpecs = []launcherSpec{
	{
		name: "Steam",
		kind: scan.LauncherSteam,
		registryKeys: []string{
			`SOFTWARE\Valve\Steam`,
			`SOFTWARE\WOW6432Node\Valve\Steam`,
		},
		defaultPaths: []string{
			`C:\Program Files (x86)\Steam`,
			`C:\Program Files\Steam`,
		},
		processName: "steam.exe",
		autoRunName: "steam",
		libraryDirs: []string{"steamapps"},
	},
	{
		name: "Epic Games Launcher",
		kind: scan.LauncherEpic,
		registryKeys: []string{
			`SOFTWARE\Epic Games\EpicGamesLauncher`,
			`SOFTWARE\WOW6432Node\Epic Games\EpicGamesLauncher`,
		},
		defaultPaths: []string{
			`C:\Program Files (x86)\Epic Games\Launcher`,
			`C:\Program Files\Epic Games\Launcher`,
		},
		processName: "epicgameslauncher.exe",
		autoRunName: "epicgameslauncher",
		libraryDirs: []string{"Data"},
	},
	{
		name: "EA App",
		kind: scan.LauncherEA,
		registryKeys: []string{
			`SOFTWARE\Electronic Arts\EA Desktop`,
			`SOFTWARE\WOW6432Node\Electronic Arts\EA Desktop`,
		},
		defaultPaths: []string{
			`C:\Program Files\Electronic Arts\EA Desktop`,
			`C:\Program Files (x86)\Electronic Arts\EA Desktop`,
		},
		processName: "eadesktop.exe",
		autoRunName: "eadesktop",
	},
	{
		name: "Ubisoft Connect",
		kind: scan.LauncherUbisoft,
		registryKeys: []string{
			`SOFTWARE\Ubisoft\Launcher`,
			`SOFTWARE\WOW6432Node\Ubisoft\Launcher`,
		},
		defaultPaths: []string{
			`C:\Program Files (x86)\Ubisoft\Ubisoft Game Launcher`,
			`C:\Program Files\Ubisoft\Ubisoft Game Launcher`,
		},
		processName: "ubisoftconnect.exe",
		autoRunName: "ubisoftconnect",
		libraryDirs: []string{"games"},
	},
	{
		name: "Battle.net",
		kind: scan.LauncherBattleNet,
		registryKeys: []string{
			`SOFTWARE\Blizzard Entertainment\Battle.net`,
			`SOFTWARE\WOW6432Node\Blizzard Entertainment\Battle.net`,
		},
		defaultPaths: []string{
			`C:\Program Files (x86)\Battle.net`,
			`C:\Program Files\Battle.net`,
		},
		processName: "battle.net.exe",
		autoRunName: "battle.net",
	},
	{
		name: "Xbox App",
		kind: scan.LauncherXbox,
		registryKeys: []string{
			`SOFTWARE\Microsoft\Windows\CurrentVersion\GameConfigStore`,
		},
		processName: "xboxapp.exe",
	},
	{
		name: "GOG Galaxy",
		kind: scan.LauncherGOG,
		registryKeys: []string{
			`SOFTWARE\GOG.com\Galaxy`,
		},
		defaultPaths: []string{
			`C:\Program Files (x86)\GOG Galaxy`,
			`C:\Program Files\GOG Galaxy`,
		},
		processName: "galaxyclient.exe",
		autoRunName: "gog galaxy",
		libraryDirs: []string{"Games"},
	},
	{
		name: "Riot Client",
		kind: scan.LauncherRiot,
		registryKeys: []string{
			`SOFTWARE\Riot Games`,
		},
		defaultPaths: []string{
			`C:\Riot Games`,
			`C:\Program Files\Riot Games`,
			`C:\Program Files (x86)\Riot Games`,
		},
		processName: "riotclientservices.exe",
	},
}

var steamLibraryPathRe = regexp.MustCompile(`"path"\s+"([^"]+)"`)

var _ scan.Collector = (*LauncherCollector)(nil)

// LauncherCollector finds installed game launchers, their running state, game
// counts, and library storage footprint.
type LauncherCollector struct {
	scan.BaseCollector
	provider facts.Provider
	registry facts.Registry
	specs    []launcherSpec
}

func NewLauncherCollector(logger logr.Logger, provider facts.Provider, registry facts.Registry) (*LauncherCollector, error) {
	if provider == nil {
		return nil, fmt.Errorf("fact provider is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry reader is required")
	}
	return &LauncherCollector{
		BaseCollector: scan.NewBaseCollector(scan.CollectorLaunchers, "Game Launchers", logger),
		provider:      provider,
		registry:      registry,
		specs:         launcherSpecs,
	}, nil
}

func (c *LauncherCollector) Collect(ctx context.Context) (any, error) {
	report := scan.LauncherReport{}

	running := make(map[string]bool)
	procs, err := listProcesses(ctx, c.provider)
	if err != nil {
		c.Logger().V(1).Info("Process list unavailable, running state unknown", "error", err)
	}
	for _, p := range procs {
		running[strings.ToLower(p.Name)] = true
	}

	for _, spec := range c.specs {
		info, installed := c.detect(spec, running)
		if !installed {
			continue
		}
		report.Installed = append(report.Installed, info)
		report.TotalGames += info.GamesCount
		report.StorageUsedGB += info.StorageUsedGB
		if info.IsRunning {
			report.Running = append(report.Running, info.Name)
		}
	}
	report.TotalLaunchers = len(report.Installed)

	report.Recommendations = launcherRecommendations(report)
	c.Logger().V(1).Info("Launcher detection complete",
		"installed", len(report.Installed), "running", len(report.Running), "games", report.TotalGames)
	return report, nil
}

func (c *LauncherCollector) detect(spec launcherSpec, running map[string]bool) (scan.LauncherInfo, bool) {
	info := scan.LauncherInfo{
		Name: spec.name,
		Type: spec.kind,
		// Overlay and cloud saves default on for every major launcher;
		// a per-launcher config parse would be needed to prove otherwise.
		OverlayOn:  true,
		CloudSaves: true,
	}

	installPath := c.registryInstallPath(spec.registryKeys)
	if installPath == "" {
		installPath = firstExistingDir(spec.defaultPaths)
	}
	if installPath == "" && spec.kind != scan.LauncherXbox {
		return info, false
	}
	// The Xbox App ships with Windows; its registry key is the only marker.
	if installPath == "" {
		if !c.registry.KeyExists(facts.RootLocalMachine, spec.registryKeys[0]) {
			return info, false
		}
	}

	info.InstallPath = installPath
	info.IsRunning = running[spec.processName]
	info.AutoStart = c.autoStartEnabled(spec)

	libraries := libraryPaths(installPath, spec.libraryDirs)
	info.GamesCount = countGames(spec.kind, libraries)
	info.StorageUsedGB = libraryStorageGB(libraries)
	info.Issues = launcherIssues(info)
	return info, true
}

func (c *LauncherCollector) registryInstallPath(keys []string) string {
	for _, key := range keys {
		path, err := c.registry.String(facts.RootLocalMachine, key, "InstallPath")
		if err != nil || path == "" {
			continue
		}
		if dirExists(path) {
			return path
		}
	}
	return ""
}

func (c *LauncherCollector) autoStartEnabled(spec launcherSpec) bool {
	if spec.autoRunName == "" {
		return false
	}
	const runKey = `SOFTWARE\Microsoft\Windows\CurrentVersion\Run`
	for _, root := range []facts.RegistryRoot{facts.RootCurrentUser, facts.RootLocalMachine} {
		if v, err := c.registry.String(root, runKey, spec.name); err == nil && v != "" {
			return true
		}
		if v, err := c.registry.String(root, runKey, spec.autoRunName); err == nil && v != "" {
			return true
		}
	}
	return false
}

// libraryPaths resolves the game library directories for an install,
// including Steam's extra libraries declared in libraryfolders.vdf.
func libraryPaths(installPath string, libraryDirs []string) []string {
	var paths []string
	for _, dir := range libraryDirs {
		p := filepath.Join(installPath, dir)
		if dirExists(p) {
			paths = append(paths, p)
		}
	}
	vdf := filepath.Join(installPath, "steamapps", "libraryfolders.vdf")
	if data, err := os.ReadFile(vdf); err == nil {
		for _, extra := range parseSteamLibraryFolders(string(data)) {
			lib := filepath.Join(extra, "steamapps")
			if dirExists(lib) {
				paths = append(paths, lib)
			}
		}
	}
	return paths
}

// parseSteamLibraryFolders extracts library roots from the VDF contents.
func parseSteamLibraryFolders(content string) []string {
	var paths []string
	for _, m := range steamLibraryPathRe.FindAllStringSubmatch(content, -1) {
		paths = append(paths, strings.ReplaceAll(m[1], `\\`, `\`))
	}
	return paths
}

func countGames(kind scan.LauncherType, libraries []string) int {
	count := 0
	for _, lib := range libraries {
		entries, err := os.ReadDir(lib)
		if err != nil {
			continue
		}
		switch kind {
		case scan.LauncherSteam:
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), "appmanifest_") && strings.HasSuffix(e.Name(), ".acf") {
					count++
				}
			}
		default:
			for _, e := range entries {
				if e.IsDir() {
					count++
				}
			}
		}
	}
	return count
}

func libraryStorageGB(libraries []string) float64 {
	var total int64
	for _, lib := range libraries {
		filepath.WalkDir(lib, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if fi, err := d.Info(); err == nil {
				total += fi.Size()
			}
			return nil
		})
	}
	return facts.BytesToGB(uint64(total))
}

func launcherIssues(info scan.LauncherInfo) []string {
	var issues []string
	if info.IsRunning && info.OverlayOn {
		issues = append(issues, fmt.Sprintf("%s overlay is enabled - may conflict with other overlays", info.Name))
	}
	if info.AutoStart {
		issues = append(issues, fmt.Sprintf("%s is set to auto-start - may impact boot time", info.Name))
	}
	return issues
}

func launcherRecommendations(report scan.LauncherReport) []string {
	var recs []string
	if len(report.Running) > 2 {
		recs = append(recs, fmt.Sprintf(
			"Multiple launchers running (%d). Close unused launchers to free up system resources.",
			len(report.Running)))
	}
	overlays := 0
	autoStart := 0
	for _, l := range report.Installed {
		if l.OverlayOn {
			overlays++
		}
		if l.AutoStart {
			autoStart++
		}
	}
	if overlays > 1 {
		recs = append(recs, fmt.Sprintf(
			"Multiple overlays enabled (%d). Consider disabling unused overlays to prevent conflicts.", overlays))
	}
	if report.StorageUsedGB > 500 {
		recs = append(recs, fmt.Sprintf(
			"Large game library detected (%.1f GB). Consider archiving unused games to free disk space.",
			report.StorageUsedGB))
	}
	if autoStart > 2 {
		recs = append(recs, fmt.Sprintf(
			"%d launchers set to auto-start. Disable auto-start for launchers you don't use frequently.", autoStart))
	}
	return recs
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func firstExistingDir(paths []string) string {
	for _, p := range paths {
		if dirExists(p) {
			return p
		}
	}
	return ""
}
