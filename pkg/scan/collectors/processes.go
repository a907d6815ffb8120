// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

type interferer struct {
	description string
	impact      scan.ImpactTier
}

// knownInterferers maps lowercase process names to their gaming impact.
var knownInterferers = map[string]interferer{
	// Antivirus
	"mcshield.exe":       {"McAfee On-Access Scanner - Real-time scanning causes disk I/O stutter in games", scan.ImpactHigh},
	"mcapexe.exe":        {"McAfee Anti-Malware Engine - High CPU usage during scans", scan.ImpactHigh},
	"mfeann.exe":         {"McAfee Module Core Service - Background security scanning", scan.ImpactMedium},
	"nortonsecurity.exe": {"Norton Security Suite - Heavy background resource usage and real-time scanning", scan.ImpactHigh},
	"ns.exe":             {"Norton Security - Background protection service", scan.ImpactHigh},
	"ccsvchst.exe":       {"Symantec Service Framework - Resource intensive security software", scan.ImpactHigh},
	"avastsvc.exe":       {"Avast Antivirus Service - Real-time protection overhead", scan.ImpactMedium},
	"avastui.exe":        {"Avast User Interface - Additional background processes", scan.ImpactLow},
	"avp.exe":            {"Kaspersky Anti-Virus - Real-time scanning can cause game stutters", scan.ImpactHigh},
	"ekrn.exe":           {"ESET Kernel Service - On-access scanner overhead", scan.ImpactMedium},

	// RGB and peripheral suites
	"corsair.service.exe":   {"Corsair iCUE Service - Known for high CPU overhead and polling issues", scan.ImpactHigh},
	"icue.exe":              {"Corsair iCUE - RGB lighting and peripheral management", scan.ImpactMedium},
	"lghub.exe":             {"Logitech G HUB - Peripheral software with background polling", scan.ImpactMedium},
	"lghub_agent.exe":       {"Logitech G HUB Agent - Background service", scan.ImpactMedium},
	"steelseriesengine.exe": {"SteelSeries Engine - RGB and peripheral management", scan.ImpactMedium},
	"rgbfusion.exe":         {"Gigabyte RGB Fusion - Lighting control software", scan.ImpactMedium},
	"aura.exe":              {"ASUS Aura - RGB lighting software", scan.ImpactMedium},
	"lightingservice.exe":   {"ASUS Lighting Service - RGB control service", scan.ImpactMedium},
	"armoury crate.exe":     {"ASUS Armoury Crate - Heavy suite with unnecessary background services", scan.ImpactHigh},
	"acoms.exe":             {"ASUS Armoury Crate Component - Background service", scan.ImpactMedium},
	"patriotviperrgb.exe":   {"Patriot Viper RGB - Memory lighting software", scan.ImpactLow},

	// System utilities
	"searchindexer.exe":      {"Windows Search Indexer - Disk I/O interference during indexing", scan.ImpactMedium},
	"searchprotocolhost.exe": {"Windows Search Protocol Host - Indexing overhead", scan.ImpactMedium},
	"onedrive.exe":           {"Microsoft OneDrive - Background syncing causes lag spikes", scan.ImpactMedium},
	"dropbox.exe":            {"Dropbox - Background file syncing", scan.ImpactMedium},
	"googledrivesync.exe":    {"Google Drive - Background file synchronization", scan.ImpactMedium},
	"creative cloud.exe":     {"Adobe Creative Cloud - Background update checking and syncing", scan.ImpactMedium},
	"acrotray.exe":           {"Adobe Acrobat Tray - Unnecessary background process", scan.ImpactLow},

	// Communication
	"teams.exe":   {"Microsoft Teams - Heavy background RAM and CPU usage even when idle", scan.ImpactHigh},
	"slack.exe":   {"Slack - Background messaging and notification polling", scan.ImpactMedium},
	"discord.exe": {"Discord - Voice and overlay overhead (consider closing if not using voice)", scan.ImpactMedium},
	"skype.exe":   {"Skype - Background messaging and call monitoring", scan.ImpactMedium},
	"zoom.exe":    {"Zoom - Background process when not in meeting", scan.ImpactLow},

	// Media and streaming
	"obs64.exe":          {"OBS Studio - Recording/streaming software (close if not streaming)", scan.ImpactHigh},
	"obs32.exe":          {"OBS Studio (32-bit) - Recording/streaming software", scan.ImpactHigh},
	"streamlabs obs.exe": {"Streamlabs OBS - Streaming software overhead", scan.ImpactHigh},
	"rtss.exe":           {"MSI Afterburner RivaTuner - Overlay and frame limiting (can be kept if needed)", scan.ImpactLow},
	"msiafterburner.exe": {"MSI Afterburner - Hardware monitoring overhead (usually fine to keep)", scan.ImpactLow},

	// Browsers
	"chrome.exe":  {"Google Chrome - Very high RAM usage with multiple tabs. Consider closing or using gaming browser mode.", scan.ImpactHigh},
	"firefox.exe": {"Mozilla Firefox - High RAM usage with many tabs", scan.ImpactMedium},
	"msedge.exe":  {"Microsoft Edge - High RAM usage with many tabs", scan.ImpactMedium},
	"opera.exe":   {"Opera Browser - RAM usage and background processes", scan.ImpactMedium},
	"brave.exe":   {"Brave Browser - High RAM usage with many tabs", scan.ImpactMedium},

	// Launchers
	"steam.exe":             {"Steam Client - Can be closed after launching game if not needed for multiplayer", scan.ImpactLow},
	"epicgameslauncher.exe": {"Epic Games Launcher - Close after launching game", scan.ImpactLow},
	"origin.exe":            {"EA App/Origin - Close after launching game", scan.ImpactLow},
	"eadesktop.exe":         {"EA Desktop - Background EA services", scan.ImpactMedium},
	"battle.net.exe":        {"Battle.net - Close after launching Blizzard games", scan.ImpactLow},
	"ubisoftconnect.exe":    {"Ubisoft Connect - Background DRM and cloud sync", scan.ImpactMedium},
	"galaxyclient.exe":      {"GOG Galaxy - Close if not using Galaxy features", scan.ImpactLow},

	// Windows gaming services
	"gamingservices.exe":    {"Windows Gaming Services - Occasionally causes high CPU usage", scan.ImpactMedium},
	"gamingservicesnet.exe": {"Windows Gaming Services Network - Background service", scan.ImpactLow},
	"xboxapp.exe":           {"Xbox App - Background gaming services", scan.ImpactMedium},
	"gamebar.exe":           {"Xbox Game Bar - Recording and overlay services (disable if not used)", scan.ImpactLow},

	// Miscellaneous
	"utorrent.exe":        {"uTorrent - BitTorrent client (heavy disk I/O)", scan.ImpactHigh},
	"qbittorrent.exe":     {"qBittorrent - BitTorrent client (heavy disk I/O)", scan.ImpactHigh},
	"steamwebhelper.exe":  {"Steam Web Helper - Multiple instances consume RAM", scan.ImpactMedium},
	"wallpaperengine.exe": {"Wallpaper Engine - Live wallpapers consume GPU/CPU resources", scan.ImpactMedium},
	"fences.exe":          {"Stardock Fences - Desktop organization (minor overhead)", scan.ImpactLow},
	"rainmeter.exe":       {"Rainmeter - Desktop customization (CPU overhead for widgets)", scan.ImpactLow},
	"camtasia.exe":        {"Camtasia Studio - Screen recording software", scan.ImpactHigh},
	"bandicam.exe":        {"Bandicam - Screen recording software", scan.ImpactHigh},
	"action.exe":          {"Mirillis Action - Screen recording software", scan.ImpactHigh},
	"fraps.exe":           {"FRAPS - Screen recording and FPS overlay", scan.ImpactMedium},
}

var _ scan.Collector = (*ProcessCollector)(nil)

// ProcessCollector flags running processes known to interfere with gaming
// performance.
type ProcessCollector struct {
	scan.BaseCollector
	provider facts.Provider
}

func NewProcessCollector(logger logr.Logger, provider facts.Provider) (*ProcessCollector, error) {
	if provider == nil {
		return nil, fmt.Errorf("fact provider is required")
	}
	return &ProcessCollector{
		BaseCollector: scan.NewBaseCollector(scan.CollectorProcesses, "Background Processes", logger),
		provider:      provider,
	}, nil
}

func (c *ProcessCollector) Collect(ctx context.Context) (any, error) {
	procs, err := listProcesses(ctx, c.provider)
	if err != nil {
		return []scan.ProcessIssue(nil), fmt.Errorf("failed to list processes: %w", err)
	}
	issues := flagInterferers(procs)
	c.Logger().V(1).Info("Background processes analyzed", "running", len(procs), "flagged", len(issues))
	return issues, nil
}

func flagInterferers(procs []processEntry) []scan.ProcessIssue {
	var issues []scan.ProcessIssue
	for _, p := range procs {
		entry, ok := knownInterferers[strings.ToLower(p.Name)]
		if !ok {
			continue
		}
		issues = append(issues, scan.ProcessIssue{
			Name:        p.Name,
			PID:         p.PID,
			Description: entry.description,
			Impact:      entry.impact,
		})
	}
	return issues
}
