// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// rule is one independent predicate over the snapshot. Rules never mutate the
// snapshot and never depend on each other's output.
type rule struct {
	name string
	eval func(s *scan.SystemSnapshot, t Thresholds, now time.Time) []scan.Issue
}

func ruleBattery() []rule {
	return []rule{
		{name: "memory", eval: memoryRules},
		{name: "storage", eval: storageRules},
		{name: "gpu_driver_age", eval: gpuDriverAgeRules},
		{name: "cpu", eval: cpuRules},
		{name: "prerequisites", eval: prerequisiteRules},
		{name: "processes", eval: processRules},
		{name: "network", eval: networkRules},
		{name: "drivers", eval: driverRules},
		{name: "event_logs", eval: eventLogRules},
		{name: "launchers", eval: launcherRules},
		{name: "benchmarks", eval: benchmarkRules},
	}
}

func newIssue(title, description string, category scan.Category, severity scan.Severity, confidence float64, recommendation string, evidence ...scan.Evidence) scan.Issue {
	return scan.Issue{
		ID:             scan.NewIssueID(title, category, evidence...),
		Title:          title,
		Description:    description,
		Category:       category,
		Severity:       severity,
		Confidence:     confidence,
		Recommendation: recommendation,
		Evidence:       evidence,
	}
}

func memoryRules(s *scan.SystemSnapshot, t Thresholds, _ time.Time) []scan.Issue {
	mem := s.Hardware.Memory
	if mem == nil {
		return nil
	}
	var issues []scan.Issue

	switch {
	case mem.TotalGB > 0 && mem.TotalGB < t.RAMCriticalGB:
		issues = append(issues, newIssue(
			"Critical Low Memory",
			fmt.Sprintf("System has only %.1fGB of RAM. Modern gaming requires at least 8GB, preferably 16GB. This will cause severe performance issues and crashes in modern titles.", mem.TotalGB),
			scan.CategoryHardware, scan.SeverityCritical, 1.0,
			"Upgrade system RAM to at least 16GB for stable gaming performance. 8GB is the absolute minimum and will struggle with modern games.",
			scan.Evidence{
				Source: "Hardware Collector",
				Data:   map[string]any{"total_ram_gb": mem.TotalGB, "recommended_minimum": 16},
			},
		))
	case mem.TotalGB > 0 && mem.TotalGB < t.RAMLowGB:
		issues = append(issues, newIssue(
			"Low Memory for Modern Games",
			fmt.Sprintf("System has %.1fGB of RAM. While functional, 16GB is the recommended standard for modern titles and smooth multitasking.", mem.TotalGB),
			scan.CategoryHardware, scan.SeverityMedium, 0.9,
			"Consider upgrading to 16GB RAM for better multitasking, smoother gameplay, and future-proofing.",
		))
	}

	if mem.SpeedMHz != nil && *mem.SpeedMHz < t.MemoryMinMHz && (mem.Type == "DDR4" || mem.Type == "DDR5") {
		issues = append(issues, newIssue(
			"Slow Memory Speed Detected",
			fmt.Sprintf("RAM running at %dMHz. %s memory should run at 3000MHz+ for optimal gaming performance.", *mem.SpeedMHz, mem.Type),
			scan.CategoryPerformance, scan.SeverityMedium, 0.85,
			"Enable XMP/DOCP profile in BIOS to run RAM at rated speed. Check BIOS settings under Memory or Overclocking section.",
		))
	}
	return issues
}

func storageRules(s *scan.SystemSnapshot, t Thresholds, _ time.Time) []scan.Issue {
	var issues []scan.Issue
	for _, drive := range s.Hardware.Storage {
		if drive.IsSystemDrive && drive.Type == "HDD" {
			issues = append(issues, newIssue(
				"System Running on Mechanical Hard Drive",
				"Windows is installed on a mechanical Hard Disk Drive (HDD). This significantly impacts boot times, system responsiveness, and game loading times.",
				scan.CategoryPerformance, scan.SeverityHigh, 1.0,
				"Migrate Windows to an SSD (SATA or NVMe). This is the single most impactful upgrade for system responsiveness and game loading times.",
			))
		}
		if drive.TotalGB <= 0 {
			continue
		}
		usage := (drive.TotalGB - drive.FreeGB) / drive.TotalGB * 100
		severity := scan.Severity("")
		switch {
		case usage > t.DiskCriticalPercent:
			severity = scan.SeverityCritical
		case usage > t.DiskHighPercent:
			severity = scan.SeverityHigh
		default:
			continue
		}
		issues = append(issues, newIssue(
			fmt.Sprintf("Drive Nearly Full: %s", clip(drive.Model, 30)),
			fmt.Sprintf("Drive is %.1f%% full (%.1fGB free). Low disk space causes performance degradation and update failures.", usage, drive.FreeGB),
			scan.CategoryPerformance, severity, 1.0,
			"Free up disk space immediately. Delete unnecessary files, uninstall unused games, or move data to external storage. Windows needs at least 10-15GB free for updates.",
			scan.Evidence{
				Source: "Hardware Collector",
				Data:   map[string]any{"drive": drive.DriveLetter, "usage_percent": usage, "free_gb": drive.FreeGB},
			},
		))
	}
	return issues
}

func gpuDriverAgeRules(s *scan.SystemSnapshot, t Thresholds, now time.Time) []scan.Issue {
	var issues []scan.Issue
	for _, gpu := range s.Hardware.GPUs {
		if gpu.DriverDate == "" {
			continue
		}
		driverDate, err := time.Parse("2006-01-02", gpu.DriverDate)
		if err != nil {
			continue
		}
		daysOld := int(now.Sub(driverDate).Hours() / 24)
		if daysOld <= t.DriverMaxAgeDays {
			continue
		}
		issues = append(issues, newIssue(
			fmt.Sprintf("Outdated GPU Driver: %s", clip(gpu.Name, 40)),
			fmt.Sprintf("GPU driver is %d days old (from %s). Old drivers may cause crashes, poor performance, and missing features.", daysOld, gpu.DriverDate),
			scan.CategoryGaming, scan.SeverityHigh, 0.9,
			fmt.Sprintf("Update %s drivers. Use GeForce Experience (NVIDIA), AMD Adrenalin, or Intel Arc Control for latest updates.", gpu.Manufacturer),
		))
	}
	return issues
}

func cpuRules(s *scan.SystemSnapshot, t Thresholds, _ time.Time) []scan.Issue {
	cpu := s.Hardware.CPU
	if cpu == nil {
		return nil
	}
	var issues []scan.Issue

	if cpu.TemperatureCelsius != nil {
		temp := *cpu.TemperatureCelsius
		switch {
		case temp > t.CPUTempCriticalC:
			issues = append(issues, newIssue(
				"CPU Overheating Detected",
				fmt.Sprintf("CPU temperature is %.0f°C. This is dangerously high and will cause thermal throttling, reduced performance, and potential hardware damage.", temp),
				scan.CategoryHardware, scan.SeverityCritical, 0.95,
				"Check CPU cooling immediately: 1) Clean dust from heatsink and fans, 2) Ensure proper airflow in case, 3) Check thermal paste (may need reapplication), 4) Verify fans are spinning properly",
			))
		case temp > t.CPUTempHighC:
			issues = append(issues, newIssue(
				"CPU Running Hot",
				fmt.Sprintf("CPU temperature is %.0f°C. This is above ideal operating temperatures and may cause performance degradation during gaming.", temp),
				scan.CategoryHardware, scan.SeverityMedium, 0.85,
				"Improve cooling: Clean dust from PC, ensure good case airflow, check that CPU cooler is properly seated.",
			))
		}
	}

	if cpu.Name != "" && !cpu.VirtualizationSupp && !cpu.VirtualizationOn {
		issues = append(issues, newIssue(
			"CPU Virtualization Unavailable",
			"The CPU does not report virtualization support. Some anti-cheat systems and game sandboxing features rely on it.",
			scan.CategoryHardware, scan.SeverityLow, 0.8,
			"If the CPU supports VT-x/AMD-V, enable it in the BIOS. Otherwise this is a hardware limitation.",
		))
	}
	return issues
}

func prerequisiteRules(s *scan.SystemSnapshot, _ Thresholds, _ time.Time) []scan.Issue {
	var issues []scan.Issue
	for _, item := range s.Prerequisites.Items {
		if item.Installed || !item.Critical {
			continue
		}
		issues = append(issues, newIssue(
			fmt.Sprintf("Missing Critical Component: %s", item.Name),
			fmt.Sprintf("%s is not detected. %s Many games will fail to launch without this.", item.Name, item.Details),
			scan.CategoryGaming, scan.SeverityHigh, 1.0,
			"Download and install from Microsoft's official website. This is a fundamental requirement for most modern games.",
		))
	}
	if len(s.Prerequisites.Items) > 0 && !s.Prerequisites.GameModeEnabled {
		issues = append(issues, newIssue(
			"Windows Game Mode Disabled",
			"Windows Game Mode is currently turned off. This feature helps prioritize game processes and reduce background task interruptions.",
			scan.CategoryGaming, scan.SeverityLow, 0.9,
			"Enable Game Mode in Windows Settings > Gaming > Game Mode. This can help reduce background interruptions during gameplay.",
		))
	}
	return issues
}

// antivirusMarkers escalate a flagged process to high severity.
var antivirusMarkers = []string{"antivirus", "security", "mcafee", "norton", "mcshield", "avast", "kaspersky", "avp", "ekrn", "ccsvchst"}

func processRules(s *scan.SystemSnapshot, _ Thresholds, _ time.Time) []scan.Issue {
	var issues []scan.Issue
	for _, p := range s.ProcessIssues {
		severity := scan.SeverityMedium
		name := strings.ToLower(p.Name)
		desc := strings.ToLower(p.Description)
		for _, marker := range antivirusMarkers {
			if strings.Contains(name, marker) || strings.Contains(desc, marker) {
				severity = scan.SeverityHigh
				break
			}
		}
		issues = append(issues, newIssue(
			fmt.Sprintf("Background Process Interfering: %s", p.Name),
			fmt.Sprintf("Process '%s' (PID: %d) is running. %s", p.Name, p.PID, p.Description),
			scan.CategoryPerformance, severity, 0.8,
			"Close this application before gaming to free up resources and prevent background activity that can cause frame drops or stutters.",
			scan.Evidence{
				Source: "Process Collector",
				Data:   map[string]any{"process": p.Name},
			},
		))
	}
	return issues
}

func networkRules(s *scan.SystemSnapshot, _ Thresholds, _ time.Time) []scan.Issue {
	net := s.Network
	if !net.Connected {
		// A zero-value report means the collector never ran; absence of
		// data is not evidence of a dead connection.
		if net.ConnectionType == "" {
			return nil
		}
		return []scan.Issue{newIssue(
			"No Network Connection",
			"System is not connected to the internet. This will prevent online gaming, game updates, and DRM verification.",
			scan.CategoryNetwork, scan.SeverityHigh, 1.0,
			"Check network cable, WiFi connection, or network adapter settings.",
		)}
	}

	var issues []scan.Issue
	recommendation := "Check your network connection and consider troubleshooting steps."
	if len(net.Recommendations) > 0 {
		recommendation = net.Recommendations[0]
	}
	for _, finding := range net.Findings {
		issues = append(issues, newIssue(
			"Network Issue Detected",
			finding.Detail,
			scan.CategoryNetwork, finding.Kind.Severity(), 0.9,
			recommendation,
			scan.Evidence{
				Source: "Network Collector",
				Data:   map[string]any{"kind": string(finding.Kind), "detail": finding.Detail},
			},
		))
	}

	if net.ConnectionType == scan.ConnectionWiFi {
		issues = append(issues, newIssue(
			"Using WiFi for Gaming",
			"System is connected via WiFi. While functional, WiFi can introduce latency spikes and packet loss compared to a wired Ethernet connection.",
			scan.CategoryNetwork, scan.SeverityLow, 0.85,
			"For competitive gaming or best stability, use an Ethernet cable connection. If WiFi is necessary, ensure strong signal and 5GHz band.",
		))
	}
	return issues
}

func driverRules(s *scan.SystemSnapshot, _ Thresholds, _ time.Time) []scan.Issue {
	var issues []scan.Issue
	for _, driver := range s.Drivers.CriticalIssues {
		updateURL := driver.UpdateURL
		if updateURL == "" {
			updateURL = "manufacturer website"
		}
		issues = append(issues, newIssue(
			fmt.Sprintf("Critical Driver Issue: %s", driver.Name),
			fmt.Sprintf("Driver '%s' version %s is critically outdated or unsigned. This can cause system instability and crashes.", driver.Name, driver.Version),
			scan.CategoryHardware, scan.SeverityCritical, 0.95,
			fmt.Sprintf("Update %s immediately from %s. Critical driver issues can cause crashes and security vulnerabilities.", driver.Name, updateURL),
			scan.Evidence{
				Source: "Driver Collector",
				Data:   map[string]any{"driver": driver.Name, "version": driver.Version},
			},
		))
	}
	for _, driver := range s.Drivers.GPUDrivers {
		if driver.Status != scan.DriverStatusUpdateAvailable {
			continue
		}
		updateURL := driver.UpdateURL
		if updateURL == "" {
			updateURL = "manufacturer website"
		}
		issues = append(issues, newIssue(
			fmt.Sprintf("GPU Driver Update Available: %s", driver.Name),
			fmt.Sprintf("GPU driver %s has an update available (latest: %s). Newer drivers often include game optimizations and bug fixes.", driver.Version, driver.LatestVersion),
			scan.CategoryGaming, scan.SeverityMedium, 0.9,
			fmt.Sprintf("Update to version %s from %s. Game Ready drivers often improve performance in new releases.", driver.LatestVersion, updateURL),
			scan.Evidence{
				Source: "Driver Collector",
				Data:   map[string]any{"driver": driver.Name, "version": driver.Version},
			},
		))
	}
	return issues
}

func eventLogRules(s *scan.SystemSnapshot, _ Thresholds, _ time.Time) []scan.Issue {
	var issues []scan.Issue
	if critical := s.Events.CriticalErrors(); critical > 0 {
		issues = append(issues, newIssue(
			fmt.Sprintf("Recent System Crashes Detected: %d", critical),
			fmt.Sprintf("Found %d critical system errors in recent event logs. This indicates system instability.", critical),
			scan.CategoryStability, scan.SeverityHigh, 0.85,
			"Review detailed report for specific error codes. Common causes: faulty RAM, overheating, driver issues, or failing hardware. Check temperatures and run memory tests.",
		))
	}
	if crashes := s.Events.AppCrashes(); crashes > 0 {
		issues = append(issues, newIssue(
			fmt.Sprintf("Recent Application Crashes: %d", crashes),
			fmt.Sprintf("Detected %d application crashes recently. This may indicate software conflicts or hardware issues.", crashes),
			scan.CategoryStability, scan.SeverityMedium, 0.8,
			"Check if crashes correlate with specific games or applications. Update those applications and their dependencies. Verify system files with 'sfc /scannow'",
		))
	}
	return issues
}

func launcherRules(s *scan.SystemSnapshot, t Thresholds, _ time.Time) []scan.Issue {
	running := len(s.Launchers.Running)
	if running <= t.MaxRunningLaunchers {
		return nil
	}
	return []scan.Issue{newIssue(
		fmt.Sprintf("Too Many Launchers Running: %d", running),
		fmt.Sprintf("%d game launchers are currently running. Each launcher consumes RAM and CPU resources, and their overlays can conflict.", running),
		scan.CategoryPerformance, scan.SeverityMedium, 0.9,
		"Close launchers you're not actively using. Keep only the one for the game you're playing open. Disable auto-start for launchers you rarely use.",
	)}
}

func benchmarkRules(s *scan.SystemSnapshot, t Thresholds, _ time.Time) []scan.Issue {
	for _, bench := range s.Benchmarks.Results {
		if bench.Name != "Disk I/O (Seq)" {
			continue
		}
		writeSpeed := bench.Details["write_mb_s"]
		if writeSpeed <= 0 {
			break
		}
		if writeSpeed < t.DiskWriteVeryLowMBs {
			return []scan.Issue{newIssue(
				"Very Poor Disk Performance",
				fmt.Sprintf("Disk write speed is critically low at %.1f MB/s. This will cause extreme loading times and system lag.", writeSpeed),
				scan.CategoryPerformance, scan.SeverityHigh, 1.0,
				"This drive is severely underperforming. Check SMART status, disk health, available space. If SSD, may be failing. If HDD, consider immediate upgrade to SSD.",
			)}
		}
		if writeSpeed < t.DiskWriteLowMBs {
			return []scan.Issue{newIssue(
				"Poor Disk Write Performance",
				fmt.Sprintf("Measured disk write speed is only %.1f MB/s. For an SSD, this indicates it may be full or failing. For an HDD, this is normal but slow.", writeSpeed),
				scan.CategoryPerformance, scan.SeverityMedium, 1.0,
				"If this is an SSD: check available space (should have 15%+ free), run manufacturer diagnostic tools, or consider replacement if old. If HDD, consider upgrading to SSD.",
			)}
		}
		break
	}
	return nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
