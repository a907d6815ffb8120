// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// driverBaseline pins the version a vendor's driver is compared against.
// minimum marks the oldest version still acceptable for gaming; anything
// older is flagged critical.
type driverBaseline struct {
	latest    string
	minimum   string
	updateURL string
}

// driverBaselines would be fetched from vendor APIs in a connected setup; the
// built-in table covers the common gaming hardware vendors.
var driverBaselines = map[string]driverBaseline{
	"nvidia":  {latest: "551.23", minimum: "545.00", updateURL: "https://www.nvidia.com/drivers"},
	"amd":     {latest: "24.1.1", minimum: "23.12.1", updateURL: "https://www.amd.com/support"},
	"intel":   {latest: "31.0.101.5084", minimum: "31.0.101.5000", updateURL: "https://www.intel.com/content/www/us/en/download-center"},
	"realtek": {latest: "6.0.9235.1", minimum: "6.0.9000.0"},
}

var versionDigitsRe = regexp.MustCompile(`\d+`)

var _ scan.Collector = (*DriverCollector)(nil)

// DriverCollector inventories PnP signed drivers and grades each against the
// known vendor baselines.
type DriverCollector struct {
	scan.BaseCollector
	provider facts.Provider
}

func NewDriverCollector(logger logr.Logger, provider facts.Provider) (*DriverCollector, error) {
	if provider == nil {
		return nil, fmt.Errorf("fact provider is required")
	}
	return &DriverCollector{
		BaseCollector: scan.NewBaseCollector(scan.CollectorDrivers, "Driver Compatibility", logger),
		provider:      provider,
	}, nil
}

func (c *DriverCollector) Collect(ctx context.Context) (any, error) {
	report := scan.DriverReport{}
	if !c.provider.Available() {
		return report, facts.ErrUnavailable
	}

	var raw []win32PnPSignedDriver
	if _, err := c.provider.Query(ctx, &raw, "Win32_PnPSignedDriver", ""); err != nil {
		return report, fmt.Errorf("failed to query signed drivers: %w", err)
	}

	for _, r := range raw {
		name := strings.TrimSpace(r.DeviceName)
		if name == "" {
			continue
		}
		info := scan.DriverInfo{
			Name:       name,
			DeviceName: name,
			Provider:   strings.TrimSpace(r.DriverProviderName),
			Version:    r.DriverVersion,
			Category:   categorizeDriver(name, r.HardWareID),
			Status:     scan.DriverStatusUnknown,
		}
		if r.IsSigned != nil {
			info.IsSigned = *r.IsSigned
		}
		if ts, ok := facts.ParseWMIDateTime(r.DriverDate); ok {
			info.Date = ts.Format("2006-01-02")
		}
		gradeDriver(&info)
		c.addToReport(&report, info)
	}

	report.Recommendations = driverRecommendations(report)
	c.Logger().V(1).Info("Driver inventory graded",
		"total", report.TotalDrivers, "critical", report.Critical, "updates", report.UpdateAvailable)
	return report, nil
}

func (c *DriverCollector) addToReport(report *scan.DriverReport, info scan.DriverInfo) {
	report.TotalDrivers++
	switch info.Category {
	case scan.DriverCategoryGPU:
		report.GPUDrivers = append(report.GPUDrivers, info)
	case scan.DriverCategoryAudio:
		report.AudioDrivers = append(report.AudioDrivers, info)
	case scan.DriverCategoryNetwork:
		report.NetworkDrivers = append(report.NetworkDrivers, info)
	default:
		report.OtherDrivers = append(report.OtherDrivers, info)
	}
	switch info.Status {
	case scan.DriverStatusUpToDate:
		report.UpToDate++
	case scan.DriverStatusUpdateAvailable:
		report.UpdateAvailable++
	case scan.DriverStatusOutdated:
		report.Outdated++
	case scan.DriverStatusCritical:
		report.Critical++
		report.CriticalIssues = append(report.CriticalIssues, info)
	default:
		report.Unknown++
	}
}

func categorizeDriver(name, hardwareID string) scan.DriverCategory {
	n := strings.ToLower(name + " " + hardwareID)
	switch {
	case containsAny(n, "nvidia", "geforce", "radeon", "display", "graphics"):
		return scan.DriverCategoryGPU
	case containsAny(n, "audio", "sound", "realtek"):
		return scan.DriverCategoryAudio
	case containsAny(n, "network", "ethernet", "wifi", "wireless", "killer", "broadcom"):
		return scan.DriverCategoryNetwork
	case containsAny(n, "chipset", "management engine"):
		return scan.DriverCategoryChipset
	case containsAny(n, "storage", "nvme", "sata"):
		return scan.DriverCategoryStorage
	default:
		return scan.DriverCategoryOther
	}
}

// gradeDriver assigns the compatibility status in place.
func gradeDriver(info *scan.DriverInfo) {
	// Unsigned GPU or audio drivers are a stability hazard regardless of
	// version.
	if !info.IsSigned && (info.Category == scan.DriverCategoryGPU || info.Category == scan.DriverCategoryAudio) {
		info.Status = scan.DriverStatusCritical
		return
	}

	vendor := driverVendor(info.Name, info.Provider)
	baseline, ok := driverBaselines[vendor]
	if !ok || info.Version == "" {
		return
	}
	info.UpdateURL = baseline.updateURL

	if baseline.minimum != "" && compareVersions(info.Version, baseline.minimum) < 0 {
		if info.Category == scan.DriverCategoryGPU {
			info.Status = scan.DriverStatusCritical
		} else {
			info.Status = scan.DriverStatusUpdateAvailable
		}
		info.LatestVersion = baseline.latest
		return
	}
	if compareVersions(info.Version, baseline.latest) < 0 {
		info.Status = scan.DriverStatusUpdateAvailable
		info.LatestVersion = baseline.latest
		return
	}
	info.Status = scan.DriverStatusUpToDate
}

func driverVendor(name, provider string) string {
	n := strings.ToLower(name + " " + provider)
	switch {
	case containsAny(n, "nvidia", "geforce"):
		return "nvidia"
	case containsAny(n, "amd", "radeon"):
		return "amd"
	case strings.Contains(n, "realtek"):
		return "realtek"
	case strings.Contains(n, "intel") && containsAny(n, "graphics", "arc", "xe"):
		return "intel"
	default:
		return ""
	}
}

// compareVersions compares the numeric runs of two version strings.
// Returns -1, 0, or 1.
func compareVersions(a, b string) int {
	av := versionDigitsRe.FindAllString(a, -1)
	bv := versionDigitsRe.FindAllString(b, -1)
	for i := 0; i < len(av) || i < len(bv); i++ {
		var an, bn int
		if i < len(av) {
			an, _ = strconv.Atoi(av[i])
		}
		if i < len(bv) {
			bn, _ = strconv.Atoi(bv[i])
		}
		if an < bn {
			return -1
		}
		if an > bn {
			return 1
		}
	}
	return 0
}

func driverRecommendations(report scan.DriverReport) []string {
	var recs []string
	if report.Critical > 0 {
		recs = append(recs, fmt.Sprintf(
			"CRITICAL: %d driver(s) require immediate update. These may cause crashes or stability issues.",
			report.Critical))
	}
	if report.UpdateAvailable > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d driver(s) have updates available. Consider updating for improved performance and stability.",
			report.UpdateAvailable))
	}
	gpuOutdated := 0
	for _, d := range report.GPUDrivers {
		if d.Status == scan.DriverStatusUpdateAvailable || d.Status == scan.DriverStatusCritical {
			gpuOutdated++
		}
	}
	if gpuOutdated > 0 {
		recs = append(recs, "GPU driver update recommended. Newer drivers often include game optimizations and bug fixes.")
	}
	for _, d := range report.AudioDrivers {
		if !d.IsSigned {
			recs = append(recs, "Unsigned audio drivers detected. These may cause audio issues in games. Consider updating to signed drivers.")
			break
		}
	}
	return recs
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
