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
	"runtime"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// smbiosMemoryTypes maps the WMI MemoryType/SMBIOSMemoryType codes that
// matter for gaming diagnostics.
var smbiosMemoryTypes = map[uint16]string{
	20: "DDR",
	21: "DDR2",
	24: "DDR3",
	26: "DDR4",
	27: "DDR5",
	34: "DDR5",
}

// cpuArchitectures maps the Win32_Processor Architecture codes.
var cpuArchitectures = map[uint16]string{
	0: "x86",
	1: "MIPS",
	2: "Alpha",
	3: "PowerPC",
	5: "ARM",
	6: "ia64",
	9: "x64",
}

// Compile-time interface check
var _ scan.Collector = (*HardwareCollector)(nil)

// HardwareCollector builds the complete hardware inventory. Each subsystem is
// collected independently: a failure in one produces an error string and an
// absent field, never a failed snapshot.
//
// The underlying WMI calls can crash the host process on some machines with
// malformed firmware tables, so the orchestrator normally runs this collector
// inside an isolated worker process rather than calling Collect directly.
type HardwareCollector struct {
	scan.BaseCollector
	provider facts.Provider
	registry facts.Registry
}

func NewHardwareCollector(logger logr.Logger, provider facts.Provider, registry facts.Registry) (*HardwareCollector, error) {
	if provider == nil {
		return nil, fmt.Errorf("fact provider is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry reader is required")
	}
	return &HardwareCollector{
		BaseCollector: scan.NewBaseCollector(scan.CollectorHardware, "Hardware Inventory", logger),
		provider:      provider,
		registry:      registry,
	}, nil
}

func (c *HardwareCollector) Collect(ctx context.Context) (any, error) {
	snapshot, errs := c.CollectAll(ctx)
	if len(errs) > 0 {
		return snapshot, fmt.Errorf("hardware collection completed with %d errors: %s", len(errs), strings.Join(errs, "; "))
	}
	return snapshot, nil
}

// CollectAll gathers every hardware subsystem and returns the snapshot along
// with the per-subsystem error strings.
func (c *HardwareCollector) CollectAll(ctx context.Context) (scan.HardwareSnapshot, []string) {
	var snapshot scan.HardwareSnapshot
	var errs []string

	record := func(subsystem string, err error) {
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s collection failed: %v", subsystem, err))
		}
	}

	var err error
	snapshot.CPU, err = c.collectCPU(ctx)
	record("CPU", err)

	snapshot.Memory, err = c.collectMemory(ctx)
	record("Memory", err)

	snapshot.GPUs, err = c.collectGPUs(ctx)
	record("GPU", err)

	snapshot.Storage, err = c.collectStorage(ctx)
	record("Storage", err)

	snapshot.Motherboard, err = c.collectMotherboard(ctx)
	record("Motherboard", err)

	snapshot.Cooling, err = c.collectCooling(ctx)
	record("Cooling", err)

	snapshot.Power = c.collectPower(snapshot.GPUs)

	c.Logger().V(1).Info("Hardware inventory collected",
		"gpus", len(snapshot.GPUs), "drives", len(snapshot.Storage), "errors", len(errs))
	return snapshot, errs
}

func (c *HardwareCollector) collectCPU(ctx context.Context) (*scan.CPUInfo, error) {
	if !c.provider.Available() {
		return c.collectCPUFallback(ctx)
	}

	var processors []win32Processor
	if _, err := c.provider.Query(ctx, &processors, "Win32_Processor", ""); err != nil {
		return nil, err
	}
	if len(processors) == 0 {
		return nil, nil
	}

	// Consumer systems have a single socket; use the first processor.
	p := processors[0]
	info := &scan.CPUInfo{
		Name:         strings.TrimSpace(p.Name),
		Manufacturer: normalizeCPUVendor(p.Manufacturer),
		Architecture: cpuArchitectures[p.Architecture],
		Cores:        int(p.NumberOfCores),
		Threads:      int(p.NumberOfLogicalProcessors),
		BaseClockMHz: float64(p.MaxClockSpeed),
		MaxClockMHz:  float64(p.MaxClockSpeed),
	}
	if info.Architecture == "" {
		info.Architecture = "Unknown"
	}
	if p.CurrentClockSpeed != nil {
		clock := float64(*p.CurrentClockSpeed)
		info.CurrentClockMHz = &clock
	}
	if p.VirtualizationFirmwareEnabled != nil {
		info.VirtualizationOn = *p.VirtualizationFirmwareEnabled
	}
	if p.VMMonitorModeExtensions != nil {
		info.VirtualizationSupp = *p.VMMonitorModeExtensions
	}
	if p.L3CacheSize > 0 {
		mb := float64(p.L3CacheSize) / 1024
		info.L3CacheMB = &mb
	}
	if p.LoadPercentage != nil {
		load := float64(*p.LoadPercentage)
		info.LoadPercent = &load
	}
	info.TemperatureCelsius = c.cpuTemperature(ctx)
	return info, nil
}

// cpuTemperature reads the ACPI thermal probe when present. Most consumer
// boards do not expose it, in which case the field stays absent.
func (c *HardwareCollector) cpuTemperature(ctx context.Context) *float64 {
	var probes []win32TemperatureProbe
	if _, err := c.provider.Query(ctx, &probes, "Win32_TemperatureProbe", ""); err != nil {
		return nil
	}
	for _, p := range probes {
		if p.CurrentReading == nil {
			continue
		}
		// CurrentReading is in tenths of a Kelvin.
		celsius := float64(*p.CurrentReading)/10 - 273.15
		if celsius > 0 && celsius < 150 {
			return &celsius
		}
	}
	return nil
}

func (c *HardwareCollector) collectCPUFallback(ctx context.Context) (*scan.CPUInfo, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 {
		return nil, err
	}
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		logical = 0
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		physical = int(infos[0].Cores)
	}
	return &scan.CPUInfo{
		Name:         strings.TrimSpace(infos[0].ModelName),
		Manufacturer: normalizeCPUVendor(infos[0].VendorID),
		Architecture: runtime.GOARCH,
		Cores:        physical,
		Threads:      logical,
		BaseClockMHz: infos[0].Mhz,
		MaxClockMHz:  infos[0].Mhz,
	}, nil
}

func (c *HardwareCollector) collectMemory(ctx context.Context) (*scan.MemoryInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	info := &scan.MemoryInfo{
		TotalGB:     facts.BytesToGB(vm.Total),
		UsedGB:      facts.BytesToGB(vm.Used),
		AvailableGB: facts.BytesToGB(vm.Available),
	}

	if !c.provider.Available() {
		return info, nil
	}

	var modules []win32PhysicalMemory
	if _, err := c.provider.Query(ctx, &modules, "Win32_PhysicalMemory", ""); err != nil {
		return info, nil
	}

	speedCounts := make(map[int]int)
	typeCounts := make(map[string]int)
	for _, m := range modules {
		module := scan.MemoryModule{
			CapacityGB:   facts.BytesToGB(m.Capacity),
			Manufacturer: strings.TrimSpace(m.Manufacturer),
			PartNumber:   strings.TrimSpace(m.PartNumber),
			Slot:         m.DeviceLocator,
		}
		if m.Speed != nil {
			module.SpeedMHz = int(*m.Speed)
			speedCounts[module.SpeedMHz]++
		}
		if t := memoryTypeName(m); t != "" {
			typeCounts[t]++
		}
		info.Modules = append(info.Modules, module)
		if m.Capacity > 0 {
			info.SlotsUsed++
		}
	}
	if speed := mostCommon(speedCounts); speed != 0 {
		info.SpeedMHz = &speed
	}
	info.Type = mostCommonString(typeCounts)

	var arrays []win32PhysicalMemoryArray
	if _, err := c.provider.Query(ctx, &arrays, "Win32_PhysicalMemoryArray", ""); err == nil && len(arrays) > 0 {
		info.SlotsTotal = int(arrays[0].MemoryDevices)
	}
	if info.SlotsTotal == 0 {
		info.SlotsTotal = info.SlotsUsed
	}
	return info, nil
}

func memoryTypeName(m win32PhysicalMemory) string {
	if t, ok := smbiosMemoryTypes[m.SMBIOSMemoryType]; ok {
		return t
	}
	if t, ok := smbiosMemoryTypes[m.MemoryType]; ok {
		return t
	}
	return ""
}

func (c *HardwareCollector) collectGPUs(ctx context.Context) ([]scan.GPUInfo, error) {
	if !c.provider.Available() {
		return nil, nil
	}
	var controllers []win32VideoController
	if _, err := c.provider.Query(ctx, &controllers, "Win32_VideoController", ""); err != nil {
		return nil, err
	}
	var gpus []scan.GPUInfo
	for _, vc := range controllers {
		name := strings.TrimSpace(vc.Name)
		// The Microsoft Basic Display Adapter is a virtual fallback driver.
		lower := strings.ToLower(name)
		if strings.Contains(lower, "basic") && strings.Contains(lower, "display") {
			continue
		}
		gpu := scan.GPUInfo{
			Name:          name,
			Manufacturer:  normalizeGPUVendor(vc.AdapterCompatibility),
			VRAMMB:        int(vc.AdapterRAM / (1024 * 1024)),
			DriverVersion: vc.DriverVersion,
		}
		if ts, ok := facts.ParseWMIDateTime(vc.DriverDate); ok {
			gpu.DriverDate = ts.Format("2006-01-02")
		}
		gpus = append(gpus, gpu)
	}
	return gpus, nil
}

func (c *HardwareCollector) collectStorage(ctx context.Context) ([]scan.StorageInfo, error) {
	if !c.provider.Available() {
		return c.collectStorageFallback(ctx)
	}

	var physical []win32DiskDrive
	if _, err := c.provider.Query(ctx, &physical, "Win32_DiskDrive", ""); err != nil {
		return nil, err
	}
	var logical []win32LogicalDisk
	// DriveType 3 is a local fixed disk.
	if _, err := c.provider.Query(ctx, &logical, "Win32_LogicalDisk", "DriveType=3"); err != nil {
		return nil, err
	}

	// Drive letters and physical drives enumerate in unrelated orders, so
	// the pairing has to go through the partition association.
	var links []win32LogicalDiskToPartition
	if _, err := c.provider.Query(ctx, &links, "Win32_LogicalDiskToPartition", ""); err != nil {
		c.Logger().V(1).Info("Disk partition association unavailable", "error", err)
	}
	indexByLetter := diskIndexByLetter(links)

	modelByIndex := make(map[int]win32DiskDrive, len(physical))
	for _, d := range physical {
		modelByIndex[int(d.Index)] = d
	}

	var drives []scan.StorageInfo
	for _, ld := range logical {
		info := scan.StorageInfo{
			Model:         ld.VolumeName,
			Interface:     "Unknown",
			Type:          "Unknown",
			TotalGB:       facts.BytesToGB(ld.Size),
			FreeGB:        facts.BytesToGB(ld.FreeSpace),
			UsedGB:        facts.BytesToGB(ld.Size - ld.FreeSpace),
			DriveLetter:   ld.DeviceID,
			IsSystemDrive: strings.EqualFold(ld.DeviceID, "C:"),
		}
		idx, linked := indexByLetter[strings.ToUpper(ld.DeviceID)]
		if !linked && len(physical) == 1 {
			// Only one physical drive: every fixed volume lives on it.
			idx, linked = int(physical[0].Index), true
		}
		if pd, ok := modelByIndex[idx]; linked && ok {
			info.Model = strings.TrimSpace(pd.Model)
			info.Interface = pd.InterfaceType
			info.Type = classifyDriveType(pd.Model, pd.MediaType, pd.InterfaceType)
		}
		drives = append(drives, info)
	}
	return drives, nil
}

var (
	partitionDiskRe = regexp.MustCompile(`Disk #(\d+)`)
	diskDeviceIDRe  = regexp.MustCompile(`DeviceID="([^"]+)"`)
)

// diskIndexByLetter maps drive letters to Win32_DiskDrive indexes by parsing
// both ends of the logical-disk-to-partition association. Malformed links are
// skipped; an absent letter means the volume could not be attributed.
func diskIndexByLetter(links []win32LogicalDiskToPartition) map[string]int {
	byLetter := make(map[string]int, len(links))
	for _, link := range links {
		disk := partitionDiskRe.FindStringSubmatch(link.Antecedent)
		letter := diskDeviceIDRe.FindStringSubmatch(link.Dependent)
		if disk == nil || letter == nil {
			continue
		}
		idx, err := strconv.Atoi(disk[1])
		if err != nil {
			continue
		}
		byLetter[strings.ToUpper(letter[1])] = idx
	}
	return byLetter
}

func (c *HardwareCollector) collectStorageFallback(ctx context.Context) ([]scan.StorageInfo, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	var drives []scan.StorageInfo
	for _, p := range parts {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		drives = append(drives, scan.StorageInfo{
			Model:         p.Device,
			Interface:     "Unknown",
			Type:          "Unknown",
			TotalGB:       facts.BytesToGB(usage.Total),
			UsedGB:        facts.BytesToGB(usage.Used),
			FreeGB:        facts.BytesToGB(usage.Free),
			DriveLetter:   p.Mountpoint,
			IsSystemDrive: p.Mountpoint == "/" || strings.EqualFold(p.Mountpoint, `C:\`) || strings.EqualFold(p.Mountpoint, "C:"),
		})
	}
	return drives, nil
}

// classifyDriveType decides SSD vs HDD from the model string, WMI media type,
// and interface. WMI has no first-class SSD flag on consumer SKUs, so this is
// a heuristic: NVMe is always solid-state, and rotational disks report a
// "fixed hard disk" media type.
func classifyDriveType(model, mediaType, iface string) string {
	lm := strings.ToLower(model)
	if strings.Contains(lm, "ssd") || strings.Contains(lm, "nvme") || strings.EqualFold(iface, "NVMe") {
		return "SSD"
	}
	lmt := strings.ToLower(mediaType)
	if strings.Contains(lmt, "ssd") || strings.Contains(lmt, "solid") {
		return "SSD"
	}
	if strings.Contains(lmt, "fixed") || strings.Contains(lmt, "hard") {
		return "HDD"
	}
	return "Unknown"
}

func (c *HardwareCollector) collectMotherboard(ctx context.Context) (*scan.MotherboardInfo, error) {
	if !c.provider.Available() {
		return nil, nil
	}
	var boards []win32BaseBoard
	if _, err := c.provider.Query(ctx, &boards, "Win32_BaseBoard", ""); err != nil {
		return nil, err
	}
	var bios []win32BIOS
	if _, err := c.provider.Query(ctx, &bios, "Win32_BIOS", ""); err != nil {
		return nil, err
	}
	if len(boards) == 0 && len(bios) == 0 {
		return nil, nil
	}

	info := &scan.MotherboardInfo{BIOSMode: "Legacy"}
	if len(boards) > 0 {
		info.Manufacturer = strings.TrimSpace(boards[0].Manufacturer)
		info.Model = strings.TrimSpace(boards[0].Product)
		info.Version = boards[0].Version
	}
	if len(bios) > 0 {
		info.BIOSVersion = bios[0].SMBIOSBIOSVersion
		if info.BIOSVersion == "" {
			info.BIOSVersion = bios[0].Version
		}
		if ts, ok := facts.ParseWMIDateTime(bios[0].ReleaseDate); ok {
			info.BIOSDate = ts.Format("2006-01-02")
		}
		if strings.Contains(strings.ToLower(info.BIOSVersion), "uefi") {
			info.BIOSMode = "UEFI"
		}
	}
	// UEFI systems expose the secure boot state key; its presence alone
	// distinguishes UEFI from legacy BIOS.
	const secureBootKey = `SYSTEM\CurrentControlSet\Control\SecureBoot\State`
	if c.registry.KeyExists(facts.RootLocalMachine, secureBootKey) {
		info.BIOSMode = "UEFI"
		if v, err := c.registry.DWORD(facts.RootLocalMachine, secureBootKey, "UEFISecureBootEnabled"); err == nil {
			info.SecureBootEnabled = v == 1
		}
	}
	return info, nil
}

func (c *HardwareCollector) collectCooling(ctx context.Context) (*scan.CoolingInfo, error) {
	if !c.provider.Available() {
		return nil, nil
	}
	var fans []win32Fan
	if _, err := c.provider.Query(ctx, &fans, "Win32_Fan", ""); err != nil {
		return nil, err
	}
	if len(fans) == 0 {
		return nil, nil
	}
	info := &scan.CoolingInfo{CaseFans: len(fans)}
	for _, f := range fans {
		name := strings.ToLower(f.Name)
		if strings.Contains(name, "pump") {
			info.WaterCoolingDetected = true
		}
		if strings.Contains(name, "cpu") && f.DesiredSpeed != nil && info.CPUFanRPM == nil {
			rpm := int(*f.DesiredSpeed)
			info.CPUFanRPM = &rpm
		}
	}
	return info, nil
}

// collectPower estimates PSU wattage from the detected GPU class; WMI rarely
// exposes the actual supply.
func (c *HardwareCollector) collectPower(gpus []scan.GPUInfo) *scan.PowerInfo {
	for _, gpu := range gpus {
		name := strings.ToLower(gpu.Name)
		switch {
		case strings.Contains(name, "rtx"), strings.Contains(name, "gtx"), strings.Contains(name, " rx "):
			w := 650
			return &scan.PowerInfo{EstimatedWattage: &w}
		case strings.Contains(name, "integrated"), strings.Contains(name, "graphics"):
			w := 300
			return &scan.PowerInfo{EstimatedWattage: &w}
		}
	}
	return nil
}

func normalizeCPUVendor(vendor string) string {
	v := strings.ToLower(vendor)
	switch {
	case strings.Contains(v, "intel"):
		return "Intel"
	case strings.Contains(v, "amd"), strings.Contains(v, "authenticamd"):
		return "AMD"
	case vendor == "":
		return "Unknown"
	default:
		return vendor
	}
}

func normalizeGPUVendor(vendor string) string {
	v := strings.ToLower(vendor)
	switch {
	case strings.Contains(v, "nvidia"):
		return "NVIDIA"
	case strings.Contains(v, "intel"):
		return "Intel"
	// AMD adapters report "Advanced Micro Devices, Inc." or the legacy
	// "ATI Technologies Inc."; a bare "ati" substring would also match
	// unrelated words like "Corporation".
	case strings.Contains(v, "advanced micro devices"),
		strings.Contains(v, "amd"),
		strings.Contains(v, "ati "):
		return "AMD"
	case vendor == "":
		return "Unknown"
	default:
		return vendor
	}
}

func mostCommon(counts map[int]int) int {
	best, bestN := 0, 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v > best) {
			best, bestN = v, n
		}
	}
	return best
}

func mostCommonString(counts map[string]int) string {
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v > best) {
			best, bestN = v, n
		}
	}
	return best
}
