// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scan

import (
	"strings"
	"time"
)

// Fact snapshot types produced by the collectors. Every field is optional or
// zero-valued by default: absent data must never crash a downstream consumer,
// so analysis rules treat nil pointers and empty slices as "not collected".

// CPUInfo describes the installed processor.
type CPUInfo struct {
	Name               string
	Manufacturer       string
	Architecture       string
	Cores              int
	Threads            int
	BaseClockMHz       float64
	MaxClockMHz        float64
	CurrentClockMHz    *float64
	VirtualizationOn   bool
	VirtualizationSupp bool
	L3CacheMB          *float64
	TemperatureCelsius *float64
	LoadPercent        *float64
}

// MemoryModule is one physical RAM stick.
type MemoryModule struct {
	CapacityGB   float64
	SpeedMHz     int
	Manufacturer string
	PartNumber   string
	Slot         string
}

// MemoryInfo describes system RAM.
type MemoryInfo struct {
	TotalGB     float64
	UsedGB      float64
	AvailableGB float64
	SpeedMHz    *int
	Type        string // DDR4, DDR5, ...
	SlotsUsed   int
	SlotsTotal  int
	Modules     []MemoryModule
}

// GPUInfo describes one graphics adapter.
type GPUInfo struct {
	Name               string
	Manufacturer       string // NVIDIA, AMD, Intel
	VRAMMB             int
	DriverVersion      string
	DriverDate         string // YYYY-MM-DD, empty if unknown
	TemperatureCelsius *float64
}

// StorageInfo describes one storage device or volume.
type StorageInfo struct {
	Model         string
	Interface     string // NVMe, SATA, USB
	Type          string // SSD, HDD
	TotalGB       float64
	UsedGB        float64
	FreeGB        float64
	DriveLetter   string
	IsSystemDrive bool
	HealthPercent *float64
}

// MotherboardInfo describes the mainboard and firmware.
type MotherboardInfo struct {
	Manufacturer      string
	Model             string
	Version           string
	BIOSVersion       string
	BIOSDate          string
	BIOSMode          string // UEFI or Legacy
	SecureBootEnabled bool
	TPMVersion        string
}

// CoolingInfo describes detected cooling hardware.
type CoolingInfo struct {
	CPUFanRPM            *int
	CaseFans             int
	WaterCoolingDetected bool
}

// PowerInfo describes the power supply, when detectable.
type PowerInfo struct {
	EstimatedWattage *int
	PSUModel         string
}

// HardwareSnapshot is the complete hardware inventory.
type HardwareSnapshot struct {
	CPU         *CPUInfo
	Memory      *MemoryInfo
	GPUs        []GPUInfo
	Storage     []StorageInfo
	Motherboard *MotherboardInfo
	Cooling     *CoolingInfo
	Power       *PowerInfo
}

// WindowsInfo describes the operating system.
type WindowsInfo struct {
	Version               string
	Build                 string
	Edition               string
	Architecture          string
	InstallDate           string
	ActivationStatus      string
	GameModeEnabled       bool
	HardwareGPUScheduling bool
}

// EventLevel mirrors the Windows event log severity levels.
type EventLevel int

const (
	EventLevelCritical    EventLevel = 1
	EventLevelError       EventLevel = 2
	EventLevelWarning     EventLevel = 3
	EventLevelInformation EventLevel = 4
	EventLevelVerbose     EventLevel = 5
)

// EventLogEntry is one Windows event log record.
type EventLogEntry struct {
	Timestamp     time.Time
	Level         EventLevel
	Source        string
	EventID       int
	Message       string
	GamingRelated bool
}

// EventLogSummary aggregates the event log analysis window.
type EventLogSummary struct {
	TotalEvents        int
	CriticalCount      int
	ErrorCount         int
	WarningCount       int
	GamingRelated      []EventLogEntry
	RecentCrashes      []EventLogEntry
	DriverErrors       []EventLogEntry
	AnalysisPeriodDays int
}

// AppCrashes counts application crash records (event ID 1001) in the window.
func (s EventLogSummary) AppCrashes() int {
	n := 0
	for _, e := range s.RecentCrashes {
		if e.EventID == 1001 {
			n++
		}
	}
	return n
}

// CriticalErrors is the total critical-level event count in the window.
func (s EventLogSummary) CriticalErrors() int {
	return s.CriticalCount
}

// DriverStatus classifies how current an installed driver is.
type DriverStatus string

const (
	DriverStatusUpToDate        DriverStatus = "up_to_date"
	DriverStatusUpdateAvailable DriverStatus = "update_available"
	DriverStatusOutdated        DriverStatus = "outdated"
	DriverStatusCritical        DriverStatus = "critical"
	DriverStatusUnknown         DriverStatus = "unknown"
)

// DriverCategory groups drivers by the hardware they serve.
type DriverCategory string

const (
	DriverCategoryGPU     DriverCategory = "gpu"
	DriverCategoryAudio   DriverCategory = "audio"
	DriverCategoryNetwork DriverCategory = "network"
	DriverCategoryChipset DriverCategory = "chipset"
	DriverCategoryStorage DriverCategory = "storage"
	DriverCategoryOther   DriverCategory = "other"
)

// DriverInfo describes one installed driver.
type DriverInfo struct {
	Name          string
	Provider      string
	Version       string
	Date          string
	DeviceName    string
	Status        DriverStatus
	Category      DriverCategory
	IsSigned      bool
	LatestVersion string
	UpdateURL     string
}

// DriverReport aggregates the driver compatibility check.
type DriverReport struct {
	TotalDrivers    int
	UpToDate        int
	UpdateAvailable int
	Outdated        int
	Critical        int
	Unknown         int

	GPUDrivers     []DriverInfo
	AudioDrivers   []DriverInfo
	NetworkDrivers []DriverInfo
	OtherDrivers   []DriverInfo

	CriticalIssues  []DriverInfo
	Recommendations []string
}

// LauncherType identifies a known game launcher.
type LauncherType string

const (
	LauncherSteam     LauncherType = "steam"
	LauncherEpic      LauncherType = "epic_games"
	LauncherEA        LauncherType = "ea_app"
	LauncherUbisoft   LauncherType = "ubisoft_connect"
	LauncherBattleNet LauncherType = "battle_net"
	LauncherXbox      LauncherType = "xbox_app"
	LauncherGOG       LauncherType = "gog_galaxy"
	LauncherRiot      LauncherType = "riot_client"
	LauncherRockstar  LauncherType = "rockstar_games"
)

// LauncherInfo describes one detected game launcher.
type LauncherInfo struct {
	Name          string
	Type          LauncherType
	InstallPath   string
	Version       string
	GamesCount    int
	IsRunning     bool
	AutoStart     bool
	CloudSaves    bool
	OverlayOn     bool
	StorageUsedGB float64
	Issues        []string
}

// LauncherReport aggregates launcher detection.
type LauncherReport struct {
	TotalLaunchers  int
	Installed       []LauncherInfo
	Running         []string
	TotalGames      int
	StorageUsedGB   float64
	Recommendations []string
}

// ConnectionType is how the default network adapter reaches the network.
type ConnectionType string

const (
	ConnectionEthernet ConnectionType = "ethernet"
	ConnectionWiFi     ConnectionType = "wifi"
	ConnectionVPN      ConnectionType = "vpn"
	ConnectionUnknown  ConnectionType = "unknown"
)

// NetworkAdapter describes one network interface.
type NetworkAdapter struct {
	Name        string
	Description string
	Type        ConnectionType
	MACAddress  string
	IPAddress   string
	Gateway     string
	DNSServers  []string
	SpeedMbps   int
	MTU         int
	IsDefault   bool
}

// LatencyProbe is the result of one latency measurement against a well-known
// gaming endpoint.
type LatencyProbe struct {
	Target     string
	TargetName string
	AvgMs      float64
	MinMs      float64
	MaxMs      float64
	PacketLoss float64
	Status     string // ok, high_latency, failed
}

// NetworkFindingKind classifies a structured network finding. The collector
// classifies findings itself so the analysis engine never parses prose.
type NetworkFindingKind string

const (
	FindingHighDNSLatency     NetworkFindingKind = "high_dns_latency"
	FindingHighGatewayLatency NetworkFindingKind = "high_gateway_latency"
	FindingHighServerLatency  NetworkFindingKind = "high_server_latency"
	FindingPacketLoss         NetworkFindingKind = "packet_loss"
	FindingNonStandardMTU     NetworkFindingKind = "nonstandard_mtu"
)

// Severity is the engine-facing severity hint for this finding kind.
func (k NetworkFindingKind) Severity() Severity {
	switch k {
	case FindingHighServerLatency, FindingPacketLoss:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// NetworkFinding is a structured, pre-classified network problem.
type NetworkFinding struct {
	Kind   NetworkFindingKind
	Detail string
}

// NetworkReport aggregates the network diagnostics.
type NetworkReport struct {
	Connected      bool
	ConnectionType ConnectionType
	Adapters       []NetworkAdapter
	DefaultAdapter *NetworkAdapter

	DNSLatencyMs     *float64
	GatewayLatencyMs *float64
	GamingServers    []LatencyProbe

	Findings        []NetworkFinding
	Recommendations []string
}

// PrerequisiteCheck is one gaming-prerequisite probe result.
type PrerequisiteCheck struct {
	Name      string
	Installed bool
	Critical  bool
	Version   string
	Details   string
}

// PrerequisitesReport aggregates prerequisite checks.
type PrerequisitesReport struct {
	Items           []PrerequisiteCheck
	GameModeEnabled bool
}

// ImpactTier grades how much a background process interferes with gaming.
type ImpactTier string

const (
	ImpactLow    ImpactTier = "low"
	ImpactMedium ImpactTier = "medium"
	ImpactHigh   ImpactTier = "high"
)

// ProcessIssue is one flagged background process.
type ProcessIssue struct {
	Name        string
	PID         int32
	Description string
	Impact      ImpactTier
}

// BenchmarkResult is the score of one micro-benchmark.
type BenchmarkResult struct {
	Name     string
	Score    float64
	Unit     string
	Duration time.Duration
	Details  map[string]float64
}

// BenchmarkSuite is the full benchmark run.
type BenchmarkSuite struct {
	Timestamp     time.Time
	TotalDuration time.Duration
	Results       []BenchmarkResult
}

// benchmarkWeights control the contribution of each benchmark family to the
// overall score.
var benchmarkWeights = map[string]float64{
	"cpu":    0.3,
	"memory": 0.2,
	"math":   0.2,
	"string": 0.15,
	"disk":   0.15,
}

// OverallScore is the weighted, normalized 0-100 benchmark score.
func (s BenchmarkSuite) OverallScore() float64 {
	if len(s.Results) == 0 {
		return 0
	}
	var weighted, total float64
	for _, r := range s.Results {
		family := benchmarkFamily(r.Name)
		weight, ok := benchmarkWeights[family]
		if !ok {
			weight = 0.1
		}
		normalized := r.Score / 1000 * 100
		if normalized > 100 {
			normalized = 100
		}
		if normalized < 0 {
			normalized = 0
		}
		weighted += normalized * weight
		total += weight
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

func benchmarkFamily(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
