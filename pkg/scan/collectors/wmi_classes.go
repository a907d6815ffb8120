// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

// WMI class mappings queried through the fact provider. Field names must
// match the WMI property names exactly; pointer fields tolerate NULLs.

type win32OperatingSystem struct {
	Caption        string
	Version        string
	BuildNumber    string
	OSArchitecture string
	InstallDate    string
}

type softwareLicensingProduct struct {
	Name              string
	LicenseStatus     uint32
	PartialProductKey string
}

type win32Processor struct {
	Name                          string
	Manufacturer                  string
	Architecture                  uint16
	NumberOfCores                 uint32
	NumberOfLogicalProcessors     uint32
	MaxClockSpeed                 uint32
	CurrentClockSpeed             *uint32
	L3CacheSize                   uint32
	VirtualizationFirmwareEnabled *bool
	VMMonitorModeExtensions       *bool
	LoadPercentage                *uint16
}

type win32PhysicalMemory struct {
	Capacity         uint64
	Speed            *uint32
	MemoryType       uint16
	SMBIOSMemoryType uint16
	Manufacturer     string
	PartNumber       string
	DeviceLocator    string
}

type win32PhysicalMemoryArray struct {
	MemoryDevices uint16
}

type win32VideoController struct {
	Name                 string
	AdapterCompatibility string
	AdapterRAM           uint32
	DriverVersion        string
	DriverDate           string
}

type win32DiskDrive struct {
	Model         string
	InterfaceType string
	MediaType     string
	Size          uint64
	Index         uint32
}

// win32LogicalDiskToPartition is the association between a drive letter and
// its partition. Both ends arrive as serialized object paths, e.g.
// `\\HOST\root\cimv2:Win32_DiskPartition.DeviceID="Disk #0, Partition #1"`.
type win32LogicalDiskToPartition struct {
	Antecedent string
	Dependent  string
}

type win32LogicalDisk struct {
	DeviceID   string
	DriveType  uint32
	FileSystem string
	Size       uint64
	FreeSpace  uint64
	VolumeName string
}

type win32BaseBoard struct {
	Manufacturer string
	Product      string
	Version      string
}

type win32BIOS struct {
	Manufacturer      string
	SMBIOSBIOSVersion string
	Version           string
	ReleaseDate       string
}

type win32Fan struct {
	Name         string
	DesiredSpeed *uint64
}

type win32TemperatureProbe struct {
	CurrentReading *int32
}

type win32NetworkAdapter struct {
	Name        string
	Description string
	MACAddress  string
	AdapterType string
	Speed       *uint64
	NetEnabled  *bool
}

type win32NetworkAdapterConfiguration struct {
	Description          string
	IPEnabled            *bool
	IPAddress            []string
	DefaultIPGateway     []string
	DNSServerSearchOrder []string
	MTU                  *uint32
	DHCPEnabled          *bool
}

type win32Process struct {
	Name      string
	ProcessId uint32
}

type win32NTLogEvent struct {
	Logfile       string
	SourceName    string
	Message       string
	EventCode     uint32
	EventType     uint16
	TimeGenerated string
}

type win32PnPSignedDriver struct {
	DeviceName         string
	DriverVersion      string
	DriverProviderName string
	DriverDate         string
	DeviceClass        string
	HardWareID         string
	IsSigned           *bool
}
