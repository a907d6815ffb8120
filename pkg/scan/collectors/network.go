// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/go-logr/logr"
	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// probeTarget is one endpoint probed for gaming latency.
type probeTarget struct {
	host string
	port int
	name string
}

var gamingProbeTargets = []probeTarget{
	{host: "8.8.8.8", port: 53, name: "Google DNS"},
	{host: "1.1.1.1", port: 53, name: "Cloudflare DNS"},
	{host: "steamcommunity.com", port: 443, name: "Steam Community"},
	{host: "epicgames.com", port: 443, name: "Epic Games"},
}

const (
	probeAttempts    = 4
	probeTimeout     = 3 * time.Second
	highLatencyMs    = 100.0
	serverLatencyMs  = 150.0
	gatewayLatencyMs = 10.0
	dnsLatencyMs     = 100.0
	standardMTU      = 1500
)

// prober measures reachability and round-trip latency to one endpoint.
// TCP connect time stands in for ICMP, which needs elevation on Windows.
type prober interface {
	Probe(ctx context.Context, host string, port int, attempts int) scan.LatencyProbe
	ResolveLatency(ctx context.Context, host string) (float64, error)
}

type tcpProber struct {
	dialer   net.Dialer
	resolver *net.Resolver
}

func newTCPProber() *tcpProber {
	return &tcpProber{
		dialer:   net.Dialer{Timeout: probeTimeout},
		resolver: net.DefaultResolver,
	}
}

func (p *tcpProber) Probe(ctx context.Context, host string, port int, attempts int) scan.LatencyProbe {
	probe := scan.LatencyProbe{Target: host}
	addr := fmt.Sprintf("%s:%d", host, port)

	var samples []float64
	for i := 0; i < attempts; i++ {
		start := time.Now()
		conn, err := p.dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			continue
		}
		conn.Close()
		samples = append(samples, float64(time.Since(start).Microseconds())/1000)
	}

	probe.PacketLoss = float64(attempts-len(samples)) / float64(attempts) * 100
	if len(samples) == 0 {
		probe.Status = "failed"
		return probe
	}

	probe.MinMs = math.Inf(1)
	for _, s := range samples {
		probe.AvgMs += s
		probe.MinMs = math.Min(probe.MinMs, s)
		probe.MaxMs = math.Max(probe.MaxMs, s)
	}
	probe.AvgMs = math.Round(probe.AvgMs/float64(len(samples))*100) / 100
	if probe.AvgMs < highLatencyMs {
		probe.Status = "ok"
	} else {
		probe.Status = "high_latency"
	}
	return probe
}

func (p *tcpProber) ResolveLatency(ctx context.Context, host string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	start := time.Now()
	if _, err := p.resolver.LookupHost(ctx, host); err != nil {
		return 0, err
	}
	return math.Round(float64(time.Since(start).Microseconds())/1000*100) / 100, nil
}

var _ scan.Collector = (*NetworkCollector)(nil)

// NetworkCollector inventories adapters and measures latency to the gateway,
// DNS, and a fixed set of gaming endpoints.
type NetworkCollector struct {
	scan.BaseCollector
	provider facts.Provider
	registry facts.Registry
	prober   prober
	targets  []probeTarget
}

func NewNetworkCollector(logger logr.Logger, provider facts.Provider, registry facts.Registry) (*NetworkCollector, error) {
	if provider == nil {
		return nil, fmt.Errorf("fact provider is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry reader is required")
	}
	return &NetworkCollector{
		BaseCollector: scan.NewBaseCollector(scan.CollectorNetwork, "Network Diagnostics", logger),
		provider:      provider,
		registry:      registry,
		prober:        newTCPProber(),
		targets:       gamingProbeTargets,
	}, nil
}

func (c *NetworkCollector) Collect(ctx context.Context) (any, error) {
	report := scan.NetworkReport{ConnectionType: scan.ConnectionUnknown}

	adapters, err := c.collectAdapters(ctx)
	if err != nil {
		c.Logger().V(1).Info("Adapter enumeration degraded", "error", err)
	}
	report.Adapters = adapters
	for i := range adapters {
		if adapters[i].IsDefault {
			report.DefaultAdapter = &adapters[i]
			report.Connected = true
			report.ConnectionType = adapters[i].Type
			break
		}
	}

	if !report.Connected {
		report.Findings = networkFindings(report)
		return report, nil
	}

	if ms, err := c.prober.ResolveLatency(ctx, "google.com"); err == nil {
		report.DNSLatencyMs = &ms
	}
	if gw := report.DefaultAdapter.Gateway; gw != "" {
		probe := c.prober.Probe(ctx, gw, 80, probeAttempts)
		if probe.Status != "failed" {
			report.GatewayLatencyMs = &probe.AvgMs
		}
	}
	for _, target := range c.targets {
		probe := c.prober.Probe(ctx, target.host, target.port, probeAttempts)
		probe.TargetName = target.name
		report.GamingServers = append(report.GamingServers, probe)
	}

	report.Findings = networkFindings(report)
	report.Recommendations = c.networkRecommendations(report)
	c.Logger().V(1).Info("Network diagnostics done",
		"adapters", len(report.Adapters), "findings", len(report.Findings))
	return report, nil
}

func (c *NetworkCollector) collectAdapters(ctx context.Context) ([]scan.NetworkAdapter, error) {
	if !c.provider.Available() {
		return collectAdaptersFallback(ctx)
	}

	var raw []win32NetworkAdapter
	// NetConnectionStatus 2 means connected.
	if _, err := c.provider.Query(ctx, &raw, "Win32_NetworkAdapter", "NetConnectionStatus=2"); err != nil {
		return nil, err
	}
	var configs []win32NetworkAdapterConfiguration
	if _, err := c.provider.Query(ctx, &configs, "Win32_NetworkAdapterConfiguration", "IPEnabled=TRUE"); err != nil {
		return nil, err
	}

	configByDesc := make(map[string]win32NetworkAdapterConfiguration, len(configs))
	for _, cfg := range configs {
		configByDesc[cfg.Description] = cfg
	}

	var adapters []scan.NetworkAdapter
	for _, r := range raw {
		adapter := scan.NetworkAdapter{
			Name:        r.Name,
			Description: r.Description,
			Type:        adapterConnectionType(r.AdapterType, r.Description),
			MACAddress:  r.MACAddress,
			MTU:         standardMTU,
		}
		if r.Speed != nil {
			adapter.SpeedMbps = int(*r.Speed / 1_000_000)
		}
		if cfg, ok := configByDesc[r.Description]; ok {
			if len(cfg.IPAddress) > 0 {
				adapter.IPAddress = cfg.IPAddress[0]
			}
			if len(cfg.DefaultIPGateway) > 0 {
				adapter.Gateway = cfg.DefaultIPGateway[0]
				adapter.IsDefault = true
			}
			adapter.DNSServers = cfg.DNSServerSearchOrder
			if cfg.MTU != nil {
				adapter.MTU = int(*cfg.MTU)
			}
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}

func collectAdaptersFallback(ctx context.Context) ([]scan.NetworkAdapter, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	var adapters []scan.NetworkAdapter
	for _, iface := range ifaces {
		up := false
		loopback := false
		for _, flag := range iface.Flags {
			switch flag {
			case "up":
				up = true
			case "loopback":
				loopback = true
			}
		}
		if !up || loopback || len(iface.Addrs) == 0 {
			continue
		}
		adapter := scan.NetworkAdapter{
			Name:        iface.Name,
			Description: iface.Name,
			Type:        scan.ConnectionUnknown,
			MACAddress:  iface.HardwareAddr,
			MTU:         iface.MTU,
			IPAddress:   strings.Split(iface.Addrs[0].Addr, "/")[0],
			IsDefault:   len(adapters) == 0,
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}

func adapterConnectionType(adapterType, description string) scan.ConnectionType {
	t := strings.ToLower(adapterType)
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "vpn"):
		return scan.ConnectionVPN
	case strings.Contains(t, "wireless") || strings.Contains(d, "wi-fi") || strings.Contains(d, "wireless"):
		return scan.ConnectionWiFi
	case strings.Contains(t, "ethernet"):
		return scan.ConnectionEthernet
	default:
		return scan.ConnectionUnknown
	}
}

// networkFindings derives the structured findings the analysis engine
// consumes. Detail strings are for display only.
func networkFindings(report scan.NetworkReport) []scan.NetworkFinding {
	var findings []scan.NetworkFinding
	if !report.Connected {
		return findings
	}
	if report.DNSLatencyMs != nil && *report.DNSLatencyMs > dnsLatencyMs {
		findings = append(findings, scan.NetworkFinding{
			Kind:   scan.FindingHighDNSLatency,
			Detail: fmt.Sprintf("High DNS latency (%.0fms) - consider changing DNS servers", *report.DNSLatencyMs),
		})
	}
	if report.GatewayLatencyMs != nil && *report.GatewayLatencyMs > gatewayLatencyMs {
		findings = append(findings, scan.NetworkFinding{
			Kind:   scan.FindingHighGatewayLatency,
			Detail: fmt.Sprintf("High gateway latency (%.0fms) - local network congestion", *report.GatewayLatencyMs),
		})
	}
	for _, probe := range report.GamingServers {
		if probe.Status == "failed" || probe.PacketLoss >= 100 {
			continue
		}
		if probe.AvgMs > serverLatencyMs {
			findings = append(findings, scan.NetworkFinding{
				Kind:   scan.FindingHighServerLatency,
				Detail: fmt.Sprintf("High latency to %s (%.0fms)", probe.TargetName, probe.AvgMs),
			})
		}
		if probe.PacketLoss > 0 {
			findings = append(findings, scan.NetworkFinding{
				Kind:   scan.FindingPacketLoss,
				Detail: fmt.Sprintf("Packet loss to %s (%.0f%%)", probe.TargetName, probe.PacketLoss),
			})
		}
	}
	if report.DefaultAdapter != nil && report.DefaultAdapter.MTU != 0 && report.DefaultAdapter.MTU != standardMTU {
		findings = append(findings, scan.NetworkFinding{
			Kind:   scan.FindingNonStandardMTU,
			Detail: fmt.Sprintf("Non-standard MTU detected (%d) - may affect performance", report.DefaultAdapter.MTU),
		})
	}
	return findings
}

func (c *NetworkCollector) networkRecommendations(report scan.NetworkReport) []string {
	var recs []string
	if report.ConnectionType == scan.ConnectionWiFi {
		recs = append(recs, "Consider using Ethernet connection for gaming to reduce latency and packet loss")
	}
	if report.DNSLatencyMs != nil && *report.DNSLatencyMs > 50 {
		recs = append(recs, "Consider switching to Google DNS (8.8.8.8) or Cloudflare DNS (1.1.1.1) for faster resolution")
	}
	if report.DefaultAdapter != nil && report.DefaultAdapter.MTU != 0 && report.DefaultAdapter.MTU < standardMTU {
		recs = append(recs, fmt.Sprintf(
			"MTU is set to %d. Consider setting to 1500 for optimal performance", report.DefaultAdapter.MTU))
	}
	// Network throttling disabled means Windows is tuned for gaming traffic.
	const profileKey = `SOFTWARE\Microsoft\Windows NT\CurrentVersion\Multimedia\SystemProfile`
	if v, err := c.registry.DWORD(facts.RootLocalMachine, profileKey, "NetworkThrottlingIndex"); err != nil || v != 0xFFFFFFFF {
		recs = append(recs, "Enable Windows Gaming Mode for network optimizations")
	}
	return recs
}
