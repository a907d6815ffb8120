// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"fmt"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// fakeProvider serves canned query results keyed by class name. Handlers
// receive the WHERE clause and the destination slice pointer to fill.
type fakeProvider struct {
	available bool
	handlers  map[string]func(dst any, where string) error
}

var _ facts.Provider = (*fakeProvider)(nil)

func (p *fakeProvider) Available() bool { return p.available }

func (p *fakeProvider) Query(_ context.Context, dst any, class string, where string) (facts.Result, error) {
	if !p.available {
		return facts.Result{}, facts.ErrUnavailable
	}
	h, ok := p.handlers[class]
	if !ok {
		return facts.Result{}, fmt.Errorf("no fake data for class %q", class)
	}
	return facts.Result{}, h(dst, where)
}

// fakeRegistry serves canned registry values. Keys are "path|name" and hives
// are intentionally collapsed: collectors probe both and the tests care only
// about presence.
type fakeRegistry struct {
	dwords  map[string]uint64
	strings map[string]string
	keys    map[string]bool
}

var _ facts.Registry = (*fakeRegistry)(nil)

func regKey(path, name string) string { return path + "|" + name }

func (r *fakeRegistry) DWORD(_ facts.RegistryRoot, path, name string) (uint64, error) {
	if v, ok := r.dwords[regKey(path, name)]; ok {
		return v, nil
	}
	return 0, facts.ErrUnavailable
}

func (r *fakeRegistry) String(_ facts.RegistryRoot, path, name string) (string, error) {
	if v, ok := r.strings[regKey(path, name)]; ok {
		return v, nil
	}
	return "", facts.ErrUnavailable
}

func (r *fakeRegistry) KeyExists(_ facts.RegistryRoot, path string) bool {
	return r.keys[path]
}

// fakeProber replays canned latency probes keyed by "host:port".
type fakeProber struct {
	probes     map[string]scan.LatencyProbe
	dnsLatency float64
	dnsErr     error
}

var _ prober = (*fakeProber)(nil)

func (p *fakeProber) Probe(_ context.Context, host string, port int, _ int) scan.LatencyProbe {
	if probe, ok := p.probes[fmt.Sprintf("%s:%d", host, port)]; ok {
		return probe
	}
	return scan.LatencyProbe{Target: host, Status: "failed", PacketLoss: 100}
}

func (p *fakeProber) ResolveLatency(context.Context, string) (float64, error) {
	return p.dnsLatency, p.dnsErr
}

func boolPtr(v bool) *bool      { return &v }
func u32Ptr(v uint32) *uint32   { return &v }
func u64Ptr(v uint64) *uint64   { return &v }
func f64Ptr(v float64) *float64 { return &v }
