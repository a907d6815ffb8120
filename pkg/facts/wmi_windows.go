// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build windows

package facts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/yusufpapurcu/wmi"
)

// WMIProvider queries Windows Management Instrumentation with bounded retries.
// It is safe for repeated sequential use from a single goroutine; concurrent
// use is not part of its contract.
type WMIProvider struct {
	logger logr.Logger
	opts   Options

	probeOnce sync.Once
	available bool

	queryCount int
	errorCount int
}

var _ Provider = (*WMIProvider)(nil)

// NewWMIProvider creates the WMI-backed fact provider.
func NewWMIProvider(logger logr.Logger, opts Options) (*WMIProvider, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &WMIProvider{
		logger: logger.WithName("wmi"),
		opts:   opts,
	}, nil
}

// Available probes WMI with a trivial query once and caches the result.
func (p *WMIProvider) Available() bool {
	p.probeOnce.Do(func() {
		var probe []struct{ Name string }
		err := wmi.Query("SELECT Name FROM Win32_ComputerSystem", &probe)
		p.available = err == nil && len(probe) > 0
		if !p.available {
			p.logger.Info("WMI unavailable", "error", err)
		}
	})
	return p.available
}

// Query runs a WQL SELECT against class, filling dst. Attempts are retried up
// to the configured bound with a fixed delay; the connection is re-established
// on each attempt since the wmi package connects per call.
func (p *WMIProvider) Query(ctx context.Context, dst any, class string, where string) (Result, error) {
	start := time.Now()
	if !p.Available() {
		return Result{Elapsed: time.Since(start)}, ErrUnavailable
	}

	query := BuildQuery(class, where)
	var lastErr error
	for attempt := 0; attempt < p.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Retries: attempt, Elapsed: time.Since(start)}, err
		}
		if err := wmi.Query(query, dst); err != nil {
			lastErr = err
			p.logger.V(1).Info("WMI query failed", "class", class, "attempt", attempt+1, "error", err)
			if attempt < p.opts.MaxRetries-1 {
				select {
				case <-time.After(p.opts.RetryDelay):
				case <-ctx.Done():
					return Result{Retries: attempt + 1, Elapsed: time.Since(start)}, ctx.Err()
				}
			}
			continue
		}
		p.queryCount++
		return Result{Retries: attempt, Elapsed: time.Since(start)}, nil
	}

	p.errorCount++
	return Result{Retries: p.opts.MaxRetries, Elapsed: time.Since(start)},
		fmt.Errorf("wmi query %q failed after %d attempts: %w", class, p.opts.MaxRetries, lastErr)
}

// Stats reports lifetime query counters for diagnostics output.
func (p *WMIProvider) Stats() (queries, errors int) {
	return p.queryCount, p.errorCount
}
