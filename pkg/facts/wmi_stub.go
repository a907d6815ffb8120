// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build !windows

package facts

import (
	"context"
	"time"

	"github.com/go-logr/logr"
)

// WMIProvider is a stub on non-Windows platforms. It reports itself
// unavailable so collectors use their portable fallbacks; unit tests run on
// any OS.
type WMIProvider struct {
	logger logr.Logger
	opts   Options
}

var _ Provider = (*WMIProvider)(nil)

// NewWMIProvider creates the stub provider.
func NewWMIProvider(logger logr.Logger, opts Options) (*WMIProvider, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &WMIProvider{logger: logger.WithName("wmi"), opts: opts}, nil
}

func (p *WMIProvider) Available() bool { return false }

func (p *WMIProvider) Query(ctx context.Context, dst any, class string, where string) (Result, error) {
	_ = ctx
	return Result{Elapsed: time.Duration(0)}, ErrUnavailable
}

// Stats reports lifetime query counters for diagnostics output.
func (p *WMIProvider) Stats() (queries, errors int) { return 0, 0 }
