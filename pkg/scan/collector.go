// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scan

import (
	"context"

	"github.com/go-logr/logr"
)

// Collector performs one-shot data collection for a single domain.
//
// Collect returns the collector's typed snapshot (one of the fact types in
// this package). A collector must isolate its own internal faults: a partial
// failure inside a domain produces a partially populated snapshot, and only a
// total failure returns a non-nil error. The orchestrator substitutes the
// declared empty default and records the error; it never aborts the scan.
type Collector interface {
	Kind() CollectorKind
	Name() string

	// Collect performs a single collection and returns the domain snapshot.
	Collect(ctx context.Context) (any, error)
}

// BaseCollector carries the pieces every collector shares.
type BaseCollector struct {
	kind   CollectorKind
	name   string
	logger logr.Logger
}

func NewBaseCollector(kind CollectorKind, name string, logger logr.Logger) BaseCollector {
	return BaseCollector{
		kind:   kind,
		name:   name,
		logger: logger.WithName(string(kind)),
	}
}

func (b *BaseCollector) Kind() CollectorKind {
	return b.kind
}

func (b *BaseCollector) Name() string {
	return b.name
}

func (b *BaseCollector) Logger() logr.Logger {
	return b.logger
}
