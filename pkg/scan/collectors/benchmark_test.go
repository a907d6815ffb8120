// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

func TestBenchmarkCollectorCollect(t *testing.T) {
	collector, err := NewBenchmarkCollector(logr.Discard(), SizeQuick)
	require.NoError(t, err)
	collector.tempDir = t.TempDir()

	out, err := collector.Collect(context.Background())
	require.NoError(t, err)
	suite, ok := out.(scan.BenchmarkSuite)
	require.True(t, ok)

	require.Len(t, suite.Results, 5)
	names := make([]string, 0, 5)
	for _, r := range suite.Results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"CPU Prime Calculation",
		"Memory Operations",
		"Math Operations",
		"String Operations",
		"Disk I/O (Seq)",
	}, names)

	for _, r := range suite.Results {
		assert.Positive(t, r.Score, "%s score", r.Name)
		assert.NotEmpty(t, r.Unit, "%s unit", r.Name)
	}

	cpu := suite.Results[0]
	assert.Equal(t, 5133.0, cpu.Details["primes_found"])

	disk := suite.Results[4]
	assert.Equal(t, "MB/s", disk.Unit)
	assert.Equal(t, 8.0, disk.Details["size_mb"])
	assert.Positive(t, disk.Details["write_mb_s"])
	assert.Positive(t, disk.Details["read_mb_s"])
	assert.Equal(t, disk.Details["write_mb_s"], disk.Score)

	assert.False(t, suite.Timestamp.IsZero())
	assert.Positive(t, suite.TotalDuration)
	assert.Positive(t, suite.OverallScore())
}

func TestBenchmarkCollectorCancellation(t *testing.T) {
	collector, err := NewBenchmarkCollector(logr.Discard(), SizeQuick)
	require.NoError(t, err)
	collector.tempDir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = collector.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBenchmarkCollectorRejectsBadSize(t *testing.T) {
	_, err := NewBenchmarkCollector(logr.Discard(), 0)
	assert.Error(t, err)
	_, err = NewBenchmarkCollector(logr.Discard(), -1)
	assert.Error(t, err)
}

func TestOpsPerMs(t *testing.T) {
	// Sub-millisecond durations floor to 1ms so scores stay finite.
	assert.Equal(t, 500.0, opsPerMs(500, 100*time.Microsecond))
	assert.Equal(t, 50.0, opsPerMs(500, 10*time.Millisecond))
}

func TestThroughputMBs(t *testing.T) {
	assert.Equal(t, 100.0, throughputMBs(50, 500*time.Millisecond))
	// Sub-millisecond durations floor to 1ms.
	assert.Equal(t, 8000.0, throughputMBs(8, 100*time.Microsecond))
}

func TestIsPrime(t *testing.T) {
	primes := []int{2, 3, 5, 7, 11, 49993}
	for _, n := range primes {
		assert.True(t, isPrime(n), "%d", n)
	}
	composites := []int{-1, 0, 1, 4, 49995}
	for _, n := range composites {
		assert.False(t, isPrime(n), "%d", n)
	}
}
