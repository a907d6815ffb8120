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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// BenchmarkSize controls how much data the disk benchmark writes.
type BenchmarkSize int

const (
	// SizeQuick keeps the disk benchmark under a second on slow media.
	SizeQuick BenchmarkSize = 8 << 20
	// SizeDefault gives stable sequential throughput numbers.
	SizeDefault BenchmarkSize = 64 << 20
)

const diskChunkSize = 1 << 20

var _ scan.Collector = (*BenchmarkCollector)(nil)

// BenchmarkCollector runs the synthetic performance suite: CPU, memory, math,
// string, and sequential disk I/O.
type BenchmarkCollector struct {
	scan.BaseCollector
	size    BenchmarkSize
	tempDir string
	now     func() time.Time
}

func NewBenchmarkCollector(logger logr.Logger, size BenchmarkSize) (*BenchmarkCollector, error) {
	if size <= 0 {
		return nil, fmt.Errorf("benchmark size must be positive, got %d", size)
	}
	return &BenchmarkCollector{
		BaseCollector: scan.NewBaseCollector(scan.CollectorBenchmarks, "Performance Benchmarks", logger),
		size:          size,
		tempDir:       os.TempDir(),
		now:           time.Now,
	}, nil
}

func (c *BenchmarkCollector) Collect(ctx context.Context) (any, error) {
	start := c.now()
	suite := scan.BenchmarkSuite{Timestamp: start}

	benchmarks := []func(context.Context) scan.BenchmarkResult{
		c.benchmarkCPU,
		c.benchmarkMemory,
		c.benchmarkMath,
		c.benchmarkString,
		c.benchmarkDisk,
	}
	for _, bench := range benchmarks {
		if err := ctx.Err(); err != nil {
			return suite, err
		}
		suite.Results = append(suite.Results, bench(ctx))
	}

	suite.TotalDuration = time.Since(start)
	c.Logger().V(1).Info("Benchmark suite complete",
		"duration", suite.TotalDuration, "overall", suite.OverallScore())
	return suite, nil
}

// benchmarkCPU counts primes below 50000 by trial division.
func (c *BenchmarkCollector) benchmarkCPU(_ context.Context) scan.BenchmarkResult {
	start := time.Now()
	primes := 0
	for n := 2; n < 50000; n++ {
		if isPrime(n) {
			primes++
		}
	}
	duration := time.Since(start)
	return scan.BenchmarkResult{
		Name:     "CPU Prime Calculation",
		Score:    opsPerMs(float64(primes), duration) * 1000,
		Unit:     "ops/ms",
		Duration: duration,
		Details:  map[string]float64{"primes_found": float64(primes)},
	}
}

func (c *BenchmarkCollector) benchmarkMemory(_ context.Context) scan.BenchmarkResult {
	start := time.Now()
	const size = 1_000_000
	data := make([]int, size)
	for i := range data {
		data[i] = i
	}
	var total int
	for _, v := range data {
		total += v
	}
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}
	sort.Ints(data)
	duration := time.Since(start)
	_ = total
	return scan.BenchmarkResult{
		Name:     "Memory Operations",
		Score:    opsPerMs(size, duration),
		Unit:     "ops/ms",
		Duration: duration,
		Details:  map[string]float64{"elements_processed": size},
	}
}

func (c *BenchmarkCollector) benchmarkMath(_ context.Context) scan.BenchmarkResult {
	start := time.Now()
	const iterations = 1_000_000
	var result float64
	for i := 0; i < iterations; i++ {
		x := float64(i) * 0.01
		result += math.Sin(x) * math.Cos(x)
	}
	duration := time.Since(start)
	return scan.BenchmarkResult{
		Name:     "Math Operations",
		Score:    opsPerMs(iterations, duration),
		Unit:     "ops/ms",
		Duration: duration,
		Details:  map[string]float64{"iterations": iterations, "result": result},
	}
}

func (c *BenchmarkCollector) benchmarkString(_ context.Context) scan.BenchmarkResult {
	start := time.Now()
	const iterations = 100_000
	processed := 0
	for i := 0; i < iterations; i++ {
		s := fmt.Sprintf("String test %d with some data", i)
		_ = strings.ToUpper(s)
		_ = strings.ToLower(s)
		_ = strings.Replace(s, "test", "benchmark", 1)
		processed += 3
	}
	duration := time.Since(start)
	return scan.BenchmarkResult{
		Name:     "String Operations",
		Score:    opsPerMs(iterations*3, duration),
		Unit:     "ops/ms",
		Duration: duration,
		Details:  map[string]float64{"strings_processed": float64(processed)},
	}
}

// benchmarkDisk measures sequential write then read throughput through a
// temp file. Scores are MB/s.
func (c *BenchmarkCollector) benchmarkDisk(_ context.Context) scan.BenchmarkResult {
	result := scan.BenchmarkResult{
		Name: "Disk I/O (Seq)",
		Unit: "MB/s",
	}
	path := filepath.Join(c.tempDir, "wgd-bench-"+uuid.NewString()+".tmp")
	defer os.Remove(path)

	chunk := make([]byte, diskChunkSize)
	for i := range chunk {
		chunk[i] = byte(i)
	}
	total := int(c.size)

	start := time.Now()
	f, err := os.Create(path)
	if err != nil {
		return result
	}
	for written := 0; written < total; written += len(chunk) {
		if _, err := f.Write(chunk); err != nil {
			f.Close()
			return result
		}
	}
	f.Sync()
	f.Close()
	writeDur := time.Since(start)

	start = time.Now()
	f, err = os.Open(path)
	if err != nil {
		return result
	}
	buf := make([]byte, diskChunkSize)
	for {
		if _, err := f.Read(buf); err != nil {
			break
		}
	}
	f.Close()
	readDur := time.Since(start)

	totalMB := float64(total) / (1 << 20)
	writeMBs := throughputMBs(totalMB, writeDur)
	readMBs := throughputMBs(totalMB, readDur)

	result.Score = writeMBs
	result.Duration = writeDur + readDur
	result.Details = map[string]float64{
		"write_mb_s": writeMBs,
		"read_mb_s":  readMBs,
		"size_mb":    totalMB,
	}
	return result
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for i := 2; i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

func opsPerMs(ops float64, d time.Duration) float64 {
	ms := math.Max(float64(d.Milliseconds()), 1)
	return ops / ms
}

func throughputMBs(mb float64, d time.Duration) float64 {
	secs := math.Max(d.Seconds(), 0.001)
	return math.Round(mb/secs*100) / 100
}
