package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records the Go runtime footprint of a run
type SystemMetrics struct {
	goRoutines      metric.Int64Gauge
	memoryAllocated metric.Int64Gauge
	memorySystem    metric.Int64Gauge
	gcCount         metric.Int64Gauge
	cpuCount        metric.Int64Gauge
	processUptime   metric.Float64Gauge
}

// NewSystemMetrics creates the runtime gauges on meter
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	memoryAllocated, err := meter.Int64Gauge(
		"system_memory_allocated_bytes",
		metric.WithDescription("Heap bytes allocated by the Go runtime"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"system_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"system_gc_cycles",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, err
	}

	cpuCount, err := meter.Int64Gauge(
		"system_cpu_count",
		metric.WithDescription("Number of logical CPUs"),
	)
	if err != nil {
		return nil, err
	}

	processUptime, err := meter.Float64Gauge(
		"system_run_elapsed_seconds",
		metric.WithDescription("Time since the run started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SystemMetrics{
		goRoutines:      goRoutines,
		memoryAllocated: memoryAllocated,
		memorySystem:    memorySystem,
		gcCount:         gcCount,
		cpuCount:        cpuCount,
		processUptime:   processUptime,
	}, nil
}

// SystemStats is one snapshot of the runtime
type SystemStats struct {
	GoRoutines      int64
	MemoryAllocated int64
	MemorySystem    int64
	GCCount         uint32
	CPUCount        int
	Elapsed         time.Duration
	Stage           string
}

// Collect reads the runtime counters and records them tagged with stage
func (sm *SystemMetrics) Collect(ctx context.Context, stage string, startTime time.Time) SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := SystemStats{
		GoRoutines:      int64(runtime.NumGoroutine()),
		MemoryAllocated: int64(memStats.HeapAlloc),
		MemorySystem:    int64(memStats.Sys),
		GCCount:         memStats.NumGC,
		CPUCount:        runtime.NumCPU(),
		Elapsed:         time.Since(startTime),
		Stage:           stage,
	}
	if sm == nil {
		return stats
	}

	attrs := metric.WithAttributes(attribute.String("stage", stage))
	sm.goRoutines.Record(ctx, stats.GoRoutines, attrs)
	sm.memoryAllocated.Record(ctx, stats.MemoryAllocated, attrs)
	sm.memorySystem.Record(ctx, stats.MemorySystem, attrs)
	sm.gcCount.Record(ctx, int64(stats.GCCount), attrs)
	sm.cpuCount.Record(ctx, int64(stats.CPUCount), attrs)
	sm.processUptime.Record(ctx, stats.Elapsed.Seconds(), attrs)
	return stats
}
