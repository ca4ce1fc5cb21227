package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("surveyops.process")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var memoryGauge, _ = meter.Int64Gauge("allocated_mb")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")

type perfStats struct {
	CPUPercent  float64
	AllocatedMB int64
	Goroutines  int64
}

// readPerfStats samples the process. CPU usage is measured since the
// previous call, the first call reports usage since boot.
func readPerfStats() (perfStats, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats := perfStats{
		AllocatedMB: int64(memStats.Alloc / 1_000_000),
		Goroutines:  int64(runtime.NumGoroutine()),
	}

	usage, err := cpu.Percent(0, false)
	if err != nil {
		return stats, err
	}
	if len(usage) > 0 {
		stats.CPUPercent = usage[0]
	}
	return stats, nil
}

// InstrumentPerfStats records process gauges every `interval` until `ctx` is
// done. Long bulk runs use it to show up on the metrics backend.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats, err := readPerfStats()
				if err != nil {
					slog.Warn("failed to read cpu usage", "err", err)
				} else {
					cpuGauge.Record(ctx, stats.CPUPercent)
				}
				memoryGauge.Record(ctx, stats.AllocatedMB)
				goroutineGauge.Record(ctx, stats.Goroutines)
			case <-ctx.Done():
				return
			}
		}
	}()
}
