package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel/metric"
)

// processGauges are sampled while racestats talks to the results site.
type processGauges struct {
	cpu        metric.Float64Gauge
	heapMb     metric.Int64Gauge
	goroutines metric.Int64Gauge
}

func newProcessGauges() (processGauges, error) {
	meter := Meter("racestats.process")
	var g processGauges
	var err error
	g.cpu, err = meter.Float64Gauge("racestats.process.cpu_percent")
	if err != nil {
		return g, err
	}
	g.heapMb, err = meter.Int64Gauge("racestats.process.heap_mb")
	if err != nil {
		return g, err
	}
	g.goroutines, err = meter.Int64Gauge("racestats.process.goroutines")
	return g, err
}

func (g processGauges) record(ctx context.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	g.heapMb.Record(ctx, int64(mem.HeapAlloc/1_000_000))
	g.goroutines.Record(ctx, int64(runtime.NumGoroutine()))

	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		slog.DebugContext(ctx, "failed to read cpu usage", "err", err)
		return
	}
	if len(usage) > 0 {
		g.cpu.Record(ctx, usage[0])
	}
}

// InstrumentPerfStats samples process gauges right away and then every
// `interval` until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	gauges, err := newProcessGauges()
	if err != nil {
		slog.WarnContext(ctx, "failed to create process gauges", "err", err)
		return
	}
	gauges.record(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gauges.record(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}
