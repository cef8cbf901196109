package workers

import (
	"context"
	"log/slog"
	"os"
	goruntime "runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HeartbeatWorker periodically logs self health: RSS, CPU, goroutines and
// whatever gauges the service wires in (active session count, relayed
// message totals).
type HeartbeatWorker struct {
	log      *slog.Logger
	interval time.Duration
	gauges   func() map[string]any
}

func NewHeartbeatWorker(log *slog.Logger, interval time.Duration, gauges func() map[string]any) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, interval: interval, gauges: gauges}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			attrs := []any{"goroutines", goruntime.NumGoroutine()}

			if mem, err := p.MemoryInfo(); err == nil {
				attrs = append(attrs, "rss_mb", mem.RSS/(1<<20))
			}
			if cpu, err := p.CPUPercent(); err == nil {
				attrs = append(attrs, "cpu_percent", cpu)
			}
			if w.gauges != nil {
				for k, v := range w.gauges() {
					attrs = append(attrs, k, v)
				}
			}
			w.log.Info("heartbeat", attrs...)
		}
	}
}
