package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"

	"corpchat/observability"
)

// TelemetryWorker periodically logs engine counters together with the
// server's own process metrics (RSS, CPU, status).
type TelemetryWorker struct {
	log      *slog.Logger
	stats    *observability.ServerStats
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, stats *observability.ServerStats,
	interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, stats: stats, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting telemetry worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			snap := w.stats.Snapshot()
			w.log.Info("Server telemetry",
				"sessions_opened", snap.SessionsOpened,
				"sessions_closed", snap.SessionsClosed,
				"entries_broadcast", snap.EntriesBroadcast,
				"dropped_deliveries", snap.DroppedDeliveries,
				"login_failures", snap.LoginFailures,
				"rss_mb", rss/1024/1024,
				"cpu_percent", cpu,
				"pid_status", status,
				"alloc_mb", m.Alloc/1024/1024,
				"num_gc", m.NumGC,
			)
		}
	}
}

// selfStats retrieves technical metrics (memory, CPU and OS status) for the
// given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
