// Package observability logs periodic process and relay statistics.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ConnectionCounter reports how many sessions are currently live.
type ConnectionCounter interface {
	Count() int
}

// Reporter emits one stats line per interval: live connections, goroutines,
// heap usage and process-level CPU/RSS.
type Reporter struct {
	log         *slog.Logger
	connections ConnectionCounter
	interval    time.Duration
	proc        *process.Process
}

func NewReporter(log *slog.Logger, connections ConnectionCounter,
	interval time.Duration) (*Reporter, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Reporter{
		log:         log,
		connections: connections,
		interval:    interval,
		proc:        proc,
	}, nil
}

func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Stopping stats reporter")
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuPercent, _ := r.proc.CPUPercent()
	var rssMb uint64
	if memInfo, err := r.proc.MemoryInfo(); err == nil {
		rssMb = memInfo.RSS / 1024 / 1024
	}

	r.log.Info("Relay stats",
		"connections", r.connections.Count(),
		"goroutines", runtime.NumGoroutine(),
		"heap_alloc_mb", m.Alloc/1024/1024,
		"num_gc", m.NumGC,
		"cpu_percent", cpuPercent,
		"rss_mb", rssMb,
	)
}
