package workers

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

const DefaultStatsInterval = 30 * time.Second

// ProcessStats is a snapshot of the server's own resource usage.
type ProcessStats struct {
	PID        int32
	Status     string
	RSSBytes   uint64
	CPUPercent float64
	SampledAt  time.Time
}

// ProcessStatsWorker samples the current process at a fixed interval.
type ProcessStatsWorker struct {
	mu       sync.RWMutex
	latest   ProcessStats
	interval time.Duration
	log      *slog.Logger
}

func NewProcessStatsWorker(log *slog.Logger, interval time.Duration) *ProcessStatsWorker {
	return &ProcessStatsWorker{interval: interval, log: log}
}

func (w *ProcessStatsWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	w.sample(p)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping process sampling")
			return nil
		case <-ticker.C:
			w.sample(p)
		}
	}
}

// Latest returns the last snapshot, or the zero value before the first sample.
func (w *ProcessStatsWorker) Latest() ProcessStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest
}

func (w *ProcessStatsWorker) sample(p *process.Process) {
	stats, err := readProcessStats(p)
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
		return
	}
	w.mu.Lock()
	w.latest = stats
	w.mu.Unlock()
	w.log.Debug("Process sampled", "rss", stats.RSSBytes, "cpu", stats.CPUPercent, "status", stats.Status)
}

func readProcessStats(p *process.Process) (ProcessStats, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	status, err := p.Status()
	if err != nil {
		return ProcessStats{}, err
	}
	return ProcessStats{
		PID:        p.Pid,
		Status:     status,
		RSSBytes:   memInfo.RSS,
		CPUPercent: cpuPercent,
		SampledAt:  time.Now(),
	}, nil
}
