package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// SidecarWatcher polls the classifier sidecar process and exposes a liveness
// flag. A sidecar that disappears or leaves the running states is reported
// unhealthy until it comes back.
type SidecarWatcher struct {
	log      *slog.Logger
	pid      int32
	interval time.Duration
	healthy  atomic.Bool
}

func NewSidecarWatcher(log *slog.Logger, pid int32, interval time.Duration) *SidecarWatcher {
	w := &SidecarWatcher{log: log, pid: pid, interval: interval}
	w.healthy.Store(true)
	return w
}

// Healthy reports the last observed state. Safe from any goroutine.
func (w *SidecarWatcher) Healthy() bool {
	return w.healthy.Load()
}

// Run polls until the context ends.
func (w *SidecarWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping sidecar watcher")
			return nil
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *SidecarWatcher) check() {
	was := w.healthy.Load()

	p, err := process.NewProcess(w.pid)
	if err != nil {
		w.setHealthy(false, was, "process gone")
		return
	}
	status, err := p.Status()
	if err != nil {
		w.setHealthy(false, was, "status unavailable")
		return
	}
	// Single-letter process state, "Z" is a zombie.
	if status == "Z" {
		w.setHealthy(false, was, "zombie")
		return
	}
	w.setHealthy(true, was, status)
}

func (w *SidecarWatcher) setHealthy(now, was bool, reason string) {
	w.healthy.Store(now)
	if now != was {
		if now {
			w.log.Info("Classifier sidecar recovered", "pid", w.pid)
		} else {
			w.log.Warn("Classifier sidecar unhealthy", "pid", w.pid, "reason", reason)
		}
	}
}
