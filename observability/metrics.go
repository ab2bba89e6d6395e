// Package observability tracks pipeline telemetry and sidecar liveness.
package observability

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// PipelineStats is a point-in-time snapshot of the audit pipeline.
type PipelineStats struct {
	AuditsCompleted    uint64  `json:"audits_completed"`
	MessagesAnalyzed   uint64  `json:"messages_analyzed"`
	ToxicFound         uint64  `json:"toxic_found"`
	ClassifierFailures uint64  `json:"classifier_failures"`
	ImagesExtracted    uint64  `json:"images_extracted"`
	MessagesPerSecond  float64 `json:"messages_per_second"`
	AllocMemMb         uint64  `json:"alloc_mem_mb"`
	NumGC              uint32  `json:"num_gc"`
}

// PipelineMetrics aggregates counters from concurrent audits. Increment
// methods are safe from any goroutine.
type PipelineMetrics struct {
	log         *slog.Logger
	mu          sync.RWMutex
	latestStats PipelineStats

	auditsCompleted    atomic.Uint64
	messagesAnalyzed   atomic.Uint64
	toxicFound         atomic.Uint64
	classifierFailures atomic.Uint64
	imagesExtracted    atomic.Uint64

	// window counter for the throughput gauge
	windowMessages atomic.Uint64
	lastCheck      time.Time
}

func NewPipelineMetrics(log *slog.Logger) *PipelineMetrics {
	return &PipelineMetrics{log: log, lastCheck: time.Now()}
}

func (pm *PipelineMetrics) IncrAuditsCompleted() {
	pm.auditsCompleted.Add(1)
}

func (pm *PipelineMetrics) IncrMessagesAnalyzed(n uint64) {
	pm.messagesAnalyzed.Add(n)
	pm.windowMessages.Add(n)
}

func (pm *PipelineMetrics) IncrToxicFound(n uint64) {
	pm.toxicFound.Add(n)
}

func (pm *PipelineMetrics) IncrClassifierFailures() {
	pm.classifierFailures.Add(1)
}

func (pm *PipelineMetrics) IncrImagesExtracted() {
	pm.imagesExtracted.Add(1)
}

// Listen recomputes the snapshot on every tick until the context ends.
func (pm *PipelineMetrics) Listen(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pm.log.Info("Pipeline metrics stopped")
			return
		case <-ticker.C:
			pm.updateStats()
		}
	}
}

func (pm *PipelineMetrics) updateStats() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	now := time.Now()
	duration := now.Sub(pm.lastCheck).Seconds()
	if duration > 0 {
		window := pm.windowMessages.Swap(0)
		pm.latestStats.MessagesPerSecond = float64(window) / duration
	}
	pm.lastCheck = now

	pm.latestStats.AuditsCompleted = pm.auditsCompleted.Load()
	pm.latestStats.MessagesAnalyzed = pm.messagesAnalyzed.Load()
	pm.latestStats.ToxicFound = pm.toxicFound.Load()
	pm.latestStats.ClassifierFailures = pm.classifierFailures.Load()
	pm.latestStats.ImagesExtracted = pm.imagesExtracted.Load()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	pm.latestStats.AllocMemMb = m.Alloc / 1024 / 1024
	pm.latestStats.NumGC = m.NumGC

	pm.log.Debug("Pipeline stats updated",
		"audits", pm.latestStats.AuditsCompleted,
		"messages", pm.latestStats.MessagesAnalyzed,
		"toxic", pm.latestStats.ToxicFound,
		"msg_per_s", pm.latestStats.MessagesPerSecond,
		"mem_mb", pm.latestStats.AllocMemMb,
	)
}

func (pm *PipelineMetrics) GetLatest() PipelineStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.latestStats
}
