package monitor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// resourceSampleInterval gives roughly 10 minutes of history at the
	// default buffer size.
	resourceSampleInterval = 5 * time.Second
	resourceMaxSamples     = 120
	heapWarnBytes          = 600 * 1024 * 1024
)

// MemorySample is one point of process self-health data.
type MemorySample struct {
	HeapInuse uint64
	HeapSys   uint64
	NumGC     uint32
	At        time.Time
}

// ResourceMonitor samples process memory on its own timer, keeping a bounded
// rolling buffer. It reads process metrics only and never touches scrape
// state.
type ResourceMonitor struct {
	interval time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	samples []MemorySample
}

// NewResourceMonitor creates a monitor sampling at the default cadence.
func NewResourceMonitor(logger *zap.Logger) *ResourceMonitor {
	return &ResourceMonitor{interval: resourceSampleInterval, logger: logger}
}

// Start launches the sampling goroutine. The caller owns the handle and must
// call Stop for a deterministic teardown.
func (m *ResourceMonitor) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		// Sample immediately on start, then on each tick.
		m.sample()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.sample()
			}
		}
	}()
}

// Stop signals the monitor to stop and waits for the goroutine to exit.
func (m *ResourceMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Samples returns a snapshot of the rolling buffer.
func (m *ResourceMonitor) Samples() []MemorySample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MemorySample, len(m.samples))
	copy(out, m.samples)
	return out
}

func (m *ResourceMonitor) sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s := MemorySample{
		HeapInuse: ms.HeapInuse,
		HeapSys:   ms.HeapSys,
		NumGC:     ms.NumGC,
		At:        time.Now().UTC(),
	}

	m.mu.Lock()
	m.samples = append(m.samples, s)
	if len(m.samples) > resourceMaxSamples {
		m.samples = m.samples[len(m.samples)-resourceMaxSamples:]
	}
	m.mu.Unlock()

	if s.HeapInuse > heapWarnBytes {
		m.logger.Warn("memory usage high",
			zap.Float64("heap_inuse_mb", float64(s.HeapInuse)/(1024*1024)),
		)
	}
}
