// Package profiler reports frame rate, draw counts and memory statistics through the logger.
package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/engine/logger"
)

// Sample is one reporting interval's statistics.
type Sample struct {
	FPS float64
	// DrawsPerFrame is the average number of draw calls recorded per frame.
	DrawsPerFrame float64
	HeapMB        float64
	AllocRateMB   float64
	SysMB         float64
	GCCount       uint32
	LastPauseUs   uint64
	MaxPauseUs    uint64
}

// Profiler tracks frame timing and memory statistics and logs a Sample at a fixed interval.
type Profiler struct {
	frameCount     int
	drawCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now func() time.Time
	log *zap.Logger
}

// ProfilerBuilderOption is a functional option used to configure a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often a Sample is logged.
//
// Parameters:
//   - d: the reporting interval, ignored when not positive
//
// Returns:
//   - ProfilerBuilderOption: the option
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithLogger sets the logger samples are written to.
func WithLogger(log *zap.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a Profiler reporting once per second unless configured otherwise.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
		log:            logger.Named("profiler"),
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// AddDraws adds draw calls to the current frame.
func (p *Profiler) AddDraws(n int) {
	p.drawCount += n
}

// Tick should be called once per frame. When the interval has elapsed it logs and returns the
// interval's Sample.
//
// Returns:
//   - Sample: the statistics, zero when nothing was reported
//   - bool: true if a sample was reported this tick
func (p *Profiler) Tick() (Sample, bool) {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Sample{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Sample{
		FPS:           float64(p.frameCount) / elapsed.Seconds(),
		DrawsPerFrame: float64(p.drawCount) / float64(p.frameCount),
		HeapMB:        float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:         float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB:   float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:       p.memStats.NumGC,
	}

	// PauseNs is a ring of the last 256 pauses.
	if gcCount := p.memStats.NumGC; gcCount > 0 {
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.log.Info("frame stats",
		zap.Float64("fps", s.FPS),
		zap.Float64("draws_per_frame", s.DrawsPerFrame),
		zap.Float64("heap_mb", s.HeapMB),
		zap.Float64("alloc_rate_mb_s", s.AllocRateMB),
		zap.Uint32("gc", s.GCCount),
		zap.Uint64("gc_last_us", s.LastPauseUs),
		zap.Uint64("gc_max_us", s.MaxPauseUs),
		zap.Float64("sys_mb", s.SysMB),
	)

	p.frameCount = 0
	p.drawCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return s, true
}
