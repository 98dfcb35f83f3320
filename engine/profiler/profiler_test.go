package profiler

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTickReportsAtInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	clock := time.Unix(0, 0)
	p := NewProfiler(
		WithInterval(time.Second),
		WithLogger(zap.New(core)),
		WithClock(func() time.Time { return clock }),
	)

	for i := 0; i < 3; i++ {
		clock = clock.Add(250 * time.Millisecond)
		p.AddDraws(4)
		if _, ok := p.Tick(); ok {
			t.Fatalf("expected no sample at frame %d", i)
		}
	}

	clock = clock.Add(250 * time.Millisecond)
	p.AddDraws(4)
	s, ok := p.Tick()
	if !ok {
		t.Fatal("expected a sample after one second")
	}
	if s.FPS != 4 {
		t.Errorf("expected 4 fps, got %v", s.FPS)
	}
	if s.DrawsPerFrame != 4 {
		t.Errorf("expected 4 draws per frame, got %v", s.DrawsPerFrame)
	}
	if logs.FilterMessage("frame stats").Len() != 1 {
		t.Errorf("expected one logged sample, got %d", logs.Len())
	}

	if _, ok := p.Tick(); ok {
		t.Error("expected the interval to restart after a sample")
	}
}
