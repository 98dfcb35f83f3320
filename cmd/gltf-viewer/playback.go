package main

import "github.com/Carmen-Shannon/oxy-gltf/engine/scene"

// playback tracks the active animation and its local clock.
type playback struct {
	index  int // -1 disables playback
	speed  float32
	time   float32
	paused bool
}

func newPlayback(index int, speed float32, animations int) *playback {
	if index >= animations {
		index = -1
	}
	if speed <= 0 {
		speed = 1
	}
	return &playback{index: index, speed: speed}
}

// advance moves the clock by dt seconds and returns the sample time inside the animation's
// [Start, End] range, looping at End.
func (p *playback) advance(dt float32, anim *scene.Animation) float32 {
	if !p.paused {
		p.time += dt * p.speed
	}
	d := anim.Duration()
	if d <= 0 {
		p.time = 0
		return anim.Start
	}
	for p.time >= d {
		p.time -= d
	}
	for p.time < 0 {
		p.time += d
	}
	return anim.Start + p.time
}

// next selects the following animation, wrapping to the first, and restarts the clock.
func (p *playback) next(animations int) {
	if animations == 0 {
		p.index = -1
		return
	}
	p.index = (p.index + 1) % animations
	p.time = 0
}

func (p *playback) active() bool {
	return p.index >= 0
}
