package core

import (
	"sync"
	"time"
)

// Clock is the time source for the registry and its hosts.
//
// Both readings are durations since the clock's own epoch. ScaledTime follows
// the host's time multiplier and stands still while the host is paused;
// RealTime is wall-clock time and never stops.
type Clock interface {
	ScaledTime() time.Duration
	RealTime() time.Duration

	// IsPaused reports whether an interactive development environment has
	// paused execution. Production clocks always return false.
	IsPaused() bool
}

// SystemClock is a Clock backed by the monotonic wall clock.
//
// Scaled time is integrated lazily: every reading folds the real time elapsed
// since the previous reading into the scaled total using the time scale that
// was in effect. SystemClock is safe for concurrent use so a config watcher can
// change the scale or pause flag from another goroutine.
type SystemClock struct {
	mu  sync.Mutex
	now func() time.Time

	epoch    time.Time
	scale    float64
	paused   bool
	scaled   time.Duration
	lastReal time.Duration
}

// NewSystemClock creates a clock with time scale 1 whose epoch is now.
func NewSystemClock() *SystemClock {
	return newSystemClock(time.Now)
}

func newSystemClock(now func() time.Time) *SystemClock {
	return &SystemClock{
		now:   now,
		epoch: now(),
		scale: 1,
	}
}

// RealTime returns the wall-clock time since the clock was created.
func (c *SystemClock) RealTime() time.Duration {
	return c.now().Sub(c.epoch)
}

// ScaledTime returns the scaled time since the clock was created.
func (c *SystemClock) ScaledTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()
	return c.scaled
}

// IsPaused reports whether SetPaused(true) is in effect.
func (c *SystemClock) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// TimeScale returns the current time multiplier.
func (c *SystemClock) TimeScale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}

// SetTimeScale changes the multiplier applied to scaled time from now on.
// Negative values are clamped to 0.
func (c *SystemClock) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()
	c.scale = scale
}

// SetPaused pauses or resumes the clock. While paused scaled time does not advance.
func (c *SystemClock) SetPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()
	c.paused = paused
}

func (c *SystemClock) syncLocked() {
	now := c.now().Sub(c.epoch)
	if !c.paused {
		c.scaled += time.Duration(float64(now-c.lastReal) * c.scale)
	}
	c.lastReal = now
}

// ManualClock is a Clock that only moves when told to. Hosts with their own
// frame clock and tests use it to drive time deterministically.
type ManualClock struct {
	mu     sync.Mutex
	scaled time.Duration
	real   time.Duration
	scale  float64
	paused bool
}

// NewManualClock creates a ManualClock at time zero with time scale 1.
func NewManualClock() *ManualClock {
	return &ManualClock{scale: 1}
}

func (c *ManualClock) ScaledTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scaled
}

func (c *ManualClock) RealTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.real
}

func (c *ManualClock) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Advance moves real time forward by d and scaled time by d times the time
// scale, unless the clock is paused.
func (c *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.real += d
	if !c.paused {
		c.scaled += time.Duration(float64(d) * c.scale)
	}
}

// SetTimeScale sets the multiplier used by subsequent Advance calls.
func (c *ManualClock) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	c.mu.Lock()
	c.scale = scale
	c.mu.Unlock()
}

func (c *ManualClock) SetPaused(paused bool) {
	c.mu.Lock()
	c.paused = paused
	c.mu.Unlock()
}
