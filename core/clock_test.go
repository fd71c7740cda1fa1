package core

import (
	"testing"
	"time"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }

func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestSystemClock_ScaleAndPause(t *testing.T) {
	fn := &fakeNow{t: time.Unix(1_700_000_000, 0)}
	c := newSystemClock(fn.now)

	fn.advance(time.Second)
	if got := c.ScaledTime(); got != time.Second {
		t.Fatalf("scaled = %s, want 1s", got)
	}

	c.SetTimeScale(2)
	fn.advance(time.Second)
	if got := c.ScaledTime(); got != 3*time.Second {
		t.Fatalf("scaled at 2x = %s, want 3s", got)
	}

	c.SetPaused(true)
	fn.advance(10 * time.Second)
	if got := c.ScaledTime(); got != 3*time.Second {
		t.Fatalf("scaled while paused = %s, want 3s", got)
	}
	if !c.IsPaused() {
		t.Fatal("IsPaused = false")
	}

	c.SetPaused(false)
	fn.advance(500 * time.Millisecond)
	if got := c.ScaledTime(); got != 4*time.Second {
		t.Fatalf("scaled after resume = %s, want 4s", got)
	}
	if got := c.RealTime(); got != 12500*time.Millisecond {
		t.Fatalf("real = %s, want 12.5s", got)
	}
}

func TestSystemClock_NegativeScaleClamped(t *testing.T) {
	fn := &fakeNow{t: time.Unix(0, 0)}
	c := newSystemClock(fn.now)

	c.SetTimeScale(-3)
	if c.TimeScale() != 0 {
		t.Fatalf("scale = %v, want 0", c.TimeScale())
	}
	fn.advance(time.Minute)
	if got := c.ScaledTime(); got != 0 {
		t.Fatalf("scaled = %s, want 0", got)
	}
}

func TestManualClock(t *testing.T) {
	c := NewManualClock()
	c.Advance(time.Second)
	c.SetTimeScale(0.5)
	c.Advance(time.Second)
	c.SetPaused(true)
	c.Advance(time.Second)
	c.Advance(-time.Hour)

	if got := c.ScaledTime(); got != 1500*time.Millisecond {
		t.Errorf("scaled = %s, want 1.5s", got)
	}
	if got := c.RealTime(); got != 3*time.Second {
		t.Errorf("real = %s, want 3s", got)
	}
	if !c.IsPaused() {
		t.Error("IsPaused = false")
	}
}
