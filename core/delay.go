package core

import (
	"math"
	"time"
)

// DelayScheduler starts tasks that run an action after a scaled-time delay,
// or repeatedly at a scaled-time interval. Its tasks live in the Registry
// like any other: they can be tagged, owned, queried and stopped.
type DelayScheduler struct {
	registry *Registry
	clock    Clock
}

// NewDelayScheduler creates a DelayScheduler that registers its tasks in
// registry and measures delays on clock.
func NewDelayScheduler(registry *Registry, clock Clock) *DelayScheduler {
	return &DelayScheduler{registry: registry, clock: clock}
}

// RunDelayed calls action once after delay of scaled time.
func (d *DelayScheduler) RunDelayed(action func(), delay time.Duration) (Handle, error) {
	return d.runDelayed(action, delay, Owner{}, "")
}

// RunDelayedWithTag is RunDelayed with a tag.
func (d *DelayScheduler) RunDelayedWithTag(action func(), delay time.Duration, tag string) (Handle, error) {
	return d.runDelayed(action, delay, Owner{}, tag)
}

// RunDelayedWithOwner is RunDelayed attached to owner.
func (d *DelayScheduler) RunDelayedWithOwner(action func(), delay time.Duration, owner Owner) (Handle, error) {
	return d.runDelayed(action, delay, owner, "")
}

// RunDelayedWithOwnerAndTag is RunDelayed attached to owner with a tag.
func (d *DelayScheduler) RunDelayedWithOwnerAndTag(action func(), delay time.Duration, owner Owner, tag string) (Handle, error) {
	return d.runDelayed(action, delay, owner, tag)
}

// The deadline is fixed when the task is registered, not when it is first
// stepped, so a task started mid-tick still fires at start+delay.
func (d *DelayScheduler) runDelayed(action func(), delay time.Duration, owner Owner, tag string) (Handle, error) {
	if action == nil {
		return Handle{}, invalidArgument("action is nil")
	}
	if delay < 0 {
		return Handle{}, invalidArgument("negative delay %s", delay)
	}

	deadline := addSaturating(d.clock.ScaledTime(), delay)
	body := func(yield func(Instruction) bool) {
		for d.clock.ScaledTime() < deadline {
			if !yield(WaitUntilScaled(deadline)) {
				return
			}
		}
		action()
	}
	return d.registry.start(body, owner, tag, "delayed:"+routineLabel(action, "action"))
}

// RunRepeating calls action every interval of scaled time until stopped.
// The first call happens one interval after registration.
func (d *DelayScheduler) RunRepeating(action func(), interval time.Duration) (Handle, error) {
	return d.runRepeating(action, interval, Owner{}, "")
}

// RunRepeatingWithTag is RunRepeating with a tag.
func (d *DelayScheduler) RunRepeatingWithTag(action func(), interval time.Duration, tag string) (Handle, error) {
	return d.runRepeating(action, interval, Owner{}, tag)
}

// RunRepeatingWithOwner is RunRepeating attached to owner.
func (d *DelayScheduler) RunRepeatingWithOwner(action func(), interval time.Duration, owner Owner) (Handle, error) {
	return d.runRepeating(action, interval, owner, "")
}

// RunRepeatingWithOwnerAndTag is RunRepeating attached to owner with a tag.
func (d *DelayScheduler) RunRepeatingWithOwnerAndTag(action func(), interval time.Duration, owner Owner, tag string) (Handle, error) {
	return d.runRepeating(action, interval, owner, tag)
}

func (d *DelayScheduler) runRepeating(action func(), interval time.Duration, owner Owner, tag string) (Handle, error) {
	if action == nil {
		return Handle{}, invalidArgument("action is nil")
	}
	if interval <= 0 {
		return Handle{}, invalidArgument("repeat interval must be positive, got %s", interval)
	}

	next := addSaturating(d.clock.ScaledTime(), interval)
	body := func(yield func(Instruction) bool) {
		for {
			for d.clock.ScaledTime() < next {
				if !yield(WaitUntilScaled(next)) {
					return
				}
			}
			action()
			// Keep a fixed cadence; skip missed slots instead of bursting.
			now := d.clock.ScaledTime()
			for next <= now {
				next = addSaturating(next, interval)
			}
		}
	}
	return d.registry.start(body, owner, tag, "repeating:"+routineLabel(action, "action"))
}

// addSaturating returns t+d clamped to the largest Duration. Huge delays mean
// "never" and must not wrap around to a deadline in the past.
func addSaturating(t, d time.Duration) time.Duration {
	if d > 0 && t > math.MaxInt64-d {
		return math.MaxInt64
	}
	return t + d
}
