package core

import "time"

// TimeTracker accumulates elapsed time for one task.
type TimeTracker struct {
	startedScaled time.Duration
	startedReal   time.Duration
	pausedTotal   time.Duration
}

func newTimeTracker(c Clock) *TimeTracker {
	return &TimeTracker{
		startedScaled: c.ScaledTime(),
		startedReal:   c.RealTime(),
	}
}

// StartedTime returns the scaled clock reading at start.
func (t *TimeTracker) StartedTime() time.Duration { return t.startedScaled }

// StartedRealTime returns the real clock reading at start.
func (t *TimeTracker) StartedRealTime() time.Duration { return t.startedReal }

// PausedTotal returns the real time spent in completed pauses while live.
func (t *TimeTracker) PausedTotal() time.Duration { return t.pausedTotal }

// ElapsedTime returns scaled time since start. Scaled time already stands
// still while the host is paused, so no adjustment is made.
func (t *TimeTracker) ElapsedTime(c Clock) time.Duration {
	return c.ScaledTime() - t.startedScaled
}

// elapsedReal returns real time since start minus completed pauses and, when
// ongoingSince >= 0, minus the pause still in progress.
func (t *TimeTracker) elapsedReal(now, ongoingSince time.Duration) time.Duration {
	elapsed := now - t.startedReal - t.pausedTotal
	if ongoingSince >= 0 {
		elapsed -= now - max(ongoingSince, t.startedReal)
	}
	return max(elapsed, 0)
}

// addPause credits a finished pause interval [from, to) to the tracker,
// clipped to the part after the task started.
func (t *TimeTracker) addPause(from, to time.Duration) {
	from = max(from, t.startedReal)
	if to > from {
		t.pausedTotal += to - from
	}
}

// pauseMonitor samples Clock.IsPaused and distributes finished pause intervals
// to every live tracker.
type pauseMonitor struct {
	clock      Clock
	paused     bool
	pauseStart time.Duration
}

// sample observes the pause flag. On a paused->running transition it credits
// the pause to each tracker in live.
func (m *pauseMonitor) sample(live []*taskRecord) {
	paused := m.clock.IsPaused()
	switch {
	case paused && !m.paused:
		m.paused = true
		m.pauseStart = m.clock.RealTime()
	case !paused && m.paused:
		m.paused = false
		end := m.clock.RealTime()
		for _, rec := range live {
			rec.tracker.addPause(m.pauseStart, end)
		}
	}
}

// elapsedReal returns the pause-adjusted real elapsed time of t.
func (m *pauseMonitor) elapsedReal(t *TimeTracker) time.Duration {
	ongoing := time.Duration(-1)
	if m.paused {
		ongoing = m.pauseStart
	}
	return t.elapsedReal(m.clock.RealTime(), ongoing)
}
