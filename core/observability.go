package core

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a task.
type Status int

const (
	StatusRunning Status = iota
	StatusCompleted
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// TaskData is a read-only snapshot of one task, as returned by the
// registry's query operations.
type TaskData struct {
	Handle Handle
	Owner  Owner
	Tag    string
	Label  string
	Status Status

	StartedTime     time.Duration
	StartedRealTime time.Duration

	// ElapsedTime is scaled time since start.
	ElapsedTime time.Duration

	// ElapsedRealTime is real time since start minus time spent paused.
	ElapsedRealTime time.Duration
}

// HistoryRecord captures a task that has left the registry.
type HistoryRecord struct {
	TaskData

	FinishedTime     time.Duration
	FinishedRealTime time.Duration

	// Err is non-nil when the routine ended abnormally (see PanicError).
	Err error
}

// Panicked reports whether the routine ended by panicking.
func (r HistoryRecord) Panicked() bool {
	var pe *PanicError
	return errors.As(r.Err, &pe)
}

// RegistryStats represents runtime observability state for a registry.
// It is safe to read from any goroutine.
type RegistryStats struct {
	Active    int
	Started   uint64
	Completed uint64
	Stopped   uint64
	Panicked  uint64
}
