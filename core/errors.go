package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for a nil routine or action, a negative
	// delay, a non-positive repeat interval, or an empty tag passed to a
	// tag-filtered operation.
	ErrInvalidArgument = errors.New("coroutine: invalid argument")

	// ErrHostUnavailable is returned when the host could not begin a task.
	ErrHostUnavailable = errors.New("coroutine: host unavailable")

	// ErrLoopClosed is returned by TickLoop operations after Shutdown or Stop.
	ErrLoopClosed = errors.New("coroutine: tick loop closed")

	// ErrTaskPanicked is reported through the finish callback when a routine panics.
	ErrTaskPanicked = errors.New("coroutine: routine panicked")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// PanicError carries the recovered value and stack of a panicking routine.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTaskPanicked, e.Value)
}

func (e *PanicError) Unwrap() error { return ErrTaskPanicked }
