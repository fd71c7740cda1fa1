package core

import (
	"fmt"
	"iter"
	"runtime/debug"
)

// FinishFunc is called by a Host when a task's routine returns on its own.
// err is non-nil when the routine ended abnormally (for example a *PanicError).
// It is never called for a task that was cancelled.
type FinishFunc func(h Handle, err error)

// Host drives task bodies. Registry depends only on this interface, so an
// engine can plug in its own native task primitive.
type Host interface {
	// Start begins driving body and returns its handle. Start must not step
	// body synchronously.
	Start(body Routine, onFinished FinishFunc) (Handle, error)

	// Cancel stops driving the task. Unknown handles are ignored.
	Cancel(h Handle)
}

// =============================================================================
// TickHost: reference Host stepped once per tick
// =============================================================================

type hostTask struct {
	handle     Handle
	label      string
	next       func() (Instruction, bool)
	stop       func()
	onFinished FinishFunc

	wait    Instruction
	susp    Suspension
	stepped bool

	// active is set while the routine's goroutine is executing (step or stop).
	active    bool
	cancelled bool
	done      bool
}

// TickHost is a Host whose tasks advance only when Advance is called.
//
// TickHost is not safe for concurrent use. All calls, including those made by
// routines themselves, must happen on the scheduling goroutine; TickLoop
// provides such a goroutine.
type TickHost struct {
	clock        Clock
	panicHandler PanicHandler
	logger       Logger

	tasks    []*hostTask
	byHandle map[Handle]*hostTask
	ticks    uint64
	closed   bool
}

// NewTickHost creates a TickHost with default handlers.
func NewTickHost(clock Clock) *TickHost {
	return NewTickHostWithConfig(clock, nil)
}

// NewTickHostWithConfig creates a TickHost with the given handlers.
func NewTickHostWithConfig(clock Clock, config *TickHostConfig) *TickHost {
	h := &TickHost{
		clock:    clock,
		byHandle: make(map[Handle]*hostTask),
	}
	if config != nil {
		h.panicHandler = config.PanicHandler
		h.logger = config.Logger
	}
	if h.panicHandler == nil {
		h.panicHandler = &DefaultPanicHandler{}
	}
	if h.logger == nil {
		h.logger = NewNoOpLogger()
	}
	return h
}

// Start registers body. It is first stepped on the next call to Advance.
func (h *TickHost) Start(body Routine, onFinished FinishFunc) (Handle, error) {
	if h.closed {
		return Handle{}, fmt.Errorf("%w: tick host closed", ErrHostUnavailable)
	}
	if body == nil {
		return Handle{}, invalidArgument("routine is nil")
	}

	next, stop := iter.Pull(iter.Seq[Instruction](body))
	t := &hostTask{
		handle:     NewHandle(),
		label:      routineLabel(body, "routine"),
		next:       next,
		stop:       stop,
		onFinished: onFinished,
	}
	h.maybeCompact()
	h.tasks = append(h.tasks, t)
	h.byHandle[t.handle] = t
	return t.handle, nil
}

// Cancel stops t without reporting it as finished. A routine cancelling itself
// from inside its own step is stopped as soon as that step yields.
func (h *TickHost) Cancel(handle Handle) {
	t, ok := h.byHandle[handle]
	if !ok {
		return
	}
	h.detach(t)
	t.cancelled = true
	if t.active {
		return
	}
	h.halt(t)
}

// Advance runs one tick: every task that existed when the tick began and whose
// instruction is ready is resumed once, in start order.
func (h *TickHost) Advance() {
	h.ticks++
	snapshot := make([]*hostTask, len(h.tasks))
	copy(snapshot, h.tasks)

	for _, t := range snapshot {
		if t.done {
			continue
		}
		if t.stepped {
			t.susp.Ticks++
			if t.wait != nil && !t.wait.Ready(h.clock, t.susp) {
				continue
			}
		}
		h.step(t)
	}
	h.compact()
}

// Pending returns the number of tasks the host is driving.
func (h *TickHost) Pending() int { return len(h.byHandle) }

// Ticks returns how many times Advance has run.
func (h *TickHost) Ticks() uint64 { return h.ticks }

// Close cancels every task and makes further Start calls fail with
// ErrHostUnavailable.
func (h *TickHost) Close() {
	if h.closed {
		return
	}
	h.closed = true
	snapshot := make([]*hostTask, len(h.tasks))
	copy(snapshot, h.tasks)
	for _, t := range snapshot {
		h.Cancel(t.handle)
	}
	h.compact()
}

func (h *TickHost) step(t *hostTask) {
	t.stepped = true
	instr, ok, err := h.resume(t)

	switch {
	case err != nil || !ok:
		h.finish(t, err)
	case t.cancelled:
		// Cancelled from inside its own step: the routine never observes
		// anything after this yield.
		h.halt(t)
	default:
		t.wait = instr
		t.susp = Suspension{
			ScaledAt: h.clock.ScaledTime(),
			RealAt:   h.clock.RealTime(),
		}
	}
}

func (h *TickHost) resume(t *hostTask) (instr Instruction, ok bool, err error) {
	t.active = true
	defer func() {
		t.active = false
		if rec := recover(); rec != nil {
			stack := debug.Stack()
			h.panicHandler.HandlePanic(t.handle, t.label, rec, stack)
			err = &PanicError{Value: rec, Stack: stack}
		}
	}()
	instr, ok = t.next()
	return instr, ok, nil
}

// halt unwinds the routine; its deferred code runs now.
func (h *TickHost) halt(t *hostTask) {
	t.active = true
	defer func() {
		t.active = false
		if rec := recover(); rec != nil {
			h.panicHandler.HandlePanic(t.handle, t.label, rec, debug.Stack())
		}
	}()
	t.stop()
}

func (h *TickHost) finish(t *hostTask, err error) {
	if t.cancelled {
		return
	}
	h.detach(t)
	if err != nil {
		h.logger.Warn("routine ended abnormally",
			F("handle", t.handle.String()), F("label", t.label), F("error", err))
	}
	if t.onFinished != nil {
		t.onFinished(t.handle, err)
	}
}

func (h *TickHost) detach(t *hostTask) {
	delete(h.byHandle, t.handle)
	t.done = true
}

func (h *TickHost) compact() {
	if len(h.tasks) == len(h.byHandle) {
		return
	}
	live := h.tasks[:0]
	for _, t := range h.tasks {
		if !t.done {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(h.tasks); i++ {
		h.tasks[i] = nil
	}
	h.tasks = live
}

// maybeCompact drops finished tasks outside of Advance once they dominate the slice.
func (h *TickHost) maybeCompact() {
	if len(h.tasks) >= compactMinTasks && len(h.byHandle) < len(h.tasks)/2 {
		h.compact()
	}
}

const compactMinTasks = 64
