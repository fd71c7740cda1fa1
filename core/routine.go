package core

import (
	"reflect"
	"runtime"
	"strings"
	"time"
)

// Routine is the body of a cooperative task.
//
// A routine yields an Instruction at every suspension point; the host resumes
// it once the instruction is ready. When yield returns false the task has been
// cancelled and the routine must return without doing further work:
//
//	func blink(yield func(core.Instruction) bool) {
//		for {
//			toggle()
//			if !yield(core.WaitFor(500 * time.Millisecond)) {
//				return
//			}
//		}
//	}
//
// Routine has the shape of iter.Seq[Instruction].
type Routine func(yield func(Instruction) bool)

// Once returns a routine that calls fn on its first step and then completes.
func Once(fn func()) Routine {
	if fn == nil {
		return nil
	}
	return func(yield func(Instruction) bool) {
		fn()
	}
}

// Suspension describes where a routine stopped.
type Suspension struct {
	// ScaledAt and RealAt are the clock readings taken when the routine yielded.
	ScaledAt time.Duration
	RealAt   time.Duration

	// Ticks counts host ticks since the routine yielded, starting at 1 on the
	// first tick after the yield.
	Ticks int
}

// Instruction decides when a suspended routine may resume.
// A nil Instruction resumes on the next tick.
type Instruction interface {
	Ready(c Clock, s Suspension) bool
}

// InstructionFunc adapts a function to the Instruction interface.
type InstructionFunc func(c Clock, s Suspension) bool

func (f InstructionFunc) Ready(c Clock, s Suspension) bool { return f(c, s) }

type waitTicks int

func (w waitTicks) Ready(_ Clock, s Suspension) bool { return s.Ticks >= int(w) }

// NextTick resumes the routine on the following tick.
func NextTick() Instruction { return waitTicks(1) }

// WaitTicks resumes the routine after n ticks. Values below 1 mean one tick.
func WaitTicks(n int) Instruction {
	if n < 1 {
		n = 1
	}
	return waitTicks(n)
}

type waitScaled time.Duration

func (w waitScaled) Ready(c Clock, s Suspension) bool {
	return c.ScaledTime()-s.ScaledAt >= time.Duration(w)
}

// WaitFor resumes the routine once d of scaled time has passed since it yielded.
func WaitFor(d time.Duration) Instruction { return waitScaled(d) }

type waitReal time.Duration

func (w waitReal) Ready(c Clock, s Suspension) bool {
	return c.RealTime()-s.RealAt >= time.Duration(w)
}

// WaitForRealtime resumes the routine once d of real time has passed since it
// yielded, regardless of time scale.
func WaitForRealtime(d time.Duration) Instruction { return waitReal(d) }

type waitScaledDeadline time.Duration

func (w waitScaledDeadline) Ready(c Clock, _ Suspension) bool {
	return c.ScaledTime() >= time.Duration(w)
}

// WaitUntilScaled resumes the routine once the clock's scaled time reaches t.
func WaitUntilScaled(t time.Duration) Instruction { return waitScaledDeadline(t) }

// WaitUntil resumes the routine on the first tick where cond returns true.
func WaitUntil(cond func() bool) Instruction {
	return InstructionFunc(func(Clock, Suspension) bool {
		return cond == nil || cond()
	})
}

// WaitWhile resumes the routine on the first tick where cond returns false.
func WaitWhile(cond func() bool) Instruction {
	return InstructionFunc(func(Clock, Suspension) bool {
		return cond == nil || !cond()
	})
}

// routineLabel resolves a readable name for fn from its symbol.
func routineLabel(fn any, fallback string) string {
	if fn == nil {
		return fallback
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fallback
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil || f.Name() == "" {
		return fallback
	}
	name := f.Name()
	// Drop the import path, keep package.Func.
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
