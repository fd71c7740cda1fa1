// Package coroutine provides a registry for cooperative, tick-driven tasks
// ("coroutines") with owner and tag bookkeeping.
//
// A task body is a Routine: a function that yields an Instruction at every
// suspension point. The host resumes each task at most once per tick, in the
// order tasks were started, once its instruction is ready. Every started task
// is recorded in a Registry until it completes or is stopped, so it can be
// queried and cancelled in bulk by owner or by tag.
//
// # Quick Start
//
// Create a runtime and drive it from your frame loop:
//
//	rt := coroutine.New(coroutine.Options{})
//
//	h, err := rt.Registry.RunWithTag(func(yield func(coroutine.Instruction) bool) {
//		for {
//			blink()
//			if !yield(coroutine.WaitFor(500 * time.Millisecond)) {
//				return
//			}
//		}
//	}, "fx")
//
//	for frame := range frames {
//		rt.Tick()
//	}
//
// Or let a dedicated goroutine tick for you and hop onto it with Call:
//
//	rt.Start()
//	defer rt.Stop(context.Background())
//	rt.Call(ctx, func() { rt.Delays.RunDelayed(explode, 2*time.Second) })
//
// # Key Concepts
//
// Registry: the table of live tasks. Run, RunWithTag, RunWithOwner and
// RunWithOwnerAndTag start tasks; Stop, StopAll, StopAllForOwner and
// StopAllWithTag cancel them; GetData and its filtered variants return
// snapshots including scaled and pause-adjusted real elapsed time.
//
// Owner: a non-owning identity. OwnerOf keeps only a weak pointer, so
// attaching tasks to an object never keeps it alive. Call
// Cleanup.NotifyOwnerDestroyed when the object goes away.
//
// Tags: free-form labels matched case-insensitively after trimming.
//
// DelayScheduler: runs an action once after a scaled-time delay, or
// repeatedly at a fixed interval. Its tasks are ordinary registry tasks.
//
// # Thread Safety
//
// The registry and host are single-threaded: use them from the goroutine
// that calls Tick. Registry.Stats and Registry.History may be read from any
// goroutine.
package coroutine
