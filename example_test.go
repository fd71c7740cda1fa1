package coroutine_test

import (
	"fmt"
	"time"

	coroutine "github.com/Swind/go-coroutine-registry"
	"github.com/Swind/go-coroutine-registry/core"
)

type enemy struct{ name string }

// ExampleRuntime drives a runtime from a caller-owned frame loop.
func ExampleRuntime() {
	clock := core.NewManualClock()
	rt := coroutine.New(coroutine.Options{Clock: clock})

	_, _ = rt.Registry.RunWithTag(func(yield func(coroutine.Instruction) bool) {
		for i := 1; i <= 3; i++ {
			fmt.Println("blink", i)
			if !yield(coroutine.WaitFor(time.Second)) {
				return
			}
		}
	}, "fx")
	_, _ = rt.Delays.RunDelayed(func() { fmt.Println("boom") }, 1500*time.Millisecond)

	for range 6 {
		rt.Tick()
		clock.Advance(500 * time.Millisecond)
	}

	// Output:
	// blink 1
	// blink 2
	// boom
	// blink 3
}

// ExampleOwnerOf stops every task of an owner when it is destroyed.
func ExampleOwnerOf() {
	rt := coroutine.New(coroutine.Options{Clock: core.NewManualClock()})
	goblin := &enemy{name: "goblin"}

	for range 2 {
		_, _ = rt.Registry.RunWithOwner(func(yield func(coroutine.Instruction) bool) {
			for yield(nil) {
			}
		}, coroutine.OwnerOf(goblin))
	}
	fmt.Println("live:", len(rt.Registry.GetDataForOwner(coroutine.OwnerOf(goblin))))

	rt.Cleanup.NotifyOwnerDestroyed(coroutine.OwnerOf(goblin))
	fmt.Println("live:", rt.Registry.GetActiveCoroutineCount())

	// Output:
	// live: 2
	// live: 0
}
