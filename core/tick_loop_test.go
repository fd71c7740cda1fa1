package core_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Swind/go-coroutine-registry/core"
)

func TestTickLoop_TicksAndCall(t *testing.T) {
	var ticks atomic.Int32
	loop := core.NewTickLoop(func() { ticks.Add(1) }, &core.TickLoopConfig{Interval: time.Millisecond})
	defer loop.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d ticks after 2s", ticks.Load())
		}
		time.Sleep(time.Millisecond)
	}

	ran := false
	if err := loop.Call(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !ran {
		t.Fatal("Call returned before fn ran")
	}
	if loop.Ticks() == 0 {
		t.Error("Ticks = 0")
	}
}

func TestTickLoop_PostTaskOrder(t *testing.T) {
	loop := core.NewTickLoop(nil, &core.TickLoopConfig{Interval: time.Hour})
	defer loop.Stop()

	var got []int
	for i := range 10 {
		loop.PostTask(func() { got = append(got, i) })
	}
	if err := loop.WaitIdle(context.Background()); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order = %v", got)
		}
	}
	if len(got) != 10 {
		t.Fatalf("ran %d tasks, want 10", len(got))
	}
}

func TestTickLoop_SurvivesPanics(t *testing.T) {
	loop := core.NewTickLoop(func() { panic("tick") }, &core.TickLoopConfig{Interval: time.Millisecond})
	defer loop.Stop()

	loop.PostTask(func() { panic("task") })
	time.Sleep(10 * time.Millisecond)

	if err := loop.Call(context.Background(), func() {}); err != nil {
		t.Fatalf("Call after panics: %v", err)
	}
}

func TestTickLoop_Closed(t *testing.T) {
	loop := core.NewTickLoop(nil, nil)
	if loop.Interval() != 16*time.Millisecond {
		t.Errorf("default interval = %s", loop.Interval())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go loop.Shutdown()
	if err := loop.WaitShutdown(ctx); err != nil {
		t.Fatalf("WaitShutdown: %v", err)
	}
	loop.Stop()

	if !loop.IsClosed() {
		t.Fatal("IsClosed = false after Stop")
	}
	if err := loop.Call(context.Background(), func() {}); !errors.Is(err, core.ErrLoopClosed) {
		t.Fatalf("Call on closed loop = %v, want ErrLoopClosed", err)
	}
}

func TestTickLoop_CallHonoursContext(t *testing.T) {
	loop := core.NewTickLoop(nil, &core.TickLoopConfig{Interval: time.Hour})
	defer loop.Stop()

	block := make(chan struct{})
	loop.PostTask(func() { <-block })
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := loop.Call(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Call = %v, want DeadlineExceeded", err)
	}
}
