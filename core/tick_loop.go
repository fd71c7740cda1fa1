package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTickInterval  = 16 * time.Millisecond
	defaultLoopQueueSize = 100
	overrunWarnEvery     = 5 * time.Second
)

// TickLoopConfig holds configuration options for TickLoop.
type TickLoopConfig struct {
	// Interval between ticks. Defaults to 16ms.
	Interval time.Duration

	// QueueSize is the buffer of posted tasks. Defaults to 100.
	QueueSize int

	Logger  Logger
	Metrics Metrics
}

// TickLoop binds a dedicated goroutine that owns the scheduling thread.
// It calls tick at a fixed interval and runs posted tasks between ticks, so
// code on other goroutines can reach the Registry and Host safely.
//
// Everything posted to the loop and every tick run on the same goroutine, in
// the order they were received.
type TickLoop struct {
	tick     func()
	interval time.Duration

	// Task queue: Buffered channel for posted closures
	workQueue chan func()

	// Lifecycle control
	ctx    context.Context
	cancel context.CancelFunc

	// For graceful shutdown
	stopped      chan struct{}
	once         sync.Once
	closed       atomic.Bool
	shutdownChan chan struct{}
	shutdownOnce sync.Once

	ticks   atomic.Uint64
	overrun rate.Sometimes
	logger  Logger
	metrics Metrics
}

// NewTickLoop creates and starts a TickLoop that calls tick every interval.
// It immediately spawns the loop goroutine.
func NewTickLoop(tick func(), config *TickLoopConfig) *TickLoop {
	cfg := TickLoopConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultTickInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultLoopQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = NewNoOpLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &NilMetrics{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &TickLoop{
		tick:         tick,
		interval:     cfg.Interval,
		workQueue:    make(chan func(), cfg.QueueSize),
		ctx:          ctx,
		cancel:       cancel,
		stopped:      make(chan struct{}),
		shutdownChan: make(chan struct{}),
		overrun:      rate.Sometimes{First: 1, Interval: overrunWarnEvery},
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}

	go l.runLoop()

	return l
}

// Interval returns the tick interval.
func (l *TickLoop) Interval() time.Duration { return l.interval }

// Ticks returns the number of ticks run so far.
func (l *TickLoop) Ticks() uint64 { return l.ticks.Load() }

// PostTask queues task to run on the loop goroutine. Tasks posted after
// Shutdown are dropped.
func (l *TickLoop) PostTask(task func()) {
	if task == nil || l.closed.Load() {
		return
	}

	select {
	case <-l.ctx.Done():
		// Loop stopped, drop task
	case l.workQueue <- task:
	}
}

// Call runs fn on the loop goroutine and waits for it to return.
//
// Must not be called from the loop goroutine itself.
func (l *TickLoop) Call(ctx context.Context, fn func()) error {
	if l.IsClosed() {
		return ErrLoopClosed
	}

	done := make(chan struct{})
	l.PostTask(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-l.ctx.Done():
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitIdle blocks until every task posted before the call has run.
// This is implemented by posting a barrier task and waiting for it to execute.
//
// Note: ticks keep running; WaitIdle does not wait for routines to finish.
func (l *TickLoop) WaitIdle(ctx context.Context) error {
	return l.Call(ctx, func() {})
}

// Shutdown marks the loop as closed and signals shutdown waiters.
// Unlike Stop, this method does not wait for the loop goroutine, so a
// routine may call it from inside a tick.
func (l *TickLoop) Shutdown() {
	l.shutdownOnce.Do(func() {
		l.closed.Store(true)
		l.cancel()
		close(l.shutdownChan)
	})
}

// IsClosed returns true once Shutdown or Stop has been called.
func (l *TickLoop) IsClosed() bool {
	return l.closed.Load()
}

// Stop closes the loop and waits for the current tick or task to complete.
// Must not be called from the loop goroutine itself.
func (l *TickLoop) Stop() {
	l.once.Do(func() {
		l.Shutdown()
		<-l.stopped
	})
}

// WaitShutdown blocks until Shutdown is called or ctx is done.
func (l *TickLoop) WaitShutdown(ctx context.Context) error {
	select {
	case <-l.shutdownChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop is the core of this loop, it occupies a dedicated goroutine
func (l *TickLoop) runLoop() {
	defer close(l.stopped)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case task := <-l.workQueue:
			l.run("task", task)

		case <-ticker.C:
			l.runTick()

		case <-l.ctx.Done():
			return
		}
	}
}

func (l *TickLoop) runTick() {
	if l.tick == nil {
		return
	}
	start := time.Now()
	l.run("tick", l.tick)
	took := time.Since(start)

	l.ticks.Add(1)
	l.metrics.RecordTickDuration(took)
	if took > l.interval {
		l.overrun.Do(func() {
			l.logger.Warn("tick overran its interval",
				F("took", took), F("interval", l.interval), F("tick", l.ticks.Load()))
		})
	}
}

func (l *TickLoop) run(kind string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("tick loop "+kind+" panicked", F("panic", fmt.Sprint(rec)))
		}
	}()
	fn()
}
