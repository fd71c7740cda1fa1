package coroutine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Swind/go-coroutine-registry/core"
)

// Options configures a Runtime. All fields are optional.
type Options struct {
	// Clock defaults to a new SystemClock.
	Clock core.Clock

	Logger       core.Logger
	Metrics      core.Metrics
	PanicHandler core.PanicHandler

	// HistoryCapacity bounds the finished-task history. Defaults to 100.
	HistoryCapacity int

	// TickInterval is used by Start. Defaults to 16ms.
	TickInterval time.Duration
}

// Runtime wires a Clock, a TickHost, a Registry, a DelayScheduler and a
// CleanupHook together.
//
// Drive it either by calling Tick from your own frame loop, or by calling
// Start to get a TickLoop that ticks on a dedicated goroutine. In the latter
// case every interaction with Registry, Delays and Cleanup must go through
// Call or the loop's PostTask.
type Runtime struct {
	Clock    core.Clock
	Host     *core.TickHost
	Registry *core.Registry
	Delays   *core.DelayScheduler
	Cleanup  *core.CleanupHook

	logger       core.Logger
	metrics      core.Metrics
	tickInterval time.Duration

	loopMu sync.Mutex
	loop   *core.TickLoop
}

// New creates a Runtime. Nothing runs until Tick or Start is called.
func New(opts Options) *Runtime {
	if opts.Clock == nil {
		opts.Clock = core.NewSystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = core.NewNoOpLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = &core.NilMetrics{}
	}

	host := core.NewTickHostWithConfig(opts.Clock, &core.TickHostConfig{
		PanicHandler: opts.PanicHandler,
		Logger:       opts.Logger,
	})
	registry := core.NewRegistryWithConfig(host, opts.Clock, &core.RegistryConfig{
		Logger:          opts.Logger,
		Metrics:         opts.Metrics,
		HistoryCapacity: opts.HistoryCapacity,
	})

	return &Runtime{
		Clock:        opts.Clock,
		Host:         host,
		Registry:     registry,
		Delays:       core.NewDelayScheduler(registry, opts.Clock),
		Cleanup:      core.NewCleanupHook(registry),
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		tickInterval: opts.TickInterval,
	}
}

// Tick samples the clock's pause state and advances every ready task once.
// It must be called on the scheduling goroutine.
func (r *Runtime) Tick() {
	r.Registry.SamplePause()
	r.Host.Advance()
}

// Start launches a TickLoop that calls Tick every TickInterval. Repeated calls
// return the running loop.
func (r *Runtime) Start() *core.TickLoop {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()

	if r.loop != nil && !r.loop.IsClosed() {
		return r.loop
	}
	r.loop = core.NewTickLoop(r.Tick, &core.TickLoopConfig{
		Interval: r.tickInterval,
		Logger:   r.logger,
		Metrics:  r.metrics,
	})
	r.logger.Info("tick loop started", core.F("interval", r.loop.Interval()))
	return r.loop
}

// Loop returns the loop started by Start, or nil.
func (r *Runtime) Loop() *core.TickLoop {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()
	return r.loop
}

// Call runs fn on the scheduling goroutine and waits for it. Without a
// running loop fn runs on the calling goroutine, which is then assumed to be
// the scheduling goroutine.
func (r *Runtime) Call(ctx context.Context, fn func()) error {
	loop := r.Loop()
	if loop == nil {
		fn()
		return nil
	}
	return loop.Call(ctx, fn)
}

// Stop stops every task, closes the host and stops the loop if one is
// running. Task cleanup code runs on the scheduling goroutine. If the loop
// was already closed, or ctx expired before the loop got to it, the tasks are
// stopped on the calling goroutine once the loop has exited; only the ctx
// error is reported.
func (r *Runtime) Stop(ctx context.Context) error {
	shutdown := func() {
		r.Registry.StopAll()
		r.Host.Close()
	}

	loop := r.Loop()
	if loop == nil {
		shutdown()
		return nil
	}
	err := loop.Call(ctx, shutdown)
	loop.Stop()
	r.logger.Info("tick loop stopped", core.F("ticks", loop.Ticks()))
	if err != nil {
		// The loop goroutine has exited, so this goroutine may act as the
		// scheduling goroutine. Both steps are no-ops if shutdown already ran.
		r.logger.Warn("stopping tasks after the tick loop closed", core.F("error", err))
		shutdown()
		if errors.Is(err, core.ErrLoopClosed) {
			return nil
		}
	}
	return err
}
