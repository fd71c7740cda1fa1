package core

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
)

// taskRecord is the registry's bookkeeping for one live task.
type taskRecord struct {
	handle  Handle
	owner   Owner
	tag     string
	label   string
	status  Status
	tracker *TimeTracker
}

// Registry maps live tasks to their metadata and applies owner and tag
// matching for queries and bulk cancellation.
//
// Registry is not safe for concurrent use: every method except Stats and
// History must be called on the scheduling goroutine. Routines may call back
// into the registry freely, including while it is stopping tasks.
type Registry struct {
	host    Host
	clock   Clock
	logger  Logger
	metrics Metrics
	history *taskHistory
	pause   pauseMonitor

	records map[Handle]*taskRecord
	order   []*taskRecord // insertion order

	active    atomic.Int64
	started   atomic.Uint64
	completed atomic.Uint64
	stopped   atomic.Uint64
	panicked  atomic.Uint64
}

// NewRegistry creates a registry with default logger and metrics.
func NewRegistry(host Host, clock Clock) *Registry {
	return NewRegistryWithConfig(host, clock, DefaultRegistryConfig())
}

// NewRegistryWithConfig creates a registry with the given handlers.
func NewRegistryWithConfig(host Host, clock Clock, config *RegistryConfig) *Registry {
	r := &Registry{
		host:    host,
		clock:   clock,
		pause:   pauseMonitor{clock: clock},
		records: make(map[Handle]*taskRecord),
	}
	capacity := 0
	if config != nil {
		r.logger = config.Logger
		r.metrics = config.Metrics
		capacity = config.HistoryCapacity
	}
	if r.logger == nil {
		r.logger = NewNoOpLogger()
	}
	if r.metrics == nil {
		r.metrics = &NilMetrics{}
	}
	r.history = newTaskHistory(capacity)
	return r
}

// Clock returns the clock the registry samples.
func (r *Registry) Clock() Clock { return r.clock }

// =============================================================================
// Start
// =============================================================================

// Run starts routine without owner or tag.
func (r *Registry) Run(routine Routine) (Handle, error) {
	return r.start(routine, Owner{}, "", "")
}

// RunWithTag starts routine with tag. A blank tag means no tag.
func (r *Registry) RunWithTag(routine Routine, tag string) (Handle, error) {
	return r.start(routine, Owner{}, tag, "")
}

// RunWithOwner starts routine attached to owner.
func (r *Registry) RunWithOwner(routine Routine, owner Owner) (Handle, error) {
	return r.start(routine, owner, "", "")
}

// RunWithOwnerAndTag starts routine attached to owner and labelled with tag.
func (r *Registry) RunWithOwnerAndTag(routine Routine, owner Owner, tag string) (Handle, error) {
	return r.start(routine, owner, tag, "")
}

func (r *Registry) start(routine Routine, owner Owner, tag, label string) (Handle, error) {
	if routine == nil {
		return Handle{}, invalidArgument("routine is nil")
	}
	if label == "" {
		label = routineLabel(routine, "routine")
	}

	handle, err := r.host.Start(routine, r.onFinished)
	if err != nil {
		r.logger.Error("host failed to start routine", F("label", label), F("error", err))
		if !errors.Is(err, ErrHostUnavailable) {
			err = fmt.Errorf("%w: %w", ErrHostUnavailable, err)
		}
		return Handle{}, err
	}
	if _, dup := r.records[handle]; dup {
		// A host must never reuse a live handle.
		r.host.Cancel(handle)
		return Handle{}, fmt.Errorf("%w: duplicate handle %s", ErrHostUnavailable, handle)
	}

	r.pause.sample(r.order)
	rec := &taskRecord{
		handle:  handle,
		owner:   owner,
		tag:     normalizeTag(tag),
		label:   label,
		status:  StatusRunning,
		tracker: newTimeTracker(r.clock),
	}
	r.records[handle] = rec
	r.order = append(r.order, rec)

	r.active.Add(1)
	r.started.Add(1)
	r.metrics.RecordTaskStarted(rec.tag)
	r.metrics.RecordActiveCount(len(r.records))
	r.logger.Debug("coroutine started",
		F("handle", handle.String()), F("label", label), F("tag", rec.tag), F("owner", owner.String()))
	return handle, nil
}

// =============================================================================
// Stop
// =============================================================================

// Stop cancels the task behind h. Unknown or already finished handles are
// ignored: a task may complete between a caller's last query and its Stop.
func (r *Registry) Stop(h Handle) {
	rec, ok := r.records[h]
	if !ok {
		return
	}
	r.remove(rec, StatusStopped, nil)
	r.host.Cancel(h)
}

// StopAll stops every live task.
func (r *Registry) StopAll() {
	r.stopMatching(func(*taskRecord) bool { return true })
}

// StopAllForOwner stops every live task attached to owner. The zero Owner
// matches nothing.
func (r *Registry) StopAllForOwner(owner Owner) {
	if owner.IsZero() {
		return
	}
	r.stopMatching(func(rec *taskRecord) bool { return rec.owner.Equal(owner) })
}

// StopAllWithTag stops every live task whose tag equals tag, ignoring case and
// surrounding whitespace.
func (r *Registry) StopAllWithTag(tag string) error {
	tag, err := requireTag(tag)
	if err != nil {
		return err
	}
	r.stopMatching(func(rec *taskRecord) bool { return tagMatches(rec.tag, tag) })
	return nil
}

// stopMatching snapshots the handles first; stopping a task runs its cleanup
// code, which may start or stop other tasks.
func (r *Registry) stopMatching(match func(*taskRecord) bool) {
	var handles []Handle
	for _, rec := range r.order {
		if match(rec) {
			handles = append(handles, rec.handle)
		}
	}
	for _, h := range handles {
		r.Stop(h)
	}
}

// onFinished is the host's completion callback.
func (r *Registry) onFinished(h Handle, err error) {
	rec, ok := r.records[h]
	if !ok {
		return
	}
	if err != nil {
		r.panicked.Add(1)
		r.metrics.RecordTaskPanic(rec.tag, err)
		r.logger.Warn("coroutine ended abnormally",
			F("handle", h.String()), F("label", rec.label), F("error", err))
	}
	r.remove(rec, StatusCompleted, err)
}

func (r *Registry) remove(rec *taskRecord, status Status, err error) {
	r.pause.sample(r.order)
	data := r.snapshot(rec)
	data.Status = status

	rec.status = status
	delete(r.records, rec.handle)
	if i := slices.Index(r.order, rec); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}

	r.active.Add(-1)
	if status == StatusStopped {
		r.stopped.Add(1)
	} else {
		r.completed.Add(1)
	}
	r.history.Add(HistoryRecord{
		TaskData:         data,
		FinishedTime:     r.clock.ScaledTime(),
		FinishedRealTime: r.clock.RealTime(),
		Err:              err,
	})
	r.metrics.RecordTaskFinished(rec.tag, status, data.ElapsedRealTime)
	r.metrics.RecordActiveCount(len(r.records))
	r.logger.Debug("coroutine "+status.String(),
		F("handle", rec.handle.String()), F("label", rec.label), F("elapsed", data.ElapsedTime))
}

// =============================================================================
// Queries
// =============================================================================

// GetData returns a snapshot of every live task in start order.
func (r *Registry) GetData() []TaskData {
	return r.collect(func(*taskRecord) bool { return true })
}

// GetDataForOwner returns a snapshot of the live tasks attached to owner.
func (r *Registry) GetDataForOwner(owner Owner) []TaskData {
	if owner.IsZero() {
		return []TaskData{}
	}
	return r.collect(func(rec *taskRecord) bool { return rec.owner.Equal(owner) })
}

// GetDataWithTag returns a snapshot of the live tasks whose tag equals tag,
// ignoring case and surrounding whitespace.
func (r *Registry) GetDataWithTag(tag string) ([]TaskData, error) {
	tag, err := requireTag(tag)
	if err != nil {
		return nil, err
	}
	return r.collect(func(rec *taskRecord) bool { return tagMatches(rec.tag, tag) }), nil
}

// Lookup returns a snapshot of the task behind h.
func (r *Registry) Lookup(h Handle) (TaskData, bool) {
	rec, ok := r.records[h]
	if !ok {
		return TaskData{}, false
	}
	r.pause.sample(r.order)
	return r.snapshot(rec), true
}

// IsRunning reports whether h refers to a live task.
func (r *Registry) IsRunning(h Handle) bool {
	_, ok := r.records[h]
	return ok
}

// GetActiveCoroutineCount returns the number of live tasks.
func (r *Registry) GetActiveCoroutineCount() int {
	return len(r.records)
}

// History returns up to limit finished tasks, newest first. limit <= 0
// returns everything retained. Safe for concurrent use.
func (r *Registry) History(limit int) []HistoryRecord {
	return r.history.Recent(limit)
}

// LastFinished returns the most recently finished task. Safe for concurrent use.
func (r *Registry) LastFinished() (HistoryRecord, bool) {
	return r.history.Last()
}

// Stats returns counters that are safe to read from any goroutine.
func (r *Registry) Stats() RegistryStats {
	return RegistryStats{
		Active:    int(r.active.Load()),
		Started:   r.started.Load(),
		Completed: r.completed.Load(),
		Stopped:   r.stopped.Load(),
		Panicked:  r.panicked.Load(),
	}
}

// SamplePause observes the clock's pause flag. The host loop calls it once per
// tick; queries call it as well.
func (r *Registry) SamplePause() {
	r.pause.sample(r.order)
}

func (r *Registry) collect(match func(*taskRecord) bool) []TaskData {
	r.pause.sample(r.order)
	out := make([]TaskData, 0, len(r.order))
	for _, rec := range r.order {
		if match(rec) {
			out = append(out, r.snapshot(rec))
		}
	}
	return out
}

func (r *Registry) snapshot(rec *taskRecord) TaskData {
	return TaskData{
		Handle:          rec.handle,
		Owner:           rec.owner,
		Tag:             rec.tag,
		Label:           rec.label,
		Status:          rec.status,
		StartedTime:     rec.tracker.StartedTime(),
		StartedRealTime: rec.tracker.StartedRealTime(),
		ElapsedTime:     rec.tracker.ElapsedTime(r.clock),
		ElapsedRealTime: r.pause.elapsedReal(rec.tracker),
	}
}

func requireTag(tag string) (string, error) {
	tag = normalizeTag(tag)
	if tag == "" {
		return "", invalidArgument("tag is empty")
	}
	return tag, nil
}
