package prometheus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Swind/go-coroutine-registry/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// LifetimeBuckets are the histogram buckets for task lifetimes, in seconds.
	LifetimeBuckets []float64

	// TickBuckets are the histogram buckets for tick durations, in seconds.
	TickBuckets []float64
}

var defaultTickBuckets = []float64{.0005, .001, .002, .004, .008, .016, .033, .066, .1, .25}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskStartedTotal    *prom.CounterVec
	taskFinishedTotal   *prom.CounterVec
	taskLifetimeSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	activeTasks         prom.Gauge
	tickDurationSeconds prom.Histogram
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "coroutine"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	lifetimeBuckets := opts.LifetimeBuckets
	if len(lifetimeBuckets) == 0 {
		lifetimeBuckets = prom.DefBuckets
	}
	tickBuckets := opts.TickBuckets
	if len(tickBuckets) == 0 {
		tickBuckets = defaultTickBuckets
	}

	startedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_started_total",
		Help:      "Total number of coroutines registered.",
	}, []string{"tag"})
	finishedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_finished_total",
		Help:      "Total number of coroutines that left the registry.",
	}, []string{"tag", "status"})
	lifetimeVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_lifetime_seconds",
		Help:      "Real time a coroutine stayed registered, excluding pauses.",
		Buckets:   lifetimeBuckets,
	}, []string{"status"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of coroutine panics.",
	}, []string{"tag"})
	active := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "active_tasks",
		Help:      "Number of live coroutines.",
	})
	tickDuration := prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Duration of one scheduler tick in seconds.",
		Buckets:   tickBuckets,
	})

	var err error
	if startedVec, err = registerCollector(reg, startedVec); err != nil {
		return nil, err
	}
	if finishedVec, err = registerCollector(reg, finishedVec); err != nil {
		return nil, err
	}
	if lifetimeVec, err = registerCollector(reg, lifetimeVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if active, err = registerCollector(reg, active); err != nil {
		return nil, err
	}
	if tickDuration, err = registerCollector(reg, tickDuration); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskStartedTotal:    startedVec,
		taskFinishedTotal:   finishedVec,
		taskLifetimeSeconds: lifetimeVec,
		taskPanicTotal:      panicVec,
		activeTasks:         active,
		tickDurationSeconds: tickDuration,
	}, nil
}

// RecordTaskStarted counts a registration.
func (m *MetricsExporter) RecordTaskStarted(tag string) {
	if m == nil {
		return
	}
	m.taskStartedTotal.WithLabelValues(tagLabel(tag)).Inc()
}

// RecordTaskFinished counts a task leaving the registry and observes its lifetime.
func (m *MetricsExporter) RecordTaskFinished(tag string, status core.Status, lifetime time.Duration) {
	if m == nil {
		return
	}
	m.taskFinishedTotal.WithLabelValues(tagLabel(tag), status.String()).Inc()
	m.taskLifetimeSeconds.WithLabelValues(status.String()).Observe(lifetime.Seconds())
}

// RecordTaskPanic records task panic events.
func (m *MetricsExporter) RecordTaskPanic(tag string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(tagLabel(tag)).Inc()
}

// RecordActiveCount records the live task count.
func (m *MetricsExporter) RecordActiveCount(count int) {
	if m == nil {
		return
	}
	m.activeTasks.Set(float64(count))
}

// RecordTickDuration observes one tick.
func (m *MetricsExporter) RecordTickDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.tickDurationSeconds.Observe(duration.Seconds())
}

// tagLabel folds tag the way the registry compares tags, so one tag maps to
// one series.
func tagLabel(tag string) string {
	return normalizeLabel(strings.ToLower(strings.TrimSpace(tag)), "none")
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
