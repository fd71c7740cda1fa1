package core

import (
	"fmt"
	"os"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling routine panics
// =============================================================================

// PanicHandler is called when a routine panics while being stepped.
// The task is finished afterwards; the handler cannot resume it.
type PanicHandler interface {
	// HandlePanic is called on the scheduling goroutine.
	//
	// Parameters:
	// - handle: The task whose routine panicked
	// - label: The routine label
	// - panicInfo: The recovered panic value
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(handle Handle, label string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler writes panic information to stderr.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stderr.
func (h *DefaultPanicHandler) HandlePanic(handle Handle, label string, panicInfo any, stackTrace []byte) {
	fmt.Fprintf(os.Stderr, "[Coroutine %s @ %s] Panic: %v\nStack trace:\n%s",
		handle, label, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting registry metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called on the scheduling goroutine and should be fast.
type Metrics interface {
	// RecordTaskStarted records a task registration.
	RecordTaskStarted(tag string)

	// RecordTaskFinished records a task leaving the registry.
	//
	// Parameters:
	// - tag: The normalized task tag ("" for untagged tasks)
	// - status: StatusCompleted or StatusStopped
	// - lifetime: Real time the task was registered, excluding pauses
	RecordTaskFinished(tag string, status Status, lifetime time.Duration)

	// RecordTaskPanic records that a routine panicked.
	RecordTaskPanic(tag string, panicInfo any)

	// RecordActiveCount records the number of live tasks after a change.
	RecordActiveCount(count int)

	// RecordTickDuration records how long one scheduler tick took.
	RecordTickDuration(duration time.Duration)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskStarted(tag string)                                         {}
func (m *NilMetrics) RecordTaskFinished(tag string, status Status, lifetime time.Duration) {}
func (m *NilMetrics) RecordTaskPanic(tag string, panicInfo any)                            {}
func (m *NilMetrics) RecordActiveCount(count int)                                          {}
func (m *NilMetrics) RecordTickDuration(duration time.Duration)                            {}

// =============================================================================
// RegistryConfig: Configuration for Registry
// =============================================================================

// RegistryConfig holds configuration options for Registry.
// All fields are optional; zero values select the defaults.
type RegistryConfig struct {
	// Logger receives lifecycle events. Defaults to NoOpLogger.
	Logger Logger

	// Metrics records task counters. Defaults to NilMetrics.
	Metrics Metrics

	// HistoryCapacity bounds the finished-task history. Defaults to 100.
	HistoryCapacity int
}

// DefaultRegistryConfig returns a config with default handlers.
func DefaultRegistryConfig() *RegistryConfig {
	return &RegistryConfig{
		Logger:          NewNoOpLogger(),
		Metrics:         &NilMetrics{},
		HistoryCapacity: defaultHistoryCapacity,
	}
}

// =============================================================================
// TickHostConfig: Configuration for TickHost
// =============================================================================

// TickHostConfig holds configuration options for TickHost.
type TickHostConfig struct {
	// PanicHandler is called when a routine panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Logger receives host diagnostics. Defaults to NoOpLogger.
	Logger Logger
}
