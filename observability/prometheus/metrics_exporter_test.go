package prometheus

import (
	"testing"
	"time"

	"github.com/Swind/go-coroutine-registry/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("coroutine", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordTaskStarted("enemy")
	exporter.RecordTaskStarted("")
	exporter.RecordTaskFinished("enemy", core.StatusStopped, 250*time.Millisecond)
	exporter.RecordTaskPanic("enemy", "panic")
	exporter.RecordActiveCount(7)
	exporter.RecordTickDuration(3 * time.Millisecond)

	if got := testutil.ToFloat64(exporter.taskStartedTotal.WithLabelValues("enemy")); got != 1 {
		t.Fatalf("started{enemy} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.taskStartedTotal.WithLabelValues("none")); got != 1 {
		t.Fatalf("started{none} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.taskFinishedTotal.WithLabelValues("enemy", "stopped")); got != 1 {
		t.Fatalf("finished{enemy,stopped} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.taskPanicTotal.WithLabelValues("enemy")); got != 1 {
		t.Fatalf("panic total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.activeTasks); got != 7 {
		t.Fatalf("active = %v, want 7", got)
	}

	histCount, err := histogramSampleCount(exporter.taskLifetimeSeconds.WithLabelValues("stopped"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if histCount != 1 {
		t.Fatalf("lifetime sample count = %d, want 1", histCount)
	}
	tickCount, err := histogramSampleCount(exporter.tickDurationSeconds)
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if tickCount != 1 {
		t.Fatalf("tick sample count = %d, want 1", tickCount)
	}
}

func TestMetricsExporter_TagLabelFoldsCase(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("coroutine", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordTaskStarted("Gameplay")
	exporter.RecordTaskStarted("gameplay")
	exporter.RecordTaskStarted(" GAMEPLAY ")
	exporter.RecordTaskFinished("GamePlay", core.StatusCompleted, time.Second)
	exporter.RecordTaskPanic("GAMEPLAY", nil)
	exporter.RecordTaskStarted("  ")

	if got := testutil.ToFloat64(exporter.taskStartedTotal.WithLabelValues("gameplay")); got != 3 {
		t.Fatalf("started{gameplay} = %v, want 3", got)
	}
	if got := testutil.CollectAndCount(exporter.taskStartedTotal); got != 2 {
		t.Fatalf("started series = %d, want 2 (gameplay, none)", got)
	}
	if got := testutil.ToFloat64(exporter.taskFinishedTotal.WithLabelValues("gameplay", "completed")); got != 1 {
		t.Fatalf("finished{gameplay,completed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.taskPanicTotal.WithLabelValues("gameplay")); got != 1 {
		t.Fatalf("panic{gameplay} = %v, want 1", got)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("coroutine", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("coroutine", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordTaskPanic("ai", nil)
	second.RecordTaskPanic("ai", nil)

	got := testutil.ToFloat64(first.taskPanicTotal.WithLabelValues("ai"))
	if got != 2 {
		t.Fatalf("shared panic counter = %v, want 2", got)
	}
}

func TestMetricsExporter_DrivenByRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	clock := core.NewManualClock()
	host := core.NewTickHost(clock)
	registry := core.NewRegistryWithConfig(host, clock, &core.RegistryConfig{Metrics: exporter})

	if _, err := registry.RunWithTag(core.Once(func() {}), "fx"); err != nil {
		t.Fatal(err)
	}
	h, err := registry.Run(func(yield func(core.Instruction) bool) {
		for yield(nil) {
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	host.Advance()
	registry.Stop(h)

	if got := testutil.ToFloat64(exporter.taskFinishedTotal.WithLabelValues("fx", "completed")); got != 1 {
		t.Errorf("finished{fx,completed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.taskFinishedTotal.WithLabelValues("none", "stopped")); got != 1 {
		t.Errorf("finished{none,stopped} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(exporter.activeTasks); got != 0 {
		t.Errorf("active = %v, want 0", got)
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
