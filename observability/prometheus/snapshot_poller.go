package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-coroutine-registry/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// RegistrySnapshotProvider provides current registry stats snapshots.
// *core.Registry satisfies it; Stats is safe to call off the scheduling goroutine.
type RegistrySnapshotProvider interface {
	Stats() core.RegistryStats
}

// SnapshotPoller periodically exports registry Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	registriesMu sync.RWMutex
	registries   map[string]RegistrySnapshotProvider

	active    *prom.GaugeVec
	started   *prom.GaugeVec
	completed *prom.GaugeVec
	stopped   *prom.GaugeVec
	panicked  *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(namespace string, reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if namespace == "" {
		namespace = "coroutine"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      name,
			Help:      help,
		}, []string{"registry"})
	}
	active := gauge("active", "Live coroutines per registry.")
	started := gauge("started", "Coroutines started per registry (snapshot).")
	completed := gauge("completed", "Coroutines completed per registry (snapshot).")
	stopped := gauge("stopped", "Coroutines stopped per registry (snapshot).")
	panicked := gauge("panicked", "Coroutines that panicked per registry (snapshot).")

	var err error
	if active, err = registerCollector(reg, active); err != nil {
		return nil, err
	}
	if started, err = registerCollector(reg, started); err != nil {
		return nil, err
	}
	if completed, err = registerCollector(reg, completed); err != nil {
		return nil, err
	}
	if stopped, err = registerCollector(reg, stopped); err != nil {
		return nil, err
	}
	if panicked, err = registerCollector(reg, panicked); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:   interval,
		registries: make(map[string]RegistrySnapshotProvider),
		active:     active,
		started:    started,
		completed:  completed,
		stopped:    stopped,
		panicked:   panicked,
	}, nil
}

// AddRegistry adds or replaces a registry snapshot provider by name.
func (p *SnapshotPoller) AddRegistry(name string, provider RegistrySnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "registry")
	p.registriesMu.Lock()
	p.registries[name] = provider
	p.registriesMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx, p.done)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.registriesMu.RLock()
	defer p.registriesMu.RUnlock()

	for name, provider := range p.registries {
		stats := provider.Stats()
		p.active.WithLabelValues(name).Set(float64(stats.Active))
		p.started.WithLabelValues(name).Set(float64(stats.Started))
		p.completed.WithLabelValues(name).Set(float64(stats.Completed))
		p.stopped.WithLabelValues(name).Set(float64(stats.Stopped))
		p.panicked.WithLabelValues(name).Set(float64(stats.Panicked))
	}
}
