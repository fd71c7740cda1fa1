package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	coroutine "github.com/Swind/go-coroutine-registry"
	"github.com/Swind/go-coroutine-registry/config"
	"github.com/Swind/go-coroutine-registry/core"
	"github.com/Swind/go-coroutine-registry/logging"
	obs "github.com/Swind/go-coroutine-registry/observability/prometheus"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the simulated world until interrupted",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "entities",
				Aliases: []string{"n"},
				Value:   8,
				Usage:   "Number of entities to spawn",
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "Stop after this long (0 runs until interrupted)",
			},
		},
		Action: runAction,
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runAction(c *cli.Context) error {
	entities := c.Int("entities")
	if entities < 0 {
		return cli.Exit("entities must be >= 0", 2)
	}

	path := c.String("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	clock := core.NewSystemClock()
	applyConfig(cfg, clock, logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := c.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	opts := coroutine.Options{
		Clock:           clock,
		Logger:          logger.With(core.F("component", "runtime")),
		HistoryCapacity: cfg.Runtime.HistorySize,
		TickInterval:    cfg.Runtime.TickInterval,
	}

	var poller *obs.SnapshotPoller
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		exporter, err := obs.NewMetricsExporter(cfg.Metrics.Namespace, reg, obs.ExporterOptions{})
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		poller, err = obs.NewSnapshotPoller(cfg.Metrics.Namespace, reg, cfg.Metrics.PollInterval)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		opts.Metrics = exporter

		shutdown := serveMetrics(cfg.Metrics.Listen, reg, logger)
		defer shutdown()
	}

	rt := coroutine.New(opts)
	if poller != nil {
		poller.AddRegistry("world", rt.Registry)
		poller.Start(ctx)
		defer poller.Stop()
	}

	if path != "" {
		watcher := config.NewWatcher(path, cfg, logger.With(core.F("component", "config")), func(next *config.Config) {
			applyConfig(next, clock, logger)
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("config watcher stopped", core.F("error", err))
			}
		}()
	}

	rt.Start()
	w := newWorld(rt, logger.With(core.F("component", "world")))
	if err := rt.Call(ctx, func() { w.spawn(entities) }); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	logger.Info("corodemo running", core.F("entities", entities), core.F("tick", cfg.Runtime.TickInterval))
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Stop(stopCtx); err != nil {
		logger.Warn("runtime stop incomplete", core.F("error", err))
	}

	stats := rt.Registry.Stats()
	fmt.Printf("✓ Stopped: started=%d completed=%d stopped=%d panicked=%d\n",
		stats.Started, stats.Completed, stats.Stopped, stats.Panicked)
	return nil
}

// applyConfig pushes the hot-reloadable settings into the running process.
// SystemClock and Logger are safe to update from the watcher goroutine.
func applyConfig(cfg *config.Config, clock *core.SystemClock, logger *logging.Logger) {
	clock.SetTimeScale(cfg.Runtime.TimeScale)
	clock.SetPaused(cfg.EffectivePaused())
	logger.SetLevel(cfg.Logging.Level)
	logger.Debug("config applied",
		core.F("time_scale", cfg.Runtime.TimeScale), core.F("paused", cfg.EffectivePaused()))
}

func serveMetrics(addr string, reg *prom.Registry, logger *logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", core.F("addr", addr), core.F("error", err))
		}
	}()
	logger.Info("metrics endpoint up", core.F("url", "http://"+addr+"/metrics"))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
