package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Swind/go-coroutine-registry/core"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a config file when it changes on disk and hands every new,
// valid configuration to a callback. Files that fail to load are logged and
// ignored; the previous configuration stays in effect.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   core.Logger
	onChange func(*Config)

	last Config
}

// NewWatcher creates a Watcher for path. current is the configuration already
// applied; reloads that resolve to the same values are not reported.
func NewWatcher(path string, current *Config, logger core.Logger, onChange func(*Config)) *Watcher {
	if logger == nil {
		logger = core.NewNoOpLogger()
	}
	w := &Watcher{
		path:     path,
		debounce: defaultDebounce,
		logger:   logger,
		onChange: onChange,
	}
	if current != nil {
		w.last = *current
	}
	return w
}

// Run watches until ctx is done. The parent directory is watched rather than
// the file so editors that replace the file on save are handled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer fw.Close()

	dir, file := filepath.Dir(w.path), filepath.Base(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("config watch %s: %w", dir, err)
	}
	w.logger.Debug("config watcher started", core.F("path", w.path))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				// Coalesce bursts of events from a single save.
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watch error", core.F("path", w.path), core.F("error", err))

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected", core.F("path", w.path), core.F("error", err))
		return
	}
	if *cfg == w.last {
		w.logger.Debug("config unchanged", core.F("path", w.path))
		return
	}
	w.last = *cfg
	w.logger.Info("config reloaded", core.F("path", w.path))
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
