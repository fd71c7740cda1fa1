package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcher_ReloadsValidChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "runtime.yaml", "runtime:\n  time_scale: 1\n")
	current, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	changes := make(chan *Config, 4)
	w := NewWatcher(path, current, nil, func(c *Config) { changes <- c })
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("runtime:\n  time_scale: [broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("runtime:\n  time_scale: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changes:
		if c.Runtime.TimeScale != 3 {
			t.Fatalf("time scale = %v, want 3", c.Runtime.TimeScale)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}

	select {
	case c := <-changes:
		t.Fatalf("unexpected extra reload: %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher("/definitely/not/here/runtime.yaml", nil, nil, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("Run on missing directory returned nil")
	}
}
