package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

// startWatch runs Watch on path and returns the notification channel.
func startWatch(t *testing.T, path string) <-chan struct{} {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 64)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, zap.NewNop(), func() { changed <- struct{}{} })
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch returned %v", err)
		}
	})
	return changed
}

// waitChange repeats mutate until a notification arrives. Repeating covers
// the window before the watcher has registered.
func waitChange(t *testing.T, changed <-chan struct{}, mutate func()) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	mutate()
	for {
		select {
		case <-changed:
			return
		case <-tick.C:
			mutate()
		case <-deadline:
			t.Fatal("no change notification within 5s")
		}
	}
}

// drainChanges discards queued notifications so the next wait sees only new ones.
func drainChanges(changed <-chan struct{}) {
	time.Sleep(100 * time.Millisecond)
	for {
		select {
		case <-changed:
		default:
			return
		}
	}
}

func TestWatch_CallsOnChangeOnWrite(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(p, []byte("item-lifetime: 60\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed := startWatch(t, p)

	waitChange(t, changed, func() {
		if err := os.WriteFile(p, []byte("item-lifetime: 90\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	})
}

func TestWatch_SurvivesRenameSave(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(p, []byte("item-lifetime: 60\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed := startWatch(t, p)

	// editor style: write a temp file, rename it over the config
	waitChange(t, changed, func() {
		tmp := filepath.Join(dir, ".config.yml.swp")
		if err := os.WriteFile(tmp, []byte("item-lifetime: 30\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Rename(tmp, p); err != nil {
			t.Fatal(err)
		}
	})
	drainChanges(changed)

	// the watch is still alive for a plain in-place write afterwards
	waitChange(t, changed, func() {
		if err := os.WriteFile(p, []byte("item-lifetime: 45\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	})
}

func TestWatch_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(p, []byte("item-lifetime: 60\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed := startWatch(t, p)

	// make sure the watcher is up before checking for silence
	waitChange(t, changed, func() {
		if err := os.WriteFile(p, []byte("item-lifetime: 61\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	})
	drainChanges(changed)

	if err := os.WriteFile(filepath.Join(dir, "other.yml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Fatal("write to a sibling file triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "config.yml"), zap.NewNop(), func() {})
	if err == nil {
		t.Fatal("watching a file in a missing directory should fail")
	}
}
