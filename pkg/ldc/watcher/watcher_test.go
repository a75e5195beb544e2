package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/ldc/pkg/ldc/ignore"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

type collector struct {
	ch chan Batch
}

func newCollector() *collector {
	return &collector{ch: make(chan Batch, 16)}
}

func (c *collector) onTrigger(b Batch) {
	c.ch <- b
}

func (c *collector) next(t *testing.T) Batch {
	t.Helper()
	select {
	case b := <-c.ch:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for trigger")
		return Batch{}
	}
}

func startWatcher(t *testing.T, root string, opts Options) *collector {
	t.Helper()

	w, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := newCollector()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, c.onTrigger)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return c
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func contains(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}

func TestWatch_TracksSubdirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}

	w, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if got := w.Watched(); got != 3 {
		t.Errorf("Watched() = %d, want 3", got)
	}
	if w.opts.Debounce != DefaultDebounce {
		t.Errorf("Debounce = %v, want %v", w.opts.Debounce, DefaultDebounce)
	}
}

func TestWatch_RootErrors(t *testing.T) {
	w, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	dir := t.TempDir()
	if err := w.Watch(filepath.Join(dir, "missing")); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Watch(missing) error = %v, want ErrNotFound", err)
	}

	file := filepath.Join(dir, "file")
	writeFile(t, file, "x")
	if err := w.Watch(file); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Watch(file) error = %v, want ErrNotFound", err)
	}
}

func TestRun_DebouncesBurst(t *testing.T) {
	root := t.TempDir()
	c := startWatcher(t, root, Options{Debounce: 200 * time.Millisecond})

	for _, name := range []string{"one.txt", "two.txt", "three.txt"} {
		writeFile(t, filepath.Join(root, name), name)
	}

	b := c.next(t)
	for _, name := range []string{"one.txt", "two.txt", "three.txt"} {
		if !contains(b.Paths, filepath.Join(root, name)) {
			t.Errorf("batch %v missing %s", b.Paths, name)
		}
	}
	if b.Events < 3 {
		t.Errorf("Events = %d, want >= 3", b.Events)
	}

	select {
	case extra := <-c.ch:
		t.Errorf("unexpected second trigger: %v", extra.Paths)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestRun_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	c := startWatcher(t, root, Options{Debounce: 100 * time.Millisecond})

	sub := filepath.Join(root, "new")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if b := c.next(t); !contains(b.Paths, sub) {
		t.Errorf("batch %v missing %s", b.Paths, sub)
	}

	file := filepath.Join(sub, "inner.txt")
	writeFile(t, file, "inner")
	if b := c.next(t); !contains(b.Paths, file) {
		t.Errorf("batch %v missing %s", b.Paths, file)
	}
}

func TestRun_IgnoredNamesDoNotTrigger(t *testing.T) {
	root := t.TempDir()
	c := startWatcher(t, root, Options{
		Debounce: 100 * time.Millisecond,
		Ignore:   ignore.New(".DS_Store"),
	})

	writeFile(t, filepath.Join(root, ".DS_Store"), "junk")

	select {
	case b := <-c.ch:
		t.Errorf("ignored file triggered: %v", b.Paths)
	case <-time.After(400 * time.Millisecond):
	}

	writeFile(t, filepath.Join(root, "real.txt"), "x")
	if b := c.next(t); len(b.Paths) != 1 {
		t.Errorf("Paths = %v, want only real.txt", b.Paths)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	w, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx, func(Batch) {}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestIsSubPath(t *testing.T) {
	tests := []struct {
		path, parent string
		want         bool
	}{
		{"/a/b", "/a", true},
		{"/a", "/a", false},
		{"/ab", "/a", false},
		{"/a/b/c", "/a/b", true},
	}
	for _, tt := range tests {
		if got := isSubPath(tt.path, tt.parent); got != tt.want {
			t.Errorf("isSubPath(%q, %q) = %v, want %v", tt.path, tt.parent, got, tt.want)
		}
	}
}
