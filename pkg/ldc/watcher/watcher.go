// Package watcher turns filesystem events under a directory tree into
// debounced rescan triggers.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/ldc/pkg/ldc/ignore"
	"github.com/jamesainslie/ldc/pkg/ldc/logging"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

var logger = logging.Get("watcher")

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce is how long the tree must stay quiet before a trigger fires.
	Debounce time.Duration

	// Ignore suppresses events for matching base names.
	Ignore *ignore.Set
}

// Batch is the set of paths that changed during one quiet period.
type Batch struct {
	// Paths holds the absolute paths that saw events, sorted and unique.
	Paths []string

	// Events is the raw number of events coalesced into the batch.
	Events int
}

// Watcher watches a directory tree recursively. Symlinks are never
// followed.
type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	paths  map[string]bool
	closed bool
}

// New creates a Watcher.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		opts:    opts,
		watcher: fsw,
		paths:   make(map[string]bool),
	}, nil
}

// Watch adds root and every directory below it.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("watch root %s: %w", root, types.ErrNotFound)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory: %w", root, types.ErrNotFound)
	}

	if err := w.addWatch(absRoot); err != nil {
		return err
	}
	w.addTree(absRoot)
	return nil
}

// Watched returns the number of directories currently watched.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths)
}

// Run delivers batches to onTrigger until ctx is cancelled or the watcher
// is closed. onTrigger runs on the Run goroutine; events arriving while it
// runs are collected into the next batch.
func (w *Watcher) Run(ctx context.Context, onTrigger func(Batch)) error {
	pending := make(map[string]struct{})
	events := 0

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			events++
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)

		case <-fire:
			fire = nil
			batch := Batch{Events: events, Paths: make([]string, 0, len(pending))}
			for p := range pending {
				batch.Paths = append(batch.Paths, p)
			}
			slices.Sort(batch.Paths)
			clear(pending)
			events = 0

			logger.Debug("change batch", "paths", len(batch.Paths), "events", batch.Events)
			onTrigger(batch)
		}
	}
}

// Close stops watching and releases the fsnotify handle.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// handleEvent maintains the watch set and reports whether the event
// counts as a content change.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if w.opts.Ignore.Match(filepath.Base(event.Name)) {
		return false
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(event.Name)
		if err == nil && info.IsDir() {
			_ = w.addWatch(event.Name)
			w.addTree(event.Name)
		}
		return true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.removeTree(event.Name)
		return true
	case event.Has(fsnotify.Write):
		return true
	default:
		// Chmod alone does not change content.
		return false
	}
}

// addTree watches every directory below dir, skipping symlinks.
func (w *Watcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtrees are not watched
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() && path != dir {
			_ = w.addWatch(path)
		}
		return nil
	})
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.watcher.Add(path); err != nil {
		logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

func (w *Watcher) removeTree(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.watcher.Remove(p)
			delete(w.paths, p)
		}
	}
}

func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
