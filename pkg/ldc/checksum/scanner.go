package checksum

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/ldc/pkg/ldc/ignore"
	"github.com/jamesainslie/ldc/pkg/ldc/logging"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
	"golang.org/x/sync/errgroup"
)

var logger = logging.Get("checksum")

// Result is the outcome of a completed scan.
type Result struct {
	// Root is the resolved absolute path that was scanned.
	Root string

	// Entries is sorted by path.
	Entries types.ChecksumList

	// Skipped holds files and directories that could not be read. It is
	// only populated when Options.SkipUnreadable is set.
	Skipped []types.ScanError

	FilesHashed int64
	BytesHashed int64
	Elapsed     time.Duration
}

// Stats summarizes the result for reporting.
func (r *Result) Stats() types.ScanStats {
	return types.ScanStats{
		FilesHashed: r.FilesHashed,
		BytesHashed: r.BytesHashed,
		Elapsed:     r.Elapsed,
	}
}

// Engine walks one directory tree and hashes its regular files.
type Engine struct {
	opts Options

	filesFound   atomic.Int64
	filesHashed  atomic.Int64
	bytesHashed  atomic.Int64
	walkComplete atomic.Bool
	currentPath  atomic.Value
	lastProgress atomic.Int64

	skipped   []types.ScanError
	skippedMu sync.Mutex
}

type fileJob struct {
	rel string
	abs string
}

// New creates an Engine. Unset options get defaults.
func New(opts Options) *Engine {
	opts.applyDefaults()

	e := &Engine{opts: opts}
	e.currentPath.Store("")
	return e
}

// Scan fingerprints root, skipping files whose base name is in ignoreSet.
func Scan(ctx context.Context, root string, ignoreSet *ignore.Set) (types.ChecksumList, error) {
	res, err := New(Options{Root: root, Ignore: ignoreSet}).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// Scan walks the tree and returns the sorted checksum list.
// It blocks until complete or ctx is cancelled.
func (e *Engine) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()

	root, err := ResolveRoot(e.opts.Root)
	if err != nil {
		return nil, err
	}

	logger.Debug("scan started", "root", root, "workers", e.opts.Workers, "ignored", e.opts.Ignore.Len())
	e.currentPath.Store(root)
	e.reportProgressForce()

	jobs, err := e.walk(ctx, root)
	if err != nil {
		return nil, err
	}
	e.walkComplete.Store(true)
	e.reportProgressForce()

	entries, err := e.hashAll(ctx, jobs)
	if err != nil {
		return nil, err
	}
	entries.Sort()

	e.currentPath.Store("")
	e.reportProgressForce()

	slices.SortFunc(e.skipped, func(a, b types.ScanError) int {
		return strings.Compare(a.Path, b.Path)
	})

	res := &Result{
		Root:        root,
		Entries:     entries,
		Skipped:     e.skipped,
		FilesHashed: e.filesHashed.Load(),
		BytesHashed: e.bytesHashed.Load(),
		Elapsed:     time.Since(start),
	}
	logger.Info("scan complete",
		"root", root,
		"files", res.FilesHashed,
		"bytes", res.BytesHashed,
		"skipped", len(res.Skipped),
		"elapsed", res.Elapsed)
	return res, nil
}

// ResolveRoot returns the absolute, symlink-resolved form of root.
// A missing root or one that is not a directory yields ErrNotFound.
func ResolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("directory %s: %w", abs, types.ErrNotFound)
		}
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory: %w", abs, types.ErrNotFound)
	}
	return resolved, nil
}

// walk enumerates regular files under root. Symlinks are never followed.
func (e *Engine) walk(ctx context.Context, root string) ([]fileJob, error) {
	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: e.opts.Workers,
	}

	var (
		jobs   []fileJob
		jobsMu sync.Mutex
	)

	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return e.walkError(root, path, err)
		}

		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			logger.Debug("skipping symlink", "path", path)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if e.opts.Ignore.Match(d.Name()) {
			return nil
		}

		rel := e.relative(root, path)
		jobsMu.Lock()
		jobs = append(jobs, fileJob{rel: rel, abs: path})
		jobsMu.Unlock()

		e.filesFound.Add(1)
		e.reportProgress()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Hash in path order so progress reads naturally.
	slices.SortFunc(jobs, func(a, b fileJob) int {
		return strings.Compare(a.rel, b.rel)
	})
	return jobs, nil
}

// hashAll digests every job on a bounded pool. Entries for skipped files
// are dropped.
func (e *Engine) hashAll(ctx context.Context, jobs []fileJob) (types.ChecksumList, error) {
	results := make([]*types.ChecksumEntry, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			e.currentPath.Store(j.rel)
			digest, n, err := HashFile(j.abs)
			if err != nil {
				if !e.opts.SkipUnreadable {
					return fmt.Errorf("failed to hash %s: %w", j.rel, err)
				}
				e.skip(j.rel, err)
				return nil
			}

			results[i] = &types.ChecksumEntry{Path: j.rel, Digest: digest}
			e.filesHashed.Add(1)
			e.bytesHashed.Add(n)
			e.reportProgress()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make(types.ChecksumList, 0, len(results))
	for _, r := range results {
		if r != nil {
			entries = append(entries, *r)
		}
	}
	return entries, nil
}

func (e *Engine) relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// walkError handles a path the walk could not read. fastwalk reports a
// failed directory read after the directory was entered, so returning nil
// is enough to leave it out; SkipDir at that point would end the walk.
func (e *Engine) walkError(root, path string, err error) error {
	if !e.opts.SkipUnreadable {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	e.skip(e.relative(root, path), err)
	return nil
}

// skip records an unreadable path. It is always logged.
func (e *Engine) skip(rel string, err error) {
	logger.Warn("skipping unreadable path", "path", rel, "error", err)

	e.skippedMu.Lock()
	e.skipped = append(e.skipped, types.ScanError{Path: rel, Error: err.Error()})
	e.skippedMu.Unlock()
}

// reportProgress calls the progress callback at most every 10ms.
func (e *Engine) reportProgress() {
	if e.opts.OnProgress == nil {
		return
	}

	now := time.Now().UnixMilli()
	last := e.lastProgress.Load()
	if now-last < 10 {
		return
	}
	if !e.lastProgress.CompareAndSwap(last, now) {
		return
	}
	e.sendProgress()
}

// reportProgressForce bypasses the throttle for phase changes.
func (e *Engine) reportProgressForce() {
	if e.opts.OnProgress == nil {
		return
	}
	e.lastProgress.Store(time.Now().UnixMilli())
	e.sendProgress()
}

func (e *Engine) sendProgress() {
	current, _ := e.currentPath.Load().(string)

	e.opts.OnProgress(types.ScanProgress{
		FilesFound:   e.filesFound.Load(),
		FilesHashed:  e.filesHashed.Load(),
		BytesHashed:  e.bytesHashed.Load(),
		CurrentPath:  current,
		WalkComplete: e.walkComplete.Load(),
	})
}
