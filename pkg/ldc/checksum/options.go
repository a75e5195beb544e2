// Package checksum reduces a directory tree to a canonically ordered list
// of (relative path, SHA-256 digest) pairs.
//
// Enumeration uses fastwalk without following symbolic links; hashing runs
// on a bounded worker pool and the result is re-sorted by path, so the
// output is deterministic for an unchanged tree.
package checksum

import (
	"runtime"

	"github.com/jamesainslie/ldc/pkg/ldc/ignore"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

// Options configures a scan.
type Options struct {
	// Root is the directory to fingerprint. It is resolved to an absolute,
	// symlink-free path before walking.
	Root string

	// Ignore lists base names excluded from the scan. Nil ignores nothing.
	Ignore *ignore.Set

	// Workers bounds concurrent file hashing. Values below 1 use
	// DefaultWorkers; values above 64 are capped.
	Workers int

	// SkipUnreadable records unreadable files and directories in
	// Result.Skipped and continues. When false the first failure aborts
	// the scan.
	SkipUnreadable bool

	// OnProgress is called periodically during the scan.
	// It must be safe to call from multiple goroutines.
	OnProgress func(types.ScanProgress)
}

// applyDefaults fills in unset values and caps Workers.
func (o *Options) applyDefaults() {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Workers < 1 {
		o.Workers = DefaultWorkers()
	}
	o.Workers = min(o.Workers, maxWorkers)
}

// Worker pool limits.
const (
	minWorkers = 4
	maxWorkers = 64
)

// DefaultWorkers sizes the hashing pool for this machine.
func DefaultWorkers() int {
	return workersFor(runtime.NumCPU())
}

// workersFor returns twice the core count within [minWorkers, maxWorkers].
// Hashing alternates between waiting on reads and saturating a core.
func workersFor(cpus int) int {
	return min(max(cpus*2, minWorkers), maxWorkers)
}
