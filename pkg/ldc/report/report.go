// Package report renders the outcome of an ldc run in several formats.
//
// Formatters are looked up by name from a registry:
//
//	f, err := report.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := f.Format(&buf, result); err != nil {
//	    return err
//	}
package report

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/ldc/pkg/ldc/compare"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

// Mode identifies what a Result describes.
type Mode string

const (
	// ModeSaved reports a newly written manifest.
	ModeSaved Mode = "saved"

	// ModeCompared reports a comparison against an existing manifest.
	ModeCompared Mode = "compared"

	// ModeShown lists the entries of an existing manifest.
	ModeShown Mode = "shown"
)

// Result is the data handed to a Formatter.
type Result struct {
	// Mode selects which of the fields below are meaningful.
	Mode Mode

	// Root is the scanned directory. Empty for ModeShown.
	Root string

	// ManifestPath is the manifest written, compared against, or shown.
	ManifestPath string

	// Baseline holds the manifest entries for ModeCompared and ModeShown.
	Baseline types.ChecksumList

	// Current holds the scanned entries for ModeSaved and ModeCompared.
	Current types.ChecksumList

	// Diff is set for ModeCompared.
	Diff compare.Diff

	Stats types.ScanStats

	// Warnings are surfaced to the user, e.g. paths skipped as unreadable.
	Warnings []string

	// Existing is set when ModeSaved found a manifest with identical
	// content already present.
	Existing bool
}

// Entries returns the list a Result is about: the manifest for ModeShown,
// the scan otherwise.
func (r *Result) Entries() types.ChecksumList {
	if r.Mode == ModeShown {
		return r.Baseline
	}
	return r.Current
}

// Formatter renders a Result.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps names to formatter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds or replaces a formatter factory.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q", types.ErrConfiguration, name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available lists the default registry's formatters.
func Available() []string {
	return DefaultRegistry.Available()
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
