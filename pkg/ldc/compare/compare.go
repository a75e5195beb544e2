// Package compare classifies the differences between two checksum lists.
package compare

import (
	"slices"
	"strings"

	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

// Kind classifies a changed path.
type Kind string

const (
	Added    Kind = "added"
	Deleted  Kind = "deleted"
	Modified Kind = "modified"
)

// Change is one changed path with its digests. Before is empty for
// additions and After is empty for deletions.
type Change struct {
	Path   string `json:"path" yaml:"path"`
	Kind   Kind   `json:"kind" yaml:"kind"`
	Before string `json:"before,omitempty" yaml:"before,omitempty"`
	After  string `json:"after,omitempty" yaml:"after,omitempty"`
}

// Diff holds the three disjoint change sets, each sorted by path.
type Diff struct {
	Added     []string `json:"added" yaml:"added"`
	Deleted   []string `json:"deleted" yaml:"deleted"`
	Modified  []string `json:"modified" yaml:"modified"`
	Unchanged int      `json:"unchanged" yaml:"unchanged"`

	changes []Change
}

// Compare diffs current against baseline. Paths are matched exactly;
// a path present in both with different digests is modified.
func Compare(baseline, current types.ChecksumList) Diff {
	before := baseline.Index()
	after := current.Index()

	d := Diff{
		Added:    []string{},
		Deleted:  []string{},
		Modified: []string{},
	}

	for path, sum := range after {
		old, ok := before[path]
		switch {
		case !ok:
			d.Added = append(d.Added, path)
			d.changes = append(d.changes, Change{Path: path, Kind: Added, After: sum})
		case old != sum:
			d.Modified = append(d.Modified, path)
			d.changes = append(d.changes, Change{Path: path, Kind: Modified, Before: old, After: sum})
		default:
			d.Unchanged++
		}
	}

	for path, sum := range before {
		if _, ok := after[path]; !ok {
			d.Deleted = append(d.Deleted, path)
			d.changes = append(d.changes, Change{Path: path, Kind: Deleted, Before: sum})
		}
	}

	slices.Sort(d.Added)
	slices.Sort(d.Deleted)
	slices.Sort(d.Modified)
	slices.SortFunc(d.changes, func(a, b Change) int {
		return strings.Compare(a.Path, b.Path)
	})

	return d
}

// Empty reports whether the two lists describe the same tree.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Deleted) == 0 && len(d.Modified) == 0
}

// Total returns the number of changed paths.
func (d Diff) Total() int {
	return len(d.Added) + len(d.Deleted) + len(d.Modified)
}

// Changes returns every changed path with its digests, sorted by path.
func (d Diff) Changes() []Change {
	return slices.Clone(d.changes)
}
