// Package types provides the core data types shared by the ldc packages:
// checksum entries and lists, scan progress, and the error kinds every
// stage of the pipeline reports.
package types

import (
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ChecksumEntry records the content digest of one regular file.
type ChecksumEntry struct {
	// Path is relative to the scanned root and always uses forward slashes.
	Path string `json:"path" yaml:"path"`

	// Digest is the lowercase hex SHA-256 of the file's full content.
	Digest string `json:"digest" yaml:"digest"`
}

// ChecksumList is a sequence of entries sorted by Path ascending.
// Two scans of an unchanged tree produce identical lists.
type ChecksumList []ChecksumEntry

// Sort orders the list by path, byte-wise.
func (l ChecksumList) Sort() {
	slices.SortFunc(l, func(a, b ChecksumEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
}

// IsSorted reports whether the list is in canonical order.
func (l ChecksumList) IsSorted() bool {
	return slices.IsSortedFunc(l, func(a, b ChecksumEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
}

// Paths returns the entry paths in list order.
func (l ChecksumList) Paths() []string {
	paths := make([]string, len(l))
	for i, e := range l {
		paths[i] = e.Path
	}
	return paths
}

// Index maps each path to its digest.
func (l ChecksumList) Index() map[string]string {
	m := make(map[string]string, len(l))
	for _, e := range l {
		m[e.Path] = e.Digest
	}
	return m
}

// Equal reports whether both lists hold the same entries in the same order.
func (l ChecksumList) Equal(other ChecksumList) bool {
	return slices.Equal(l, other)
}

// ScanProgress is a snapshot of a running scan, delivered to progress
// callbacks.
type ScanProgress struct {
	// FilesFound is the number of regular files discovered so far.
	FilesFound int64 `json:"files_found"`

	// FilesHashed is the number of files whose digest is complete.
	FilesHashed int64 `json:"files_hashed"`

	// BytesHashed is the total content size hashed so far.
	BytesHashed int64 `json:"bytes_hashed"`

	// CurrentPath is the file most recently picked up by a worker.
	CurrentPath string `json:"current_path"`

	// WalkComplete is set once enumeration has finished and only hashing remains.
	WalkComplete bool `json:"walk_complete,omitempty"`
}

// ScanError pairs a path with the reason it could not be hashed.
type ScanError struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// ScanStats summarizes a finished scan for reporting.
type ScanStats struct {
	FilesHashed int64         `json:"files_hashed" yaml:"files_hashed"`
	BytesHashed int64         `json:"bytes_hashed" yaml:"bytes_hashed"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
}

// FormatSize formats bytes using binary (IEC) units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}
