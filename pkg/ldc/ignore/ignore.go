// Package ignore holds the set of file names excluded from checksum scans.
//
// Names are matched against a file's base name only, so an entry such as
// "Thumbs.db" excludes that file at any depth. Optional glob patterns are
// matched against the base name as well.
package ignore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
	"github.com/spf13/viper"
)

// DefaultKey is the JSON key holding the name list in an ignore file.
const DefaultKey = "ignored_file_types"

// DefaultFileName is the conventional ignore file name.
const DefaultFileName = "ignored_files.json"

// DefaultNames are operating system metadata files that never belong in a
// fingerprint.
var DefaultNames = []string{
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	DefaultFileName,
}

// Set is a set of ignored base names plus compiled glob patterns.
// A nil *Set ignores nothing.
type Set struct {
	names    map[string]struct{}
	patterns []pattern
}

type pattern struct {
	raw string
	g   glob.Glob
}

// New returns a Set containing the given names.
func New(names ...string) *Set {
	s := &Set{names: make(map[string]struct{}, len(names))}
	s.Add(names...)
	return s
}

// Default returns a Set holding DefaultNames.
func Default() *Set {
	return New(DefaultNames...)
}

// Add inserts bare file names. Empty strings are ignored.
func (s *Set) Add(names ...string) {
	for _, n := range names {
		if n == "" {
			continue
		}
		s.names[n] = struct{}{}
	}
}

// AddPatterns compiles and adds glob patterns such as "*.tmp".
func (s *Set) AddPatterns(patterns ...string) error {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return fmt.Errorf("%w: ignore pattern %q: %v", types.ErrConfiguration, p, err)
		}
		s.patterns = append(s.patterns, pattern{raw: p, g: g})
	}
	return nil
}

// Match reports whether a file with the given base name is ignored.
func (s *Set) Match(name string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.names[name]; ok {
		return true
	}
	for _, p := range s.patterns {
		if p.g.Match(name) {
			return true
		}
	}
	return false
}

// Names returns the bare names in sorted order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.names))
	for n := range s.names {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Patterns returns the raw glob patterns in insertion order.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = p.raw
	}
	return out
}

// Len returns the number of names and patterns in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names) + len(s.patterns)
}

// LoadFile reads a list of names from a JSON document such as
//
//	{"ignored_file_types": [".DS_Store", "Thumbs.db"]}
//
// A missing file yields ErrNotFound. A non-.json path, a missing key, or a
// value that is not a list of strings yields ErrConfiguration.
func LoadFile(path, key string) ([]string, error) {
	if key == "" {
		key = DefaultKey
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ignore file %q: %w", path, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat ignore file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("ignore file %q is a directory: %w", path, types.ErrNotFound)
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, fmt.Errorf("%w: ignore file %q is not a JSON file", types.ErrConfiguration, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to parse ignore file %q: %v", types.ErrConfiguration, path, err)
	}

	if !v.IsSet(key) {
		return nil, fmt.Errorf("%w: key %q not found in %s", types.ErrConfiguration, key, path)
	}

	raw, ok := v.Get(key).([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s must be a list of file names", types.ErrConfiguration, key, path)
	}

	names := make([]string, 0, len(raw))
	for _, item := range raw {
		name, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %q in %s must be a list of file names", types.ErrConfiguration, key, path)
		}
		names = append(names, name)
	}
	return names, nil
}
