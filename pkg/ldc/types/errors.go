package types

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Error kinds reported by the pipeline. Callers match them with errors.Is.
var (
	// ErrNotFound is returned when a scan root or manifest does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt is returned when a manifest fails UTF-8 decoding or header
	// validation. A wrong password and a damaged file are indistinguishable.
	ErrCorrupt = errors.New("incorrect password or corrupted manifest file")

	// ErrMalformedEntry is returned for a manifest line without the
	// two-space separator, and for entries that cannot be serialized.
	ErrMalformedEntry = errors.New("malformed manifest entry")

	// ErrConfiguration is returned for conflicting or invalid options.
	ErrConfiguration = errors.New("invalid configuration")
)

// MalformedEntryError describes a manifest line that could not be parsed.
// It matches both ErrMalformedEntry and ErrCorrupt.
type MalformedEntryError struct {
	// Line is the 1-based line number after the header was stripped.
	Line int
	Text string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("%v: line %d: %q", ErrMalformedEntry, e.Line, truncate(e.Text, 80))
}

// Unwrap exposes both kinds so errors.Is matches either.
func (e *MalformedEntryError) Unwrap() []error {
	return []error{ErrMalformedEntry, ErrCorrupt}
}

// truncate keeps at most n bytes of s, cutting on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
