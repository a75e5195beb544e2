package report

import (
	"bytes"
	"fmt"
)

// PlainFormatter writes unstyled text suitable for scripts.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	switch r.Mode {
	case ModeSaved:
		fmt.Fprintf(w, "Manifest saved to: %s\n", r.ManifestPath)
	case ModeCompared:
		writeDiff(w, r)
	case ModeShown:
		for _, e := range r.Baseline {
			w.WriteString(e.Digest + "  " + e.Path + "\n")
		}
	default:
		return fmt.Errorf("unknown report mode %q", r.Mode)
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	return nil
}

func writeDiff(w *bytes.Buffer, r *Result) {
	d := r.Diff
	if d.Empty() {
		w.WriteString("No differences found compared to the provided manifest.\n")
		return
	}

	w.WriteString("Differences found:\n")
	sections := []struct {
		title  string
		marker string
		paths  []string
	}{
		{"Added files:", "+", d.Added},
		{"Deleted files:", "-", d.Deleted},
		{"Modified files:", "*", d.Modified},
	}
	for _, s := range sections {
		if len(s.paths) == 0 {
			continue
		}
		w.WriteString(s.title + "\n")
		for _, p := range s.paths {
			w.WriteString(" " + s.marker + " " + p + "\n")
		}
	}
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
