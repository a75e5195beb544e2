package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/jamesainslie/ldc/pkg/ldc/manifest"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

// UnifiedFormatter writes a unified diff between the baseline and current
// manifest lines. It only applies to comparisons.
type UnifiedFormatter struct {
	// Context is the number of context lines per hunk. Zero means 3.
	Context int
}

// Format writes the formatted output to the buffer.
func (f *UnifiedFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Mode != ModeCompared {
		return fmt.Errorf("%w: unified format needs a comparison (use --compare)", types.ErrConfiguration)
	}

	before, err := manifestLines(r.Baseline)
	if err != nil {
		return err
	}
	after, err := manifestLines(r.Current)
	if err != nil {
		return err
	}

	ctx := f.Context
	if ctx <= 0 {
		ctx = 3
	}

	from := r.ManifestPath
	if from == "" {
		from = "baseline"
	}
	to := r.Root
	if to == "" {
		to = "current"
	}

	return difflib.WriteUnifiedDiff(w, difflib.UnifiedDiff{
		A:        before,
		B:        after,
		FromFile: from,
		ToFile:   to,
		Context:  ctx,
	})
}

// manifestLines renders list as the "digest  path" lines of a manifest.
func manifestLines(list types.ChecksumList) ([]string, error) {
	payload, err := manifest.Marshal(list)
	if err != nil {
		return nil, err
	}
	body := strings.TrimPrefix(string(payload), manifest.Header)
	if body == "" {
		return nil, nil
	}
	return difflib.SplitLines(body), nil
}

func init() {
	Register("unified", func() Formatter {
		return &UnifiedFormatter{}
	})
}

var _ Formatter = (*UnifiedFormatter)(nil)
