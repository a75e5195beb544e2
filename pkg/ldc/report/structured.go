package report

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/ldc/pkg/ldc/compare"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

// document is the shape shared by the json and yaml formats.
type document struct {
	Mode     Mode                  `json:"mode" yaml:"mode"`
	Root     string                `json:"root,omitempty" yaml:"root,omitempty"`
	Manifest string                `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Existing bool                  `json:"existing,omitempty" yaml:"existing,omitempty"`
	Entries  []types.ChecksumEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
	Diff     *diffDocument         `json:"diff,omitempty" yaml:"diff,omitempty"`
	Stats    *statsDocument        `json:"stats,omitempty" yaml:"stats,omitempty"`
	Warnings []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type diffDocument struct {
	Added     []string         `json:"added" yaml:"added"`
	Deleted   []string         `json:"deleted" yaml:"deleted"`
	Modified  []string         `json:"modified" yaml:"modified"`
	Unchanged int              `json:"unchanged" yaml:"unchanged"`
	Changes   []compare.Change `json:"changes" yaml:"changes"`
}

type statsDocument struct {
	FilesHashed int64  `json:"files_hashed" yaml:"files_hashed"`
	BytesHashed int64  `json:"bytes_hashed" yaml:"bytes_hashed"`
	Elapsed     string `json:"elapsed,omitempty" yaml:"elapsed,omitempty"`
}

func buildDocument(r *Result) document {
	doc := document{
		Mode:     r.Mode,
		Root:     r.Root,
		Manifest: r.ManifestPath,
		Existing: r.Existing,
		Warnings: r.Warnings,
	}

	switch r.Mode {
	case ModeCompared:
		doc.Diff = &diffDocument{
			Added:     nonNil(r.Diff.Added),
			Deleted:   nonNil(r.Diff.Deleted),
			Modified:  nonNil(r.Diff.Modified),
			Unchanged: r.Diff.Unchanged,
			Changes:   r.Diff.Changes(),
		}
		if doc.Diff.Changes == nil {
			doc.Diff.Changes = []compare.Change{}
		}
	default:
		doc.Entries = r.Entries()
	}

	if r.Mode != ModeShown {
		doc.Stats = &statsDocument{
			FilesHashed: r.Stats.FilesHashed,
			BytesHashed: r.Stats.BytesHashed,
			Elapsed:     r.Stats.Elapsed.String(),
		}
	}
	return doc
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// JSONFormatter writes one indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

// JSONLFormatter writes one compact JSON object per line: a change per
// line for comparisons, an entry per line otherwise.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	if r.Mode == ModeCompared {
		for _, c := range r.Diff.Changes() {
			if err := encoder.Encode(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, e := range r.Entries() {
		if err := encoder.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// YAMLFormatter writes one YAML document.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(buildDocument(r)); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("json", func() Formatter { return &JSONFormatter{} })
	Register("jsonl", func() Formatter { return &JSONLFormatter{} })
	Register("yaml", func() Formatter { return &YAMLFormatter{} })
}

var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*JSONLFormatter)(nil)
	_ Formatter = (*YAMLFormatter)(nil)
)
