package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/ldc/pkg/ldc/compare"
)

// PrettyFormatter renders styled terminal output with lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.header(r))
	w.WriteString("\n")

	switch r.Mode {
	case ModeSaved:
		w.WriteString(f.saved(r))
	case ModeCompared:
		w.WriteString(f.diff(r))
	case ModeShown:
		w.WriteString(f.entries(r))
	default:
		return fmt.Errorf("unknown report mode %q", r.Mode)
	}

	w.WriteString(f.footer(r))
	w.WriteString("\n")

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.warnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) header(r *Result) string {
	var lines []string

	if r.Root != "" {
		lines = append(lines, LabelStyle.Render("Directory:")+" "+ValueStyle.Render(r.Root))
	}
	if r.ManifestPath != "" {
		lines = append(lines, LabelStyle.Render("Manifest:")+"  "+ValueStyle.Render(r.ManifestPath))
	}
	if r.Stats.FilesHashed > 0 || r.Stats.Elapsed > 0 {
		scanned := fmt.Sprintf("%s files, %s in %s",
			humanize.Comma(r.Stats.FilesHashed),
			humanize.IBytes(uint64(r.Stats.BytesHashed)),
			formatDuration(r.Stats.Elapsed))
		lines = append(lines, LabelStyle.Render("Hashed:")+"    "+ValueStyle.Render(scanned))
	}
	if len(lines) == 0 {
		lines = append(lines, TitleStyle.Render("ldc"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) saved(r *Result) string {
	if r.Existing {
		return MutedStyle.Render("  Manifest with identical content already present") + "\n"
	}
	return SuccessStyle.Render("  Manifest saved") + "\n"
}

func (f *PrettyFormatter) diff(r *Result) string {
	if r.Diff.Empty() {
		return SuccessStyle.Render("  No differences found") + "\n"
	}

	var sb strings.Builder
	for _, c := range r.Diff.Changes() {
		var marker string
		var style lipgloss.Style
		switch c.Kind {
		case compare.Added:
			marker, style = "+", AddedStyle
		case compare.Deleted:
			marker, style = "-", DeletedStyle
		default:
			marker, style = "*", ModifiedStyle
		}
		sb.WriteString("  ")
		sb.WriteString(style.Render(marker + " " + c.Path))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) entries(r *Result) string {
	if len(r.Baseline) == 0 {
		return MutedStyle.Render("  Manifest is empty") + "\n"
	}

	var sb strings.Builder
	for _, e := range r.Baseline {
		sb.WriteString("  ")
		sb.WriteString(MutedStyle.Render(e.Digest[:min(12, len(e.Digest))]))
		sb.WriteString("  ")
		sb.WriteString(ValueStyle.Render(e.Path))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) footer(r *Result) string {
	var parts []string

	switch r.Mode {
	case ModeCompared:
		d := r.Diff
		parts = append(parts,
			AddedStyle.Render(fmt.Sprintf("+%s added", humanize.Comma(int64(len(d.Added))))),
			DeletedStyle.Render(fmt.Sprintf("-%s deleted", humanize.Comma(int64(len(d.Deleted))))),
			ModifiedStyle.Render(fmt.Sprintf("*%s modified", humanize.Comma(int64(len(d.Modified))))),
			MutedStyle.Render(fmt.Sprintf("%s unchanged", humanize.Comma(int64(d.Unchanged)))),
		)
	default:
		n := int64(len(r.Entries()))
		parts = append(parts, LabelStyle.Render("Entries:")+" "+ValueStyle.Render(humanize.Comma(n)))
	}

	parts = append(parts, MutedStyle.Render("Use --format plain for unformatted output"))
	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) warnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
