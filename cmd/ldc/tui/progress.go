package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

// ProgressMsg carries a scan progress snapshot.
type ProgressMsg types.ScanProgress

// WarningMsg carries a warning logged during the scan.
type WarningMsg string

// DoneMsg is sent when the scan returns.
type DoneMsg struct {
	Err error
}

// ProgressModel shows a running scan: a spinner while files are being
// found, then a bar of hashed versus found files.
type ProgressModel struct {
	root      string
	progress  types.ScanProgress
	spinner   spinner.Model
	bar       progress.Model
	startTime time.Time
	width     int

	warnings    int
	lastWarning string

	cancel     context.CancelFunc
	cancelling bool
	done       bool
	err        error
}

// NewProgressModel creates the model. cancel is called when the user
// interrupts; the view stays up until the scan reports DoneMsg.
func NewProgressModel(root string, cancel context.CancelFunc) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return ProgressModel{
		root:      root,
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		startTime: time.Now(),
		width:     80,
		cancel:    cancel,
	}
}

// Init starts the spinner.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil

	case ProgressMsg:
		m.progress = types.ScanProgress(msg)
		return m, nil

	case WarningMsg:
		m.warnings++
		m.lastWarning = string(msg)
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the model.
func (m ProgressModel) View() string {
	width := m.width - 4
	if width < 40 {
		width = 40
	}

	var b strings.Builder

	title := titleStyle.Render("ldc")
	hint := mutedTextStyle.Render("[Ctrl+C to stop]")
	gap := width - lipgloss.Width(title) - lipgloss.Width(hint)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(title + strings.Repeat(" ", gap) + hint + "\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", width)) + "\n")
	b.WriteString(mutedTextStyle.Render("  "+truncatePath(m.root, width-2)) + "\n\n")

	b.WriteString(m.status(width) + "\n\n")

	if m.progress.WalkComplete && m.progress.FilesFound > 0 {
		m.bar.Width = width - 4
		b.WriteString("  " + m.bar.ViewAs(m.Fraction()) + "\n\n")
	}

	b.WriteString(m.stats() + "\n")

	if m.warnings > 0 {
		line := fmt.Sprintf("  %d warning(s), last: %s", m.warnings, m.lastWarning)
		b.WriteString("\n" + warningTextStyle.Render(truncatePath(line, width)) + "\n")
	}

	return boxStyle.Width(m.width - 2).Render(b.String())
}

func (m ProgressModel) status(width int) string {
	switch {
	case m.done && m.err != nil:
		return errorTextStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	case m.done:
		return successTextStyle.Render("  Hashing complete")
	case m.cancelling:
		return warningTextStyle.Render("  Stopping...")
	case !m.progress.WalkComplete:
		return fmt.Sprintf("  %s Finding files: %s", m.spinner.View(), truncatePath(m.progress.CurrentPath, width-24))
	default:
		return fmt.Sprintf("  %s Hashing: %s", m.spinner.View(), truncatePath(m.progress.CurrentPath, width-18))
	}
}

func (m ProgressModel) stats() string {
	boxes := []string{
		statBox("Found", humanize.Comma(m.progress.FilesFound)),
		statBox("Hashed", humanize.Comma(m.progress.FilesHashed)),
		statBox("Bytes", humanize.IBytes(uint64(m.progress.BytesHashed))),
		statBox("Time", formatElapsed(time.Since(m.startTime))),
	}
	parts := []string{"  "}
	for i, box := range boxes {
		if i > 0 {
			parts = append(parts, " ")
		}
		parts = append(parts, box)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// Fraction is the share of found files already hashed.
func (m ProgressModel) Fraction() float64 {
	if m.progress.FilesFound == 0 {
		return 0
	}
	f := float64(m.progress.FilesHashed) / float64(m.progress.FilesFound)
	if f > 1 {
		return 1
	}
	return f
}

// Done reports whether the scan has returned.
func (m ProgressModel) Done() bool {
	return m.done
}

// Err returns the scan error, if any.
func (m ProgressModel) Err() error {
	return m.err
}

func statBox(label, value string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		statsLabelStyle.Render(label),
		statsValueStyle.Render(value))
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Width(12).
		Align(lipgloss.Center).
		Render(content)
}

// formatElapsed formats a duration as M:SS.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", d/time.Minute, (d%time.Minute)/time.Second)
}

// truncatePath keeps the tail of s within max columns.
func truncatePath(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
