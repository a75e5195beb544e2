package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamesainslie/ldc/pkg/ldc/logging"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

// ScanFunc runs a scan, reporting progress through onProgress.
type ScanFunc func(ctx context.Context, onProgress func(types.ScanProgress)) error

// Run shows the progress view on out while scan runs and returns the
// scan's error. Warnings logged during the scan appear in the view.
// Interrupting the view cancels the scan's context.
func Run(ctx context.Context, root string, out io.Writer, scan ScanFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(root, cancel), tea.WithOutput(out))

	warnings := logging.Subscribe()
	stop := make(chan struct{})
	defer func() {
		logging.Unsubscribe(warnings)
		close(stop)
	}()
	go func() {
		for {
			select {
			case entry := <-warnings:
				if entry.Level >= logging.LevelWarn {
					p.Send(WarningMsg(entry.Message))
				}
			case <-stop:
				return
			}
		}
	}()

	result := make(chan error, 1)
	go func() {
		err := scan(ctx, func(sp types.ScanProgress) {
			p.Send(ProgressMsg(sp))
		})
		result <- err
		p.Send(DoneMsg{Err: err})
	}()

	// If the view fails the scan still runs to completion.
	_, _ = p.Run()
	return <-result
}
