package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/ldc/pkg/ldc/checksum"
	"github.com/jamesainslie/ldc/pkg/ldc/compare"
	"github.com/jamesainslie/ldc/pkg/ldc/manifest"
	"github.com/jamesainslie/ldc/pkg/ldc/report"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
	"github.com/jamesainslie/ldc/pkg/ldc/watcher"
)

func (a *app) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Compare a directory against a manifest whenever it changes",
		Long: `Watch a directory tree and compare it against a manifest after every
burst of changes. Each comparison rehashes the whole tree.

Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runWatch,
	}
	cmd.Flags().StringP("compare", "c", "", "manifest to compare the directory against")
	cmd.Flags().Duration("debounce", watcher.DefaultDebounce, "quiet period before a comparison runs")
	_ = cmd.MarkFlagRequired("compare")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	password, err := a.password(cmd)
	if err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")
	if debounce <= 0 {
		return fmt.Errorf("%w: --debounce must be positive", types.ErrConfiguration)
	}
	if err := a.load(false); err != nil {
		return err
	}

	formatter, err := report.Get(a.cfg.Format)
	if err != nil {
		return err
	}

	comparePath, _ := cmd.Flags().GetString("compare")
	baseline, err := manifest.Decode(comparePath, password)
	if err != nil {
		return err
	}

	ignoreSet, err := a.ignoreSet(cmd)
	if err != nil {
		return err
	}

	root, err := checksum.ResolveRoot(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(watcher.Options{Debounce: debounce, Ignore: ignoreSet})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(root); err != nil {
		return err
	}

	compareOnce := func() error {
		res, err := checksum.New(checksum.Options{
			Root:           root,
			Ignore:         ignoreSet,
			Workers:        a.cfg.Workers,
			SkipUnreadable: a.cfg.SkipUnreadable,
		}).Scan(ctx)
		if err != nil {
			return err
		}
		return a.write(formatter, &report.Result{
			Mode:         report.ModeCompared,
			Root:         res.Root,
			ManifestPath: comparePath,
			Baseline:     baseline,
			Current:      res.Entries,
			Diff:         compare.Compare(baseline, res.Entries),
			Stats:        res.Stats(),
			Warnings:     skippedWarnings(res.Skipped),
		})
	}

	if err := compareOnce(); err != nil {
		return err
	}
	a.printInfo("Watching %s (%d directories). Press Ctrl+C to stop.", root, w.Watched())

	err = w.Run(ctx, func(b watcher.Batch) {
		a.printVerbose("%d events on %d paths", b.Events, len(b.Paths))
		a.printInfo("\nChange detected at %s", time.Now().Format("15:04:05"))
		if err := compareOnce(); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(a.errOut, "Error: %v\n", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
