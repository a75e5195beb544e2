package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/ldc/pkg/ldc/manifest"
	"github.com/jamesainslie/ldc/pkg/ldc/report"
)

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <manifest>",
		Short: "List the entries of a manifest",
		Long: `Decode a manifest and print its entries.

The manifest's password is required unless it was saved with --no-encrypt.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runShow,
	}
}

func (a *app) runShow(cmd *cobra.Command, args []string) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	password, err := a.password(cmd)
	if err != nil {
		return err
	}
	if err := a.load(false); err != nil {
		return err
	}

	formatter, err := report.Get(a.cfg.Format)
	if err != nil {
		return err
	}

	entries, err := manifest.Decode(args[0], password)
	if err != nil {
		return err
	}

	return a.write(formatter, &report.Result{
		Mode:         report.ModeShown,
		ManifestPath: args[0],
		Baseline:     entries,
	})
}
