package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

func (a *app) newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View saved manifests",
		Long: `View the index of manifests saved by ldc.

The index records where each manifest was written, which directory it
describes and when. Pruning removes index records only; manifest files
are never deleted.`,
		Args: cobra.NoArgs,
		RunE: a.runHistory,
	}
	historyCmd.Flags().IntP("limit", "l", 20, "maximum number of entries to show (0=all)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show details of a saved manifest",
		Long:  `Display a history record by its ID or a unique ID prefix.`,
		Args:  cobra.ExactArgs(1),
		RunE:  a.runHistoryShow,
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old history records",
		Long: `Remove history records older than --older-than, which accepts a
number of days (90d) or a Go duration (36h). Defaults to the configured
retention period.`,
		Args: cobra.NoArgs,
		RunE: a.runHistoryPrune,
	}
	pruneCmd.Flags().String("older-than", "", "age of records to remove, e.g. 30d or 12h")

	historyCmd.AddCommand(showCmd, pruneCmd)
	return historyCmd
}

func (a *app) runHistory(cmd *cobra.Command, args []string) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	if err := a.load(false); err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := a.openHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	records, err := store.List(limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(records) == 0 {
		a.printInfo("No history entries found.")
		a.printInfo("Run 'ldc [directory]' to save a manifest.")
		return nil
	}

	fmt.Fprintf(a.out, "%-8s  %-16s  %-8s  %-6s  %s\n", "ID", "SAVED", "ENTRIES", "MASKED", "ROOT")
	fmt.Fprintln(a.out, strings.Repeat("-", 80))
	for _, rec := range records {
		fmt.Fprintf(a.out, "%-8s  %-16s  %-8s  %-6s  %s\n",
			shortID(rec.ID),
			humanize.Time(rec.CreatedAt),
			humanize.Comma(int64(rec.Entries)),
			yesNo(rec.Encrypted),
			rec.Root,
		)
	}
	fmt.Fprintln(a.out, strings.Repeat("-", 80))

	a.printInfo("Showing %d entries. Use --limit to see more.", len(records))
	a.printInfo("Use 'ldc history show <id>' for details on a specific entry.")
	return nil
}

func (a *app) runHistoryShow(cmd *cobra.Command, args []string) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	if err := a.load(false); err != nil {
		return err
	}

	store, err := a.openHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	rec, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Fprintf(a.out, "ID:        %s\n", rec.ID)
	fmt.Fprintf(a.out, "Saved:     %s (%s)\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05 MST"), humanize.Time(rec.CreatedAt))
	fmt.Fprintf(a.out, "Manifest:  %s\n", rec.Path)
	fmt.Fprintf(a.out, "Root:      %s\n", rec.Root)
	fmt.Fprintf(a.out, "Entries:   %s\n", humanize.Comma(int64(rec.Entries)))
	fmt.Fprintf(a.out, "Masked:    %s\n", yesNo(rec.Encrypted))
	return nil
}

func (a *app) runHistoryPrune(cmd *cobra.Command, args []string) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	olderThan, _ := cmd.Flags().GetString("older-than")

	var age time.Duration
	if olderThan != "" {
		var err error
		if age, err = parseAge(olderThan); err != nil {
			return err
		}
	}

	if err := a.load(false); err != nil {
		return err
	}
	if olderThan == "" {
		days := a.cfg.History.RetentionDays
		if days <= 0 {
			return fmt.Errorf("%w: no retention period configured, pass --older-than", types.ErrConfiguration)
		}
		age = time.Duration(days) * 24 * time.Hour
	}

	store, err := a.openHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	removed, err := store.Prune(age)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	a.printInfo("Removed %d history records older than %s.", removed, formatAge(age))
	return nil
}

// parseAge accepts a whole number of days ("30d") or a Go duration.
func parseAge(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%w: invalid age %q", types.ErrConfiguration, s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: invalid age %q", types.ErrConfiguration, s)
	}
	return d, nil
}

func formatAge(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%d days", d/(24*time.Hour))
	}
	return d.String()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
