package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/ldc/cmd/ldc/tui"
	"github.com/jamesainslie/ldc/pkg/ldc/checksum"
	"github.com/jamesainslie/ldc/pkg/ldc/compare"
	"github.com/jamesainslie/ldc/pkg/ldc/config"
	"github.com/jamesainslie/ldc/pkg/ldc/history"
	"github.com/jamesainslie/ldc/pkg/ldc/ignore"
	"github.com/jamesainslie/ldc/pkg/ldc/logging"
	"github.com/jamesainslie/ldc/pkg/ldc/manifest"
	"github.com/jamesainslie/ldc/pkg/ldc/report"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

// passwordEnv may hold the manifest password instead of --password.
const passwordEnv = "LDC_PASSWORD"

// app holds the state shared by one invocation's commands.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	cfgFile string

	out    io.Writer
	errOut io.Writer
}

// newRootCmd builds the command tree writing reports to out and
// diagnostics to errOut.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "ldc [directory]",
		Short: "Fingerprint a directory tree and detect changes",
		Long: `ldc hashes every file under a directory and saves the result as a
manifest, optionally masked with a password. Given an existing manifest
it reports which files were added, deleted or modified since.

The manifest file is named after the SHA-256 of its unmasked content, so
the same tree always produces the same file name.

Examples:
  ldc --no-encrypt .                        # Save a manifest for the current directory
  ldc -p secret -o /backups /srv/www        # Save a masked manifest in /backups
  ldc -p secret --compare m.comparator www  # Compare www against a manifest
  ldc show --no-encrypt m.comparator        # List a manifest's entries
  ldc watch --compare m.comparator www      # Re-compare on every change`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runGenerate,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ~/.config/ldc/config.yaml)")
	pf.StringP("password", "p", "", "password used to mask the manifest (or $"+passwordEnv+")")
	pf.Bool("no-encrypt", false, "store or read the manifest unmasked")
	pf.StringP("format", "f", "", "report format: "+fmt.Sprint(report.Available()))
	pf.String("ignore-file", "", "JSON file listing file names to ignore")
	pf.StringSlice("ignore", nil, "file names to ignore (can be specified multiple times)")
	pf.IntP("workers", "w", 0, "concurrent hashing workers (0=auto)")
	pf.Bool("skip-unreadable", false, "report unreadable files instead of failing")
	pf.BoolP("verbose", "v", false, "debug output")
	pf.BoolP("quiet", "q", false, "minimal output")

	f := rootCmd.Flags()
	f.StringP("output", "o", "", "directory the manifest is written to")
	f.StringP("compare", "c", "", "manifest to compare the directory against")
	f.Bool("progress", false, "show an interactive progress view while hashing")

	rootCmd.AddCommand(
		a.newShowCmd(),
		a.newWatchCmd(),
		a.newHistoryCmd(),
		a.newConfigCmd(),
		newVersionCmd(out),
	)
	return rootCmd
}

// setup prepares viper and binds the command's flags. It touches no files.
func (a *app) setup(cmd *cobra.Command) error {
	v, err := config.New()
	if err != nil {
		return err
	}
	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	}

	bindings := map[string]string{
		"format":          "format",
		"ignore.file":     "ignore-file",
		"workers":         "workers",
		"skip_unreadable": "skip-unreadable",
		"output_dir":      "output",
		"password":        "password",
		"verbose":         "verbose",
		"quiet":           "quiet",
	}
	for key, name := range bindings {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
	_ = v.BindEnv("password", passwordEnv)

	a.v = v
	return nil
}

// load reads the configuration and starts logging.
func (a *app) load(progressView bool) error {
	cfg, err := config.Read(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	lc, err := cfg.LoggingConfig()
	if err != nil {
		return err
	}
	if a.v.GetBool("verbose") {
		lc.ConsoleLevel = logging.LevelDebug.String()
	}
	lc.Quiet = progressView || a.v.GetBool("quiet")
	if err := logging.Init(lc); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	if cfg.File != "" {
		a.printVerbose("Using config file %s", cfg.File)
	}
	return nil
}

// password resolves the masking password. Exactly one of a password and
// --no-encrypt must be given; the empty string means no masking.
func (a *app) password(cmd *cobra.Command) (string, error) {
	pw := a.v.GetString("password")
	noEncrypt, _ := cmd.Flags().GetBool("no-encrypt")

	switch {
	case pw != "" && noEncrypt:
		return "", fmt.Errorf("%w: --password and --no-encrypt are mutually exclusive", types.ErrConfiguration)
	case pw == "" && !noEncrypt:
		return "", fmt.Errorf("%w: a password is required, or pass --no-encrypt", types.ErrConfiguration)
	}
	return pw, nil
}

func (a *app) runGenerate(cmd *cobra.Command, args []string) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	password, err := a.password(cmd)
	if err != nil {
		return err
	}
	comparePath, _ := cmd.Flags().GetString("compare")
	if cmd.Flags().Changed("output") && comparePath != "" {
		return fmt.Errorf("%w: --output and --compare are mutually exclusive", types.ErrConfiguration)
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	showProgress, _ := cmd.Flags().GetBool("progress")
	showProgress = showProgress && isTerminal(a.errOut)
	if err := a.load(showProgress); err != nil {
		return err
	}

	formatter, err := report.Get(a.cfg.Format)
	if err != nil {
		return err
	}

	// A bad password or corrupt manifest fails before any hashing.
	var baseline types.ChecksumList
	if comparePath != "" {
		baseline, err = manifest.Decode(comparePath, password)
		if err != nil {
			return err
		}
	}

	ignoreSet, err := a.ignoreSet(cmd)
	if err != nil {
		return err
	}

	res, err := a.scan(cmd.Context(), root, ignoreSet, showProgress)
	if err != nil {
		return err
	}

	result := &report.Result{
		Root:     res.Root,
		Current:  res.Entries,
		Stats:    res.Stats(),
		Warnings: skippedWarnings(res.Skipped),
	}

	if comparePath != "" {
		result.Mode = report.ModeCompared
		result.ManifestPath = comparePath
		result.Baseline = baseline
		result.Diff = compare.Compare(baseline, res.Entries)
	} else {
		result.Mode = report.ModeSaved
		if err := a.save(result, password); err != nil {
			return err
		}
	}

	return a.write(formatter, result)
}

// save writes the manifest for result.Current and records it in history.
func (a *app) save(result *report.Result, password string) error {
	dir := a.cfg.OutputDir

	_, existing, err := manifest.Exists(result.Current, dir)
	if err != nil {
		return err
	}

	path, err := manifest.Encode(result.Current, manifest.Options{Password: password, Dir: dir})
	if err != nil {
		return err
	}
	result.ManifestPath = path
	result.Existing = existing

	if existing || !a.cfg.History.Enabled {
		return nil
	}
	if err := a.record(result, password != ""); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("manifest not recorded in history: %v", err))
	}
	return nil
}

// record adds a saved manifest to the history index and prunes records
// past the retention period.
func (a *app) record(result *report.Result, encrypted bool) error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	abs, err := filepath.Abs(result.ManifestPath)
	if err != nil {
		abs = result.ManifestPath
	}
	rec := &history.Record{
		Name:      filepath.Base(result.ManifestPath),
		Path:      abs,
		Root:      result.Root,
		Entries:   len(result.Current),
		Encrypted: encrypted,
	}
	if err := store.Add(rec); err != nil {
		return err
	}
	a.printVerbose("Recorded manifest in history as %s", rec.ID)

	if days := a.cfg.History.RetentionDays; days > 0 {
		removed, err := store.Prune(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			return err
		}
		if removed > 0 {
			a.printVerbose("Pruned %d history records older than %d days", removed, days)
		}
	}
	return nil
}

func (a *app) openHistory() (*history.Store, error) {
	path := a.cfg.History.Path
	if path == "" {
		path = history.DefaultPath()
	}
	return history.Open(path)
}

// ignoreSet combines the configured ignore set with --ignore names.
func (a *app) ignoreSet(cmd *cobra.Command) (*ignore.Set, error) {
	set, err := a.cfg.IgnoreSet()
	if err != nil {
		return nil, err
	}
	if names, _ := cmd.Flags().GetStringSlice("ignore"); len(names) > 0 {
		set.Add(names...)
	}
	return set, nil
}

// scan hashes root, showing the progress view when requested.
func (a *app) scan(ctx context.Context, root string, ignoreSet *ignore.Set, showProgress bool) (*checksum.Result, error) {
	opts := checksum.Options{
		Root:           root,
		Ignore:         ignoreSet,
		Workers:        a.cfg.Workers,
		SkipUnreadable: a.cfg.SkipUnreadable,
	}

	if !showProgress {
		return checksum.New(opts).Scan(ctx)
	}

	var res *checksum.Result
	err := tui.Run(ctx, root, a.errOut, func(ctx context.Context, onProgress func(types.ScanProgress)) error {
		opts.OnProgress = onProgress
		var err error
		res, err = checksum.New(opts).Scan(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *app) write(formatter report.Formatter, result *report.Result) error {
	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return err
	}
	_, err := a.out.Write(buf.Bytes())
	return err
}

func skippedWarnings(skipped []types.ScanError) []string {
	if len(skipped) == 0 {
		return nil
	}
	warnings := make([]string, 0, len(skipped))
	for _, s := range skipped {
		warnings = append(warnings, fmt.Sprintf("skipped %s: %s", s.Path, s.Error))
	}
	return warnings
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printVerbose prints a message if verbose mode is enabled.
func (a *app) printVerbose(format string, args ...interface{}) {
	if a.v != nil && a.v.GetBool("verbose") && !a.v.GetBool("quiet") {
		fmt.Fprintf(a.errOut, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func (a *app) printInfo(format string, args ...interface{}) {
	if a.v == nil || !a.v.GetBool("quiet") {
		fmt.Fprintf(a.errOut, format+"\n", args...)
	}
}
