package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/ldc/pkg/ldc/config"
)

func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage ldc configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/ldc/config.yaml (if set)
  2. ~/.config/ldc/config.yaml

Environment variables override config file settings using the LDC_ prefix:
  LDC_WORKERS=8
  LDC_FORMAT=pretty
  LDC_HISTORY_ENABLED=false`,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			Long:  `Display the current configuration settings from all sources.`,
			Args:  cobra.NoArgs,
			RunE:  a.runConfigShow,
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit configuration file",
			Long: `Open the configuration file in $VISUAL, $EDITOR or vi.

If the config file doesn't exist, a default one is created first.`,
			Args: cobra.NoArgs,
			RunE: a.runConfigEdit,
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create default configuration file",
			Long:  `Create a default configuration file if one doesn't exist.`,
			Args:  cobra.NoArgs,
			RunE:  a.runConfigInit,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show configuration file path",
			Long:  `Display the path to the configuration file.`,
			Args:  cobra.NoArgs,
			RunE:  a.runConfigPath,
		},
	)
	return configCmd
}

func (a *app) runConfigShow(cmd *cobra.Command, args []string) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	if err := a.load(false); err != nil {
		return err
	}
	cfg := a.cfg

	if cfg.File != "" {
		fmt.Fprintf(a.out, "Config file: %s\n\n", cfg.File)
	} else {
		fmt.Fprintf(a.out, "Config file: (using defaults, no file found)\n\n")
	}

	fmt.Fprintln(a.out, "Current Configuration:")
	fmt.Fprintln(a.out, "----------------------")
	fmt.Fprintf(a.out, "ignore.names:            %v\n", cfg.Ignore.Names)
	fmt.Fprintf(a.out, "ignore.patterns:         %v\n", cfg.Ignore.Patterns)
	fmt.Fprintf(a.out, "ignore.file:             %s\n", cfg.Ignore.File)
	fmt.Fprintf(a.out, "output_dir:              %s\n", cfg.OutputDir)
	fmt.Fprintf(a.out, "workers:                 %d\n", cfg.Workers)
	fmt.Fprintf(a.out, "skip_unreadable:         %t\n", cfg.SkipUnreadable)
	fmt.Fprintf(a.out, "format:                  %s\n", cfg.Format)
	fmt.Fprintf(a.out, "history.enabled:         %t\n", cfg.History.Enabled)
	fmt.Fprintf(a.out, "history.path:            %s\n", cfg.History.Path)
	fmt.Fprintf(a.out, "history.retention_days:  %d\n", cfg.History.RetentionDays)
	fmt.Fprintf(a.out, "logging.level:           %s\n", cfg.Logging.Level)
	fmt.Fprintf(a.out, "logging.path:            %s\n", cfg.Logging.Path)
	fmt.Fprintf(a.out, "logging.rotation:        %s, %d backups\n", cfg.Logging.Rotation.MaxSize, cfg.Logging.Rotation.MaxBackups)

	fmt.Fprintln(a.out, "\nEnvironment Overrides:")
	fmt.Fprintln(a.out, "----------------------")
	envVars := []string{
		"LDC_IGNORE_FILE",
		"LDC_OUTPUT_DIR",
		"LDC_WORKERS",
		"LDC_SKIP_UNREADABLE",
		"LDC_FORMAT",
		"LDC_HISTORY_ENABLED",
		"LDC_HISTORY_PATH",
		"LDC_HISTORY_RETENTION_DAYS",
		"LDC_LOGGING_LEVEL",
		"LDC_LOGGING_PATH",
	}
	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Fprintf(a.out, "%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if os.Getenv(passwordEnv) != "" {
		fmt.Fprintf(a.out, "%s=(set)\n", passwordEnv)
		anyOverrides = true
	}
	if !anyOverrides {
		fmt.Fprintln(a.out, "(none)")
	}
	return nil
}

func (a *app) runConfigEdit(cmd *cobra.Command, args []string) error {
	path, _, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

func (a *app) runConfigInit(cmd *cobra.Command, args []string) error {
	path, created, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if !created {
		fmt.Fprintf(a.errOut, "Config file already exists: %s\n", path)
		fmt.Fprintln(a.errOut, "Use 'ldc config edit' to modify it.")
		return nil
	}
	fmt.Fprintf(a.errOut, "Created default config file: %s\n", path)
	return nil
}

func (a *app) runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Fprintln(a.out, path)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(a.errOut, "(file does not exist, defaults are used)")
	}
	return nil
}
