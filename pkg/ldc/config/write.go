package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const defaultConfig = `# ldc configuration

# Files skipped during a scan, matched on their base name.
ignore:
  # Exact names, added to .DS_Store, Thumbs.db, desktop.ini, ignored_files.json
  names: []
  # Glob patterns, e.g. "*.tmp"
  patterns: []
  # JSON file listing names under the key below (empty: ignored_files.json
  # in this directory, when present)
  file: ""
  key: ignored_file_types

# Directory manifests are written to (empty: current directory)
output_dir: ""

# Hashing workers (0: one per CPU)
workers: 0

# Skip unreadable files with a warning instead of aborting
skip_unreadable: false

# Report format: plain, pretty, json, jsonl, yaml, unified
format: %s

# Index of saved manifests
history:
  enabled: true
  # Empty means $XDG_DATA_HOME/ldc/history
  path: ""
  retention_days: %d

logging:
  # Log level: debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/ldc/ldc.log
  path: ""
  rotation:
    max_size: %s
    max_backups: %d
  # Per-component levels, e.g. checksum: debug
  components: {}
`

// WriteDefault writes a commented default config file unless one exists.
// It returns the path and whether a file was created.
func WriteDefault() (string, bool, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(defaultConfig, DefaultFormat, DefaultRetentionDays, DefaultLogMaxSize, DefaultLogMaxBackups)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}
