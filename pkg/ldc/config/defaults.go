// Package config loads ldc settings from a YAML file, LDC_* environment
// variables and command-line flags.
package config

// Default configuration values.
const (
	// DefaultFormat is the report format used when none is configured.
	DefaultFormat = "plain"

	// DefaultRetentionDays bounds how long history records are kept.
	DefaultRetentionDays = 90

	// DefaultLogMaxSize is the log size that triggers rotation.
	DefaultLogMaxSize = "10MB"

	// DefaultLogMaxBackups is the number of rotated logs kept.
	DefaultLogMaxBackups = 3

	// EnvPrefix prefixes environment overrides, e.g. LDC_WORKERS.
	EnvPrefix = "LDC"

	configName = "config"
	configType = "yaml"
	appName    = "ldc"
)
