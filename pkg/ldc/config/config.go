package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/ldc/pkg/ldc/ignore"
	"github.com/jamesainslie/ldc/pkg/ldc/logging"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

// IgnoreConfig selects the files a scan skips.
type IgnoreConfig struct {
	// Names are exact base names, added to the built-in defaults.
	Names []string `mapstructure:"names"`

	// Patterns are glob patterns matched against base names.
	Patterns []string `mapstructure:"patterns"`

	// File is a JSON document listing more names under Key.
	File string `mapstructure:"file"`

	// Key is the JSON key holding the list. Empty means ignored_file_types.
	Key string `mapstructure:"key"`
}

// HistoryConfig controls the saved-manifest index.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// Config is the resolved application configuration.
type Config struct {
	Ignore         IgnoreConfig  `mapstructure:"ignore"`
	OutputDir      string        `mapstructure:"output_dir"`
	Workers        int           `mapstructure:"workers"`
	SkipUnreadable bool          `mapstructure:"skip_unreadable"`
	Format         string        `mapstructure:"format"`
	History        HistoryConfig `mapstructure:"history"`
	Logging        LoggingConfig `mapstructure:"logging"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// New returns a viper instance with ldc's search paths, environment
// binding and defaults. Callers may bind flags before calling Read.
func New() (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType(configType)

	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ignore.names", []string{})
	v.SetDefault("ignore.patterns", []string{})
	v.SetDefault("ignore.file", "")
	v.SetDefault("ignore.key", ignore.DefaultKey)
	v.SetDefault("output_dir", "")
	v.SetDefault("workers", 0)
	v.SetDefault("skip_unreadable", false)
	v.SetDefault("format", DefaultFormat)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logging.components", map[string]string{})
}

// Read loads the config file into v, if one exists, and decodes the
// result. A missing file is not an error.
func Read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %w", types.ErrConfiguration, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", types.ErrConfiguration, err)
	}
	cfg.File = v.ConfigFileUsed()

	for _, p := range []*string{&cfg.Ignore.File, &cfg.OutputDir, &cfg.History.Path, &cfg.Logging.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from the default locations and environment.
//
// Config file locations:
//   - $XDG_CONFIG_HOME/ldc/config.yaml
//   - $HOME/.config/ldc/config.yaml
func Load() (*Config, error) {
	v, err := New()
	if err != nil {
		return nil, err
	}
	return Read(v)
}

// Validate rejects values no command could use.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", types.ErrConfiguration)
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("%w: history.retention_days must not be negative", types.ErrConfiguration)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", types.ErrConfiguration, err)
	}
	if _, err := logging.ParseSize(c.Logging.Rotation.MaxSize); err != nil {
		return fmt.Errorf("%w: logging.rotation.max_size: %w", types.ErrConfiguration, err)
	}
	return nil
}

// IgnoreSet builds the ignore set: built-in names, configured names and
// patterns, then the JSON ignore file. With no file configured,
// ignored_files.json in the config directory is used when present.
func (c *Config) IgnoreSet() (*ignore.Set, error) {
	set := ignore.Default()
	set.Add(c.Ignore.Names...)
	if err := set.AddPatterns(c.Ignore.Patterns...); err != nil {
		return nil, err
	}

	file := c.Ignore.File
	if file == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		candidate := filepath.Join(dir, ignore.DefaultFileName)
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return set, nil
			}
			return nil, err
		}
		file = candidate
	}

	names, err := ignore.LoadFile(file, c.Ignore.Key)
	if err != nil {
		return nil, err
	}
	set.Add(names...)
	return set, nil
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() (logging.Config, error) {
	maxSize, err := logging.ParseSize(c.Logging.Rotation.MaxSize)
	if err != nil {
		return logging.Config{}, err
	}
	return logging.Config{
		Level:      c.Logging.Level,
		Path:       c.Logging.Path,
		Components: c.Logging.Components,
		Rotation: logging.RotationConfig{
			MaxSize:    maxSize,
			MaxBackups: c.Logging.Rotation.MaxBackups,
		},
	}, nil
}

// ConfigDir returns $XDG_CONFIG_HOME/ldc, or ~/.config/ldc when the
// variable is unset.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// ConfigPath returns the path WriteDefault writes to.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName+"."+configType), nil
}

// DataDir returns $XDG_DATA_HOME/ldc, home of the history index.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns $XDG_STATE_HOME/ldc, home of the log file.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}
