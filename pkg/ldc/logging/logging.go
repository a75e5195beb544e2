// Package logging provides component loggers for ldc.
//
// Loggers are obtained with Get, usually into a package-level variable,
// and stay silent until Init is called. Init rewires every logger handed
// out so far, so package-level loggers pick up the configured sinks.
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("checksum")
//	logger.Info("scan started", "root", root)
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when a level string is not recognised.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default file log level.
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// Rotation configures log file rotation.
	Rotation RotationConfig

	// Components maps component names to level overrides.
	Components map[string]string

	// ConsoleLevel enables stderr output at the given level. Empty disables it.
	ConsoleLevel string

	// Quiet disables console output even when ConsoleLevel is set.
	// The progress view sets it because it owns the terminal.
	Quiet bool
}

// Entry is a log record delivered to subscribers.
type Entry struct {
	Time      time.Time
	Level     Level
	Component string
	Message   string
}

type sinks struct {
	file    *log.Logger
	console *log.Logger
}

// Logger is a component logger. It is safe for concurrent use and is
// updated in place by Init and Close.
type Logger struct {
	component string
	fields    []interface{}
	parent    *Logger
	out       atomic.Pointer[sinks]
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) { l.log(LevelInfo, msg, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) { l.log(LevelWarn, msg, args...) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

// With returns a logger that adds args to every record.
// The derived logger follows later Init calls like its parent.
func (l *Logger) With(args ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)

	root := l
	if l.parent != nil {
		root = l.parent
	}
	return &Logger{component: l.component, fields: fields, parent: root}
}

func (l *Logger) current() *sinks {
	if l.parent != nil {
		return l.parent.out.Load()
	}
	return l.out.Load()
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	s := l.current()
	if s != nil {
		if len(l.fields) > 0 {
			args = append(append([]interface{}{}, l.fields...), args...)
		}
		emit(s.file, level, msg, args...)
		if s.console != nil {
			emit(s.console, level, msg, args...)
		}
	}

	global.broadcast(Entry{
		Time:      time.Now(),
		Level:     level,
		Component: l.component,
		Message:   msg,
	})
}

func emit(logger *log.Logger, level Level, msg string, args ...interface{}) {
	switch level {
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelInfo:
		logger.Info(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	}
}

type state struct {
	mu          sync.RWMutex
	initialized bool
	writer      *RotatingWriter
	level       Level
	components  map[string]Level
	console     bool
	consoleLvl  Level
	loggers     map[string]*Logger
	subscribers map[chan Entry]struct{}
}

var global = &state{
	level:       LevelInfo,
	components:  make(map[string]Level),
	loggers:     make(map[string]*Logger),
	subscribers: make(map[chan Entry]struct{}),
}

// Init configures the logging system. It may be called more than once;
// the previous log file is closed first.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	console := false
	var consoleLvl Level
	if cfg.ConsoleLevel != "" && !cfg.Quiet {
		consoleLvl, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		console = true
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		_ = global.writer.Close()
	}

	global.writer = writer
	global.level = level
	global.components = components
	global.console = console
	global.consoleLvl = consoleLvl
	global.initialized = true
	global.rewire()

	return nil
}

// Get returns the logger for component, creating it on first use.
func Get(component string) *Logger {
	global.mu.RLock()
	logger, ok := global.loggers[component]
	global.mu.RUnlock()
	if ok {
		return logger
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if logger, ok := global.loggers[component]; ok {
		return logger
	}

	logger = &Logger{component: component}
	logger.out.Store(global.sinksFor(component))
	global.loggers[component] = logger
	return logger
}

// Close flushes and closes the log file. Loggers fall back to silence.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.initialized {
		return nil
	}

	for ch := range global.subscribers {
		close(ch)
		delete(global.subscribers, ch)
	}

	var err error
	if global.writer != nil {
		err = global.writer.Close()
		global.writer = nil
	}

	global.initialized = false
	global.level = LevelInfo
	global.components = make(map[string]Level)
	global.console = false
	global.rewire()

	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}

// Subscribe returns a channel receiving every record logged from now on.
// Records are dropped when the channel is full.
func Subscribe() <-chan Entry {
	global.mu.Lock()
	defer global.mu.Unlock()

	ch := make(chan Entry, 100)
	global.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe stops delivery to ch. The channel is not closed.
func Unsubscribe(ch <-chan Entry) {
	global.mu.Lock()
	defer global.mu.Unlock()

	for sub := range global.subscribers {
		if sub == ch {
			delete(global.subscribers, sub)
			return
		}
	}
}

// DefaultLogPath returns $XDG_STATE_HOME/ldc/ldc.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "ldc", "ldc.log")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}

// rewire must be called with s.mu held.
func (s *state) rewire() {
	for comp, l := range s.loggers {
		l.out.Store(s.sinksFor(comp))
	}
}

// sinksFor must be called with s.mu held. It returns nil before Init.
func (s *state) sinksFor(component string) *sinks {
	if !s.initialized {
		return nil
	}

	level := s.level
	if lvl, ok := s.components[component]; ok {
		level = lvl
	}

	out := &sinks{
		file: log.NewWithOptions(s.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}
	if s.console {
		out.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           s.consoleLvl.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return out
}

func (s *state) broadcast(e Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}
