// Package logging provides categorized zap loggers for dspike.
// Until Initialize is called every category logs to a no-op core, so library
// packages can log unconditionally.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup, config loading
	CategorySolver Category = "solver" // Strategy runs and convergence
	CategoryStore  Category = "store"  // Run history persistence
	CategoryCLI    Category = "cli"    // Command dispatch
)

// Options mirrors config.LoggingConfig to keep this package free of
// configuration imports.
type Options struct {
	Level      string          // debug, info, warn, error; empty means warn
	Format     string          // json, console
	File       string          // empty means stderr
	Categories map[string]bool // per-category toggles, missing means enabled
}

var (
	mu         sync.RWMutex
	base       = zap.NewNop()
	categories map[string]bool
	loggers    = make(map[Category]*zap.Logger)
)

// Initialize builds the process logger from opts and replaces any previous one.
func Initialize(opts Options) error {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(opts.Format, "console") || strings.EqualFold(opts.Format, "text") {
		cfg = zap.NewDevelopmentConfig()
		cfg.Encoding = "console"
	}

	level := opts.Level
	if level == "" {
		level = "warn"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	cfg.Level = lvl

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	base = l
	categories = opts.Categories
	loggers = make(map[Category]*zap.Logger)
	return nil
}

// SetLogger installs l as the process logger. Passing nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	base = l
	categories = nil
	loggers = make(map[Category]*zap.Logger)
}

func categoryEnabled(category Category) bool {
	if categories == nil {
		return true
	}
	enabled, ok := categories[string(category)]
	return !ok || enabled
}

// Get returns the named logger for category.
func Get(category Category) *zap.Logger {
	mu.RLock()
	l, ok := loggers[category]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	if categoryEnabled(category) {
		l = base.Named(string(category))
	} else {
		l = zap.NewNop()
	}
	loggers[category] = l
	return l
}

// Sync flushes buffered entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

// Boot logs at info level to the boot category.
func Boot(msg string, fields ...zap.Field) {
	Get(CategoryBoot).Info(msg, fields...)
}

// StoreDebug logs at debug level to the store category.
func StoreDebug(msg string, fields ...zap.Field) {
	Get(CategoryStore).Debug(msg, fields...)
}
