// Package logging provides config-driven categorized file-based logging for navcheck.
// Logs are written to the configured directory with one file per category.
// Logging is controlled by debug_mode - when false, no logs are written.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config loading
	CategoryRoutes  Category = "routes"  // Route verification passes
	CategoryLinks   Category = "links"   // Link classification and cache
	CategoryFetch   Category = "fetch"   // Page retrieval for link scanning
	CategoryBrowser Category = "browser" // Headless rendering
	CategoryStore   Category = "store"   // Report archive
	CategoryServer  Category = "server"  // HTTP API
	CategoryUI      Category = "ui"      // Terminal dashboard
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Dir        string
	DebugMode  bool
	Level      string
	JSONFormat bool
	Categories map[string]bool
}

// Logger writes to a single category file. The zero value discards everything.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex

	opts   Options
	optsMu sync.RWMutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize records the options and prepares the log directory.
// Should be called once at startup.
func Initialize(o Options) error {
	if o.DebugMode && o.Dir == "" {
		return fmt.Errorf("log directory required in debug mode")
	}

	optsMu.Lock()
	opts = o
	optsMu.Unlock()

	level.SetLevel(parseLevel(o.Level))

	if !o.DebugMode {
		return nil
	}
	if err := os.MkdirAll(o.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== navcheck logging initialized ===")
	boot.Info("Logs directory: %s", o.Dir)
	boot.Info("Log level: %s", level.Level())
	if len(o.Categories) == 0 {
		boot.Info("All categories enabled (no category filter)")
	}
	return nil
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// IsDebugMode returns whether file logging is enabled
func IsDebugMode() bool {
	optsMu.RLock()
	defer optsMu.RUnlock()
	return opts.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	optsMu.RLock()
	defer optsMu.RUnlock()

	if !opts.DebugMode {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	optsMu.RLock()
	dir, jsonFormat := opts.Dir, opts.JSONFormat
	optsMu.RUnlock()

	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02"), category)
	logPath := filepath.Join(dir, filename)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if jsonFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(file), level)

	l := &Logger{
		category: category,
		sugar:    zap.New(core).With(zap.String("cat", string(category))).Sugar(),
		file:     file,
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// WithFields returns a logger that attaches the given key-value context to every entry.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	if l.sugar == nil {
		return l
	}
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &Logger{category: l.category, sugar: l.sugar.With(kv...)}
}

// CloseAll flushes and closes all open log files (call at shutdown)
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		if l.sugar != nil {
			_ = l.sugar.Sync()
		}
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// BootWarn logs a warning to the boot category
func BootWarn(format string, args ...interface{}) { Get(CategoryBoot).Warn(format, args...) }

// Routes logs to the routes category
func Routes(format string, args ...interface{}) { Get(CategoryRoutes).Info(format, args...) }

// RoutesDebug logs debug to the routes category
func RoutesDebug(format string, args ...interface{}) { Get(CategoryRoutes).Debug(format, args...) }

// RoutesWarn logs a warning to the routes category
func RoutesWarn(format string, args ...interface{}) { Get(CategoryRoutes).Warn(format, args...) }

// Links logs to the links category
func Links(format string, args ...interface{}) { Get(CategoryLinks).Info(format, args...) }

// LinksDebug logs debug to the links category
func LinksDebug(format string, args ...interface{}) { Get(CategoryLinks).Debug(format, args...) }

// LinksWarn logs a warning to the links category
func LinksWarn(format string, args ...interface{}) { Get(CategoryLinks).Warn(format, args...) }

// Fetch logs to the fetch category
func Fetch(format string, args ...interface{}) { Get(CategoryFetch).Info(format, args...) }

// FetchDebug logs debug to the fetch category
func FetchDebug(format string, args ...interface{}) { Get(CategoryFetch).Debug(format, args...) }

// Browser logs to the browser category
func Browser(format string, args ...interface{}) { Get(CategoryBrowser).Info(format, args...) }

// BrowserWarn logs a warning to the browser category
func BrowserWarn(format string, args ...interface{}) { Get(CategoryBrowser).Warn(format, args...) }

// Store logs to the store category
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

// StoreError logs an error to the store category
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

// Server logs to the server category
func Server(format string, args ...interface{}) { Get(CategoryServer).Info(format, args...) }

// ServerError logs an error to the server category
func ServerError(format string, args ...interface{}) { Get(CategoryServer).Error(format, args...) }

// UI logs debug to the ui category
func UI(format string, args ...interface{}) { Get(CategoryUI).Debug(format, args...) }

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
