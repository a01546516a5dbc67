package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case DEBUG:
		return log.DebugLevel
	case WARN:
		return log.WarnLevel
	case ERROR:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseLevel converts a string to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      Level  // Minimum log level
	FilePath   string // Path to log file, empty disables file output
	MaxSize    int    // Megabytes before rotation
	MaxAge     int    // Days to keep rotated files
	MaxBackups int    // Number of rotated files to keep
	Console    bool   // Also write to stderr
	Prefix     string
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	logPath := ""
	if home != "" {
		logPath = filepath.Join(home, ".wedplan", "logs", "wedplan.log")
	}

	return Config{
		Level:      INFO,
		FilePath:   logPath,
		MaxSize:    10,
		MaxAge:     7,
		MaxBackups: 5,
		Console:    false, // keeps the TUI clean
		Prefix:     "wedplan",
	}
}

// Logger wraps a charm logger with preset fields
type Logger struct {
	config Config
	base   *log.Logger
	closer io.Closer
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// Init replaces the global logger
func Init(config Config) error {
	l, err := New(config)
	if err != nil {
		return err
	}

	globalMu.Lock()
	old := globalLogger
	globalLogger = l
	globalMu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	var writers []io.Writer
	var closer io.Closer

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, err
		}
		rotating := &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    config.MaxSize,
			MaxAge:     config.MaxAge,
			MaxBackups: config.MaxBackups,
		}
		writers = append(writers, rotating)
		closer = rotating
	}
	if config.Console {
		writers = append(writers, os.Stderr)
	}

	return newWithWriter(config, io.MultiWriter(writers...), closer), nil
}

// NewWriter creates a logger writing to w, used by tests and the server
func NewWriter(config Config, w io.Writer) *Logger {
	return newWithWriter(config, w, nil)
}

func newWithWriter(config Config, w io.Writer, closer io.Closer) *Logger {
	base := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    config.Level == DEBUG,
		CallerOffset:    1,
		Level:           config.Level.charm(),
		Prefix:          config.Prefix,
	})
	return &Logger{config: config, base: base, closer: closer}
}

func keyvals(fields []Field) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

// WithFields creates a new logger with preset fields
func (l *Logger) WithFields(fields ...Field) *Logger {
	return &Logger{
		config: l.config,
		base:   l.base.With(keyvals(fields)...),
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.base.Debug(msg, keyvals(fields)...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.base.Info(msg, keyvals(fields)...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.base.Warn(msg, keyvals(fields)...)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	l.base.Error(msg, keyvals(fields)...)
}

// Close flushes and closes the log file, if any
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func current() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	if l := current(); l != nil {
		l.base.Debug(msg, keyvals(fields)...)
	}
}

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) {
	if l := current(); l != nil {
		l.base.Info(msg, keyvals(fields)...)
	}
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	if l := current(); l != nil {
		l.base.Warn(msg, keyvals(fields)...)
	}
}

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) {
	if l := current(); l != nil {
		l.base.Error(msg, keyvals(fields)...)
	}
}

// WithFields returns a child of the global logger. It never returns nil; a
// discarding logger is used before Init.
func WithFields(fields ...Field) *Logger {
	if l := current(); l != nil {
		return l.WithFields(fields...)
	}
	return NewWriter(Config{Level: ERROR}, io.Discard)
}

// Close closes the global logger
func Close() error {
	if l := current(); l != nil {
		return l.Close()
	}
	return nil
}

// GetConfig returns the current logger configuration
func GetConfig() Config {
	if l := current(); l != nil {
		return l.config
	}
	return DefaultConfig()
}
