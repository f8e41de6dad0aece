package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown names map to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum log level to output.
	Level LogLevel
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Name is attached to every entry as the logger name.
	Name string
	// Format is "console" or "json".
	Format string
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  LogLevelInfo,
		Output: os.Stderr,
		Name:   "folio",
		Format: "console",
	}
}

// Logger provides structured logging.
type Logger struct {
	sugar   *zap.SugaredLogger
	level   zap.AtomicLevel
	enabled *atomic.Bool
}

// NewLogger creates a logger writing to cfg.Output.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	level := zap.NewAtomicLevelAt(cfg.Level.zapLevel())
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(cfg.Output)), level)
	l := newLogger(zap.New(core), level)
	if cfg.Name != "" {
		l.sugar = l.sugar.Named(cfg.Name)
	}
	return l
}

// New wraps an existing zap core. The level gates entries before they reach
// the core.
func New(core zapcore.Core, level LogLevel) *Logger {
	al := zap.NewAtomicLevelAt(level.zapLevel())
	return newLogger(zap.New(core, zap.IncreaseLevel(al)), al)
}

func newLogger(z *zap.Logger, level zap.AtomicLevel) *Logger {
	enabled := new(atomic.Bool)
	enabled.Store(true)
	return &Logger{sugar: z.Sugar(), level: level, enabled: enabled}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return newLogger(zap.NewNop(), zap.NewAtomicLevelAt(zapcore.ErrorLevel))
}

// WithField returns a logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.sugar.With(key, value))
}

// WithFields returns a logger with the given fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.derive(l.sugar.With(args...))
}

// WithComponent returns a logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

func (l *Logger) derive(s *zap.SugaredLogger) *Logger {
	return &Logger{sugar: s, level: l.level, enabled: l.enabled}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// Level returns the minimum log level.
func (l *Logger) Level() LogLevel {
	switch l.level.Level() {
	case zapcore.DebugLevel:
		return LogLevelDebug
	case zapcore.InfoLevel:
		return LogLevelInfo
	case zapcore.WarnLevel:
		return LogLevelWarn
	default:
		return LogLevelError
	}
}

// Disable disables all logging.
func (l *Logger) Disable() {
	l.enabled.Store(false)
}

// Enable enables logging.
func (l *Logger) Enable() {
	l.enabled.Store(true)
}

// Debug logs a debug message with key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) {
	if l.enabled.Load() {
		l.sugar.Debugw(msg, kv...)
	}
}

// Info logs an info message with key/value pairs.
func (l *Logger) Info(msg string, kv ...any) {
	if l.enabled.Load() {
		l.sugar.Infow(msg, kv...)
	}
}

// Warn logs a warning message with key/value pairs.
func (l *Logger) Warn(msg string, kv ...any) {
	if l.enabled.Load() {
		l.sugar.Warnw(msg, kv...)
	}
}

// Error logs an error message with key/value pairs.
func (l *Logger) Error(msg string, kv ...any) {
	if l.enabled.Load() {
		l.sugar.Errorw(msg, kv...)
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.sugar.Desugar()
}
