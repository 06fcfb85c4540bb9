package logging

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// Format selects how log entries are rendered.
type Format string

const (
	// FormatAuto renders console output on terminals and JSON otherwise.
	FormatAuto Format = "auto"
	// FormatConsole renders human-readable lines.
	FormatConsole Format = "console"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// ZerologLogger implements ports.Logger on top of zerolog.
type ZerologLogger struct {
	mu        sync.RWMutex
	zl        zerolog.Logger
	level     ports.Level
	out       io.Writer
	format    Format
	timestamp bool
}

// Option configures the zerolog logger.
type Option func(*ZerologLogger)

// WithOutput sets the output writer (default: os.Stderr).
func WithOutput(w io.Writer) Option {
	return func(l *ZerologLogger) {
		l.out = w
	}
}

// WithLevel sets the minimum log level (default: Info).
func WithLevel(level ports.Level) Option {
	return func(l *ZerologLogger) {
		l.level = level
	}
}

// WithFormat selects console or JSON output (default: auto).
func WithFormat(format Format) Option {
	return func(l *ZerologLogger) {
		l.format = format
	}
}

// WithTimestamp includes a timestamp in log entries (default: true).
func WithTimestamp(enabled bool) Option {
	return func(l *ZerologLogger) {
		l.timestamp = enabled
	}
}

// NewZerologLogger creates a new logger.
func NewZerologLogger(opts ...Option) *ZerologLogger {
	l := &ZerologLogger{
		out:       os.Stderr,
		level:     ports.LevelInfo,
		format:    FormatAuto,
		timestamp: true,
	}
	for _, opt := range opts {
		opt(l)
	}

	ctx := zerolog.New(l.writer()).With()
	if l.timestamp {
		ctx = ctx.Timestamp()
	}
	l.zl = ctx.Logger().Level(toZerologLevel(l.level))
	return l
}

// writer builds the sink for the configured format.
func (l *ZerologLogger) writer() io.Writer {
	format := l.format
	if format == FormatAuto {
		format = FormatJSON
		if f, ok := l.out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			format = FormatConsole
		}
	}
	if format == FormatJSON {
		return l.out
	}

	cw := zerolog.ConsoleWriter{Out: l.out, TimeFormat: "15:04:05"}
	if f, ok := l.out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		cw.NoColor = true
	}
	if !l.timestamp {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	return cw
}

// Debug logs a debug message.
func (l *ZerologLogger) Debug(_ context.Context, msg string, fields ...ports.Field) {
	l.emit(l.logger().Debug(), msg, fields)
}

// Info logs an informational message.
func (l *ZerologLogger) Info(_ context.Context, msg string, fields ...ports.Field) {
	l.emit(l.logger().Info(), msg, fields)
}

// Warn logs a warning message.
func (l *ZerologLogger) Warn(_ context.Context, msg string, fields ...ports.Field) {
	l.emit(l.logger().Warn(), msg, fields)
}

// Error logs an error message.
func (l *ZerologLogger) Error(_ context.Context, msg string, fields ...ports.Field) {
	l.emit(l.logger().Error(), msg, fields)
}

// With returns a new logger with additional fields.
func (l *ZerologLogger) With(fields ...ports.Field) ports.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &ZerologLogger{
		zl:        ctx.Logger(),
		level:     l.level,
		out:       l.out,
		format:    l.format,
		timestamp: l.timestamp,
	}
}

// Level returns the minimum log level.
func (l *ZerologLogger) Level() ports.Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// SetLevel sets the minimum log level.
func (l *ZerologLogger) SetLevel(level ports.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.zl = l.zl.Level(toZerologLevel(level))
}

func (l *ZerologLogger) logger() *zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	zl := l.zl
	return &zl
}

// emit attaches fields to a pending event. A nil event means the level is disabled.
func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []ports.Field) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

func toZerologLevel(level ports.Level) zerolog.Level {
	switch level {
	case ports.LevelDebug:
		return zerolog.DebugLevel
	case ports.LevelInfo:
		return zerolog.InfoLevel
	case ports.LevelWarn:
		return zerolog.WarnLevel
	case ports.LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Ensure ZerologLogger implements Logger.
var _ ports.Logger = (*ZerologLogger)(nil)
