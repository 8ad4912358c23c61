// Package logging wraps log/slog for the advisor's adapters: text to the console and
// JSON to a weekly rotating file. The clinical core never logs.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingLogger
}

var DefaultLoggingService *LoggingService

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConsoleLevel returns the console level for an environment. An explicit level wins,
// except under test where the console stays quiet.
func ConsoleLevel(env, level string) slog.Level {
	switch strings.ToLower(env) {
	case "test":
		return slog.LevelError
	case "prod", "staging":
		if level == "" {
			return slog.LevelWarn
		}
	}
	return parseLogLevel(level)
}

// InitLogger initializes the global logger with the default retention.
func InitLogger(logDir string) {
	InitLoggerWithRetention(logDir, 4, 100*1024*1024, "dev", "info")
}

// InitLoggerWithRetention initializes the global logger. An empty logDir logs to the
// console only; the file always records debug and above.
func InitLoggerWithRetention(logDir string, retentionWeeks int, maxFileSize int64, env, level string) {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: ConsoleLevel(env, level)})
	svc := &LoggingService{Logger: slog.New(console)}

	if logDir != "" {
		file, err := NewRotatingLogger(logDir, retentionWeeks, maxFileSize)
		if err != nil {
			svc.Logger.Error("Failed to initialize rotating logger, logging to console only", "error", err)
		} else {
			svc.file = file
			svc.Logger = slog.New(&multiHandler{handlers: []slog.Handler{
				console,
				slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}),
			}})
		}
	}

	Close()
	DefaultLoggingService = svc
	slog.SetDefault(svc.Logger)
}

// Close releases the log file of the global logger.
func Close() {
	if DefaultLoggingService != nil && DefaultLoggingService.file != nil {
		_ = DefaultLoggingService.file.Close()
		DefaultLoggingService.file = nil
	}
}

// Logger returns the global logger, or a console fallback before InitLogger.
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return DefaultLoggingService.Logger
}

func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

// multiHandler fans records out to several handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
