// Package logging wraps log/slog with a console handler and a weekly rotating JSON file,
// plus package-level helpers usable before initialisation.
package logging

import (
	"log/slog"
	"os"

	"github.com/alibahaloo/PharmaTrack-sub000/config"
)

const (
	defaultRetentionWeeks = 4
	defaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
)

type LoggingService struct {
	Logger         *slog.Logger
	rotatingLogger *RotatingLogger
}

var DefaultLoggingService *LoggingService

// Options configures InitLoggerWithOptions
type Options struct {
	LogDir         string // Empty disables the file handler
	Env            config.Environment
	Level          string
	Verbose        bool
	RetentionWeeks int
	MaxFileSize    int64
}

// InitLogger initializes the global logger with default retention and size limits
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{
		LogDir:         logDir,
		Env:            config.EnvDevelopment,
		RetentionWeeks: defaultRetentionWeeks,
		MaxFileSize:    defaultMaxFileSize,
	})
}

// InitLoggerWithOptions replaces the global logger, closing the previous rotating file
func InitLoggerWithOptions(opts Options) {
	if DefaultLoggingService != nil {
		_ = DefaultLoggingService.Close()
	}

	logger, rotating := newLogger(opts)
	DefaultLoggingService = &LoggingService{
		Logger:         logger,
		rotatingLogger: rotating,
	}
	slog.SetDefault(logger)
}

// Close stops the rotating logger's cleanup goroutine and closes its file
func (s *LoggingService) Close() error {
	if s == nil || s.rotatingLogger == nil {
		return nil
	}
	err := s.rotatingLogger.Close()
	s.rotatingLogger = nil
	return err
}

// Close closes the global logging service
func Close() error {
	return DefaultLoggingService.Close()
}

// current returns the global logger, or a stderr fallback at the given level when
// InitLogger was never called
func current(level slog.Level) *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return DefaultLoggingService.Logger
}

// Default returns the global logger, falling back to stderr before initialisation
func Default() *slog.Logger {
	return current(slog.LevelInfo)
}

func Info(msg string, args ...any) {
	current(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	current(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	current(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	current(slog.LevelDebug).Debug(msg, args...)
}
