// Package logger provides structured logging on top of zap.
package logger

import (
	"errors"

	"github.com/code19m/errx"
	"go.uber.org/zap"
)

// Logger is the logging interface used across the service.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)

	// Errorx logs an error at error level, expanding errx metadata
	// (code, type, details) into structured fields when present.
	Errorx(err error)

	// With returns a logger that includes the given key-value pairs
	// in all subsequent entries.
	With(keysAndValues ...any) Logger

	// Named adds a sub-scope to the logger's name.
	Named(name string) Logger

	// Sync flushes buffered entries. Call on shutdown.
	Sync() error
}

type logger struct {
	*zap.SugaredLogger
}

// New creates a Logger with the provided configuration.
func New(cfg Config) (Logger, error) {
	if cfg.Disable {
		return &logger{zap.NewNop().Sugar()}, nil
	}

	zapConfig, err := cfg.zapConfig()
	if err != nil {
		return nil, errx.Wrap(err)
	}

	zl, err := zapConfig.Build()
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &logger{zl.Sugar()}, nil
}

func (l *logger) Errorx(err error) {
	var e errx.ErrorX
	if errors.As(err, &e) {
		l.With(
			"error_code", e.Code(),
			"error_type", e.Type().String(),
			"error_details", e.Details(),
		).Error(err.Error())
		return
	}
	l.Error(err.Error())
}

func (l *logger) With(keysAndValues ...any) Logger {
	return &logger{l.SugaredLogger.With(keysAndValues...)}
}

func (l *logger) Named(name string) Logger {
	return &logger{l.SugaredLogger.Named(name)}
}

func (l *logger) Debug(msg string) { l.SugaredLogger.Debug(msg) }
func (l *logger) Info(msg string)  { l.SugaredLogger.Info(msg) }
func (l *logger) Warn(msg string)  { l.SugaredLogger.Warn(msg) }
func (l *logger) Error(msg string) { l.SugaredLogger.Error(msg) }
func (l *logger) Fatal(msg string) { l.SugaredLogger.Fatal(msg) }
