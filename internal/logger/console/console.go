// Package console implements a logger backend on charmbracelet/log.
package console

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger writes human-readable log lines, to stderr by default.
type Logger struct {
	logger *log.Logger
}

// Params contains configuration for creating a console Logger.
type Params struct {
	Debug  bool
	Quiet  bool      // only errors
	Output io.Writer // defaults to os.Stderr
}

// New creates a console logger.
func New(params Params) *Logger {
	level := log.InfoLevel
	switch {
	case params.Quiet:
		level = log.ErrorLevel
	case params.Debug:
		level = log.DebugLevel
	}
	out := params.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		logger: log.NewWithOptions(out, log.Options{
			ReportTimestamp: params.Output == nil,
			Level:           level,
			Prefix:          "kge",
		}),
	}
}

// Debug writes a message at DEBUG level.
func (c *Logger) Debug(message string, keyvals ...any) {
	c.logger.Debug(message, keyvals...)
}

// Info writes a message at INFO level.
func (c *Logger) Info(message string, keyvals ...any) {
	c.logger.Info(message, keyvals...)
}

// Warn writes a message at WARN level.
func (c *Logger) Warn(message string, keyvals ...any) {
	c.logger.Warn(message, keyvals...)
}

// Error writes a message at ERROR level.
func (c *Logger) Error(message string, keyvals ...any) {
	c.logger.Error(message, keyvals...)
}
