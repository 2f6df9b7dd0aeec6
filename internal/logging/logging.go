// Package logging provides scoped leveled loggers for all vidpipe packages.
package logging

import (
	"os"
	"strings"

	"github.com/pion/logging"
)

var loggerFactory = newLoggerFactory()

func newLoggerFactory() *logging.DefaultLoggerFactory {
	factory := logging.NewDefaultLoggerFactory()

	switch strings.ToLower(os.Getenv("VIDPIPE_LOG_LEVEL")) {
	case "trace":
		factory.DefaultLogLevel = logging.LogLevelTrace
	case "debug":
		factory.DefaultLogLevel = logging.LogLevelDebug
	case "info":
		factory.DefaultLogLevel = logging.LogLevelInfo
	case "warn":
		factory.DefaultLogLevel = logging.LogLevelWarn
	case "error":
		factory.DefaultLogLevel = logging.LogLevelError
	}

	return factory
}

// NewLogger returns a leveled logger for the given scope, e.g. "camera" or
// "pipeline".
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}
