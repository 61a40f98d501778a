// Package log builds the zerolog-backed logr.Logger used by the kstats
// commands.
package log

import (
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
}

// Zerolog returns a timestamped zerolog.Logger. Inside Kubernetes it writes
// JSON to stderr, otherwise human readable lines to stdout.
func Zerolog() *zerolog.Logger {
	var output io.Writer
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		output = os.Stderr
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	return &logger
}

// New returns a named logr.Logger on top of Zerolog. V(n) messages up to
// verbosity are emitted.
func New(name string, verbosity int) logr.Logger {
	return toLogr(*Zerolog(), name, verbosity)
}

func toLogr(zl zerolog.Logger, name string, verbosity int) logr.Logger {
	// zerologr maps V(n) to zerolog level 1-n.
	level := zerolog.Level(1 - verbosity)
	if level < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(level)
	}

	zl = zl.Level(level)
	return zerologr.New(&zl).WithName(name)
}
