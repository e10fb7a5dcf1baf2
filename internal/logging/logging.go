// Package logging builds the logr.Logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"go.opentelemetry.io/otel"
)

// Options configures the process logger.
type Options struct {
	// File receives log output when set; stderr otherwise.
	File string

	// Verbosity enables V(n) logs for n <= Verbosity.
	Verbosity int

	// Name is the root logger name.
	Name string
}

// New returns a logger and a function that releases its output. The logger is
// also installed as the OpenTelemetry error logger.
func New(opts Options) (logr.Logger, func() error, error) {
	var (
		w       io.Writer = os.Stderr
		release           = func() error { return nil }
	)

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return logr.Discard(), release, fmt.Errorf("logging: create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return logr.Discard(), release, fmt.Errorf("logging: open %s: %w", opts.File, err)
		}
		w = f
		release = f.Close
	}

	stdr.SetVerbosity(opts.Verbosity)
	logger := stdr.NewWithOptions(log.New(w, "", log.LstdFlags), stdr.Options{LogCaller: stdr.None})
	if opts.Name != "" {
		logger = logger.WithName(opts.Name)
	}

	otel.SetLogger(logger)
	return logger, release, nil
}
