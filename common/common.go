// Package common holds package metadata and the logger setup shared by
// every entry point.
package common

import (
	"log/slog"
	"os"
)

// PackageName identifies this module in metrics and logs.
const PackageName = "opendal"

// Version is set at build time via -ldflags.
var Version = "dev"

// LoggingOpts configures the root logger.
type LoggingOpts struct {
	// Debug enables debug-level output.
	Debug bool
	// JSON switches from text to JSON output.
	JSON bool
	// Service is added as a "service" attribute to all records.
	Service string
	// Version is added as a "version" attribute to all records.
	Version string
}

// SetupLogger builds the root slog logger all components derive theirs
// from.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	log := slog.New(handler)
	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	return log
}
