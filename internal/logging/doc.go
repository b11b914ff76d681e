// Package logging constructs the slog loggers used across the pipeline.
//
// Two output formats are supported: "console" for interactive use and "json"
// for machine consumption. Log output can be mirrored to a file under the
// configured log directory in addition to stdout. Attr helpers keep field
// names consistent between components.
package logging
