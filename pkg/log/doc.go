// Package log provides structured run logging for plan execution.
//
// This package defines the Logger interface and Event types for capturing
// what an engine did with a plan: the provenance logbook entry, every wire
// message, committed event rows and errors. It is separate from operational
// logging (slog) - run capture provides a complete machine-readable trace
// for debugging and analysis.
//
// # Basic Usage
//
// Drivers configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	eng.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For archival: write to binary file
//	eng.Logger, _ = log.NewFileLogger("runs.blog")
//
//	// Both: use MultiLogger
//	eng.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files use CBOR encoding with .blog extension. The beamplan-log CLI
// tool provides viewing and filtering.
package log
