// Package logger provides a structured logging interface for apodget.
//
// It wraps the zerolog library with:
//   - Levels (Debug, Info, Warn, Error)
//   - Structured logging with fields
//   - Console output on stderr, coloured only when stderr is a terminal
//   - JSON output and an optional log file
//   - A global logger instance for easy access
//
// Stdout is left alone: it carries the picture URL or the saved path so the
// tool can be used in pipelines.
//
// Basic Usage:
//
//	cfg := &config.LoggingConfig{Level: "debug"}
//	err := logger.Initialize(cfg)
//
//	logger.WithField("date", "240101").Debug("Fetching page")
//	logger.WithError(err).Error("Download failed")
//
// Tests use NewNopLogger to discard output or NewTestLogger to assert on
// captured messages.
package logger
