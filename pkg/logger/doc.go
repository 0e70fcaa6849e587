// Package logger provides structured logging for the downloader.
//
// It wraps zerolog behind a small Logger interface with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional file output alongside the console
// - A global logger instance for easy access
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	err := logger.Initialize(cfg)
//
//	logger.Info("starting")
//	logger.WithField("tag", "cat_ears").Info("collecting posts")
//	logger.WithError(err).Error("page fetch failed")
package logger
