package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogDownload logs the outcome of saving an image
func LogDownload(l Logger, url, path string, skipped bool, err error) {
	logger := l.WithFields(map[string]interface{}{
		"url":  url,
		"path": path,
	})

	switch {
	case err != nil:
		logger.WithError(err).Error("Download failed")
	case skipped:
		logger.Debug("File exists, skipping download")
	default:
		logger.Debug("Download completed")
	}
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
