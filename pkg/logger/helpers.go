package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogAlbumDecision logs the outcome of the completion check for one album
func LogAlbumDecision(l Logger, title, dir string, expected, existing int, skip bool) {
	fields := map[string]interface{}{
		"album":    title,
		"dir":      dir,
		"expected": expected,
		"existing": existing,
	}
	if skip {
		l.InfoWithFields("skipping already downloaded album", fields)
		return
	}
	l.InfoWithFields("redownloading album", fields)
}

// LogImageSaved logs a written image
func LogImageSaved(l Logger, path string, size int) {
	l.DebugWithFields("image saved", map[string]interface{}{
		"path":  path,
		"bytes": size,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}

func (n *nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
