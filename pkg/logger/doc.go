// Package logger provides the structured logging interface used across the
// gallery mirror.
//
// It wraps zerolog: colored console output on stderr, optional JSON file
// output, and field-carrying derived loggers.
//
//	log := logger.GetLogger().WithField("album", album.Title)
//	log.InfoWithFields("album synchronized", map[string]interface{}{
//	    "images": 12,
//	    "dir":    album.TargetDirectory,
//	})
//
// Tests use NewTestLogger to capture messages or NewNopLogger to drop them.
package logger
