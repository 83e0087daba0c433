// Package logging provides structured logging for nodecfg.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used throughout the tool. Components that talk to a node accept a
// *zap.Logger and fall back to GetLogger() when given nil, so tests can pass
// an observer-backed logger while the CLI shares the global one.
//
// # Log Levels
//
//   - Debug: request/response details, rejected submissions
//   - Info: successful refreshes and submissions
//   - Warn: failed refreshes (the stored snapshot is kept)
//   - Error: failed submissions
//
// # Configuration
//
// Logging is silent unless a level is passed to Initialize or the
// NODECFG_LOG_LEVEL environment variable is set:
//
//	if err := logging.Initialize(""); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The dashboard owns the terminal, so the CLI points output at a file when
// the dashboard runs (see InitializeToFile).
package logging
