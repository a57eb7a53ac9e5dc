// Package logger provides a structured logging facility based on Zap.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// Logs are always written to stderr, stdout is reserved for comparison
// reports.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Comparison started")
package logger
