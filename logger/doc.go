// Package logger provides structured logging for streamkit using zerolog.
//
// It supports JSON and console output, level configuration, a no-op logger
// for hot paths that must stay silent, and component-scoped loggers with
// structured fields.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("stream.any")
//	log.Debug("signal dropped", logger.Fields(logger.FieldSubscriptionID, id))
package logger
