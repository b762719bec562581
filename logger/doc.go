// Package logger provides structured logging over zerolog.
//
// Loggers carry a service tag and optional component, session and provider
// fields. Log calls take an optional map of fields:
//
//	log := logger.Get("router")
//	log.Warn("provider failed", logger.Fields(logger.FieldProvider, "deepgram", logger.FieldKind, "TIMEOUT"))
package logger
