// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels. Request and task identifiers stored in a context with
// WithRequestID and WithTaskID are attached to every record logged with that context.
package logger
