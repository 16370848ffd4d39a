// Package logger provides structured JSON logging with configurable log levels.
// It wraps the standard log/slog package and provides a simple interface for
// application-wide logging, plus a separate trace logger that carries full
// request and response payloads for debugging.
package logger
