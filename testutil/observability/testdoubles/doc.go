// Package testdoubles provides test doubles (spies) for the dbhooks observability interfaces.
//
// This package contains spy implementations for OpenTelemetry-compatible observability
// interfaces used by the dbhooks Client and the postgresengine executor:
//   - MetricsCollectorSpy: captures metrics recording calls for verification
//   - TracingCollectorSpy: captures distributed tracing spans and their attributes
//   - ContextualLoggerSpy: captures structured logging with context
//   - LogHandlerSpy: captures slog handler calls and attributes
//
// These test doubles enable testing of observability instrumentation
// without requiring actual telemetry backends.
package testdoubles
