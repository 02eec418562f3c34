package postgresengine

import (
	"time"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks"
)

// Option defines a functional option for configuring an Engine.
type Option func(*Engine) error

// WithTableName maps one model to a table name, taking precedence over the table name mapper.
// Schema-qualified names like "billing.invoices" are supported.
func WithTableName(model string, tableName string) Option {
	return func(e *Engine) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		e.tableNames[model] = tableName

		return nil
	}
}

// WithTableNameMapper sets the function deriving table names from model names.
// The default uses the model name as is.
func WithTableNameMapper(mapper func(model string) string) Option {
	return func(e *Engine) error {
		if mapper == nil {
			return ErrNilTableNameMapper
		}

		e.tableNameMapper = mapper

		return nil
	}
}

// WithStatementTimeout bounds every statement the Engine runs. Zero disables the bound.
// The default is 10 seconds.
func WithStatementTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout < 0 {
			return ErrInvalidStatementTimeout
		}

		e.statementTimeout = timeout

		return nil
	}
}

// WithLogger sets the logger for the Engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Row counts and durations per operation (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger dbhooks.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger for the Engine.
// It receives the same messages as the Logger, with the statement's context for trace correlation.
func WithContextualLogger(logger dbhooks.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}
