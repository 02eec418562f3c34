package dbhooks

import (
	"context"

	"github.com/google/uuid"
)

// QueryFunc runs the underlying database operation with the given (possibly transformed) arguments.
type QueryFunc func(ctx context.Context, args any) (any, error)

// Executor is the opaque underlying database client.
// It is the only component that talks to the database.
type Executor interface {
	Execute(ctx context.Context, model string, operation Operation, args any) (any, error)
}

// ExecutorFunc adapts an ordinary function to the Executor interface.
type ExecutorFunc func(ctx context.Context, model string, operation Operation, args any) (any, error)

// Execute calls f(ctx, model, operation, args).
func (f ExecutorFunc) Execute(ctx context.Context, model string, operation Operation, args any) (any, error) {
	return f(ctx, model, operation, args)
}

// Payload is the envelope delivered to event listeners.
//
// A fresh Payload is built for each phase of each invocation. Before payloads carry the arguments
// as the caller passed them, after payloads carry the transformed arguments and the Result.
// Both payloads of one invocation share the same InvocationID.
type Payload struct {
	InvocationID uuid.UUID
	Model        string
	Operation    Operation
	Args         any
	Query        QueryFunc
	Result       any
}

// HookFunc transforms the arguments of one model's operation.
// A returned error makes the hook a no-op for this invocation.
type HookFunc func(ctx context.Context, args any, request any) (any, error)

// GlobalHookFunc transforms the arguments of an operation for every model.
// A returned error makes the hook a no-op for this invocation.
type GlobalHookFunc func(ctx context.Context, args any, model string, operation Operation, request any) (any, error)

// Listener observes an event payload. A returned error is logged and otherwise ignored.
type Listener func(ctx context.Context, payload Payload) error
