package dbhooks

import "context"

// contextKey is a private type to prevent context key collisions.
type contextKey string

// requestKey is the context key carrying the ambient request of the current unit of work.
const requestKey contextKey = "dbhooks.ambient_request"

// WithRequest returns a context that carries request as the ambient request for everything executed with it.
//
// The host integration calls this once per inbound unit of work, before any database operation of
// that unit of work runs. Call chains started from other contexts never observe the value.
//
// Example usage:
//
//	ctx = dbhooks.WithRequest(r.Context(), r)
//	user, err := client.Run(ctx, "User", dbhooks.FindUnique, args)
func WithRequest(ctx context.Context, request any) context.Context {
	return context.WithValue(ctx, requestKey, request)
}

// RequestFromContext returns the ambient request, or nil if the call chain has none.
// Hooks must treat a nil request as a normal case.
func RequestFromContext(ctx context.Context) any {
	if ctx == nil {
		return nil
	}

	return ctx.Value(requestKey)
}
