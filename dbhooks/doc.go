// Package dbhooks provides an interception layer around a database client's query execution path.
//
// Every database operation passes through a single choke point, the Client, which lets external code
// observe (events) and mutate (hooks) the operation before the underlying query runs and after it returns,
// without modifying the query-issuing call sites.
//
// Subscriptions are routed by logical keys derived from the model name, the operation kind and the phase:
//   - Hooks transform the operation arguments before execution, global hooks first, then model hooks
//   - Listeners observe the before and after payloads, global listeners first, then exact-key listeners
//   - A failing hook or listener is logged and skipped, it never aborts the invocation
//   - Only a failure of the underlying executor is propagated to the caller
//
// Key types:
//   - Client: the execution wrapper and registration surface
//   - EventController: ordered fan-out of before/after payloads
//   - HookRegistry: ordered, failure-isolated argument transformation pipeline
//   - Payload: the per-invocation envelope handed to listeners
//
// Common usage pattern:
//
//	client, err := dbhooks.NewClient(
//		dbhooks.WithExecutor(executor),
//		dbhooks.WithLogger(slog.Default()),
//	)
//	if err != nil {
//		// handle error
//	}
//
//	client.UseHookForAll(dbhooks.AllOperations, func(ctx context.Context, args any, model string, op dbhooks.Operation, request any) (any, error) {
//		return scopeToTenant(args, request), nil
//	})
//
//	client.OnAfterHook("User", dbhooks.Create, func(ctx context.Context, payload dbhooks.Payload) error {
//		return audit(ctx, payload.Result)
//	})
//
//	ctx = dbhooks.WithRequest(ctx, httpRequest)
//	user, err := client.Run(ctx, "User", dbhooks.Create, args)
package dbhooks
