package dbhooks

import (
	"errors"
)

var (
	// ErrExecutingOperationFailed wraps every failure of the underlying executor.
	ErrExecutingOperationFailed = errors.New("executing database operation failed")

	// ErrNilQueryFunc is returned when Execute is called without an underlying query.
	ErrNilQueryFunc = errors.New("query func must not be nil")

	// ErrNilExecutor is returned by Run when no executor was configured, or by WithExecutor with nil.
	ErrNilExecutor = errors.New("executor must not be nil")

	// ErrEmptyModelName is returned when an operation is executed without a model name.
	ErrEmptyModelName = errors.New("model name must not be empty")

	// ErrUnknownOperation is returned for operations outside the supported set.
	ErrUnknownOperation = errors.New("unknown database operation")

	// ErrUnknownPhase is logged when a listener is registered for a phase other than Before or After.
	ErrUnknownPhase = errors.New("unknown event phase")

	// ErrWildcardNotAllowed is returned when the wildcard operation is executed instead of registered.
	ErrWildcardNotAllowed = errors.New("wildcard operation can only be used for registrations")

	// ErrNilComponent is returned when a nil event controller or hook registry is supplied.
	ErrNilComponent = errors.New("component must not be nil")

	// ErrHookPanicked is logged when a hook handler panics.
	ErrHookPanicked = errors.New("hook handler panicked")

	// ErrListenerPanicked is logged when an event listener panics.
	ErrListenerPanicked = errors.New("event listener panicked")
)
