package dbhooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Client is the single choke point every database operation passes through.
//
// It publishes a before event, runs the hook pipeline over the arguments, invokes the underlying
// query and publishes an after event carrying the result. Only failures of the underlying query
// are returned to the caller.
//
// A Client is safe for concurrent use. Registrations may happen at any time; an invocation
// sees the registrations that existed when each of its phases started.
type Client struct {
	executor Executor
	events   *EventController
	hooks    *HookRegistry
	obs      *observer
}

// Option defines a functional option for configuring a Client.
type Option func(*Client) error

// NewClient creates a Client with optional configuration.
// Without WithEventController or WithHookRegistry it creates fresh, empty ones that share the
// Client's logger and metrics configuration.
func NewClient(options ...Option) (*Client, error) {
	c := &Client{obs: &observer{}}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	if c.events == nil {
		c.events = newEventController(c.obs)
	}

	if c.hooks == nil {
		c.hooks = newHookRegistry(c.obs)
	}

	return c, nil
}

// Events returns the EventController the Client publishes to.
func (c *Client) Events() *EventController {
	return c.events
}

// Hooks returns the HookRegistry the Client applies.
func (c *Client) Hooks() *HookRegistry {
	return c.hooks
}

// Run executes an operation against the configured Executor, see Execute.
//
// Returns ErrNilExecutor if the Client was created without WithExecutor.
func (c *Client) Run(ctx context.Context, model string, operation Operation, args any) (any, error) {
	if c.executor == nil {
		return nil, ErrNilExecutor
	}

	return c.Execute(ctx, model, operation, args, c.bind(model, operation))
}

// Execute runs one intercepted invocation of query.
//
// The sequence is strictly: before event with the caller's args, hook pipeline, query with the
// transformed args, after event with the transformed args and the result. If query fails no
// after event is published and the error is returned joined with ErrExecutingOperationFailed.
//
// Invalid input (empty model, unknown or wildcard operation, nil query) is rejected before any
// event is published.
func (c *Client) Execute(
	ctx context.Context,
	model string,
	operation Operation,
	args any,
	query QueryFunc,
) (any, error) {
	if err := validateInvocation(model, operation, query); err != nil {
		return nil, err
	}

	invocationID := uuid.New()
	start := time.Now()

	ctx, span := c.startExecuteSpan(ctx, model, operation, invocationID)

	c.events.Publish(ctx, Key(model, operation, Before), Payload{
		InvocationID: invocationID,
		Model:        model,
		Operation:    operation,
		Args:         args,
		Query:        query,
	})

	finalArgs := c.hooks.ApplyAll(ctx, model, operation, args)

	result, err := query(ctx, finalArgs)
	duration := time.Since(start)

	if err != nil {
		c.recordExecuteFailure(ctx, span, model, operation, invocationID, duration, err)

		return nil, errors.Join(ErrExecutingOperationFailed, err)
	}

	c.events.Publish(ctx, Key(model, operation, After), Payload{
		InvocationID: invocationID,
		Model:        model,
		Operation:    operation,
		Args:         finalArgs,
		Query:        query,
		Result:       result,
	})

	c.recordExecuteSuccess(ctx, span, model, operation, invocationID, time.Since(start))

	return result, nil
}

// bind returns the configured Executor as a QueryFunc for one model and operation.
func (c *Client) bind(model string, operation Operation) QueryFunc {
	return func(ctx context.Context, args any) (any, error) {
		return c.executor.Execute(ctx, model, operation, args)
	}
}

func validateInvocation(model string, operation Operation, query QueryFunc) error {
	if model == "" {
		return ErrEmptyModelName
	}

	if operation == AllOperations {
		return ErrWildcardNotAllowed
	}

	if !operation.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}

	if query == nil {
		return ErrNilQueryFunc
	}

	return nil
}

func (c *Client) startExecuteSpan(
	ctx context.Context,
	model string,
	operation Operation,
	invocationID uuid.UUID,
) (context.Context, SpanContext) {
	return c.obs.startTraceSpan(ctx, spanNameExecute, map[string]string{
		spanAttrModel:        model,
		spanAttrOperation:    string(operation),
		spanAttrInvocationID: invocationID.String(),
	})
}

func (c *Client) recordExecuteSuccess(
	ctx context.Context,
	span SpanContext,
	model string,
	operation Operation,
	invocationID uuid.UUID,
	duration time.Duration,
) {
	c.obs.logDebug(
		ctx,
		logMsgExecuteCompleted,
		logAttrModel, model,
		logAttrOperation, string(operation),
		logAttrInvocationID, invocationID.String(),
		logAttrDurationMS, toMilliseconds(duration),
	)

	labels := map[string]string{
		logAttrModel:     model,
		logAttrOperation: string(operation),
		labelStatus:      statusSuccess,
	}
	c.obs.recordDurationContext(ctx, metricExecuteDuration, duration, labels)
	c.obs.incrementCounterContext(ctx, metricExecuteCalls, labels)

	if span != nil {
		span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", float64(duration.Nanoseconds())/1e6))
	}

	c.obs.finishTraceSpan(span, statusSuccess, nil)
}

func (c *Client) recordExecuteFailure(
	ctx context.Context,
	span SpanContext,
	model string,
	operation Operation,
	invocationID uuid.UUID,
	duration time.Duration,
	err error,
) {
	status, errorType := statusOf(err)

	c.obs.logError(
		ctx,
		logMsgExecuteFailed,
		err,
		logAttrModel, model,
		logAttrOperation, string(operation),
		logAttrInvocationID, invocationID.String(),
		logAttrDurationMS, toMilliseconds(duration),
	)

	labels := map[string]string{
		logAttrModel:     model,
		logAttrOperation: string(operation),
		labelStatus:      status,
	}
	c.obs.recordDurationContext(ctx, metricExecuteDuration, duration, labels)
	c.obs.incrementCounterContext(ctx, metricExecuteCalls, labels)
	c.obs.incrementCounterContext(ctx, metricExecuteErrors, map[string]string{
		logAttrModel:      model,
		logAttrOperation:  string(operation),
		spanAttrErrorType: errorType,
	})

	if span != nil {
		span.AddAttribute(spanAttrErrorType, errorType)
		span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", float64(duration.Nanoseconds())/1e6))
	}

	c.obs.finishTraceSpan(span, status, map[string]string{spanAttrErrorType: errorType})
}
