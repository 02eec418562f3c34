package dbhooks

import (
	"context"
	"errors"
	"math"
	"time"
)

const (
	logMsgHookFailed         = "hook failed, continuing with previous args"
	logMsgListenerFailed     = "event listener failed, continuing delivery"
	logMsgRegistrationFailed = "registration rejected, handler is not stored"
	logMsgExecuteFailed      = "database operation failed"
	logMsgExecuteCompleted   = "database operation completed"
	logAttrError             = "error"
	logAttrModel             = "model"
	logAttrOperation         = "operation"
	logAttrPhase             = "phase"
	logAttrKey               = "key"
	logAttrScope             = "scope"
	logAttrInvocationID      = "invocation_id"
	logAttrDurationMS        = "duration_ms"
	metricExecuteDuration    = "dbhooks_execute_duration_seconds"
	metricExecuteCalls       = "dbhooks_execute_calls_total"
	metricExecuteErrors      = "dbhooks_execute_errors_total"
	metricHookFailures       = "dbhooks_hook_failures_total"
	metricListenerFailures   = "dbhooks_listener_failures_total"
	spanNameExecute          = "dbhooks.execute"
	spanAttrModel            = "model"
	spanAttrOperation        = "operation"
	spanAttrInvocationID     = "invocation_id"
	spanAttrDurationMS       = "duration_ms"
	spanAttrErrorType        = "error_type"
	labelStatus              = "status"
	statusSuccess            = "success"
	statusError              = "error"
	statusCanceled           = "canceled"
	statusTimeout            = "timeout"
	hookScopeGlobal          = "global"
	hookScopeModel           = "model"
	errorTypeExecutorFailure = "executor_failure"
	errorTypeCanceled        = "context_canceled"
	errorTypeTimeout         = "context_timeout"
)

// observer bundles the optional observability backends shared by the Client and its components.
// All methods are no-ops for backends that are not configured.
type observer struct {
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// ComponentOption configures the observability of a standalone EventController or HookRegistry.
type ComponentOption func(*observer)

// WithComponentLogger sets the Logger that receives hook and listener failures.
func WithComponentLogger(logger Logger) ComponentOption {
	return func(o *observer) {
		o.logger = logger
	}
}

// WithComponentContextualLogger sets the ContextualLogger that receives hook and listener failures.
func WithComponentContextualLogger(logger ContextualLogger) ComponentOption {
	return func(o *observer) {
		o.contextualLogger = logger
	}
}

// WithComponentMetrics sets the MetricsCollector that counts hook and listener failures.
func WithComponentMetrics(collector MetricsCollector) ComponentOption {
	return func(o *observer) {
		o.metricsCollector = collector
	}
}

func newObserver(options ...ComponentOption) *observer {
	o := &observer{}
	for _, option := range options {
		option(o)
	}

	return o
}

// logDebug logs at debug level to every configured logger.
func (o *observer) logDebug(ctx context.Context, msg string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}

	if o.contextualLogger != nil {
		o.contextualLogger.DebugContext(ctx, msg, args...)
	}
}

// logWarn logs a failure at warn level to every configured logger.
func (o *observer) logWarn(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if o.logger != nil {
		o.logger.Warn(msg, allArgs...)
	}

	if o.contextualLogger != nil {
		o.contextualLogger.WarnContext(ctx, msg, allArgs...)
	}
}

// logError logs a failure at error level to every configured logger.
func (o *observer) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if o.logger != nil {
		o.logger.Error(msg, allArgs...)
	}

	if o.contextualLogger != nil {
		o.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

// incrementCounterContext increments a counter, using the context-aware method if available.
func (o *observer) incrementCounterContext(ctx context.Context, metric string, labels map[string]string) {
	if o.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	o.metricsCollector.IncrementCounter(metric, labels)
}

// recordDurationContext records a duration, using the context-aware method if available.
func (o *observer) recordDurationContext(
	ctx context.Context,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {
	if o.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	o.metricsCollector.RecordDuration(metric, duration, labels)
}

// startTraceSpan starts a tracing span if the tracing collector is configured.
func (o *observer) startTraceSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, SpanContext) {
	if o.tracingCollector != nil {
		return o.tracingCollector.StartSpan(ctx, name, attrs)
	}

	return ctx, nil
}

// finishTraceSpan finishes a tracing span if the tracing collector is configured.
func (o *observer) finishTraceSpan(spanCtx SpanContext, status string, attrs map[string]string) {
	if o.tracingCollector != nil && spanCtx != nil {
		o.tracingCollector.FinishSpan(spanCtx, status, attrs)
	}
}

// hookFailed records a failed hook.
func (o *observer) hookFailed(ctx context.Context, model string, operation Operation, scope string, err error) {
	o.logWarn(
		ctx,
		logMsgHookFailed,
		err,
		logAttrModel, model,
		logAttrOperation, string(operation),
		logAttrScope, scope,
	)

	o.incrementCounterContext(ctx, metricHookFailures, map[string]string{
		logAttrModel:     model,
		logAttrOperation: string(operation),
		logAttrScope:     scope,
	})
}

// registrationRejected records a hook or listener registration that could never be dispatched.
func (o *observer) registrationRejected(model string, operation Operation, err error) {
	o.logWarn(
		context.Background(),
		logMsgRegistrationFailed,
		err,
		logAttrModel, model,
		logAttrOperation, string(operation),
	)
}

// listenerFailed records a failed event listener.
func (o *observer) listenerFailed(ctx context.Context, key string, phase Phase, payload Payload, err error) {
	o.logWarn(
		ctx,
		logMsgListenerFailed,
		err,
		logAttrKey, key,
		logAttrPhase, string(phase),
		logAttrModel, payload.Model,
		logAttrOperation, string(payload.Operation),
		logAttrInvocationID, payload.InvocationID.String(),
	)

	o.incrementCounterContext(ctx, metricListenerFailures, map[string]string{
		logAttrPhase:     string(phase),
		logAttrOperation: string(payload.Operation),
	})
}

// statusOf maps an executor error to the status and error type used for metrics and spans.
func statusOf(err error) (status string, errorType string) {
	switch {
	case errors.Is(err, context.Canceled):
		return statusCanceled, errorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return statusTimeout, errorTypeTimeout
	default:
		return statusError, errorTypeExecutorFailure
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
