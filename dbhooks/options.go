package dbhooks

// WithExecutor sets the underlying database client used by Client.Run.
func WithExecutor(executor Executor) Option {
	return func(c *Client) error {
		if executor == nil {
			return ErrNilExecutor
		}

		c.executor = executor

		return nil
	}
}

// WithEventController makes the Client publish to an existing EventController.
// Its observability configuration is kept as is.
func WithEventController(events *EventController) Option {
	return func(c *Client) error {
		if events == nil {
			return ErrNilComponent
		}

		c.events = events

		return nil
	}
}

// WithHookRegistry makes the Client apply an existing HookRegistry.
// Its observability configuration is kept as is.
func WithHookRegistry(hooks *HookRegistry) Option {
	return func(c *Client) error {
		if hooks == nil {
			return ErrNilComponent
		}

		c.hooks = hooks

		return nil
	}
}

// WithLogger sets the logger for the Client.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: Per-invocation execution timing (development use)
// Warn level: Failed or panicking hooks and event listeners, which are skipped
// Error level: Failures of the underlying executor, which are returned to the caller.
func WithLogger(logger Logger) Option {
	return func(c *Client) error {
		c.obs.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Client.
// It receives the same messages as the Logger but with the invocation's context,
// which lets OpenTelemetry-aware backends correlate log records with the active span.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(c *Client) error {
		c.obs.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Client.
// The collector receives execution durations, call and error counts,
// and counts of failed hooks and event listeners.
func WithMetrics(collector MetricsCollector) Option {
	return func(c *Client) error {
		c.obs.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Client.
// One span is started per invocation; hooks, listeners and the query run inside its context.
func WithTracing(collector TracingCollector) Option {
	return func(c *Client) error {
		c.obs.tracingCollector = collector
		return nil
	}
}
