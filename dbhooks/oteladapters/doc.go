// Package oteladapters provides OpenTelemetry implementations of the dbhooks observability interfaces.
//
// Users who already run an OpenTelemetry pipeline get logs, metrics and spans for every intercepted
// database operation without implementing the interfaces themselves:
//
//	client, err := dbhooks.NewClient(
//		dbhooks.WithExecutor(engine),
//		dbhooks.WithContextualLogger(oteladapters.NewSlogBridgeLogger("dbhooks")),
//		dbhooks.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter("dbhooks"))),
//		dbhooks.WithTracing(oteladapters.NewTracingCollector(otel.Tracer("dbhooks"))),
//	)
//
// The package is a separate module so that the core carries no OpenTelemetry dependency.
package oteladapters
