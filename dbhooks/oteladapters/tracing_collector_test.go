package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/oteladapters"
)

func givenTracingCollector() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, value string) {
	t.Helper()

	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) {
			assert.Equal(t, value, attr.Value.AsString(), "attribute %s", key)
			return
		}
	}

	t.Errorf("span %s has no attribute %s", span.Name, key)
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// arrange
	collector, exporter := givenTracingCollector()

	// act
	ctx, spanCtx := collector.StartSpan(context.Background(), "dbhooks.execute", map[string]string{
		"model":     "User",
		"operation": "create",
	})
	collector.FinishSpan(spanCtx, "success", map[string]string{"duration_ms": "1.50"})

	// assert
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "dbhooks.execute", span.Name)
	assert.Equal(t, trace.SpanKindClient, span.SpanKind)
	assertSpanHasAttribute(t, span, "model", "User")
	assertSpanHasAttribute(t, span, "operation", "create")
	assertSpanHasAttribute(t, span, "duration_ms", "1.50")
	assert.Equal(t, codes.Ok, span.Status.Code)
}

func Test_TracingCollector_MapsFailureStatuses(t *testing.T) {
	tests := []struct {
		status      string
		description string
	}{
		{status: "error", description: "Operation failed"},
		{status: "canceled", description: "Operation canceled"},
		{status: "timeout", description: "Operation timed out"},
	}

	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			collector, exporter := givenTracingCollector()

			_, spanCtx := collector.StartSpan(context.Background(), "dbhooks.execute", nil)
			spanCtx.AddAttribute("error_type", "executor_failure")
			collector.FinishSpan(spanCtx, tc.status, nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, codes.Error, spans[0].Status.Code)
			assert.Equal(t, tc.description, spans[0].Status.Description)
			assertSpanHasAttribute(t, spans[0], "error_type", "executor_failure")
		})
	}
}

func Test_TracingCollector_UnknownStatusBecomesAttribute(t *testing.T) {
	collector, exporter := givenTracingCollector()

	_, spanCtx := collector.StartSpan(context.Background(), "dbhooks.execute", nil)
	collector.FinishSpan(spanCtx, "skipped", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assertSpanHasAttribute(t, spans[0], "status", "skipped")
}

type foreignSpanContext struct{}

func (foreignSpanContext) SetStatus(string)            {}
func (foreignSpanContext) AddAttribute(string, string) {}

func Test_TracingCollector_FinishSpan_IgnoresForeignSpanContexts(t *testing.T) {
	collector, exporter := givenTracingCollector()

	assert.NotPanics(t, func() {
		collector.FinishSpan(foreignSpanContext{}, "success", nil)
	})
	assert.Empty(t, exporter.GetSpans())
}
