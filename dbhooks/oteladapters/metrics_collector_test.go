package oteladapters_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/dynamic-query-hooks-go/dbhooks/oteladapters"
)

func givenMetricsCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()
	labels := map[string]string{"model": "User", "operation": "create", "status": "success"}

	// act
	collector.RecordDuration("dbhooks_execute_duration_seconds", 150*time.Millisecond, labels)

	// assert
	histogram := findHistogramMetric(t, collect(t, reader), "dbhooks_execute_duration_seconds")
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001)

	expectedAttrs := attribute.NewSet(
		attribute.String("model", "User"),
		attribute.String("operation", "create"),
		attribute.String("status", "success"),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs))
}

func Test_MetricsCollector_IncrementCounterContext(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()
	labels := map[string]string{"model": "User", "operation": "create", "scope": "model"}

	// act
	collector.IncrementCounterContext(context.Background(), "dbhooks_hook_failures_total", labels)
	collector.IncrementCounter("dbhooks_hook_failures_total", labels)
	collector.IncrementCounter("dbhooks_hook_failures_total", labels)

	// assert
	counter := findCounterMetric(t, collect(t, reader), "dbhooks_hook_failures_total")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(3), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue(t *testing.T) {
	collector, reader := givenMetricsCollector()

	collector.RecordValue("dbhooks_registered_hooks", 4, nil)
	collector.RecordValueContext(context.Background(), "dbhooks_registered_hooks", 5, nil)

	gauge := findGaugeMetric(t, collect(t, reader), "dbhooks_registered_hooks")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 5.0, gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_IsSafeForConcurrentUse(t *testing.T) {
	collector, reader := givenMetricsCollector()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter("dbhooks_execute_calls_total", map[string]string{"status": "success"})
			collector.RecordDuration("dbhooks_execute_duration_seconds", time.Millisecond, nil)
		}()
	}
	wg.Wait()

	counter := findCounterMetric(t, collect(t, reader), "dbhooks_execute_calls_total")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(50), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_InstrumentCreationFailureDropsMeasurement(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(&errorInjectingMeter{Meter: provider.Meter("test")})

	assert.NotPanics(t, func() {
		collector.RecordDuration("error_histogram", time.Millisecond, nil)
		collector.IncrementCounterContext(context.Background(), "error_counter", nil)
		collector.RecordValue("error_gauge", 1, nil)
	})

	for _, scopeMetrics := range collect(t, reader).ScopeMetrics {
		assert.Empty(t, scopeMetrics.Metrics)
	}
}

// errorInjectingMeter fails instrument creation for names with the "error_" prefix.
type errorInjectingMeter struct {
	metric.Meter
}

func (m *errorInjectingMeter) Float64Histogram(name string, options ...metric.Float64HistogramOption) (metric.Float64Histogram, error) {
	if name == "error_histogram" {
		return nil, errors.New("histogram creation failed")
	}

	return m.Meter.Float64Histogram(name, options...)
}

func (m *errorInjectingMeter) Int64Counter(name string, options ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	if name == "error_counter" {
		return nil, errors.New("counter creation failed")
	}

	return m.Meter.Int64Counter(name, options...)
}

func (m *errorInjectingMeter) Float64Gauge(name string, options ...metric.Float64GaugeOption) (metric.Float64Gauge, error) {
	if name == "error_gauge" {
		return nil, errors.New("gauge creation failed")
	}

	return m.Meter.Float64Gauge(name, options...)
}

func findHistogramMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Histogram[float64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == name {
				return h
			}
		}
	}

	t.Fatalf("histogram metric %s not found", name)

	return metricdata.Histogram[float64]{}
}

func findCounterMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if c, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == name {
				return c
			}
		}
	}

	t.Fatalf("counter metric %s not found", name)

	return metricdata.Sum[int64]{}
}

func findGaugeMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Gauge[float64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[float64]); ok && m.Name == name {
				return g
			}
		}
	}

	t.Fatalf("gauge metric %s not found", name)

	return metricdata.Gauge[float64]{}
}
