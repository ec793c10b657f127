package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/config"
)

// TestOTelInitialization tests OpenTelemetry initialization
func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(nil, nil)
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

// TestTraceCorrelation tests trace ID correlation
func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
		EnableTracing:  true,
		SampleRatio:    1.0,
	}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.Empty(t, TraceIDFromContext(context.Background()))

	ctx, span := otel.Tracer("test").Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.Len(t, traceID, 32)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	ctx, child := otel.Tracer("test").Start(ctx, "child-operation")
	defer child.End()
	assert.Equal(t, traceID, TraceIDFromContext(ctx))
	assert.NotEqual(t, span.SpanContext().SpanID(), child.SpanContext().SpanID())

	RecordError(ctx, errors.New("boom"))
}

// TestPrometheusEndpoint tests the Prometheus metrics endpoint
func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

// TestOTelConfiguration tests different configuration options
func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		config  *OTelConfig
		wantErr bool
	}{
		{
			name: "stdout traces",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "development",
				TraceExporter:  "stdout",
				MetricExporter: "none",
				EnableTracing:  true,
				SampleRatio:    1.0,
			},
		},
		{
			name: "everything disabled",
			config: &OTelConfig{
				ServiceName:    "test-service",
				ServiceVersion: "v1.0.0",
				Environment:    "test",
			},
		},
		{
			name: "unknown trace exporter",
			config: &OTelConfig{
				TraceExporter: "jaeger",
				EnableTracing: true,
			},
			wantErr: true,
		},
		{
			name: "unknown metric exporter",
			config: &OTelConfig{
				MetricExporter: "statsd",
				EnableMetrics:  true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.config.EnableTracing, providers.TracerProvider != nil)
			assert.Equal(t, tt.config.EnableMetrics, providers.MeterProvider != nil)
			assert.NoError(t, providers.Shutdown(context.Background()))
		})
	}
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		ServiceName:    "mde-test",
		Environment:    "staging",
		TracingEnabled: true,
		StdoutTraces:   true,
		SampleRate:     0.5,
	}, "2.0.0")

	assert.Equal(t, "mde-test", cfg.ServiceName)
	assert.Equal(t, "2.0.0", cfg.ServiceVersion)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.True(t, cfg.EnableTracing)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, 0.5, cfg.SampleRatio)
}

func newTestMetrics(t *testing.T) (*PipelineMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { mp.Shutdown(context.Background()) })

	metrics, err := CreatePipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

// collectSum returns the summed data points of an integer sum instrument.
func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestRecordStage(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	RecordStage(ctx, metrics, "normalize", 120, 15*time.Millisecond, nil)
	RecordStage(ctx, metrics, "normalize", 0, time.Millisecond, errors.New("bad table"))

	assert.Equal(t, int64(120), collectSum(t, reader, "pipeline_rows_processed_total"))
	assert.Equal(t, int64(1), collectSum(t, reader, "pipeline_errors_total"))
}

func TestRecordDatasetCounters(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	RecordIngest(ctx, metrics, "csv", "google_ads")
	RecordIngest(ctx, metrics, "json", "meta")
	RecordIngest(ctx, metrics, "merge", "unknown")
	RecordDatasetsRemoved(ctx, metrics, 2)
	RecordAnomalies(ctx, metrics, "statistical", 4)
	RecordAnomalies(ctx, metrics, "performance", 0)

	assert.Equal(t, int64(3), collectSum(t, reader, "datasets_ingested_total"))
	assert.Equal(t, int64(1), collectSum(t, reader, "datasets_active"))
	assert.Equal(t, int64(4), collectSum(t, reader, "anomalies_detected_total"))
}

func TestRecordHelpersIgnoreNilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordStage(ctx, nil, "quality", 10, time.Second, nil)
		RecordIngest(ctx, nil, "csv", "meta")
		RecordDatasetsRemoved(ctx, nil, 1)
		RecordAnomalies(ctx, nil, "statistical", 1)
	})
}
