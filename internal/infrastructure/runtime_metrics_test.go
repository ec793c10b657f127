package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRuntimeCollector(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	collector, err := NewRuntimeCollector(mp.Meter("test"), time.Hour, func() (int, int) { return 2, 150 })
	require.NoError(t, err)

	stats := collector.Current(context.Background())
	assert.Positive(t, stats.Goroutines)
	assert.Positive(t, stats.HeapBytes)
	assert.Equal(t, 2, stats.StoreDatasets)
	assert.Equal(t, 150, stats.StoreRows)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var rows int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "store_rows" {
				gauge, ok := m.Data.(metricdata.Gauge[int64])
				require.True(t, ok)
				rows = gauge.DataPoints[0].Value
			}
		}
	}
	assert.Equal(t, int64(150), rows)
}

func TestRuntimeCollectorStop(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	collector, err := NewRuntimeCollector(mp.Meter("test"), 0, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		collector.Start(context.Background())
		close(done)
	}()

	collector.Stop()
	collector.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
}
