package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// StoreSnapshot reports the size of the dataset store.
type StoreSnapshot func() (datasets, rows int)

// RuntimeMetrics records process and store gauges
type RuntimeMetrics struct {
	goroutines    metric.Int64Gauge
	heapBytes     metric.Int64Gauge
	gcCount       metric.Int64Gauge
	uptime        metric.Float64Gauge
	storeDatasets metric.Int64Gauge
	storeRows     metric.Int64Gauge
}

// RuntimeStats holds one sample of the runtime gauges
type RuntimeStats struct {
	Goroutines    int64         `json:"goroutines"`
	HeapBytes     int64         `json:"heap_bytes"`
	GCCount       uint32        `json:"gc_count"`
	Uptime        time.Duration `json:"uptime"`
	StoreDatasets int           `json:"store_datasets"`
	StoreRows     int           `json:"store_rows"`
	Timestamp     time.Time     `json:"timestamp"`
}

// NewRuntimeMetrics registers the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	m := &RuntimeMetrics{}
	var err error

	if m.goroutines, err = meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	); err != nil {
		return nil, err
	}
	if m.heapBytes, err = meter.Int64Gauge(
		"system_memory_usage_bytes",
		metric.WithDescription("Heap memory in use"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if m.gcCount, err = meter.Int64Gauge(
		"system_gc_count",
		metric.WithDescription("Completed garbage collection cycles"),
	); err != nil {
		return nil, err
	}
	if m.uptime, err = meter.Float64Gauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.storeDatasets, err = meter.Int64Gauge(
		"store_datasets",
		metric.WithDescription("Datasets held in memory"),
	); err != nil {
		return nil, err
	}
	if m.storeRows, err = meter.Int64Gauge(
		"store_rows",
		metric.WithDescription("Rows held in memory across all datasets"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// Collect samples the runtime and the store and records the gauges
func (m *RuntimeMetrics) Collect(ctx context.Context, startTime time.Time, snapshot StoreSnapshot) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := RuntimeStats{
		Goroutines: int64(runtime.NumGoroutine()),
		HeapBytes:  int64(mem.HeapAlloc),
		GCCount:    mem.NumGC,
		Uptime:     time.Since(startTime),
		Timestamp:  time.Now(),
	}
	if snapshot != nil {
		stats.StoreDatasets, stats.StoreRows = snapshot()
	}

	m.goroutines.Record(ctx, stats.Goroutines)
	m.heapBytes.Record(ctx, stats.HeapBytes)
	m.gcCount.Record(ctx, int64(stats.GCCount))
	m.uptime.Record(ctx, stats.Uptime.Seconds())
	m.storeDatasets.Record(ctx, int64(stats.StoreDatasets))
	m.storeRows.Record(ctx, int64(stats.StoreRows))
	return stats
}

// RuntimeCollector samples RuntimeMetrics on an interval until stopped
type RuntimeCollector struct {
	metrics   *RuntimeMetrics
	snapshot  StoreSnapshot
	startTime time.Time
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewRuntimeCollector creates a collector; a non-positive interval selects 15 seconds
func NewRuntimeCollector(meter metric.Meter, interval time.Duration, snapshot StoreSnapshot) (*RuntimeCollector, error) {
	metrics, err := NewRuntimeMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &RuntimeCollector{
		metrics:   metrics,
		snapshot:  snapshot,
		startTime: time.Now(),
		interval:  interval,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start collects until Stop is called or ctx is done. It blocks.
func (c *RuntimeCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.metrics.Collect(ctx, c.startTime, c.snapshot)
	for {
		select {
		case <-ticker.C:
			c.metrics.Collect(ctx, c.startTime, c.snapshot)
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends collection. It is safe to call more than once.
func (c *RuntimeCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Current samples the gauges immediately
func (c *RuntimeCollector) Current(ctx context.Context) RuntimeStats {
	return c.metrics.Collect(ctx, c.startTime, c.snapshot)
}
