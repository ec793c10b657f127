package http

import (
	"context"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/anomaly"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/insights"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/quality"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/store"
)

// DatasetServiceInterface defines the dataset lifecycle operations used by DatasetHandler
type DatasetServiceInterface interface {
	Ingest(ctx context.Context, filename string, data []byte) (*services.IngestResult, error)
	IngestMany(ctx context.Context, uploads []services.Upload) ([]services.IngestResult, error)
	Merge(ctx context.Context, req services.MergeRequest) (*services.IngestResult, error)
	GenerateSample(ctx context.Context, days int, seed int64) (*services.IngestResult, error)
	Page(ctx context.Context, id string, page, perPage int) (*store.Page, error)
	Describe(ctx context.Context, id string) (*services.DatasetStats, error)
	Stats(ctx context.Context) store.Stats
	List(ctx context.Context) []store.Info
	Delete(ctx context.Context, id string) error
	Reset(ctx context.Context) int
}

// AnalysisServiceInterface defines the per-dataset analysis operations used by AnalysisHandler
type AnalysisServiceInterface interface {
	Normalize(ctx context.Context, id string, req services.NormalizeRequest) (*services.NormalizeResult, error)
	CheckQuality(ctx context.Context, id string) (*quality.Report, error)
	DetectAnomalies(ctx context.Context, id string, columns []string) (*anomaly.Result, error)
	DetectPerformanceAnomalies(ctx context.Context, id string) ([]anomaly.Finding, error)
	AggregateByDate(ctx context.Context, id, granularity string, byPlatform bool) (*aggregate.Result, error)
	AggregateByCampaign(ctx context.Context, id string, breakdown bool) (*aggregate.Result, error)
	ComparePlatforms(ctx context.Context, id, metric string) (*aggregate.Result, error)
	Insights(ctx context.Context, id string, req insights.Request) (*insights.Result, error)
}

// ReportServiceInterface defines the export operations used by ReportHandler
type ReportServiceInterface interface {
	ExportCSV(ctx context.Context, id string, bom bool) (*services.Export, error)
	ExcelReport(ctx context.Context, id string) (*services.Export, error)
	MarkdownReport(ctx context.Context, id string) (*services.Export, error)
}

// HealthServiceInterface defines the health operations used by HealthHandler
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
	SystemStats(ctx context.Context) services.SystemStats
	GetDetailedHealth(ctx context.Context) map[string]interface{}
}

var (
	_ DatasetServiceInterface  = (*services.DatasetService)(nil)
	_ AnalysisServiceInterface = (*services.DatasetService)(nil)
	_ ReportServiceInterface   = (*services.DatasetService)(nil)
	_ HealthServiceInterface   = (*services.HealthService)(nil)
)
