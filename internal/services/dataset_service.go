package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/anomaly"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/infrastructure"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/ingest"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/insights"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/normalize"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/quality"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/sample"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/stats"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/store"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/validation"
)

// Pipeline events broadcast to websocket clients.
const (
	EventDatasetIngested   = "dataset.ingested"
	EventDatasetNormalized = "dataset.normalized"
	EventDatasetMerged     = "dataset.merged"
	EventDatasetDeleted    = "dataset.deleted"
	EventStoreReset        = "store.reset"
	EventQualityChecked    = "quality.checked"
	EventAnomaliesDetected = "anomalies.detected"
)

// PreviewRows is the number of records returned with a normalization result.
const PreviewRows = 10

// EventBroadcaster interface for WebSocket communication
type EventBroadcaster interface {
	Broadcast(messageType string, data interface{})
}

// DatasetConfig tunes the pipeline.
type DatasetConfig struct {
	DefaultCurrency    string
	DetectionThreshold float64
	// Workers bounds the goroutines used for multi-file ingestion and report building.
	Workers    int
	SampleDays int
}

// DatasetDeps are the collaborators of DatasetService. Nil fields get defaults.
type DatasetDeps struct {
	Store       *store.Memory
	Registry    *schema.Registry
	Validator   *validation.FileValidator
	Quality     *quality.Config
	Anomaly     *anomaly.Config
	Performance *anomaly.PerformanceConfig
	Insights    insights.Engine
	Hub         EventBroadcaster
	Metrics     *infrastructure.PipelineMetrics
	Logger      *slog.Logger
	Config      DatasetConfig
}

// Upload is one file handed to IngestMany.
type Upload struct {
	Filename string
	Data     []byte
}

// IngestResult describes a registered dataset.
type IngestResult struct {
	ID         string           `json:"id"`
	Filename   string           `json:"filename"`
	Format     string           `json:"format,omitempty"`
	Rows       int              `json:"rows"`
	Columns    []string         `json:"columns"`
	Detection  schema.Detection `json:"detection"`
	Profile    dataset.Profile  `json:"profile"`
	Normalized bool             `json:"normalized"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NormalizeRequest selects the mapping and target currency of a normalization run.
type NormalizeRequest struct {
	Platform string            `json:"platform,omitempty" validate:"omitempty,max=50"`
	Currency string            `json:"currency,omitempty" validate:"omitempty,currency"`
	Mapping  map[string]string `json:"mapping,omitempty" validate:"omitempty,dive,keys,required,endkeys,required"`
}

// NormalizeResult is the outcome of a normalization run.
type NormalizeResult struct {
	ID      string            `json:"id"`
	Rows    int               `json:"rows"`
	Fields  []string          `json:"mapped_fields"`
	Report  *normalize.Report `json:"report"`
	Preview []dataset.Record  `json:"preview"`
}

// MergeRequest combines stored datasets into a new one.
type MergeRequest struct {
	DatasetIDs    []string `json:"dataset_ids" validate:"required,min=1,dive,required"`
	PlatformNames []string `json:"platform_names,omitempty" validate:"omitempty,dive,max=50"`
	Strategy      string   `json:"strategy,omitempty" validate:"omitempty,oneof=append outer_join_by_date"`
	Name          string   `json:"name,omitempty" validate:"omitempty,max=200"`
}

// DatasetStats holds descriptive statistics per numeric field.
type DatasetStats struct {
	ID     string                   `json:"id"`
	Rows   int                      `json:"rows"`
	Fields map[string]stats.Summary `json:"fields"`
}

// DatasetService runs the marketing data pipeline over the dataset store.
type DatasetService struct {
	store      *store.Memory
	reader     *ingest.Reader
	detector   *schema.Detector
	normalizer *normalize.Normalizer
	scorer     *quality.Scorer
	anomalies  *anomaly.Detector
	insights   insights.Engine
	validator  *validation.FileValidator
	hub        EventBroadcaster
	metrics    *infrastructure.PipelineMetrics
	tracer     trace.Tracer
	cfg        DatasetConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewDatasetService creates the pipeline service.
func NewDatasetService(deps DatasetDeps) *DatasetService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "dataset_service")

	st := deps.Store
	if st == nil {
		st = store.NewMemory(0)
	}
	registry := deps.Registry
	if registry == nil {
		registry = schema.Default()
	}
	validator := deps.Validator
	if validator == nil {
		validator = validation.NewFileValidator(logger, 0, nil)
	}
	qcfg := quality.DefaultConfig()
	if deps.Quality != nil {
		qcfg = *deps.Quality
	}
	acfg := anomaly.DefaultConfig()
	if deps.Anomaly != nil {
		acfg = *deps.Anomaly
	}
	pcfg := anomaly.DefaultPerformanceConfig()
	if deps.Performance != nil {
		pcfg = *deps.Performance
	}
	engine := deps.Insights
	if engine == nil {
		engine = insights.NewRuleBased(logger)
	}

	cfg := deps.Config
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = normalize.DefaultCurrency
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.SampleDays <= 0 {
		cfg.SampleDays = sample.DefaultDays
	}

	logger.Info("DatasetService initialized",
		slog.String("registry_version", registry.Version()),
		slog.String("default_currency", cfg.DefaultCurrency),
		slog.String("insights_mode", string(engine.Mode())),
		slog.Int("workers", cfg.Workers))

	return &DatasetService{
		store:      st,
		reader:     ingest.NewReader(logger),
		detector:   schema.NewDetector(registry, cfg.DetectionThreshold),
		normalizer: normalize.New(registry, logger),
		scorer:     quality.NewScorer(qcfg, logger),
		anomalies:  anomaly.NewDetector(acfg, pcfg, logger),
		insights:   engine,
		validator:  validator,
		hub:        deps.Hub,
		metrics:    deps.Metrics,
		tracer:     otel.Tracer(infrastructure.MeterName),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// stage opens a span for one pipeline stage. The returned func records the outcome.
func (s *DatasetService) stage(ctx context.Context, name, id string) (context.Context, func(rows int, err error)) {
	ctx, span := s.tracer.Start(ctx, "pipeline."+name, trace.WithAttributes(attribute.String("dataset.id", id)))
	start := s.now()
	return ctx, func(rows int, err error) {
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
		span.SetAttributes(attribute.Int("rows", rows))
		infrastructure.RecordStage(ctx, s.metrics, name, rows, time.Since(start), err)
		span.End()
	}
}

func (s *DatasetService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(event, data)
}

// entry fetches a stored entry, translating the store's not-found error.
func (s *DatasetService) entry(id string) (store.Entry, error) {
	e, err := s.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Entry{}, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return e, err
}

// dataset returns the normalized dataset of id. A dataset that was never normalized is
// normalized with its detected platform and the default currency, and the result is stored.
func (s *DatasetService) dataset(ctx context.Context, id string) (*dataset.Dataset, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	if e.Normalized() {
		return e.Dataset, nil
	}

	s.logger.DebugContext(ctx, "normalizing on first use", slog.String("dataset_id", id))
	_, ds, err := s.normalizeEntry(ctx, e, normalize.Options{
		Platform:       e.Detection.Platform,
		TargetCurrency: s.cfg.DefaultCurrency,
	})
	return ds, err
}

// Ingest parses one uploaded file and registers it.
func (s *DatasetService) Ingest(ctx context.Context, filename string, data []byte) (*IngestResult, error) {
	ctx, done := s.stage(ctx, "ingest", "")
	table, err := s.parse(filename, data)
	if err != nil {
		done(0, err)
		return nil, err
	}
	result := s.register(ctx, filename, table)
	done(result.Rows, nil)
	return result, nil
}

// IngestMany parses every upload concurrently and registers them only when all of them parse.
func (s *DatasetService) IngestMany(ctx context.Context, uploads []Upload) ([]IngestResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoUploads
	}
	ctx, done := s.stage(ctx, "ingest_many", "")

	tables := make([]*dataset.Table, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, u := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := s.parse(u.Filename, u.Data)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		done(0, err)
		return nil, err
	}

	results := make([]IngestResult, len(uploads))
	rows := 0
	for i, u := range uploads {
		results[i] = *s.register(ctx, u.Filename, tables[i])
		rows += results[i].Rows
	}
	done(rows, nil)
	return results, nil
}

func (s *DatasetService) parse(filename string, data []byte) (*dataset.Table, error) {
	if err := s.validator.ValidateUpload(filename, int64(len(data))); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	table, err := s.reader.Read(filename, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIngestionFailed, filename, err)
	}
	return table, nil
}

func (s *DatasetService) register(ctx context.Context, filename string, table *dataset.Table) *IngestResult {
	detection := s.detector.Detect(table.Columns)
	e := s.store.Create(store.Entry{
		Name:      filename,
		Source:    table,
		Profile:   ingest.Profile(table),
		Detection: detection,
	})

	format, _ := ingest.FormatFromFilename(filename)
	infrastructure.RecordIngest(ctx, s.metrics, string(format), string(detection.Platform))

	s.logger.InfoContext(ctx, "dataset ingested",
		slog.String("dataset_id", e.ID),
		slog.String("file", filename),
		slog.String("platform", string(detection.Platform)),
		slog.Float64("confidence", detection.Score),
		slog.Int("rows", table.Len()))
	s.broadcast(EventDatasetIngested, map[string]interface{}{
		"dataset_id": e.ID,
		"filename":   filename,
		"platform":   detection.Platform,
		"rows":       table.Len(),
	})

	result := ingestResult(e)
	result.Format = string(format)
	return result
}

func ingestResult(e store.Entry) *IngestResult {
	var columns []string
	if e.Source != nil {
		columns = e.Source.Columns
	}
	return &IngestResult{
		ID:         e.ID,
		Filename:   e.Name,
		Rows:       e.Rows(),
		Columns:    columns,
		Detection:  e.Detection,
		Profile:    e.Profile,
		Normalized: e.Normalized(),
		CreatedAt:  e.CreatedAt,
	}
}

// Normalize maps the raw table of id onto the canonical schema and stores the result. An empty
// platform uses the detected one.
func (s *DatasetService) Normalize(ctx context.Context, id string, req NormalizeRequest) (*NormalizeResult, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	platform := e.Detection.Platform
	if p := strings.TrimSpace(req.Platform); p != "" && !strings.EqualFold(p, "auto") {
		platform, err = schema.ParsePlatform(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	currency := req.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	res, _, err := s.normalizeEntry(ctx, e, normalize.Options{
		Platform:       platform,
		TargetCurrency: currency,
		Mapping:        req.Mapping,
	})
	return res, err
}

func (s *DatasetService) normalizeEntry(ctx context.Context, e store.Entry, opts normalize.Options) (*NormalizeResult, *dataset.Dataset, error) {
	ctx, done := s.stage(ctx, "normalize", e.ID)

	if e.Source == nil {
		err := fmt.Errorf("%w: dataset %s has no source table", ErrInvalidInput, e.ID)
		done(0, err)
		return nil, nil, err
	}

	ds, report, err := s.normalizer.Normalize(e.Source, opts)
	if err != nil {
		if errors.Is(err, normalize.ErrUnsupportedCurrency) || errors.Is(err, normalize.ErrUnknownField) {
			err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		done(0, err)
		return nil, nil, err
	}
	ds.Name = e.Name
	ds.IngestedAt = e.CreatedAt

	stored, err := s.store.SetNormalized(e.ID, ds, report)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = fmt.Errorf("%w: %s", ErrDatasetNotFound, e.ID)
		}
		done(0, err)
		return nil, nil, err
	}
	done(stored.Dataset.Len(), nil)

	s.logger.InfoContext(ctx, "dataset normalized",
		slog.String("dataset_id", e.ID),
		slog.String("platform", string(report.Platform)),
		slog.Bool("fallback_mapping", report.FallbackMapping),
		slog.Int("rows", report.OutputRows),
		slog.Int("duplicates_removed", report.DuplicatesRemoved))
	s.broadcast(EventDatasetNormalized, map[string]interface{}{
		"dataset_id":       e.ID,
		"platform":         report.Platform,
		"rows":             report.OutputRows,
		"fallback_mapping": report.FallbackMapping,
	})

	preview := stored.Dataset.Records
	if len(preview) > PreviewRows {
		preview = preview[:PreviewRows]
	}
	return &NormalizeResult{
		ID:      e.ID,
		Rows:    stored.Dataset.Len(),
		Fields:  stored.Dataset.Fields,
		Report:  report,
		Preview: preview,
	}, stored.Dataset, nil
}

// CheckQuality scores the dataset.
func (s *DatasetService) CheckQuality(ctx context.Context, id string) (*quality.Report, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx, done := s.stage(ctx, "quality", id)
	report := s.scorer.Check(ds)
	done(ds.Len(), nil)

	event := map[string]interface{}{
		"dataset_id": id,
		"status":     report.Status,
		"grade":      report.Grade,
	}
	if report.OverallScore != nil {
		event["score"] = *report.OverallScore
	}
	s.broadcast(EventQualityChecked, event)
	return report, nil
}

// DetectAnomalies runs statistical detection over columns, or the default metrics when empty.
func (s *DatasetService) DetectAnomalies(ctx context.Context, id string, columns []string) (*anomaly.Result, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx, done := s.stage(ctx, "anomalies", id)
	result, err := s.anomalies.Detect(ds, columns)
	if err != nil {
		if errors.Is(err, anomaly.ErrUnknownMetric) {
			err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		done(0, err)
		return nil, err
	}
	done(ds.Len(), nil)

	infrastructure.RecordAnomalies(ctx, s.metrics, "statistical", len(result.Anomalies))
	s.broadcast(EventAnomaliesDetected, map[string]interface{}{
		"dataset_id": id,
		"kind":       "statistical",
		"count":      len(result.Anomalies),
	})
	return result, nil
}

// DetectPerformanceAnomalies applies the business rules to every row.
func (s *DatasetService) DetectPerformanceAnomalies(ctx context.Context, id string) ([]anomaly.Finding, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx, done := s.stage(ctx, "performance", id)
	findings := s.anomalies.DetectPerformance(ds)
	done(ds.Len(), nil)

	infrastructure.RecordAnomalies(ctx, s.metrics, "performance", len(findings))
	s.broadcast(EventAnomaliesDetected, map[string]interface{}{
		"dataset_id": id,
		"kind":       "performance",
		"count":      len(findings),
	})
	return findings, nil
}

// AggregateByDate groups the dataset by day, week or month.
func (s *DatasetService) AggregateByDate(ctx context.Context, id, granularity string, byPlatform bool) (*aggregate.Result, error) {
	g, err := aggregate.ParseGranularity(granularity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	_, done := s.stage(ctx, "aggregate_date", id)
	result, err := aggregate.ByDate(ds, g, byPlatform)
	done(ds.Len(), err)
	return result, err
}

// AggregateByCampaign groups the dataset by campaign.
func (s *DatasetService) AggregateByCampaign(ctx context.Context, id string, breakdown bool) (*aggregate.Result, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	_, done := s.stage(ctx, "aggregate_campaign", id)
	result := aggregate.ByCampaign(ds, breakdown)
	done(ds.Len(), nil)
	return result, nil
}

// ComparePlatforms ranks the platforms of the dataset by metric.
func (s *DatasetService) ComparePlatforms(ctx context.Context, id, metric string) (*aggregate.Result, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	_, done := s.stage(ctx, "compare_platforms", id)
	result, err := aggregate.ComparePlatforms(ds, metric)
	if errors.Is(err, aggregate.ErrUnknownMetric) {
		err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	done(ds.Len(), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Merge combines stored datasets and registers the result as a new dataset.
func (s *DatasetService) Merge(ctx context.Context, req MergeRequest) (*IngestResult, error) {
	if len(req.DatasetIDs) == 0 {
		return nil, fmt.Errorf("%w: no datasets to merge", ErrInvalidInput)
	}
	strategy, err := aggregate.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	datasets := make([]*dataset.Dataset, len(req.DatasetIDs))
	for i, id := range req.DatasetIDs {
		if datasets[i], err = s.dataset(ctx, id); err != nil {
			return nil, err
		}
	}

	ctx, done := s.stage(ctx, "merge", "")
	merged, err := aggregate.Merge(datasets, req.PlatformNames, strategy)
	if err != nil {
		if errors.Is(err, aggregate.ErrMixedCurrency) || errors.Is(err, aggregate.ErrNoDatasets) {
			err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		done(0, err)
		return nil, err
	}
	if req.Name != "" {
		merged.Name = req.Name
	}
	merged.IngestedAt = s.now().UTC()

	table := merged.Table()
	e := s.store.Create(store.Entry{
		Name:    merged.Name,
		Source:  table,
		Profile: ingest.Profile(table),
		Detection: schema.Detection{
			Platform: merged.Platform,
			Name:     merged.Platform.DisplayName(),
			Score:    1,
			Fallback: !merged.Platform.IsKnown(),
		},
		Dataset: merged,
	})
	done(merged.Len(), nil)
	infrastructure.RecordIngest(ctx, s.metrics, "merge", string(merged.Platform))

	s.logger.InfoContext(ctx, "datasets merged",
		slog.String("dataset_id", e.ID),
		slog.Any("sources", req.DatasetIDs),
		slog.String("strategy", string(strategy)),
		slog.Int("rows", merged.Len()))
	s.broadcast(EventDatasetMerged, map[string]interface{}{
		"dataset_id": e.ID,
		"sources":    req.DatasetIDs,
		"strategy":   strategy,
		"rows":       merged.Len(),
	})
	return ingestResult(e), nil
}

// Page returns a window of the dataset rows.
func (s *DatasetService) Page(ctx context.Context, id string, page, perPage int) (*store.Page, error) {
	p, err := s.store.Page(id, page, perPage)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Describe returns descriptive statistics for every numeric field of the dataset. Imputed
// values are left out.
func (s *DatasetService) Describe(ctx context.Context, id string) (*DatasetStats, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(schema.MetricFields)+len(schema.DerivedFields))
	for _, f := range schema.MetricFields {
		if ds.HasField(f) {
			fields = append(fields, f)
		}
	}
	fields = append(fields, schema.DerivedFields...)

	out := &DatasetStats{ID: id, Rows: ds.Len(), Fields: make(map[string]stats.Summary, len(fields))}
	for _, f := range fields {
		values := make([]float64, 0, ds.Len())
		for _, rec := range ds.Records {
			if rec.IsImputed(f) {
				continue
			}
			if v, ok := rec.Value(f); ok {
				values = append(values, v)
			}
		}
		out.Fields[f] = stats.Describe(values)
	}
	return out, nil
}

// Stats summarises the store.
func (s *DatasetService) Stats(_ context.Context) store.Stats {
	return s.store.Stats()
}

// List returns every stored dataset, oldest first.
func (s *DatasetService) List(_ context.Context) []store.Info {
	return s.store.List()
}

// Delete removes a dataset.
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
		}
		return err
	}
	infrastructure.RecordDatasetsRemoved(ctx, s.metrics, 1)
	s.logger.InfoContext(ctx, "dataset deleted", slog.String("dataset_id", id))
	s.broadcast(EventDatasetDeleted, map[string]interface{}{"dataset_id": id})
	return nil
}

// Reset removes every dataset and returns how many were removed.
func (s *DatasetService) Reset(ctx context.Context) int {
	n := s.store.Reset()
	infrastructure.RecordDatasetsRemoved(ctx, s.metrics, n)
	s.logger.InfoContext(ctx, "store reset", slog.Int("removed", n))
	s.broadcast(EventStoreReset, map[string]interface{}{"removed": n})
	return n
}

// GenerateSample registers and normalizes a generated multi-platform export. A zero seed uses
// the clock; days <= 0 uses the configured default.
func (s *DatasetService) GenerateSample(ctx context.Context, days int, seed int64) (*IngestResult, error) {
	if days <= 0 {
		days = s.cfg.SampleDays
	}
	if seed == 0 {
		seed = s.now().UnixNano()
	}
	table := sample.Generate(sample.Options{Days: days, Seed: seed, End: s.now()})

	result := s.register(ctx, fmt.Sprintf("sample_%dd.csv", days), table)
	if _, err := s.dataset(ctx, result.ID); err != nil {
		return nil, err
	}
	result.Normalized = true
	return result, nil
}

// Insights generates findings and recommendations for the dataset.
func (s *DatasetService) Insights(ctx context.Context, id string, req insights.Request) (*insights.Result, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx, done := s.stage(ctx, "insights", id)
	result, err := s.insights.Generate(ctx, ds, req)
	done(ds.Len(), err)
	return result, err
}

// baseName strips the extension of a dataset name for export filenames.
func baseName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		return "dataset"
	}
	return base
}
