package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/exporter"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/insights"
)

// Export content types.
const (
	ContentTypeCSV      = "text/csv; charset=utf-8"
	ContentTypeExcel    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeMarkdown = "text/markdown; charset=utf-8"
)

// Export is a rendered file ready to be served.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// BuildReport runs every analysis over the dataset concurrently and bundles the results.
func (s *DatasetService) BuildReport(ctx context.Context, id string, req insights.Request) (*exporter.Report, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx, done := s.stage(ctx, "report", id)

	report := &exporter.Report{
		Name:        baseName(ds.Name),
		GeneratedAt: s.now().UTC(),
		Dataset:     ds,
		Summary:     aggregate.Summarize(ds),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	g.Go(func() error {
		report.Quality = s.scorer.Check(ds)
		return nil
	})
	g.Go(func() error {
		res, err := s.anomalies.Detect(ds, nil)
		report.Anomalies = res
		return err
	})
	g.Go(func() error {
		report.Performance = s.anomalies.DetectPerformance(ds)
		return nil
	})
	g.Go(func() error {
		report.Campaigns = aggregate.ByCampaign(ds, false)
		return nil
	})
	g.Go(func() error {
		res, err := aggregate.ComparePlatforms(ds, "")
		report.Platforms = res
		return err
	})
	g.Go(func() error {
		res, err := aggregate.ByDate(ds, aggregate.Daily, false)
		report.Daily = res
		return err
	})
	g.Go(func() error {
		res, err := s.insights.Generate(gctx, ds, req)
		report.Insights = res
		return err
	})

	if err := g.Wait(); err != nil {
		done(0, err)
		return nil, fmt.Errorf("build report for %s: %w", id, err)
	}
	done(ds.Len(), nil)

	s.logger.InfoContext(ctx, "report built",
		slog.String("dataset_id", id),
		slog.Int("rows", ds.Len()),
		slog.Int("anomalies", len(report.Anomalies.Anomalies)),
		slog.Int("performance_findings", len(report.Performance)),
		slog.String("insights_by", string(report.Insights.GeneratedBy)))
	return report, nil
}

// ExportCSV renders the normalized dataset as CSV.
func (s *DatasetService) ExportCSV(ctx context.Context, id string, bom bool) (*Export, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := exporter.WriteCSV(&buf, ds.Table(), exporter.WriteOptions{BOMPrefix: bom}); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	return &Export{
		Filename:    baseName(ds.Name) + "_normalized.csv",
		ContentType: ContentTypeCSV,
		Data:        buf.Bytes(),
	}, nil
}

// ExcelReport renders the full report as a workbook.
func (s *DatasetService) ExcelReport(ctx context.Context, id string) (*Export, error) {
	report, err := s.BuildReport(ctx, id, insights.Request{})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := exporter.WriteExcel(&buf, report); err != nil {
		return nil, fmt.Errorf("export excel: %w", err)
	}
	return &Export{
		Filename:    report.Name + "_report.xlsx",
		ContentType: ContentTypeExcel,
		Data:        buf.Bytes(),
	}, nil
}

// MarkdownReport renders the full report as Markdown.
func (s *DatasetService) MarkdownReport(ctx context.Context, id string) (*Export, error) {
	report, err := s.BuildReport(ctx, id, insights.Request{})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := exporter.WriteMarkdown(&buf, report); err != nil {
		return nil, fmt.Errorf("export markdown: %w", err)
	}
	return &Export{
		Filename:    report.Name + "_report.md",
		ContentType: ContentTypeMarkdown,
		Data:        buf.Bytes(),
	}, nil
}
