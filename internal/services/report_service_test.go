package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/exporter"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/insights"
)

func TestBuildReport(t *testing.T) {
	svc, _ := newTestService(t)
	res := ingestGoogle(t, svc)

	report, err := svc.BuildReport(context.Background(), res.ID, insights.Request{FocusArea: "budget"})
	require.NoError(t, err)

	assert.Equal(t, "google", report.Name)
	assert.Equal(t, 3, report.Summary.TotalRows)
	assert.NotNil(t, report.Quality)
	assert.NotNil(t, report.Anomalies)
	assert.NotNil(t, report.Campaigns)
	assert.NotNil(t, report.Platforms)
	assert.NotNil(t, report.Daily)
	require.NotNil(t, report.Insights)
	assert.Equal(t, insights.GeneratedByRules, report.Insights.GeneratedBy)
}

func TestBuildReportMissingDataset(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.BuildReport(context.Background(), "missing", insights.Request{})
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestExportCSV(t *testing.T) {
	svc, _ := newTestService(t)
	res := ingestGoogle(t, svc)

	out, err := svc.ExportCSV(context.Background(), res.ID, true)
	require.NoError(t, err)

	assert.Equal(t, "google_normalized.csv", out.Filename)
	assert.Equal(t, ContentTypeCSV, out.ContentType)
	assert.True(t, bytes.HasPrefix(out.Data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(out.Data), "2024-03-01")
}

func TestExcelReport(t *testing.T) {
	svc, _ := newTestService(t)
	res := ingestGoogle(t, svc)

	out, err := svc.ExcelReport(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "google_report.xlsx", out.Filename)
	assert.Equal(t, ContentTypeExcel, out.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(out.Data))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), exporter.SheetSummary)
	assert.Contains(t, f.GetSheetList(), exporter.SheetInsights)
}

func TestMarkdownReport(t *testing.T) {
	svc, _ := newTestService(t)
	res := ingestGoogle(t, svc)

	out, err := svc.MarkdownReport(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "google_report.md", out.Filename)
	assert.Contains(t, string(out.Data), "# Campaign report: google")
}
