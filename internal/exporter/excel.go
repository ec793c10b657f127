package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// Sheet names in workbook order.
const (
	SheetSummary   = "Summary"
	SheetData      = "Data"
	SheetCampaigns = "Campaigns"
	SheetPlatforms = "Platforms"
	SheetDaily     = "Daily Trend"
	SheetQuality   = "Quality"
	SheetAnomalies = "Anomalies"
	SheetInsights  = "Insights"
)

type workbook struct {
	f           *excelize.File
	headerStyle int
	titleStyle  int
}

// WriteExcel writes the report workbook to w.
func WriteExcel(w io.Writer, report *Report) error {
	f, err := Workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Workbook builds the report workbook. The caller closes the returned file.
func Workbook(report *Report) (*excelize.File, error) {
	f := excelize.NewFile()
	wb := &workbook{f: f}

	var err error
	wb.headerStyle, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	wb.titleStyle, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	steps := []func(*Report) error{
		wb.summary,
		wb.data,
		wb.groups(SheetCampaigns, "Campaign", func(r *Report) *aggregate.Result { return r.Campaigns }),
		wb.platforms,
		wb.groups(SheetDaily, "Date", func(r *Report) *aggregate.Result { return r.Daily }),
		wb.quality,
		wb.anomalies,
		wb.insights,
	}
	for _, step := range steps {
		if err := step(report); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func (wb *workbook) sheet(name string) error {
	if name == SheetSummary {
		return nil
	}
	if _, err := wb.f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return nil
}

func (wb *workbook) header(sheet string, row int, headers []string) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := wb.row(sheet, row, values); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(headers), row)
	if err := wb.f.SetCellStyle(sheet, first, last, wb.headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return wb.f.SetColWidth(sheet, "A", lastCol, 15)
}

func (wb *workbook) row(sheet string, row int, values []interface{}) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := wb.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func (wb *workbook) title(sheet string, row int, text string) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := wb.f.SetCellValue(sheet, cell, text); err != nil {
		return err
	}
	return wb.f.SetCellStyle(sheet, cell, cell, wb.titleStyle)
}

func (wb *workbook) summary(r *Report) error {
	if err := wb.title(SheetSummary, 1, "Campaign report: "+r.Name); err != nil {
		return err
	}
	if !r.GeneratedAt.IsZero() {
		if err := wb.row(SheetSummary, 2, []interface{}{"Generated at", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST")}); err != nil {
			return err
		}
	}
	if err := wb.header(SheetSummary, 4, []string{"Metric", "Value"}); err != nil {
		return err
	}
	for i, kv := range summaryRows(r.Summary) {
		if err := wb.row(SheetSummary, 5+i, []interface{}{kv[0], kv[1]}); err != nil {
			return err
		}
	}
	return wb.f.SetColWidth(SheetSummary, "A", "B", 30)
}

// data streams the normalized records; numeric cells are written as numbers.
func (wb *workbook) data(r *Report) error {
	if r.Dataset == nil {
		return nil
	}
	if err := wb.sheet(SheetData); err != nil {
		return err
	}
	table := r.Dataset.Table()

	sw, err := wb.f.NewStreamWriter(SheetData)
	if err != nil {
		return fmt.Errorf("failed to open data stream: %w", err)
	}
	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: wb.headerStyle}); err != nil {
		return fmt.Errorf("failed to write data header: %w", err)
	}

	numeric := make([]bool, len(table.Columns))
	for i, c := range table.Columns {
		numeric[i] = schema.IsNumeric(c)
	}
	for i, row := range table.Rows {
		values := make([]interface{}, len(row))
		for j, cell := range row {
			values[j] = cell
			if numeric[j] && cell != "" {
				if v, err := strconv.ParseFloat(cell, 64); err == nil {
					values[j] = v
				}
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write data row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush data sheet: %w", err)
	}
	return nil
}

func (wb *workbook) groups(sheet, keyHeader string, pick func(*Report) *aggregate.Result) func(*Report) error {
	return func(r *Report) error {
		res := pick(r)
		if res == nil {
			return nil
		}
		if err := wb.sheet(sheet); err != nil {
			return err
		}
		if err := wb.header(sheet, 1, append([]string{keyHeader}, groupHeaders...)); err != nil {
			return err
		}
		for i, g := range res.Groups {
			values := append([]interface{}{g.Key}, groupValues(g)...)
			if err := wb.row(sheet, i+2, values); err != nil {
				return err
			}
		}
		return nil
	}
}

func (wb *workbook) platforms(r *Report) error {
	res := r.Platforms
	if res == nil {
		return nil
	}
	if err := wb.sheet(SheetPlatforms); err != nil {
		return err
	}
	headers := append([]string{"Rank", "Platform", "Spend Share %"}, groupHeaders...)
	if err := wb.header(SheetPlatforms, 1, headers); err != nil {
		return err
	}
	for i, g := range res.Groups {
		values := append([]interface{}{g.Rank, g.Key, g.SpendShare}, groupValues(g)...)
		if err := wb.row(SheetPlatforms, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) quality(r *Report) error {
	q := r.Quality
	if q == nil {
		return nil
	}
	if err := wb.sheet(SheetQuality); err != nil {
		return err
	}

	overall := "n/a"
	if q.OverallScore != nil {
		overall = formatFloat(*q.OverallScore)
	}
	if err := wb.row(SheetQuality, 1, []interface{}{"Overall score", overall, "Grade", q.Grade, "Status", string(q.Status)}); err != nil {
		return err
	}

	row := 3
	if err := wb.header(SheetQuality, row, []string{"Dimension", "Score", "Weight", "Status", "Details"}); err != nil {
		return err
	}
	for _, d := range q.Dimensions {
		row++
		if err := wb.row(SheetQuality, row, []interface{}{d.Name, d.Score, d.Weight, d.Status, d.Details}); err != nil {
			return err
		}
	}

	row += 2
	if err := wb.header(SheetQuality, row, []string{"Dimension", "Field", "Issue", "Affected Rows", "Severity", "Message"}); err != nil {
		return err
	}
	for _, fd := range q.Findings {
		row++
		if err := wb.row(SheetQuality, row, []interface{}{fd.Dimension, fd.Field, fd.Kind, fd.Rows, fd.Severity, fd.Message}); err != nil {
			return err
		}
	}

	row += 2
	if err := wb.header(SheetQuality, row, []string{"Recommendation"}); err != nil {
		return err
	}
	for _, rec := range q.Recommendations {
		row++
		if err := wb.row(SheetQuality, row, []interface{}{rec}); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) anomalies(r *Report) error {
	if r.Anomalies == nil && r.Performance == nil {
		return nil
	}
	if err := wb.sheet(SheetAnomalies); err != nil {
		return err
	}

	row := 1
	if err := wb.header(SheetAnomalies, row, []string{
		"Row", "Date", "Platform", "Campaign", "Metric", "Value", "Deviation", "Methods", "Severity", "Lower", "Upper",
	}); err != nil {
		return err
	}
	if r.Anomalies != nil {
		for _, a := range r.Anomalies.Anomalies {
			row++
			values := []interface{}{
				a.Row, a.Date.String(), a.Platform, a.Campaign, a.Metric, a.Value, round2(a.Score),
				strings.Join(a.Methods, ", "), string(a.Severity), round2(a.Bounds.Lower), round2(a.Bounds.Upper),
			}
			if err := wb.row(SheetAnomalies, row, values); err != nil {
				return err
			}
		}
	}

	row += 2
	if err := wb.header(SheetAnomalies, row, []string{
		"Row", "Date", "Platform", "Campaign", "Alert", "Severity", "Metric", "Value", "Threshold", "Recommendation",
	}); err != nil {
		return err
	}
	for _, p := range r.Performance {
		row++
		values := []interface{}{
			p.Row, p.Date.String(), p.Platform, p.Campaign, p.Kind, string(p.Severity), p.Metric,
			round4(p.Value), round4(p.Threshold), p.Recommendation,
		}
		if err := wb.row(SheetAnomalies, row, values); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) insights(r *Report) error {
	res := r.Insights
	if res == nil {
		return nil
	}
	if err := wb.sheet(SheetInsights); err != nil {
		return err
	}

	row := 1
	if err := wb.row(SheetInsights, row, []interface{}{"Generated by", res.GeneratedBy}); err != nil {
		return err
	}
	if res.Answer != "" {
		row++
		if err := wb.row(SheetInsights, row, []interface{}{"Answer", res.Answer}); err != nil {
			return err
		}
	}

	row += 2
	if err := wb.header(SheetInsights, row, []string{"Type", "Category", "Message", "Impact"}); err != nil {
		return err
	}
	for _, in := range res.Insights {
		row++
		if err := wb.row(SheetInsights, row, []interface{}{in.Type, in.Category, in.Message, in.Impact}); err != nil {
			return err
		}
	}

	row += 2
	if err := wb.header(SheetInsights, row, []string{"Priority", "Action", "Expected Impact"}); err != nil {
		return err
	}
	for _, rec := range res.Recommendations {
		row++
		if err := wb.row(SheetInsights, row, []interface{}{rec.Priority, rec.Action, rec.ExpectedImpact}); err != nil {
			return err
		}
	}
	return wb.f.SetColWidth(SheetInsights, "C", "C", 80)
}
