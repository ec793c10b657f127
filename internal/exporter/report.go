package exporter

import (
	"math"
	"time"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/anomaly"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/insights"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/quality"
)

// Report bundles everything known about one dataset. Nil sections are left out of the output.
type Report struct {
	Name        string
	GeneratedAt time.Time
	Dataset     *dataset.Dataset
	Summary     aggregate.Summary
	Campaigns   *aggregate.Result
	Platforms   *aggregate.Result
	Daily       *aggregate.Result
	Quality     *quality.Report
	Anomalies   *anomaly.Result
	Performance []anomaly.Finding
	Insights    *insights.Result
}

var groupHeaders = []string{
	"Rows", "Campaigns", "Impressions", "Clicks", "Spend", "Conversions", "Revenue",
	"CTR", "CPC", "CPM", "CPA", "ROAS",
}

func groupValues(g aggregate.Group) []interface{} {
	return []interface{}{
		g.Rows, g.Campaigns, g.Impressions, g.Clicks, round2(g.Spend), g.Conversions, round2(g.Revenue),
		round4(g.CTR), round2(g.CPC), round2(g.CPM), round2(g.CPA), round2(g.ROAS),
	}
}

func summaryRows(s aggregate.Summary) [][2]string {
	m := s.Metrics
	dates := "-"
	if s.DateRange != nil {
		dates = s.DateRange.Start.String() + " to " + s.DateRange.End.String()
	}
	return [][2]string{
		{"Rows", formatCount(float64(s.TotalRows))},
		{"Date range", dates},
		{"Platforms", formatList(s.Platforms)},
		{"Campaigns", formatCount(float64(len(s.Campaigns)))},
		{"Impressions", formatCount(m.Impressions)},
		{"Clicks", formatCount(m.Clicks)},
		{"Spend", formatFloat(m.Spend)},
		{"Conversions", formatCount(m.Conversions)},
		{"Revenue", formatFloat(m.Revenue)},
		{"CTR", formatPercent(m.CTR)},
		{"CPC", formatFloat(m.CPC)},
		{"CPM", formatFloat(m.CPM)},
		{"CPA", formatFloat(m.CPA)},
		{"ROAS", formatRatio(m.ROAS)},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
