package anomaly

import (
	"fmt"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/stats"
)

// Performance rule kinds.
const (
	KindHighCPA      = "high_cpa"
	KindLowCTR       = "low_ctr"
	KindBudgetDrain  = "budget_drain"
	KindNegativeROAS = "negative_roas"
	KindLowROAS      = "low_roas"
)

// PerformanceConfig holds the business rule thresholds.
type PerformanceConfig struct {
	// CPAMultiple flags rows whose CPA exceeds this multiple of the dataset CPA.
	CPAMultiple float64
	// CTRFloor is the lowest acceptable click-through rate, as a fraction.
	CTRFloor float64
	// MinImpressions is the volume below which CTR is not judged.
	MinImpressions float64
	// BudgetPercentile picks the spend quantile used as the inferred daily budget.
	BudgetPercentile float64
	// BudgetFraction flags zero-conversion rows spending more than this share of the budget.
	BudgetFraction float64
	// ROASFloor is the break-even return on ad spend.
	ROASFloor float64
}

// DefaultPerformanceConfig returns the standard rule thresholds.
func DefaultPerformanceConfig() PerformanceConfig {
	return PerformanceConfig{
		CPAMultiple:      2,
		CTRFloor:         0.005,
		MinImpressions:   1000,
		BudgetPercentile: 0.75,
		BudgetFraction:   1,
		ROASFloor:        1,
	}
}

// Finding is a rule violation on one row.
type Finding struct {
	Kind           string      `json:"kind"`
	Severity       Severity    `json:"severity"`
	Row            int         `json:"row"`
	Date           dataset.Day `json:"date"`
	Platform       string      `json:"platform"`
	Campaign       string      `json:"campaign_name"`
	Metric         string      `json:"metric"`
	Value          float64     `json:"value"`
	Threshold      float64     `json:"threshold"`
	Message        string      `json:"message"`
	Recommendation string      `json:"recommendation"`
}

var recommendations = map[string]string{
	KindHighCPA:      "Review targeting and bids; pause ad groups acquiring customers at this cost.",
	KindLowCTR:       "Refresh the creative and tighten audience targeting to lift engagement.",
	KindBudgetDrain:  "Spend is running without conversions; pause or restructure the campaign and verify tracking.",
	KindNegativeROAS: "Spend is not returning revenue; verify conversion tracking before scaling budget.",
	KindLowROAS:      "Revenue does not cover spend; shift budget to better performing campaigns.",
}

// DetectPerformance applies the business rules to every row. Findings are ordered by row, then
// by rule in declaration order.
func (d *Detector) DetectPerformance(ds *dataset.Dataset) []Finding {
	findings := []Finding{}
	if ds.Empty() {
		return findings
	}

	totals := ds.Totals()
	hasRevenue := ds.HasField(schema.FieldRevenue)

	var spends []float64
	for _, rec := range ds.Records {
		if rec.Spend > 0 {
			spends = append(spends, rec.Spend)
		}
	}
	budget := stats.Quantile(stats.Sorted(spends), d.perf.BudgetPercentile)

	for i, rec := range ds.Records {
		add := func(kind string, sev Severity, metric string, value, threshold float64, msg string) {
			findings = append(findings, Finding{
				Kind:           kind,
				Severity:       sev,
				Row:            i,
				Date:           rec.Date,
				Platform:       rec.Platform,
				Campaign:       rec.Campaign,
				Metric:         metric,
				Value:          value,
				Threshold:      threshold,
				Message:        msg,
				Recommendation: recommendations[kind],
			})
		}

		if limit := totals.CPA * d.perf.CPAMultiple; rec.Conversions > 0 && totals.CPA > 0 && rec.CPA > limit {
			add(KindHighCPA, SeverityHigh, schema.FieldCPA, rec.CPA, limit,
				fmt.Sprintf("CPA %.2f is more than %.1fx the dataset CPA of %.2f", rec.CPA, d.perf.CPAMultiple, totals.CPA))
		}

		if rec.Impressions >= d.perf.MinImpressions && rec.CTR < d.perf.CTRFloor {
			add(KindLowCTR, SeverityModerate, schema.FieldCTR, rec.CTR, d.perf.CTRFloor,
				fmt.Sprintf("CTR %.2f%% is below the %.2f%% floor", rec.CTR*100, d.perf.CTRFloor*100))
		}

		if limit := budget * d.perf.BudgetFraction; rec.Conversions == 0 && budget > 0 && rec.Spend > limit {
			add(KindBudgetDrain, SeverityHigh, schema.FieldSpend, rec.Spend, limit,
				fmt.Sprintf("spent %.2f against an inferred daily budget of %.2f with no conversions", rec.Spend, budget))
		}

		switch {
		case rec.Revenue < 0:
			add(KindNegativeROAS, SeverityCritical, schema.FieldROAS, rec.ROAS, 0,
				fmt.Sprintf("revenue recorded below zero (%.2f)", rec.Revenue))
		case hasRevenue && rec.Spend > 0 && rec.Revenue == 0:
			add(KindNegativeROAS, SeverityCritical, schema.FieldROAS, rec.ROAS, 0,
				fmt.Sprintf("spent %.2f with no matching revenue", rec.Spend))
		case hasRevenue && rec.ROAS > 0 && rec.ROAS < d.perf.ROASFloor:
			add(KindLowROAS, SeverityModerate, schema.FieldROAS, rec.ROAS, d.perf.ROASFloor,
				fmt.Sprintf("ROAS %.2f is below break-even", rec.ROAS))
		}
	}

	d.logger.Debug("performance rules evaluated", "rows", ds.Len(), "findings", len(findings))
	return findings
}
