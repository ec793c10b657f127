package insights

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// Rule thresholds. CTR thresholds are fractions.
const (
	ROASLossBelow   = 1.0
	ROASStrongAbove = 3.0
	CTRLowBelow     = 0.01
	CTRHighAbove    = 0.03
	CPAHighAbove    = 50.0
	TrendBand       = 5.0
)

var trendMetrics = []string{
	schema.FieldSpend, schema.FieldClicks, schema.FieldImpressions, schema.FieldConversions,
	schema.FieldCTR, schema.FieldCPC, schema.FieldCPA, schema.FieldROAS,
}

// Falling values of these metrics are bad news; rising values of the cost metrics are.
var (
	warnWhenDown = map[string]bool{schema.FieldConversions: true, schema.FieldCTR: true, schema.FieldROAS: true}
	warnWhenUp   = map[string]bool{schema.FieldSpend: true, schema.FieldCPC: true, schema.FieldCPA: true}
)

var focusCategories = map[string][]string{
	"performance":  {"performance", "trend"},
	"budget":       {"cost", "platform"},
	"optimization": {"engagement", "cost"},
}

// RuleBased derives insights from fixed thresholds.
type RuleBased struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewRuleBased creates the rule engine.
func NewRuleBased(logger *slog.Logger) *RuleBased {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleBased{logger: logger.With("component", "insights"), now: time.Now}
}

// Mode implements Engine.
func (r *RuleBased) Mode() Mode { return ModeRuleBased }

// Generate implements Engine.
func (r *RuleBased) Generate(_ context.Context, ds *dataset.Dataset, req Request) (*Result, error) {
	summary := aggregate.Summarize(ds)
	trends := Trends(ds)

	result := &Result{
		GeneratedAt:     r.now().UTC(),
		GeneratedBy:     GeneratedByRules,
		Summary:         summary,
		Trends:          trends,
		Insights:        []Insight{},
		Recommendations: []Recommendation{},
	}
	if ds.Empty() {
		result.Insights = append(result.Insights, Insight{
			Type:     TypeInfo,
			Category: "data",
			Message:  "The dataset has no rows to analyse",
			Impact:   "neutral",
		})
		return result, nil
	}

	m := summary.Metrics
	r.performance(result, m)
	r.engagement(result, m)
	r.cost(result, m)
	r.trends(result, trends)
	r.platforms(result, ds, summary)

	if req.FocusArea != "" {
		prioritise(result.Insights, focusCategories[req.FocusArea])
	}
	if q := strings.TrimSpace(req.Question); q != "" {
		result.Answer = Answer(q, m)
		result.GeneratedBy = GeneratedByRulesWithContext
	}

	r.logger.Debug("insights generated",
		"rows", ds.Len(),
		"insights", len(result.Insights),
		"recommendations", len(result.Recommendations))
	return result, nil
}

func (r *RuleBased) performance(res *Result, m dataset.Metrics) {
	if m.Spend <= 0 || m.Revenue <= 0 {
		return
	}
	switch {
	case m.ROAS < ROASLossBelow:
		res.Insights = append(res.Insights, Insight{
			Type:     TypeCritical,
			Category: "performance",
			Message:  fmt.Sprintf("Overall ROAS is %.2fx - campaigns are losing money on ad spend", m.ROAS),
			Impact:   "high",
		})
		res.Recommendations = append(res.Recommendations, Recommendation{
			Priority:       "high",
			Action:         "Review campaigns with ROAS below 1 and pause or optimise them",
			ExpectedImpact: "Prevent further budget waste",
		})
	case m.ROAS > ROASStrongAbove:
		res.Insights = append(res.Insights, Insight{
			Type:     TypePositive,
			Category: "performance",
			Message:  fmt.Sprintf("Strong ROAS of %.2fx indicates healthy campaign performance", m.ROAS),
			Impact:   "positive",
		})
		res.Recommendations = append(res.Recommendations, Recommendation{
			Priority:       "medium",
			Action:         "Scale the campaigns with the highest ROAS",
			ExpectedImpact: "Increase overall revenue",
		})
	}
}

func (r *RuleBased) engagement(res *Result, m dataset.Metrics) {
	if m.Impressions <= 0 || m.Clicks <= 0 {
		return
	}
	switch {
	case m.CTR < CTRLowBelow:
		res.Insights = append(res.Insights, Insight{
			Type:     TypeWarning,
			Category: "engagement",
			Message:  fmt.Sprintf("Low CTR of %.2f%% suggests ad creatives may need a refresh", m.CTR*100),
			Impact:   "medium",
		})
		res.Recommendations = append(res.Recommendations, Recommendation{
			Priority:       "medium",
			Action:         "A/B test new ad creatives and review targeting settings",
			ExpectedImpact: "Improve click-through rates by 20-50%",
		})
	case m.CTR > CTRHighAbove:
		res.Insights = append(res.Insights, Insight{
			Type:     TypePositive,
			Category: "engagement",
			Message:  fmt.Sprintf("Excellent CTR of %.2f%% indicates strong ad relevance", m.CTR*100),
			Impact:   "positive",
		})
	}
}

func (r *RuleBased) cost(res *Result, m dataset.Metrics) {
	if m.Conversions <= 0 || m.CPA <= CPAHighAbove {
		return
	}
	res.Insights = append(res.Insights, Insight{
		Type:     TypeWarning,
		Category: "cost",
		Message:  fmt.Sprintf("High CPA of %.2f may indicate targeting or offer issues", m.CPA),
		Impact:   "high",
	})
	res.Recommendations = append(res.Recommendations, Recommendation{
		Priority:       "high",
		Action:         "Review landing page experience, offer relevance and audience targeting",
		ExpectedImpact: "Reduce CPA by 20-40%",
	})
}

func (r *RuleBased) trends(res *Result, trends []Trend) {
	for _, t := range trends {
		switch {
		case t.Direction == "down" && warnWhenDown[t.Metric]:
			res.Insights = append(res.Insights, Insight{
				Type:     TypeWarning,
				Category: "trend",
				Message:  fmt.Sprintf("%s decreased by %.1f%% in the recent period", label(t.Metric), math.Abs(t.ChangePercent)),
				Impact:   "medium",
			})
		case t.Direction == "up" && warnWhenUp[t.Metric]:
			res.Insights = append(res.Insights, Insight{
				Type:     TypeWarning,
				Category: "trend",
				Message:  fmt.Sprintf("%s increased by %.1f%% in the recent period", label(t.Metric), t.ChangePercent),
				Impact:   "medium",
			})
		}
	}
}

func (r *RuleBased) platforms(res *Result, ds *dataset.Dataset, summary aggregate.Summary) {
	if len(summary.Platforms) < 2 {
		return
	}
	res.Insights = append(res.Insights, Insight{
		Type:     TypeInfo,
		Category: "platform",
		Message:  fmt.Sprintf("Data includes %d platforms: %s", len(summary.Platforms), strings.Join(summary.Platforms, ", ")),
		Impact:   "neutral",
	})

	cmp, err := aggregate.ComparePlatforms(ds, schema.FieldROAS)
	if err == nil && len(cmp.Groups) > 0 && cmp.Groups[0].ROAS > 0 {
		best := cmp.Groups[0]
		res.Insights = append(res.Insights, Insight{
			Type:     TypePositive,
			Category: "platform",
			Message:  fmt.Sprintf("%s has the best ROAS at %.2fx", best.Key, best.ROAS),
			Impact:   "positive",
		})
	}
	res.Recommendations = append(res.Recommendations, Recommendation{
		Priority:       "low",
		Action:         "Compare platform performance to optimise budget allocation",
		ExpectedImpact: "Improve overall efficiency by shifting budget to the best performing platforms",
	})
}

// Trends splits the dated records, in date order, into two halves and compares them. Counters
// are compared as per-row means and ratios are recomputed from each half's sums.
func Trends(ds *dataset.Dataset) []Trend {
	var dated []dataset.Record
	for _, rec := range ds.Records {
		if rec.Date.Valid() {
			dated = append(dated, rec)
		}
	}
	trends := []Trend{}
	mid := len(dated) / 2
	if mid == 0 {
		return trends
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].Date.Before(dated[j].Date.Time) })

	first, second := halfTotals(dated[:mid]), halfTotals(dated[mid:])
	nFirst, nSecond := float64(mid), float64(len(dated)-mid)

	for _, metric := range trendMetrics {
		a, _ := first.Value(metric)
		b, _ := second.Value(metric)
		if kind, _ := schema.KindOf(metric); kind == schema.KindNumeric {
			a, b = a/nFirst, b/nSecond
		}
		if a <= 0 {
			continue
		}
		change := math.Round((b-a)/a*10000) / 100
		direction := "stable"
		switch {
		case change > TrendBand:
			direction = "up"
		case change < -TrendBand:
			direction = "down"
		}
		trends = append(trends, Trend{Metric: metric, ChangePercent: change, Direction: direction})
	}
	return trends
}

func halfTotals(records []dataset.Record) dataset.Metrics {
	var m dataset.Metrics
	for _, rec := range records {
		m.Add(rec.Metrics)
	}
	return m.Derived()
}

// Answer replies to a free-text question by keyword.
func Answer(question string, m dataset.Metrics) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "roas"):
		if m.ROAS <= 0 {
			return "ROAS cannot be calculated because revenue data is missing."
		}
		if m.ROAS > 2 {
			return fmt.Sprintf("Your overall ROAS is %.2fx. Every 1 spent returns %.2f; consider scaling the successful campaigns.", m.ROAS, m.ROAS)
		}
		return fmt.Sprintf("Your overall ROAS is %.2fx. This is below target; review the campaigns with the lowest ROAS.", m.ROAS)
	case strings.Contains(q, "cpa") || strings.Contains(q, "cost per"):
		if m.CPA <= 0 {
			return "CPA cannot be calculated because conversion data is missing."
		}
		if m.CPA > CPAHighAbove {
			return fmt.Sprintf("Your overall CPA is %.2f. This is relatively high; review targeting and landing pages.", m.CPA)
		}
		return fmt.Sprintf("Your overall CPA is %.2f. This is within a reasonable range.", m.CPA)
	case strings.Contains(q, "ctr") || strings.Contains(q, "click through"):
		if m.CTR <= 0 {
			return "CTR cannot be calculated because click or impression data is missing."
		}
		if m.CTR > 0.02 {
			return fmt.Sprintf("Your overall CTR is %.2f%%. Your ads are highly relevant to your audience.", m.CTR*100)
		}
		return fmt.Sprintf("Your overall CTR is %.2f%%. Consider testing new creatives or refining targeting.", m.CTR*100)
	case strings.Contains(q, "spend") || strings.Contains(q, "budget"):
		return fmt.Sprintf("Total spend in this dataset is %.2f.", m.Spend)
	case strings.Contains(q, "performance") || strings.Contains(q, "how are"):
		verdict := "There is room for optimisation; review underperforming campaigns."
		if m.ROAS > 2 && m.CTR > 0.015 {
			verdict = "Campaigns are performing well."
		}
		return fmt.Sprintf("ROAS is %.2fx, CTR is %.2f%%, total conversions %.0f. %s", m.ROAS, m.CTR*100, m.Conversions, verdict)
	}
	return fmt.Sprintf("Your campaigns generated %.0f conversions on a total spend of %.2f. The overall ROAS is %.2fx.", m.Conversions, m.Spend, m.ROAS)
}

// prioritise moves insights in the given categories to the front, keeping relative order.
func prioritise(insights []Insight, categories []string) {
	if len(categories) == 0 {
		return
	}
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	sort.SliceStable(insights, func(i, j int) bool {
		return wanted[insights[i].Category] && !wanted[insights[j].Category]
	})
}

func label(metric string) string {
	switch metric {
	case schema.FieldCTR, schema.FieldCPC, schema.FieldCPM, schema.FieldCPA, schema.FieldROAS:
		return strings.ToUpper(metric)
	}
	return strings.ToUpper(metric[:1]) + metric[1:]
}
