package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/shared/testutil"
)

func rec(d int, platform string, impressions, clicks, spend, conversions, revenue float64) dataset.Record {
	r := dataset.Record{
		Date:     dataset.NewDay(time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)),
		Platform: platform,
		Campaign: platform + " campaign",
		Metrics: dataset.Metrics{
			Impressions: impressions,
			Clicks:      clicks,
			Spend:       spend,
			Conversions: conversions,
			Revenue:     revenue,
		},
	}
	r.Derive()
	return r
}

// losingDataset has ROAS 0.4, CTR 0.5% and CPA 125, with costs rising in the second half.
func losingDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Fields: []string{
			schema.FieldDate, schema.FieldPlatform, schema.FieldCampaign, schema.FieldImpressions,
			schema.FieldClicks, schema.FieldSpend, schema.FieldConversions, schema.FieldRevenue,
		},
		Records: []dataset.Record{
			rec(4, "Meta", 1000, 5, 150, 1, 50),
			rec(1, "Google Ads", 1000, 5, 100, 1, 50),
			rec(3, "Meta", 1000, 5, 150, 1, 50),
			rec(2, "Google Ads", 1000, 5, 100, 1, 50),
		},
	}
}

func categories(insights []Insight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.Category
	}
	return out
}

func TestRuleBasedGenerate(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	engine := NewRuleBased(logger)

	result, err := engine.Generate(context.Background(), losingDataset(), Request{})
	require.NoError(t, err)

	assert.Equal(t, GeneratedByRules, result.GeneratedBy)
	assert.Equal(t, 4, result.Summary.TotalRows)
	assert.InDelta(t, 0.4, result.Summary.Metrics.ROAS, 1e-9)
	assert.Empty(t, result.Answer)

	assert.Equal(t, []string{
		"performance", "engagement", "cost",
		"trend", "trend", "trend", "trend",
		"platform", "platform",
	}, categories(result.Insights))
	assert.Equal(t, TypeCritical, result.Insights[0].Type)
	assert.Contains(t, result.Insights[0].Message, "0.40x")
	assert.Contains(t, result.Insights[1].Message, "0.50%")
	assert.Contains(t, result.Insights[2].Message, "125.00")
	assert.Equal(t, "Spend increased by 50.0% in the recent period", result.Insights[3].Message)
	assert.Equal(t, "ROAS decreased by 33.3% in the recent period", result.Insights[6].Message)
	assert.Equal(t, "Data includes 2 platforms: Google Ads, Meta", result.Insights[7].Message)
	assert.Equal(t, "Google Ads has the best ROAS at 0.50x", result.Insights[8].Message)

	require.Len(t, result.Recommendations, 4)
	assert.Equal(t, "high", result.Recommendations[0].Priority)
	assert.Equal(t, "low", result.Recommendations[3].Priority)
}

func TestTrends(t *testing.T) {
	trends := Trends(losingDataset())

	byMetric := map[string]Trend{}
	for _, tr := range trends {
		byMetric[tr.Metric] = tr
	}
	assert.Equal(t, Trend{Metric: schema.FieldSpend, ChangePercent: 50, Direction: "up"}, byMetric[schema.FieldSpend])
	assert.Equal(t, "stable", byMetric[schema.FieldClicks].Direction)
	assert.Equal(t, "stable", byMetric[schema.FieldCTR].Direction)
	assert.Equal(t, 50.0, byMetric[schema.FieldCPC].ChangePercent)
	assert.Equal(t, -33.33, byMetric[schema.FieldROAS].ChangePercent)
	assert.Equal(t, "down", byMetric[schema.FieldROAS].Direction)

	single := &dataset.Dataset{Records: []dataset.Record{rec(1, "Meta", 10, 1, 1, 0, 0)}}
	assert.Empty(t, Trends(single))
}

func TestRuleBasedFocusArea(t *testing.T) {
	engine := NewRuleBased(nil)

	result, err := engine.Generate(context.Background(), losingDataset(), Request{FocusArea: "budget"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"cost", "platform", "platform",
		"performance", "engagement",
		"trend", "trend", "trend", "trend",
	}, categories(result.Insights))
}

func TestRuleBasedQuestion(t *testing.T) {
	engine := NewRuleBased(nil)

	result, err := engine.Generate(context.Background(), losingDataset(), Request{Question: "What is my ROAS?"})
	require.NoError(t, err)

	assert.Equal(t, GeneratedByRulesWithContext, result.GeneratedBy)
	assert.Contains(t, result.Answer, "0.40x")
	assert.Contains(t, result.Answer, "below target")
}

func TestAnswer(t *testing.T) {
	m := dataset.Metrics{Impressions: 10000, Clicks: 300, Spend: 200, Conversions: 10, Revenue: 800}.Derived()

	tests := []struct {
		question string
		contains string
	}{
		{"how is roas doing", "4.00x"},
		{"what's the cost per conversion", "20.00"},
		{"click through rate?", "3.00%"},
		{"total budget", "200.00"},
		{"How are we doing", "performing well"},
		{"anything else", "10 conversions"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Contains(t, Answer(tt.question, m), tt.contains)
		})
	}

	assert.Contains(t, Answer("roas", dataset.Metrics{}), "revenue data is missing")
}

func TestRuleBasedEmptyDataset(t *testing.T) {
	engine := NewRuleBased(nil)

	result, err := engine.Generate(context.Background(), &dataset.Dataset{}, Request{})
	require.NoError(t, err)

	require.Len(t, result.Insights, 1)
	assert.Equal(t, TypeInfo, result.Insights[0].Type)
	assert.Empty(t, result.Trends)
	assert.Empty(t, result.Recommendations)
}

func TestRuleBasedStrongPerformance(t *testing.T) {
	ds := &dataset.Dataset{Records: []dataset.Record{
		rec(1, "Meta", 1000, 50, 100, 5, 500),
		rec(2, "Meta", 1000, 50, 100, 5, 500),
	}}

	result, err := NewRuleBased(nil).Generate(context.Background(), ds, Request{})
	require.NoError(t, err)

	require.Len(t, result.Insights, 2)
	assert.Equal(t, TypePositive, result.Insights[0].Type)
	assert.Equal(t, "performance", result.Insights[0].Category)
	assert.Equal(t, TypePositive, result.Insights[1].Type)
	assert.Equal(t, "engagement", result.Insights[1].Category)
}

func TestExternalGenerate(t *testing.T) {
	var received externalRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"insights": [{"type": "info", "category": "performance", "message": "external view", "impact": "neutral"}],
			"answer": "ask again later"
		}`))
	}))
	defer server.Close()

	engine := New(Config{Mode: ModeExternal, Endpoint: server.URL, APIKey: "secret", Timeout: time.Second}, nil)
	assert.Equal(t, ModeExternal, engine.Mode())

	result, err := engine.Generate(context.Background(), losingDataset(), Request{Question: "roas?"})
	require.NoError(t, err)

	assert.Equal(t, GeneratedByExternal, result.GeneratedBy)
	require.Len(t, result.Insights, 1)
	assert.Equal(t, "external view", result.Insights[0].Message)
	assert.NotNil(t, result.Recommendations)
	assert.Equal(t, "ask again later", result.Answer)
	assert.Empty(t, result.FallbackReason)

	assert.Equal(t, 4, received.Summary.TotalRows)
	assert.Equal(t, "roas?", received.Question)
	assert.NotEmpty(t, received.Trends)
}

func TestExternalFallsBackToRules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	logger, handler := testutil.NewTestLogger(t)
	engine := NewExternal(Config{Endpoint: server.URL}, nil, logger)

	result, err := engine.Generate(context.Background(), losingDataset(), Request{})
	require.NoError(t, err)

	assert.Equal(t, GeneratedByRules, result.GeneratedBy)
	assert.Contains(t, result.FallbackReason, "status 502")
	assert.Len(t, result.Insights, 9)
	assert.True(t, handler.ContainsMessage("external insights unavailable, using rules"))
}

func TestNewSelectsRulesWithoutEndpoint(t *testing.T) {
	assert.Equal(t, ModeRuleBased, New(Config{Mode: ModeExternal}, nil).Mode())
	assert.Equal(t, ModeRuleBased, New(Config{}, nil).Mode())
}
