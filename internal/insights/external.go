package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

const defaultExternalTimeout = 30 * time.Second

// External posts the dataset summary to an insight service. Any failure falls back to the rule
// engine and the reason is reported in the result.
type External struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	fallback   *RuleBased
	logger     *slog.Logger
}

type externalRequest struct {
	Summary   aggregate.Summary `json:"data_summary"`
	Trends    []Trend           `json:"trends"`
	Question  string            `json:"question,omitempty"`
	FocusArea string            `json:"focus_area,omitempty"`
}

type externalResponse struct {
	Insights        []Insight        `json:"insights"`
	Recommendations []Recommendation `json:"recommendations"`
	Answer          string           `json:"answer"`
}

// NewExternal creates the external engine.
func NewExternal(cfg Config, fallback *RuleBased, logger *slog.Logger) *External {
	if logger == nil {
		logger = slog.Default()
	}
	if fallback == nil {
		fallback = NewRuleBased(logger)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultExternalTimeout
	}
	return &External{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		fallback:   fallback,
		logger:     logger.With("component", "insights_external"),
	}
}

// Mode implements Engine.
func (e *External) Mode() Mode { return ModeExternal }

// Generate implements Engine.
func (e *External) Generate(ctx context.Context, ds *dataset.Dataset, req Request) (*Result, error) {
	summary := aggregate.Summarize(ds)
	trends := Trends(ds)

	resp, err := e.call(ctx, externalRequest{
		Summary:   summary,
		Trends:    trends,
		Question:  req.Question,
		FocusArea: req.FocusArea,
	})
	if err != nil {
		e.logger.Warn("external insights unavailable, using rules", "error", err)
		result, ferr := e.fallback.Generate(ctx, ds, req)
		if ferr != nil {
			return nil, ferr
		}
		result.FallbackReason = err.Error()
		return result, nil
	}

	result := &Result{
		GeneratedAt:     time.Now().UTC(),
		GeneratedBy:     GeneratedByExternal,
		Summary:         summary,
		Trends:          trends,
		Insights:        resp.Insights,
		Recommendations: resp.Recommendations,
		Answer:          resp.Answer,
	}
	if result.Insights == nil {
		result.Insights = []Insight{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []Recommendation{}
	}
	return result, nil
}

func (e *External) call(ctx context.Context, payload externalRequest) (*externalResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("insight service returned status %d", resp.StatusCode)
	}

	var out externalResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
