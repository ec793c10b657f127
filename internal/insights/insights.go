// Package insights turns a normalized dataset into findings and recommendations, either with the
// built-in rules or through an external insight service.
package insights

import (
	"context"
	"log/slog"
	"time"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

// Mode selects the engine.
type Mode string

const (
	ModeRuleBased Mode = "rule_based"
	ModeExternal  Mode = "external"
)

// Values of Result.GeneratedBy.
const (
	GeneratedByRules            = "rule_engine"
	GeneratedByRulesWithContext = "rule_engine_with_context"
	GeneratedByExternal         = "external"
)

// Insight types.
const (
	TypeCritical = "critical"
	TypeWarning  = "warning"
	TypePositive = "positive"
	TypeInfo     = "info"
)

// Request narrows what the engine should look at.
type Request struct {
	Question  string `json:"question,omitempty" validate:"omitempty,max=500"`
	FocusArea string `json:"focus_area,omitempty" validate:"omitempty,oneof=performance budget optimization"`
}

// Insight is one observation about the data.
type Insight struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Impact   string `json:"impact"`
}

// Recommendation is one suggested action.
type Recommendation struct {
	Priority       string `json:"priority"`
	Action         string `json:"action"`
	ExpectedImpact string `json:"expected_impact"`
}

// Trend compares the second half of the date range against the first.
type Trend struct {
	Metric        string  `json:"metric"`
	ChangePercent float64 `json:"change_percent"`
	Direction     string  `json:"direction"`
}

// Result is the output of an engine.
type Result struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	GeneratedBy     string            `json:"generated_by"`
	Summary         aggregate.Summary `json:"data_summary"`
	Trends          []Trend           `json:"trends"`
	Insights        []Insight         `json:"insights"`
	Recommendations []Recommendation  `json:"recommendations"`
	Answer          string            `json:"answer,omitempty"`
	FallbackReason  string            `json:"fallback_reason,omitempty"`
}

// Engine generates insights for a dataset.
type Engine interface {
	Generate(ctx context.Context, ds *dataset.Dataset, req Request) (*Result, error)
	Mode() Mode
}

// Config selects and configures the engine.
type Config struct {
	Mode     Mode
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// New returns the engine named by cfg.Mode. External mode without an endpoint falls back to the
// rules.
func New(cfg Config, logger *slog.Logger) Engine {
	rules := NewRuleBased(logger)
	if cfg.Mode == ModeExternal && cfg.Endpoint != "" {
		return NewExternal(cfg, rules, logger)
	}
	return rules
}
