package quality

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// Dimension names.
const (
	DimCompleteness = "completeness"
	DimUniqueness   = "uniqueness"
	DimValidity     = "validity"
	DimConsistency  = "consistency"
	DimTimeliness   = "timeliness"
)

// Status of a quality report.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
)

// Finding severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

var numericFields = append(append([]string(nil), schema.MetricFields...), schema.DerivedFields...)

// Weights are the relative contributions of each dimension to the overall score.
type Weights struct {
	Completeness float64 `json:"completeness"`
	Uniqueness   float64 `json:"uniqueness"`
	Validity     float64 `json:"validity"`
	Consistency  float64 `json:"consistency"`
	Timeliness   float64 `json:"timeliness"`
}

func (w Weights) of(dim string) float64 {
	switch dim {
	case DimCompleteness:
		return w.Completeness
	case DimUniqueness:
		return w.Uniqueness
	case DimValidity:
		return w.Validity
	case DimConsistency:
		return w.Consistency
	default:
		return w.Timeliness
	}
}

// Config holds the scoring constants.
type Config struct {
	Weights Weights
	// RecencyWindow is the age of the latest date that still scores full timeliness.
	RecencyWindow time.Duration
	// MaxStaleness is the age at which timeliness reaches zero.
	MaxStaleness time.Duration
	// MaxDateAge and FutureTolerance bound the plausible date range for validity.
	MaxDateAge      time.Duration
	FutureTolerance time.Duration
	// Tolerance is the relative difference allowed between stored and recomputed ratios.
	Tolerance float64
}

// DefaultConfig returns the standard weights and windows.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Completeness: 25,
			Uniqueness:   20,
			Validity:     25,
			Consistency:  20,
			Timeliness:   10,
		},
		RecencyWindow:   7 * 24 * time.Hour,
		MaxStaleness:    90 * 24 * time.Hour,
		MaxDateAge:      5 * 365 * 24 * time.Hour,
		FutureTolerance: 24 * time.Hour,
		Tolerance:       1e-6,
	}
}

// Finding is one issue contributing to a dimension score.
type Finding struct {
	Dimension string `json:"dimension"`
	Field     string `json:"field,omitempty"`
	Kind      string `json:"kind"`
	Rows      int    `json:"affected_rows"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

// Dimension is the score of one quality dimension.
type Dimension struct {
	Name     string    `json:"name"`
	Score    float64   `json:"score"`
	Weight   float64   `json:"weight"`
	Status   string    `json:"status"`
	Details  string    `json:"details"`
	Findings []Finding `json:"findings"`
}

// Report is the quality assessment of one dataset.
type Report struct {
	Status          Status      `json:"status"`
	TotalRows       int         `json:"total_rows"`
	OverallScore    *float64    `json:"overall_score"`
	Grade           string      `json:"grade,omitempty"`
	Dimensions      []Dimension `json:"dimensions"`
	Findings        []Finding   `json:"findings"`
	Recommendations []string    `json:"recommendations"`
	CheckedAt       time.Time   `json:"checked_at"`
}

// Dimension returns the named dimension, or nil.
func (r *Report) Dimension(name string) *Dimension {
	for i := range r.Dimensions {
		if r.Dimensions[i].Name == name {
			return &r.Dimensions[i]
		}
	}
	return nil
}

// Scorer computes quality reports.
type Scorer struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewScorer creates a scorer using the wall clock.
func NewScorer(cfg Config, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		cfg:    cfg,
		logger: logger.With("component", "quality_scorer"),
		now:    time.Now,
	}
}

// WithClock returns a copy of s that reads the current time from now.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	c := *s
	c.now = now
	return &c
}

// Check scores ds. An empty dataset yields an insufficient-data report without a score.
func (s *Scorer) Check(ds *dataset.Dataset) *Report {
	now := s.now().UTC()
	report := &Report{
		TotalRows:  ds.Len(),
		Dimensions: []Dimension{},
		Findings:   []Finding{},
		CheckedAt:  now,
	}

	if ds.Empty() {
		report.Status = StatusInsufficientData
		report.Recommendations = []string{"Provide a dataset with at least one row to assess quality."}
		return report
	}

	report.Status = StatusOK
	dims := []Dimension{
		s.completeness(ds),
		s.uniqueness(ds),
		s.validity(ds, now),
		s.consistency(ds),
		s.timeliness(ds, now),
	}

	var weighted, total float64
	for i := range dims {
		d := &dims[i]
		d.Weight = s.cfg.Weights.of(d.Name)
		d.Score = round2(d.Score)
		d.Status = dimensionStatus(d.Score)
		if d.Findings == nil {
			d.Findings = []Finding{}
		}
		weighted += d.Score * d.Weight
		total += d.Weight
		report.Findings = append(report.Findings, d.Findings...)
		if d.Score < 90 {
			report.Recommendations = append(report.Recommendations, recommendation(d.Name))
		}
	}

	overall := 0.0
	if total > 0 {
		overall = round2(weighted / total)
	}
	report.OverallScore = &overall
	report.Grade = Grade(overall)
	report.Dimensions = dims
	if report.Recommendations == nil {
		report.Recommendations = []string{}
	}

	s.logger.Debug("quality checked",
		"rows", report.TotalRows,
		"overall_score", overall,
		"grade", report.Grade,
		"findings", len(report.Findings))

	return report
}

func (s *Scorer) completeness(ds *dataset.Dataset) Dimension {
	dim := Dimension{Name: DimCompleteness}

	for _, field := range schema.CoreFields {
		if field == schema.FieldPlatform || field == schema.FieldCurrency || ds.HasField(field) {
			continue
		}
		dim.Findings = append(dim.Findings, Finding{
			Dimension: DimCompleteness,
			Field:     field,
			Kind:      "missing_column",
			Rows:      ds.Len(),
			Severity:  SeverityInfo,
			Message:   fmt.Sprintf("source has no column for %s; values default to empty", field),
		})
	}

	if len(ds.Fields) == 0 {
		dim.Details = "no source column could be mapped"
		return dim
	}

	cells := ds.Len() * len(ds.Fields)
	nulls := 0
	for _, field := range ds.Fields {
		missing := 0
		for _, rec := range ds.Records {
			if rec.IsNull(field) {
				missing++
			}
		}
		if missing > 0 {
			nulls += missing
			dim.Findings = append(dim.Findings, Finding{
				Dimension: DimCompleteness,
				Field:     field,
				Kind:      "missing_values",
				Rows:      missing,
				Severity:  severityFor(missing, ds.Len()),
				Message:   fmt.Sprintf("%d of %d values missing or unparseable", missing, ds.Len()),
			})
		}
	}

	dim.Score = 100 * float64(cells-nulls) / float64(cells)
	dim.Details = fmt.Sprintf("%d of %d cells populated", cells-nulls, cells)
	return dim
}

func (s *Scorer) uniqueness(ds *dataset.Dataset) Dimension {
	dim := Dimension{Name: DimUniqueness}
	seen := make(map[dataset.Key]struct{}, ds.Len())
	for _, rec := range ds.Records {
		seen[rec.Key()] = struct{}{}
	}
	dups := ds.Len() - len(seen)
	if dups > 0 {
		dim.Findings = append(dim.Findings, Finding{
			Dimension: DimUniqueness,
			Kind:      "duplicate_rows",
			Rows:      dups,
			Severity:  severityFor(dups, ds.Len()),
			Message:   fmt.Sprintf("%d rows repeat another row's date, platform, campaign and metrics", dups),
		})
	}
	dim.Score = 100 * float64(len(seen)) / float64(ds.Len())
	dim.Details = fmt.Sprintf("%d unique rows of %d", len(seen), ds.Len())
	return dim
}

func (s *Scorer) validity(ds *dataset.Dataset, now time.Time) Dimension {
	dim := Dimension{Name: DimValidity}
	checkDates := ds.HasField(schema.FieldDate)
	earliest := now.Add(-s.cfg.MaxDateAge)
	latest := now.Add(s.cfg.FutureTolerance)

	negatives := make(map[string]int)
	var missingDates, futureDates, staleDates int
	valid := 0

	for _, rec := range ds.Records {
		ok := true
		for _, field := range numericFields {
			if v, _ := rec.Value(field); v < 0 {
				negatives[field]++
				ok = false
			}
		}
		if checkDates {
			switch {
			case !rec.Date.Valid():
				missingDates++
				ok = false
			case rec.Date.After(latest):
				futureDates++
				ok = false
			case rec.Date.Before(earliest):
				staleDates++
				ok = false
			}
		}
		if ok {
			valid++
		}
	}

	for _, field := range numericFields {
		if n := negatives[field]; n > 0 {
			dim.Findings = append(dim.Findings, Finding{
				Dimension: DimValidity, Field: field, Kind: "negative_value", Rows: n,
				Severity: SeverityError, Message: fmt.Sprintf("%d negative %s values", n, field),
			})
		}
	}
	dateFindings := []struct {
		kind  string
		count int
		msg   string
	}{
		{"invalid_date", missingDates, "dates missing or unparseable"},
		{"future_date", futureDates, "dates in the future"},
		{"stale_date", staleDates, "dates older than the plausible range"},
	}
	for _, f := range dateFindings {
		if f.count > 0 {
			dim.Findings = append(dim.Findings, Finding{
				Dimension: DimValidity, Field: schema.FieldDate, Kind: f.kind, Rows: f.count,
				Severity: SeverityWarning, Message: fmt.Sprintf("%d %s", f.count, f.msg),
			})
		}
	}

	dim.Score = 100 * float64(valid) / float64(ds.Len())
	dim.Details = fmt.Sprintf("%d of %d rows valid", valid, ds.Len())
	return dim
}

func (s *Scorer) consistency(ds *dataset.Dataset) Dimension {
	dim := Dimension{Name: DimConsistency}
	consistent := 0
	clicksOverImpressions := 0

	for _, rec := range ds.Records {
		want := rec.Metrics.Derived()
		if s.close(rec.CTR, want.CTR) && s.close(rec.CPC, want.CPC) && s.close(rec.CPM, want.CPM) &&
			s.close(rec.CPA, want.CPA) && s.close(rec.ROAS, want.ROAS) {
			consistent++
		}
		if rec.Clicks > rec.Impressions && rec.Impressions > 0 {
			clicksOverImpressions++
		}
	}

	if mismatched := ds.Len() - consistent; mismatched > 0 {
		dim.Findings = append(dim.Findings, Finding{
			Dimension: DimConsistency, Kind: "derived_mismatch", Rows: mismatched,
			Severity: SeverityError, Message: fmt.Sprintf("%d rows carry ratios that disagree with their counters", mismatched),
		})
	}
	if clicksOverImpressions > 0 {
		dim.Findings = append(dim.Findings, Finding{
			Dimension: DimConsistency, Field: schema.FieldClicks, Kind: "clicks_exceed_impressions",
			Rows: clicksOverImpressions, Severity: SeverityWarning,
			Message: fmt.Sprintf("%d rows report more clicks than impressions", clicksOverImpressions),
		})
	}

	dim.Score = 100 * float64(consistent) / float64(ds.Len())
	dim.Details = fmt.Sprintf("%d of %d rows consistent", consistent, ds.Len())
	return dim
}

func (s *Scorer) close(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= s.cfg.Tolerance*scale
}

func (s *Scorer) timeliness(ds *dataset.Dataset, now time.Time) Dimension {
	dim := Dimension{Name: DimTimeliness}
	_, last, ok := ds.DateRange()
	if !ok {
		dim.Details = "no dated rows"
		dim.Findings = append(dim.Findings, Finding{
			Dimension: DimTimeliness, Field: schema.FieldDate, Kind: "no_dates", Rows: ds.Len(),
			Severity: SeverityWarning, Message: "timeliness cannot be assessed without dates",
		})
		return dim
	}

	age := now.Sub(last.Time)
	dim.Score = s.timelinessScore(age)
	dim.Details = fmt.Sprintf("latest date %s", last)
	if dim.Score < 100 {
		dim.Findings = append(dim.Findings, Finding{
			Dimension: DimTimeliness, Field: schema.FieldDate, Kind: "stale_data", Rows: ds.Len(),
			Severity: SeverityInfo, Message: fmt.Sprintf("latest data is %d days old", int(age.Hours()/24)),
		})
	}
	return dim
}

func (s *Scorer) timelinessScore(age time.Duration) float64 {
	window, stale := s.cfg.RecencyWindow, s.cfg.MaxStaleness
	switch {
	case age <= window:
		return 100
	case age >= stale || stale <= window:
		return 0
	default:
		return 100 * float64(stale-age) / float64(stale-window)
	}
}

func dimensionStatus(score float64) string {
	switch {
	case score >= 90:
		return "pass"
	case score >= 70:
		return "warning"
	default:
		return "fail"
	}
}

func severityFor(affected, total int) string {
	if total > 0 && float64(affected)/float64(total) > 0.2 {
		return SeverityError
	}
	return SeverityWarning
}

func recommendation(dim string) string {
	switch dim {
	case DimCompleteness:
		return "Fill missing values at the source or map the missing columns explicitly."
	case DimUniqueness:
		return "Remove duplicate rows before merging exports."
	case DimValidity:
		return "Check for negative metrics and dates outside the reporting period."
	case DimConsistency:
		return "Re-normalize the dataset so ratios are recomputed from the counters."
	default:
		return "Refresh the export; the most recent data is out of date."
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
