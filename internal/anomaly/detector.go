package anomaly

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/stats"
)

// ErrUnknownMetric is returned when a requested column is not a numeric canonical field.
var ErrUnknownMetric = errors.New("anomaly: unknown metric")

// Detection methods.
const (
	MethodZScore = "z_score"
	MethodIQR    = "iqr"
)

// Severity tiers, ordered by Rank.
type Severity string

const (
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityModerate:
		return 1
	}
	return 0
}

// DefaultColumns are checked when the caller names none.
var DefaultColumns = []string{
	schema.FieldSpend, schema.FieldClicks, schema.FieldImpressions, schema.FieldConversions,
	schema.FieldCTR, schema.FieldCPC, schema.FieldCPM, schema.FieldROAS,
}

// Config holds the statistical thresholds.
type Config struct {
	// ZThreshold flags |z| above it as moderate; ZHigh and ZCritical raise the tier.
	ZThreshold float64
	ZHigh      float64
	ZCritical  float64
	// IQRMultiplier places the fences at Q1 - k*IQR and Q3 + k*IQR.
	IQRMultiplier float64
	// IQRHigh and IQRCritical are distances beyond the fence, in IQRs, that raise the tier.
	IQRHigh     float64
	IQRCritical float64
	// MinSampleSize is the fewest values a column needs to be tested.
	MinSampleSize int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ZThreshold:    3,
		ZHigh:         4,
		ZCritical:     5,
		IQRMultiplier: 1.5,
		IQRHigh:       1.5,
		IQRCritical:   3,
		MinSampleSize: 10,
	}
}

// Bounds are the statistical limits a value was tested against.
type Bounds struct {
	Method string  `json:"method"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// Record is one flagged row/metric pair.
type Record struct {
	Row         int         `json:"row"`
	Date        dataset.Day `json:"date"`
	Platform    string      `json:"platform"`
	Campaign    string      `json:"campaign_name"`
	Metric      string      `json:"metric"`
	Value       float64     `json:"value"`
	Score       float64     `json:"deviation_score"`
	ZScore      float64     `json:"z_score,omitempty"`
	IQRDistance float64     `json:"iqr_distance,omitempty"`
	Methods     []string    `json:"methods"`
	Severity    Severity    `json:"severity"`
	Bounds      Bounds      `json:"bounds"`
}

// ColumnSummary describes one tested column.
type ColumnSummary struct {
	Metric   string  `json:"metric"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Q1       float64 `json:"q1"`
	Q3       float64 `json:"q3"`
	IQR      float64 `json:"iqr"`
	Outliers int     `json:"outlier_count"`
	Skipped  string  `json:"skipped,omitempty"`
}

// Result is the outcome of statistical detection, most severe first.
type Result struct {
	TotalRows int             `json:"total_rows"`
	Anomalies []Record        `json:"anomalies"`
	Columns   []ColumnSummary `json:"columns"`
}

// Detector applies the statistical and rule based checks.
type Detector struct {
	cfg    Config
	perf   PerformanceConfig
	logger *slog.Logger
}

// NewDetector creates a detector.
func NewDetector(cfg Config, perf PerformanceConfig, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		cfg:    cfg,
		perf:   perf,
		logger: logger.With("component", "anomaly_detector"),
	}
}

// ResolveColumns validates requested metric names; an empty request yields DefaultColumns.
func ResolveColumns(columns []string) ([]string, error) {
	if len(columns) == 0 {
		return append([]string(nil), DefaultColumns...), nil
	}
	out := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if !schema.IsNumeric(c) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, c)
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

type flag struct {
	severity Severity
	score    float64
	bounds   Bounds
}

// Detect runs the z-score and IQR methods over columns of ds. A row/metric pair flagged by
// both methods is reported once with the higher severity.
func (d *Detector) Detect(ds *dataset.Dataset, columns []string) (*Result, error) {
	cols, err := ResolveColumns(columns)
	if err != nil {
		return nil, err
	}

	result := &Result{
		TotalRows: ds.Len(),
		Anomalies: []Record{},
		Columns:   make([]ColumnSummary, 0, len(cols)),
	}
	if ds.Empty() {
		return result, nil
	}

	for _, metric := range cols {
		records, summary := d.detectColumn(ds, metric)
		result.Anomalies = append(result.Anomalies, records...)
		result.Columns = append(result.Columns, summary)
	}

	sort.SliceStable(result.Anomalies, func(i, j int) bool {
		a, b := result.Anomalies[i], result.Anomalies[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Metric < b.Metric
	})

	d.logger.Debug("anomaly detection finished",
		"rows", ds.Len(),
		"columns", len(cols),
		"anomalies", len(result.Anomalies))

	return result, nil
}

func (d *Detector) detectColumn(ds *dataset.Dataset, metric string) ([]Record, ColumnSummary) {
	summary := ColumnSummary{Metric: metric}

	rows := make([]int, 0, ds.Len())
	values := make([]float64, 0, ds.Len())
	for i, rec := range ds.Records {
		if rec.IsImputed(metric) {
			continue
		}
		v, _ := rec.Value(metric)
		rows = append(rows, i)
		values = append(values, v)
	}

	summary.Count = len(values)
	if len(values) == 0 {
		summary.Skipped = "no values"
		return nil, summary
	}

	desc := stats.Describe(values)
	summary.Mean, summary.StdDev = desc.Mean, desc.StdDev
	summary.Min, summary.Max = desc.Min, desc.Max
	summary.Q1, summary.Q3 = desc.Q1, desc.Q3
	summary.IQR = desc.Q3 - desc.Q1

	if len(values) < d.cfg.MinSampleSize {
		summary.Skipped = fmt.Sprintf("fewer than %d values", d.cfg.MinSampleSize)
		return nil, summary
	}

	var out []Record
	for k, v := range values {
		z, zFlag := d.zScore(v, desc)
		dist, iqrFlag := d.iqr(v, desc)
		if zFlag == nil && iqrFlag == nil {
			continue
		}

		rec := ds.Records[rows[k]]
		anomaly := Record{
			Row:      rows[k],
			Date:     rec.Date,
			Platform: rec.Platform,
			Campaign: rec.Campaign,
			Metric:   metric,
			Value:    v,
		}
		if zFlag != nil {
			anomaly.ZScore = z
			anomaly.Methods = append(anomaly.Methods, MethodZScore)
		}
		if iqrFlag != nil {
			anomaly.IQRDistance = dist
			anomaly.Methods = append(anomaly.Methods, MethodIQR)
		}

		chosen := zFlag
		if chosen == nil || (iqrFlag != nil && iqrFlag.severity.Rank() > zFlag.severity.Rank()) {
			chosen = iqrFlag
		}
		anomaly.Severity = chosen.severity
		anomaly.Score = chosen.score
		anomaly.Bounds = chosen.bounds

		out = append(out, anomaly)
	}
	summary.Outliers = len(out)
	return out, summary
}

func (d *Detector) zScore(v float64, desc stats.Summary) (float64, *flag) {
	if desc.StdDev == 0 {
		return 0, nil
	}
	z := (v - desc.Mean) / desc.StdDev
	abs := math.Abs(z)
	if abs <= d.cfg.ZThreshold {
		return z, nil
	}

	sev := SeverityModerate
	switch {
	case abs > d.cfg.ZCritical:
		sev = SeverityCritical
	case abs > d.cfg.ZHigh:
		sev = SeverityHigh
	}
	return z, &flag{
		severity: sev,
		score:    abs,
		bounds: Bounds{
			Method: MethodZScore,
			Lower:  desc.Mean - d.cfg.ZThreshold*desc.StdDev,
			Upper:  desc.Mean + d.cfg.ZThreshold*desc.StdDev,
		},
	}
}

// iqr returns the distance beyond the nearer fence in IQR units. A zero IQR disables the method.
func (d *Detector) iqr(v float64, desc stats.Summary) (float64, *flag) {
	iqr := desc.Q3 - desc.Q1
	if iqr <= 0 {
		return 0, nil
	}
	lower := desc.Q1 - d.cfg.IQRMultiplier*iqr
	upper := desc.Q3 + d.cfg.IQRMultiplier*iqr

	var dist float64
	switch {
	case v < lower:
		dist = (lower - v) / iqr
	case v > upper:
		dist = (v - upper) / iqr
	default:
		return 0, nil
	}

	sev := SeverityModerate
	switch {
	case dist > d.cfg.IQRCritical:
		sev = SeverityCritical
	case dist > d.cfg.IQRHigh:
		sev = SeverityHigh
	}
	return dist, &flag{
		severity: sev,
		score:    dist,
		bounds:   Bounds{Method: MethodIQR, Lower: lower, Upper: upper},
	}
}
