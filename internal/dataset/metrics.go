package dataset

import (
	"math"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// Metrics carries the additive counters of a row or group and the ratios derived from them.
// Ratios are never summed: groups add the counters and call Derive.
type Metrics struct {
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Spend       float64 `json:"spend"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	Reach       float64 `json:"reach"`

	CTR  float64 `json:"ctr"`
	CPC  float64 `json:"cpc"`
	CPM  float64 `json:"cpm"`
	CPA  float64 `json:"cpa"`
	ROAS float64 `json:"roas"`
}

// SafeDiv returns n/d, or 0 when d is 0 or the result is not finite.
func SafeDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	v := n / d
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Derive recomputes CTR, CPC, CPM, CPA and ROAS from the additive counters.
func (m *Metrics) Derive() {
	m.CTR = SafeDiv(m.Clicks, m.Impressions)
	m.CPC = SafeDiv(m.Spend, m.Clicks)
	m.CPM = SafeDiv(m.Spend, m.Impressions) * 1000
	m.CPA = SafeDiv(m.Spend, m.Conversions)
	m.ROAS = SafeDiv(m.Revenue, m.Spend)
}

// Derived returns a copy with the ratios recomputed.
func (m Metrics) Derived() Metrics {
	m.Derive()
	return m
}

// Add sums the additive counters of o into m. Ratios are left stale until Derive.
func (m *Metrics) Add(o Metrics) {
	m.Impressions += o.Impressions
	m.Clicks += o.Clicks
	m.Spend += o.Spend
	m.Conversions += o.Conversions
	m.Revenue += o.Revenue
	m.Reach += o.Reach
}

// Value returns a metric by canonical field name.
func (m Metrics) Value(field string) (float64, bool) {
	switch field {
	case schema.FieldImpressions:
		return m.Impressions, true
	case schema.FieldClicks:
		return m.Clicks, true
	case schema.FieldSpend:
		return m.Spend, true
	case schema.FieldConversions:
		return m.Conversions, true
	case schema.FieldRevenue:
		return m.Revenue, true
	case schema.FieldReach:
		return m.Reach, true
	case schema.FieldCTR:
		return m.CTR, true
	case schema.FieldCPC:
		return m.CPC, true
	case schema.FieldCPM:
		return m.CPM, true
	case schema.FieldCPA:
		return m.CPA, true
	case schema.FieldROAS:
		return m.ROAS, true
	}
	return 0, false
}

// SetValue assigns an additive metric by canonical field name.
func (m *Metrics) SetValue(field string, v float64) bool {
	switch field {
	case schema.FieldImpressions:
		m.Impressions = v
	case schema.FieldClicks:
		m.Clicks = v
	case schema.FieldSpend:
		m.Spend = v
	case schema.FieldConversions:
		m.Conversions = v
	case schema.FieldRevenue:
		m.Revenue = v
	case schema.FieldReach:
		m.Reach = v
	default:
		return false
	}
	return true
}
