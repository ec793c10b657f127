package dataset

import (
	"strconv"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// Record is one normalized row. Every canonical field is always present.
type Record struct {
	Date     Day    `json:"date"`
	Platform string `json:"platform"`
	Campaign string `json:"campaign_name"`
	AdSet    string `json:"adset_name"`
	Ad       string `json:"ad_name"`
	Keyword  string `json:"keyword"`
	Country  string `json:"country"`
	Device   string `json:"device"`
	Currency string `json:"currency"`
	Metrics

	// Imputed lists the fields whose source cell was missing or unparseable and got a default.
	Imputed []string `json:"imputed_fields,omitempty"`
}

// Key identifies a row for deduplication: date, platform, campaign and every additive metric.
type Key struct {
	Date     string
	Platform string
	Campaign string
	Values   [6]float64
}

// Key returns the deduplication key of r.
func (r Record) Key() Key {
	return Key{
		Date:     r.Date.String(),
		Platform: r.Platform,
		Campaign: r.Campaign,
		Values:   [6]float64{r.Impressions, r.Clicks, r.Spend, r.Conversions, r.Revenue, r.Reach},
	}
}

// Text returns a text field by canonical name.
func (r Record) Text(field string) (string, bool) {
	switch field {
	case schema.FieldPlatform:
		return r.Platform, true
	case schema.FieldCampaign:
		return r.Campaign, true
	case schema.FieldAdSet:
		return r.AdSet, true
	case schema.FieldAd:
		return r.Ad, true
	case schema.FieldKeyword:
		return r.Keyword, true
	case schema.FieldCountry:
		return r.Country, true
	case schema.FieldDevice:
		return r.Device, true
	case schema.FieldCurrency:
		return r.Currency, true
	}
	return "", false
}

// SetText assigns a text field by canonical name.
func (r *Record) SetText(field, v string) bool {
	switch field {
	case schema.FieldPlatform:
		r.Platform = v
	case schema.FieldCampaign:
		r.Campaign = v
	case schema.FieldAdSet:
		r.AdSet = v
	case schema.FieldAd:
		r.Ad = v
	case schema.FieldKeyword:
		r.Keyword = v
	case schema.FieldCountry:
		r.Country = v
	case schema.FieldDevice:
		r.Device = v
	case schema.FieldCurrency:
		r.Currency = v
	default:
		return false
	}
	return true
}

// IsImputed reports whether field was filled with a default during normalization.
func (r Record) IsImputed(field string) bool {
	for _, f := range r.Imputed {
		if f == field {
			return true
		}
	}
	return false
}

// IsNull reports whether field carries no source value.
func (r Record) IsNull(field string) bool {
	if field == schema.FieldDate {
		return !r.Date.Valid()
	}
	return r.IsImputed(field)
}

// Cell formats a field for tabular output. Numbers use the shortest exact representation.
func (r Record) Cell(field string) string {
	if field == schema.FieldDate {
		return r.Date.String()
	}
	if s, ok := r.Text(field); ok {
		return s
	}
	if v, ok := r.Value(field); ok {
		return FormatNumber(v)
	}
	return ""
}

// FormatNumber renders v without exponent and without losing precision.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
