package normalize

import (
	"errors"
	"sort"
	"strings"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// DefaultCurrency is the target currency when none is requested.
const DefaultCurrency = "USD"

var (
	ErrNilTable            = errors.New("normalize: nil table")
	ErrUnknownField        = errors.New("normalize: unknown canonical field")
	ErrUnsupportedCurrency = errors.New("normalize: unsupported currency")
)

// RatesToUSD holds static conversion rates: one unit of the currency in US dollars.
var RatesToUSD = map[string]float64{
	"USD": 1.0,
	"EUR": 1.08,
	"GBP": 1.27,
	"CAD": 0.74,
	"AUD": 0.65,
	"INR": 0.012,
	"JPY": 0.0067,
	"BRL": 0.20,
	"MXN": 0.058,
}

// SupportedCurrencies returns the currency codes with a known rate, sorted.
func SupportedCurrencies() []string {
	codes := make([]string, 0, len(RatesToUSD))
	for code := range RatesToUSD {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Convert converts value from one currency to another. ok is false when either code is unknown.
func Convert(value float64, from, to string) (float64, bool) {
	src, ok := RatesToUSD[strings.ToUpper(from)]
	if !ok {
		return value, false
	}
	dst, ok := RatesToUSD[strings.ToUpper(to)]
	if !ok {
		return value, false
	}
	return value * src / dst, true
}

// Options configures one normalization run.
type Options struct {
	// Platform selects the column mapping. PlatformUnknown uses the generic synonyms only.
	Platform schema.Platform
	// TargetCurrency is the currency spend and revenue are converted to; empty means USD.
	TargetCurrency string
	// Mapping overrides the registry per canonical field: canonical field -> raw column name.
	Mapping map[string]string
}

// Report records what a normalization run did to its input.
type Report struct {
	Platform          schema.Platform   `json:"platform"`
	PlatformName      string            `json:"platform_name"`
	FallbackMapping   bool              `json:"fallback_mapping"`
	RegistryVersion   string            `json:"registry_version"`
	TargetCurrency    string            `json:"target_currency"`
	ColumnMapping     map[string]string `json:"column_mapping"`
	MappingSources    map[string]string `json:"mapping_sources"`
	DroppedColumns    []string          `json:"dropped_columns"`
	IgnoredDerived    []string          `json:"ignored_derived_columns,omitempty"`
	InputRows         int               `json:"input_rows"`
	OutputRows        int               `json:"output_rows"`
	DuplicatesRemoved int               `json:"duplicates_removed"`
	UnparsedDates     int               `json:"unparsed_dates"`
	MissingDates      int               `json:"missing_dates"`
	InvalidNumbers    map[string]int    `json:"invalid_numbers,omitempty"`
	ConvertedRows     int               `json:"converted_rows"`
	UnknownCurrencies map[string]int    `json:"unknown_currencies,omitempty"`
	ImputedValues     map[string]int    `json:"imputed_values,omitempty"`
	Log               []string          `json:"log"`
}
