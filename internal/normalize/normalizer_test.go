package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/shared/testutil"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return New(schema.Default(), logger)
}

func googleTable() *dataset.Table {
	return &dataset.Table{
		Columns: []string{"Campaign", "Clicks", "Impressions", "Cost", "Conversions", "Date"},
		Rows: [][]string{
			{"Brand", "50", "1000", "$25.00", "5", "2024-03-01"},
			{"Brand", "40", "800", "20", "2", "03/02/2024"},
			{"Generic", "5", "0", "10", "0", "Mar 3, 2024"},
		},
	}
}

func TestNormalizeGoogleAds(t *testing.T) {
	n := newTestNormalizer(t)

	ds, report, err := n.Normalize(googleTable(), Options{Platform: schema.PlatformGoogleAds, TargetCurrency: "usd"})
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)

	assert.Equal(t, "USD", ds.Currency)
	assert.Equal(t, []string{
		schema.FieldDate, schema.FieldCampaign, schema.FieldImpressions,
		schema.FieldClicks, schema.FieldSpend, schema.FieldConversions,
	}, ds.Fields)
	assert.False(t, report.FallbackMapping)
	assert.Equal(t, schema.FieldSpend, report.ColumnMapping["Cost"])
	assert.Equal(t, "platform", report.MappingSources[schema.FieldSpend])

	first := ds.Records[0]
	assert.Equal(t, "2024-03-01", first.Date.String())
	assert.Equal(t, "Google Ads", first.Platform)
	assert.Equal(t, "Brand", first.Campaign)
	assert.Equal(t, 25.0, first.Spend)
	assert.InDelta(t, 0.05, first.CTR, 1e-12)
	assert.InDelta(t, 0.5, first.CPC, 1e-12)
	assert.InDelta(t, 25.0, first.CPM, 1e-12)
	assert.InDelta(t, 5.0, first.CPA, 1e-12)
	assert.Zero(t, first.ROAS)
	assert.Empty(t, first.Imputed)

	assert.Equal(t, "2024-03-02", ds.Records[1].Date.String())
	assert.Equal(t, "2024-03-03", ds.Records[2].Date.String())
}

func TestNormalizeZeroGuard(t *testing.T) {
	n := newTestNormalizer(t)
	table := &dataset.Table{
		Columns: []string{"campaign", "impressions", "clicks", "spend", "conversions"},
		Rows:    [][]string{{"A", "0", "5", "0", "0"}},
	}

	ds, _, err := n.Normalize(table, Options{})
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)

	rec := ds.Records[0]
	assert.Zero(t, rec.CTR)
	assert.Zero(t, rec.CPC)
	assert.Zero(t, rec.CPM)
	assert.Zero(t, rec.CPA)
	assert.Zero(t, rec.ROAS)
}

func TestNormalizeDeduplicates(t *testing.T) {
	n := newTestNormalizer(t)
	table := &dataset.Table{
		Columns: []string{"date", "platform", "campaign_name", "impressions", "clicks", "spend"},
		Rows: [][]string{
			{"2024-01-01", "Meta", "Spring", "100", "10", "5"},
			{"2024-01-01", "Meta", "Spring", "100", "10", "5"},
			{"2024-01-01", "Meta", "Spring", "100", "10", "6"},
		},
	}

	ds, report, err := n.Normalize(table, Options{Platform: schema.PlatformMeta})
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 5.0, ds.Records[0].Spend)
	assert.Equal(t, 6.0, ds.Records[1].Spend)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := newTestNormalizer(t)
	table := &dataset.Table{
		Columns: []string{"Day", "Campaign name", "Amount spent", "Impressions", "Link clicks", "Results", "Currency", "Platform", "CTR", "Notes"},
		Rows: [][]string{
			{"2024-02-01", "Spring", "€1,000.50", "20000", "300", "12", "eur", "facebook", "1.5%", "x"},
			{"02/02/2024", "Spring", "", "18000", "250", "", "EUR", "", "", "y"},
			{"not a date", "", "(15)", "1000", "abc", "1", "XYZ", "Instagram", "", "z"},
			{"2024-02-01", "Spring", "€1,000.50", "20000", "300", "12", "eur", "facebook", "1.5%", "dup"},
			{"", "Summer", "40", "5000", "100", "4", "", "Meta Ads", "", ""},
		},
	}
	opts := Options{Platform: schema.PlatformMeta, TargetCurrency: "USD"}

	first, report, err := n.Normalize(table, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 1, report.UnparsedDates)
	assert.Equal(t, 1, report.MissingDates)
	assert.Equal(t, 1, report.UnknownCurrencies["XYZ"])
	assert.Equal(t, 1, report.InvalidNumbers[schema.FieldClicks])
	assert.Contains(t, report.DroppedColumns, "Notes")
	assert.Contains(t, report.IgnoredDerived, "CTR")

	second, _, err := n.Normalize(first.Table(), opts)
	require.NoError(t, err)
	assert.Equal(t, first.Fields, second.Fields)
	assert.Equal(t, first.Records, second.Records)

	third, _, err := n.Normalize(second.Table(), opts)
	require.NoError(t, err)
	assert.Equal(t, second.Records, third.Records)
}

func TestNormalizeCurrencyConversion(t *testing.T) {
	n := newTestNormalizer(t)
	table := &dataset.Table{
		Columns: []string{"campaign", "spend", "revenue", "currency"},
		Rows: [][]string{
			{"A", "100", "200", "EUR"},
			{"B", "100", "200", "usd"},
			{"C", "100", "200", "ZZZ"},
		},
	}

	ds, report, err := n.Normalize(table, Options{TargetCurrency: "USD"})
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)

	assert.InDelta(t, 108.0, ds.Records[0].Spend, 1e-9)
	assert.InDelta(t, 216.0, ds.Records[0].Revenue, 1e-9)
	assert.Equal(t, "USD", ds.Records[0].Currency)
	assert.Equal(t, 100.0, ds.Records[1].Spend)
	assert.Equal(t, "ZZZ", ds.Records[2].Currency)
	assert.Equal(t, 100.0, ds.Records[2].Spend)
	assert.Equal(t, 1, report.ConvertedRows)
	assert.Equal(t, 1, report.UnknownCurrencies["ZZZ"])
}

func TestNormalizeMappingOverride(t *testing.T) {
	n := newTestNormalizer(t)
	table := &dataset.Table{
		Columns: []string{"Campaign", "Cost", "Budget Used"},
		Rows:    [][]string{{"A", "1", "99"}},
	}

	ds, report, err := n.Normalize(table, Options{
		Platform: schema.PlatformGoogleAds,
		Mapping:  map[string]string{schema.FieldSpend: "budget used"},
	})
	require.NoError(t, err)
	assert.Equal(t, 99.0, ds.Records[0].Spend)
	assert.Equal(t, "override", report.MappingSources[schema.FieldSpend])
	assert.Contains(t, report.DroppedColumns, "Cost")
}

func TestNormalizeMappingErrors(t *testing.T) {
	n := newTestNormalizer(t)

	_, _, err := n.Normalize(googleTable(), Options{Mapping: map[string]string{"budget": "Cost"}})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, _, err = n.Normalize(googleTable(), Options{Mapping: map[string]string{schema.FieldCTR: "Cost"}})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, _, err = n.Normalize(googleTable(), Options{TargetCurrency: "DOGE"})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	_, _, err = n.Normalize(nil, Options{})
	assert.ErrorIs(t, err, ErrNilTable)
}

func TestNormalizeMissingOverrideColumnIsLogged(t *testing.T) {
	n := newTestNormalizer(t)

	_, report, err := n.Normalize(googleTable(), Options{Mapping: map[string]string{schema.FieldRevenue: "Value"}})
	require.NoError(t, err)
	assert.Contains(t, strings.Join(report.Log, "\n"), `column "Value" not present`)
}

func TestNormalizeUnknownPlatformFallsBack(t *testing.T) {
	n := newTestNormalizer(t)
	table := &dataset.Table{
		Columns: []string{"Report Date", "Channel", "Campaign", "Imps", "Click", "Ad Spend", "Purchase_Value"},
		Rows:    [][]string{{"2024-05-01", "google", "A", "1000", "10", "5", "20"}},
	}

	ds, report, err := n.Normalize(table, Options{Platform: schema.PlatformUnknown})
	require.NoError(t, err)
	assert.True(t, report.FallbackMapping)

	rec := ds.Records[0]
	assert.Equal(t, "Google Ads", rec.Platform)
	assert.Equal(t, 1000.0, rec.Impressions)
	assert.Equal(t, 10.0, rec.Clicks)
	assert.Equal(t, 5.0, rec.Spend)
	assert.Equal(t, 20.0, rec.Revenue)
	assert.InDelta(t, 4.0, rec.ROAS, 1e-12)
	assert.Equal(t, "2024-05-01", rec.Date.String())
}

func TestNormalizeImputesMissingCells(t *testing.T) {
	n := newTestNormalizer(t)
	table := &dataset.Table{
		Columns: []string{"campaign", "clicks", "impressions"},
		Rows:    [][]string{{"", "", "100"}},
	}

	ds, report, err := n.Normalize(table, Options{})
	require.NoError(t, err)

	rec := ds.Records[0]
	assert.Equal(t, []string{schema.FieldCampaign, schema.FieldClicks}, rec.Imputed)
	assert.Equal(t, "", rec.Campaign)
	assert.Zero(t, rec.Clicks)
	assert.Equal(t, 1, report.ImputedValues[schema.FieldClicks])
	assert.False(t, rec.Date.Valid())
}

func TestNormalizeEmptyTable(t *testing.T) {
	n := newTestNormalizer(t)

	ds, report, err := n.Normalize(&dataset.Table{Columns: []string{"campaign"}}, Options{})
	require.NoError(t, err)
	assert.True(t, ds.Empty())
	assert.Zero(t, report.OutputRows)
}
