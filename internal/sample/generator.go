// Package sample generates realistic multi-platform campaign exports for demos and tests.
package sample

import (
	"math"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

// DefaultDays is the length of a generated export.
const DefaultDays = 30

// Columns of a generated export. They are the raw names a multi-platform report would carry.
var Columns = []string{
	"date", "platform", "campaign_name", "impressions", "clicks", "spend", "conversions", "conversion_value",
}

// Campaigns per platform, in output order.
var Campaigns = []struct {
	Platform  string
	Campaigns []string
}{
	{"Google Ads", []string{"Brand_Search", "Competitor_Search", "Display_Retargeting", "YouTube_Awareness"}},
	{"Meta Ads", []string{"Lookalike_1%", "Interest_Targeting", "Retargeting", "Broad_Audience"}},
	{"TikTok Ads", []string{"Trend_Jacker", "Creator_Partnership", "Spark_Ads", "In_Feed_Ads"}},
}

// Options controls generation. The same seed and end date always produce the same table.
type Options struct {
	Days int
	Seed int64
	// End is the last day of the export; zero means today.
	End time.Time
}

// Generate returns a raw table with one row per day, platform and campaign. Impressions fall in
// 5,000 to 50,000, CTR in 0.5% to 5%, CPC in 0.5 to 3, conversion rate in 1% to 10% and value per
// conversion in 20 to 100.
func Generate(opts Options) *dataset.Table {
	if opts.Days <= 0 {
		opts.Days = DefaultDays
	}
	if opts.End.IsZero() {
		opts.End = time.Now()
	}
	faker := gofakeit.New(opts.Seed)
	end := dataset.NewDay(opts.End)

	table := &dataset.Table{Columns: append([]string(nil), Columns...)}
	for d := opts.Days - 1; d >= 0; d-- {
		date := end.AddDate(0, 0, -d).Format(dataset.DayLayout)
		for _, p := range Campaigns {
			for _, campaign := range p.Campaigns {
				impressions := faker.IntRange(5000, 50000)
				clicks := int(float64(impressions) * faker.Float64Range(0.005, 0.05))
				spend := round2(float64(clicks) * faker.Float64Range(0.5, 3))
				conversions := int(float64(clicks) * faker.Float64Range(0.01, 0.1))
				value := round2(float64(conversions) * faker.Float64Range(20, 100))

				table.Rows = append(table.Rows, []string{
					date,
					p.Platform,
					campaign,
					strconv.Itoa(impressions),
					strconv.Itoa(clicks),
					strconv.FormatFloat(spend, 'f', 2, 64),
					strconv.Itoa(conversions),
					strconv.FormatFloat(value, 'f', 2, 64),
				})
			}
		}
	}
	return table
}

// RowsPerDay is the number of rows Generate emits for each day.
func RowsPerDay() int {
	n := 0
	for _, p := range Campaigns {
		n += len(p.Campaigns)
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
