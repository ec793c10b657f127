package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// DefaultCompareMetric ranks platforms when the caller names none.
const DefaultCompareMetric = schema.FieldSpend

// rankingMetrics are reported alongside the primary ranking.
var rankingMetrics = []string{schema.FieldROAS, schema.FieldCTR, schema.FieldCPA}

// LowerIsBetter reports whether smaller values of metric rank first.
func LowerIsBetter(metric string) bool {
	switch metric {
	case schema.FieldCPC, schema.FieldCPM, schema.FieldCPA:
		return true
	}
	return false
}

// ComparePlatforms totals each platform, ranks the platforms by metric and reports each
// platform's share of spend. Ties go to the platform with more campaigns, then by name.
func ComparePlatforms(ds *dataset.Dataset, metric string) (*Result, error) {
	if metric == "" {
		metric = DefaultCompareMetric
	}
	if !schema.IsNumeric(metric) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	result := newResult(GroupByPlatform, ds)
	result.Metric = metric
	if ds.Empty() {
		return result, nil
	}

	buckets := make(map[string]*bucket)
	for _, rec := range ds.Records {
		b, ok := buckets[rec.Platform]
		if !ok {
			b = newBucket(rec.Platform)
			buckets[rec.Platform] = b
		}
		b.add(rec)
	}

	result.Totals = ds.Totals()
	groups := sortedGroups(buckets, true)
	for i := range groups {
		groups[i].SpendShare = math.Round(dataset.SafeDiv(groups[i].Spend, result.Totals.Spend)*10000) / 100
	}

	rank(groups, metric)
	for i := range groups {
		groups[i].Rank = i + 1
	}
	result.Groups = groups

	result.Rankings = make(map[string][]string, len(rankingMetrics))
	for _, m := range rankingMetrics {
		ordered := append([]Group(nil), groups...)
		rank(ordered, m)
		names := make([]string, len(ordered))
		for i, g := range ordered {
			names[i] = g.Key
		}
		result.Rankings[m] = names
	}
	return result, nil
}

func rank(groups []Group, metric string) {
	lower := LowerIsBetter(metric)
	sort.SliceStable(groups, func(i, j int) bool {
		a, _ := groups[i].Value(metric)
		b, _ := groups[j].Value(metric)
		if a != b {
			if lower {
				return a < b
			}
			return a > b
		}
		if groups[i].Campaigns != groups[j].Campaigns {
			return groups[i].Campaigns > groups[j].Campaigns
		}
		return groups[i].Key < groups[j].Key
	})
}
