package aggregate

import (
	"fmt"
	"strings"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

// Granularity is the width of a date bucket.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity accepts daily, weekly or monthly; empty means daily.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Daily, nil
	case Daily, Weekly, Monthly:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

// BucketKey truncates d to the start of its bucket: the date itself, the Monday of its week, or
// its month as 2006-01.
func (g Granularity) BucketKey(d dataset.Day) string {
	switch g {
	case Weekly:
		return d.WeekStart().String()
	case Monthly:
		return d.Format("2006-01")
	}
	return d.String()
}

// ByDate buckets records by date. Records without a date are skipped and counted. With
// byPlatform every bucket carries a per-platform breakdown.
func ByDate(ds *dataset.Dataset, granularity Granularity, byPlatform bool) (*Result, error) {
	if _, err := ParseGranularity(string(granularity)); err != nil {
		return nil, err
	}
	if granularity == "" {
		granularity = Daily
	}

	result := newResult(GroupByDate, ds)
	result.Granularity = granularity
	if ds.Empty() {
		return result, nil
	}

	buckets := make(map[string]*bucket)
	var totals dataset.Metrics
	for _, rec := range ds.Records {
		if !rec.Date.Valid() {
			result.SkippedRows++
			continue
		}
		key := granularity.BucketKey(rec.Date)
		b, ok := buckets[key]
		if !ok {
			b = newBucket(key)
			buckets[key] = b
		}
		b.add(rec)
		if byPlatform {
			b.child(rec.Platform).add(rec)
		}
		totals.Add(rec.Metrics)
	}

	result.Groups = sortedGroups(buckets, false)
	result.Totals = totals.Derived()
	return result, nil
}

// ByCampaign groups records by campaign name. With breakdown every campaign carries a
// per-platform breakdown ordered by platform name.
func ByCampaign(ds *dataset.Dataset, breakdown bool) *Result {
	result := newResult(GroupByCampaign, ds)
	if ds.Empty() {
		return result
	}

	buckets := make(map[string]*bucket)
	for _, rec := range ds.Records {
		b, ok := buckets[rec.Campaign]
		if !ok {
			b = newBucket(rec.Campaign)
			buckets[rec.Campaign] = b
		}
		b.add(rec)
		if breakdown {
			b.child(rec.Platform).add(rec)
		}
	}

	result.Groups = sortedGroups(buckets, true)
	result.Totals = ds.Totals()
	return result
}
