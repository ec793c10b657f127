// Package aggregate groups normalized datasets by date bucket, campaign or platform and merges
// datasets from several sources. Groups always sum the additive counters and derive ratios from
// the sums; per-row ratios are never averaged.
package aggregate

import (
	"errors"
	"sort"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

var (
	ErrUnknownGranularity = errors.New("aggregate: unknown granularity")
	ErrUnknownStrategy    = errors.New("aggregate: unknown merge strategy")
	ErrUnknownMetric      = errors.New("aggregate: unknown metric")
	ErrNoDatasets         = errors.New("aggregate: no datasets to merge")
	ErrMixedCurrency      = errors.New("aggregate: datasets use different currencies")
)

// Grouping keys reported in Result.GroupBy.
const (
	GroupByDate     = "date"
	GroupByCampaign = "campaign"
	GroupByPlatform = "platform"
)

// DateRange spans the known dates of a group.
type DateRange struct {
	Start dataset.Day `json:"start"`
	End   dataset.Day `json:"end"`
	Days  int         `json:"days"`
}

// Group is one aggregated row.
type Group struct {
	Key       string `json:"key"`
	Rows      int    `json:"row_count"`
	Campaigns int    `json:"campaign_count"`
	dataset.Metrics
	SpendShare float64    `json:"spend_share,omitempty"`
	Rank       int        `json:"rank,omitempty"`
	DateRange  *DateRange `json:"date_range,omitempty"`
	Breakdown  []Group    `json:"breakdown,omitempty"`
}

// Result is the outcome of one aggregation. Groups are never nil.
type Result struct {
	GroupBy     string              `json:"group_by"`
	Granularity Granularity         `json:"granularity,omitempty"`
	Metric      string              `json:"metric,omitempty"`
	Groups      []Group             `json:"groups"`
	Totals      dataset.Metrics     `json:"totals"`
	TotalRows   int                 `json:"total_rows"`
	SkippedRows int                 `json:"skipped_rows"`
	Rankings    map[string][]string `json:"rankings,omitempty"`
}

// bucket accumulates records for one group key.
type bucket struct {
	key       string
	metrics   dataset.Metrics
	rows      int
	campaigns map[string]struct{}
	first     dataset.Day
	last      dataset.Day
	children  map[string]*bucket
}

func newBucket(key string) *bucket {
	return &bucket{key: key, campaigns: make(map[string]struct{})}
}

func (b *bucket) add(rec dataset.Record) {
	b.metrics.Add(rec.Metrics)
	b.rows++
	if rec.Campaign != "" {
		b.campaigns[rec.Campaign] = struct{}{}
	}
	if rec.Date.Valid() {
		if !b.first.Valid() || rec.Date.Before(b.first.Time) {
			b.first = rec.Date
		}
		if !b.last.Valid() || rec.Date.After(b.last.Time) {
			b.last = rec.Date
		}
	}
}

// child returns the nested bucket for key, creating it on first use.
func (b *bucket) child(key string) *bucket {
	if b.children == nil {
		b.children = make(map[string]*bucket)
	}
	c, ok := b.children[key]
	if !ok {
		c = newBucket(key)
		b.children[key] = c
	}
	return c
}

func (b *bucket) group(withRange bool) Group {
	g := Group{
		Key:       b.key,
		Rows:      b.rows,
		Campaigns: len(b.campaigns),
		Metrics:   b.metrics.Derived(),
	}
	if withRange && b.first.Valid() {
		g.DateRange = &DateRange{
			Start: b.first,
			End:   b.last,
			Days:  int(b.last.Sub(b.first.Time).Hours()/24) + 1,
		}
	}
	if len(b.children) > 0 {
		g.Breakdown = sortedGroups(b.children, withRange)
	}
	return g
}

// sortedGroups renders buckets ordered by key.
func sortedGroups(buckets map[string]*bucket, withRange bool) []Group {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, buckets[k].group(withRange))
	}
	return groups
}

func newResult(groupBy string, ds *dataset.Dataset) *Result {
	return &Result{
		GroupBy:   groupBy,
		Groups:    []Group{},
		TotalRows: ds.Len(),
	}
}
