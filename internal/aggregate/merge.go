package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// Strategy selects how Merge combines datasets.
type Strategy string

const (
	// StrategyAppend concatenates the records of every dataset.
	StrategyAppend Strategy = "append"
	// StrategyOuterJoin emits one row per dataset for every date seen in any dataset.
	StrategyOuterJoin Strategy = "outer_join_by_date"
)

// ParseStrategy accepts append or outer_join_by_date; empty means append.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyAppend, nil
	case StrategyAppend, StrategyOuterJoin:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Merge combines normalized datasets into a new one. platformNames, when given, pairs a platform
// label with each dataset and is used for rows that carry no platform of their own. Datasets in
// different currencies are rejected. The caller assigns identity and timestamps.
func Merge(datasets []*dataset.Dataset, platformNames []string, strategy Strategy) (*dataset.Dataset, error) {
	if len(datasets) == 0 {
		return nil, ErrNoDatasets
	}
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	currency, err := commonCurrency(datasets)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(datasets))
	for i, ds := range datasets {
		labels[i] = sourceLabel(ds, platformNames, i)
	}

	out := &dataset.Dataset{
		Name:     mergedName(datasets),
		Platform: commonPlatform(datasets),
		Currency: currency,
	}

	switch strategy {
	case StrategyOuterJoin:
		out.Records = outerJoin(datasets, labels, currency)
		out.Fields = joinFields(datasets)
	default:
		out.Records = appendRecords(datasets, labels, platformNames)
		out.Fields = unionFields(datasets)
	}
	return out, nil
}

func appendRecords(datasets []*dataset.Dataset, labels, platformNames []string) []dataset.Record {
	total := 0
	for _, ds := range datasets {
		total += ds.Len()
	}

	records := make([]dataset.Record, 0, total)
	for i, ds := range datasets {
		explicit := i < len(platformNames) && strings.TrimSpace(platformNames[i]) != ""
		for _, rec := range ds.Records {
			switch {
			case rec.Platform == "":
				rec.Platform = labels[i]
			case explicit && rec.IsImputed(schema.FieldPlatform):
				rec.Platform = labels[i]
			}
			records = append(records, rec)
		}
	}
	return records
}

// outerJoin sums each dataset per date and emits one row per dataset for every date, with zero
// metrics where a dataset has no rows on that date. Undated rows are left out.
func outerJoin(datasets []*dataset.Dataset, labels []string, currency string) []dataset.Record {
	perSource := make([]map[string]*dataset.Metrics, len(datasets))
	days := make(map[string]dataset.Day)
	for i, ds := range datasets {
		perSource[i] = make(map[string]*dataset.Metrics)
		for _, rec := range ds.Records {
			if !rec.Date.Valid() {
				continue
			}
			key := rec.Date.String()
			days[key] = rec.Date
			m, ok := perSource[i][key]
			if !ok {
				m = &dataset.Metrics{}
				perSource[i][key] = m
			}
			m.Add(rec.Metrics)
		}
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]dataset.Record, 0, len(keys)*len(datasets))
	for _, k := range keys {
		for i := range datasets {
			rec := dataset.Record{
				Date:     days[k],
				Platform: labels[i],
				Currency: currency,
			}
			if m, ok := perSource[i][k]; ok {
				rec.Metrics = *m
			}
			rec.Derive()
			records = append(records, rec)
		}
	}
	return records
}

func commonCurrency(datasets []*dataset.Dataset) (string, error) {
	currency := ""
	for _, ds := range datasets {
		if ds.Currency == "" {
			continue
		}
		if currency == "" {
			currency = ds.Currency
			continue
		}
		if ds.Currency != currency {
			return "", fmt.Errorf("%w: %s and %s", ErrMixedCurrency, currency, ds.Currency)
		}
	}
	return currency, nil
}

func commonPlatform(datasets []*dataset.Dataset) schema.Platform {
	p := datasets[0].Platform
	for _, ds := range datasets[1:] {
		if ds.Platform != p {
			return schema.PlatformUnknown
		}
	}
	return p
}

// sourceLabel names the platform of dataset i: the caller's label, the detected platform, or the
// dataset name.
func sourceLabel(ds *dataset.Dataset, platformNames []string, i int) string {
	if i < len(platformNames) {
		if name := strings.TrimSpace(platformNames[i]); name != "" {
			return schema.CanonicalPlatformName(name)
		}
	}
	if ds.Platform.IsKnown() {
		return ds.Platform.DisplayName()
	}
	if ds.Name != "" {
		return ds.Name
	}
	return fmt.Sprintf("source_%d", i+1)
}

func mergedName(datasets []*dataset.Dataset) string {
	names := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		if ds.Name != "" {
			names = append(names, ds.Name)
		}
	}
	if len(names) == 0 {
		return "merged"
	}
	return "merged(" + strings.Join(names, ", ") + ")"
}

// unionFields returns every field mapped in any dataset, plus platform, in canonical order.
func unionFields(datasets []*dataset.Dataset) []string {
	seen := map[string]bool{schema.FieldPlatform: true}
	for _, ds := range datasets {
		for _, f := range ds.Fields {
			seen[f] = true
		}
	}
	return canonicalOrder(seen)
}

// joinFields returns date, platform and the additive metrics mapped in any dataset.
func joinFields(datasets []*dataset.Dataset) []string {
	seen := map[string]bool{schema.FieldDate: true, schema.FieldPlatform: true}
	for _, ds := range datasets {
		for _, f := range ds.Fields {
			if kind, _ := schema.KindOf(f); kind == schema.KindNumeric {
				seen[f] = true
			}
		}
	}
	return canonicalOrder(seen)
}

func canonicalOrder(set map[string]bool) []string {
	var out []string
	for _, f := range schema.AllFields() {
		if set[f] {
			out = append(out, f)
		}
	}
	return out
}
