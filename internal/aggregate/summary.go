package aggregate

import (
	"sort"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

// Summary is the headline view of a dataset used by reports and insights.
type Summary struct {
	TotalRows int             `json:"total_rows"`
	Metrics   dataset.Metrics `json:"overall_metrics"`
	DateRange *DateRange      `json:"date_range,omitempty"`
	Platforms []string        `json:"platforms"`
	Campaigns []string        `json:"campaigns"`
}

// Summarize totals ds and lists its platforms and campaigns in name order.
func Summarize(ds *dataset.Dataset) Summary {
	s := Summary{
		TotalRows: ds.Len(),
		Metrics:   ds.Totals(),
		Platforms: []string{},
		Campaigns: []string{},
	}
	if ds.Empty() {
		return s
	}

	if first, last, ok := ds.DateRange(); ok {
		s.DateRange = &DateRange{
			Start: first,
			End:   last,
			Days:  int(last.Sub(first.Time).Hours()/24) + 1,
		}
	}

	platforms := make(map[string]struct{})
	campaigns := make(map[string]struct{})
	for _, rec := range ds.Records {
		if rec.Platform != "" {
			platforms[rec.Platform] = struct{}{}
		}
		if rec.Campaign != "" {
			campaigns[rec.Campaign] = struct{}{}
		}
	}
	s.Platforms = sortedKeys(platforms)
	s.Campaigns = sortedKeys(campaigns)
	return s
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
