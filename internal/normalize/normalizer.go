package normalize

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// Normalizer maps raw tables onto the canonical schema.
type Normalizer struct {
	registry *schema.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a normalizer. A nil registry uses schema.Default().
func New(registry *schema.Registry, logger *slog.Logger) *Normalizer {
	if registry == nil {
		registry = schema.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		registry: registry,
		logger:   logger.With("component", "normalizer"),
		now:      time.Now,
	}
}

type assignment struct {
	column int
	tier   schema.MatchTier
}

// Normalize maps, parses, converts, deduplicates and derives. The result depends only on the
// table and the options, and normalizing result.Table() with the same options yields the same
// records.
func (n *Normalizer) Normalize(table *dataset.Table, opts Options) (*dataset.Dataset, *Report, error) {
	if table == nil {
		return nil, nil, ErrNilTable
	}

	target := strings.ToUpper(strings.TrimSpace(opts.TargetCurrency))
	if target == "" {
		target = DefaultCurrency
	}
	if _, ok := RatesToUSD[target]; !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, opts.TargetCurrency)
	}
	platform := opts.Platform
	if platform == "" {
		platform = schema.PlatformUnknown
	}

	report := &Report{
		Platform:          platform,
		PlatformName:      platform.DisplayName(),
		FallbackMapping:   !platform.IsKnown(),
		RegistryVersion:   n.registry.Version(),
		TargetCurrency:    target,
		ColumnMapping:     make(map[string]string),
		MappingSources:    make(map[string]string),
		InputRows:         table.Len(),
		InvalidNumbers:    make(map[string]int),
		UnknownCurrencies: make(map[string]int),
		ImputedValues:     make(map[string]int),
	}

	assigned, err := n.mapColumns(table, platform, opts.Mapping, report)
	if err != nil {
		return nil, nil, err
	}

	fields := make([]string, 0, len(assigned))
	for _, f := range schema.AllFields() {
		if a, ok := assigned[f]; ok {
			fields = append(fields, f)
			report.ColumnMapping[table.Columns[a.column]] = f
			report.MappingSources[f] = a.tier.String()
		}
	}
	if report.FallbackMapping {
		report.Log = append(report.Log, "platform not recognised, generic column mapping applied")
	}

	records := make([]dataset.Record, 0, table.Len())
	for i := range table.Rows {
		records = append(records, n.parseRow(table, i, assigned, platform, target, report))
	}

	records = dedupe(records, report)

	for i := range records {
		records[i].Derive()
		for _, f := range records[i].Imputed {
			report.ImputedValues[f]++
		}
	}
	report.OutputRows = len(records)

	if report.UnparsedDates > 0 {
		report.Log = append(report.Log, fmt.Sprintf("%d dates could not be parsed and were left empty", report.UnparsedDates))
	}
	if report.ConvertedRows > 0 {
		report.Log = append(report.Log, fmt.Sprintf("converted %d rows to %s", report.ConvertedRows, target))
	}
	if report.DuplicatesRemoved > 0 {
		report.Log = append(report.Log, fmt.Sprintf("removed %d duplicate rows", report.DuplicatesRemoved))
	}

	n.logger.Debug("dataset normalized",
		"platform", platform,
		"input_rows", report.InputRows,
		"output_rows", report.OutputRows,
		"mapped_fields", len(fields),
		"duplicates_removed", report.DuplicatesRemoved)

	return &dataset.Dataset{
		Platform:     platform,
		Currency:     target,
		NormalizedAt: n.now().UTC(),
		Fields:       fields,
		Records:      records,
	}, report, nil
}

// mapColumns resolves each canonical field to at most one source column. Overrides beat platform
// synonyms, which beat generic synonyms; within a tier the leftmost column wins.
func (n *Normalizer) mapColumns(table *dataset.Table, platform schema.Platform, overrides map[string]string, report *Report) (map[string]assignment, error) {
	assigned := make(map[string]assignment)
	used := make(map[int]bool)

	for j, col := range table.Columns {
		field, tier, ok := n.registry.Lookup(platform, col)
		if !ok {
			continue
		}
		if kind, _ := schema.KindOf(field); kind == schema.KindDerived {
			report.IgnoredDerived = append(report.IgnoredDerived, col)
			used[j] = true
			continue
		}
		if cur, exists := assigned[field]; exists && cur.tier <= tier {
			continue
		}
		assigned[field] = assignment{column: j, tier: tier}
	}

	fields := make([]string, 0, len(overrides))
	for field := range overrides {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		kind, ok := schema.KindOf(field)
		if !ok || kind == schema.KindDerived {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		j := findColumn(table.Columns, overrides[field])
		if j < 0 {
			report.Log = append(report.Log, fmt.Sprintf("mapping for %s ignored: column %q not present", field, overrides[field]))
			continue
		}
		for other, a := range assigned {
			if a.column == j && other != field {
				delete(assigned, other)
			}
		}
		assigned[field] = assignment{column: j, tier: schema.MatchOverride}
	}

	for _, a := range assigned {
		used[a.column] = true
	}
	for j, col := range table.Columns {
		if !used[j] {
			report.DroppedColumns = append(report.DroppedColumns, col)
		}
	}
	return assigned, nil
}

func findColumn(columns []string, name string) int {
	for j, col := range columns {
		if col == name {
			return j
		}
	}
	key := schema.NormalizeKey(name)
	for j, col := range columns {
		if key != "" && schema.NormalizeKey(col) == key {
			return j
		}
	}
	return -1
}

func (n *Normalizer) parseRow(table *dataset.Table, i int, assigned map[string]assignment, platform schema.Platform, target string, report *Report) dataset.Record {
	rec := dataset.Record{
		Platform: platform.DisplayName(),
		Currency: target,
	}
	var imputed []string

	if a, ok := assigned[schema.FieldDate]; ok {
		raw := table.Cell(i, a.column)
		if day, ok := ParseDate(raw); ok {
			rec.Date = day
		} else if raw == "" {
			report.MissingDates++
		} else {
			report.UnparsedDates++
		}
	}

	for _, field := range schema.TextFields {
		a, ok := assigned[field]
		if !ok {
			continue
		}
		raw := table.Cell(i, a.column)
		if raw == "" {
			imputed = append(imputed, field)
			if field == schema.FieldPlatform || field == schema.FieldCurrency {
				continue
			}
		}
		switch field {
		case schema.FieldPlatform:
			raw = schema.CanonicalPlatformName(raw)
		case schema.FieldCurrency:
			raw = strings.ToUpper(raw)
		}
		rec.SetText(field, raw)
	}

	for _, field := range schema.MetricFields {
		a, ok := assigned[field]
		if !ok {
			continue
		}
		raw := table.Cell(i, a.column)
		v, ok := ParseNumber(raw)
		if !ok {
			if raw != "" {
				report.InvalidNumbers[field]++
			}
			imputed = append(imputed, field)
			continue
		}
		rec.SetValue(field, v)
	}

	if rec.Currency != target {
		spend, okSpend := Convert(rec.Spend, rec.Currency, target)
		revenue, okRevenue := Convert(rec.Revenue, rec.Currency, target)
		if okSpend && okRevenue {
			rec.Spend, rec.Revenue = spend, revenue
			rec.Currency = target
			report.ConvertedRows++
		} else {
			report.UnknownCurrencies[rec.Currency]++
		}
	}

	if len(imputed) > 0 {
		rec.Imputed = orderFields(imputed)
	}
	return rec
}

// orderFields sorts field names into canonical output order.
func orderFields(fields []string) []string {
	pos := make(map[string]int)
	for i, f := range schema.AllFields() {
		pos[f] = i
	}
	sort.Slice(fields, func(a, b int) bool { return pos[fields[a]] < pos[fields[b]] })
	return fields
}

// dedupe drops rows whose key was already seen, keeping the first occurrence.
func dedupe(records []dataset.Record, report *Report) []dataset.Record {
	seen := make(map[dataset.Key]struct{}, len(records))
	out := records[:0]
	for _, rec := range records {
		key := rec.Key()
		if _, dup := seen[key]; dup {
			report.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
