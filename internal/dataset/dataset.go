package dataset

import (
	"strings"
	"time"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
)

// Table is a raw tabular input: a header and string cells as read from the source file.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of a column, or -1.
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at row i, column j; out of range cells are empty.
func (t *Table) Cell(i, j int) string {
	if i < 0 || i >= len(t.Rows) || j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[i][j])
}

// Dataset is a normalized, immutable sequence of records. Stages that change data return a new
// Dataset built with WithRecords.
type Dataset struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Platform     schema.Platform `json:"platform"`
	Currency     string          `json:"currency"`
	IngestedAt   time.Time       `json:"ingested_at"`
	NormalizedAt time.Time       `json:"normalized_at"`
	// Fields lists the canonical fields that had a source column, in canonical order.
	Fields  []string `json:"mapped_fields"`
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Empty reports whether the dataset holds no records.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// HasField reports whether field was mapped from a source column.
func (d *Dataset) HasField(field string) bool {
	for _, f := range d.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Columns returns every canonical field in output order.
func (d *Dataset) Columns() []string {
	return schema.AllFields()
}

// WithRecords returns a copy of d carrying records instead of d's own.
func (d *Dataset) WithRecords(records []Record) *Dataset {
	out := *d
	out.Fields = append([]string(nil), d.Fields...)
	out.Records = records
	return &out
}

// Table renders d back into raw form: the mapped fields followed by the derived fields. Imputed
// cells and unknown dates are written empty so that normalizing the table reproduces d.
func (d *Dataset) Table() *Table {
	return d.TableRows(0, d.Len())
}

// TableColumns returns the header written by Table.
func (d *Dataset) TableColumns() []string {
	var columns []string
	for _, f := range schema.AllFields() {
		if d.HasField(f) {
			columns = append(columns, f)
		}
	}
	for _, f := range schema.DerivedFields {
		if !d.HasField(f) {
			columns = append(columns, f)
		}
	}
	return columns
}

// TableRows renders only records [start, end) the way Table does. Bounds are clamped to the
// record range.
func (d *Dataset) TableRows(start, end int) *Table {
	columns := d.TableColumns()
	start = max(start, 0)
	end = min(end, d.Len())
	if start >= end {
		return &Table{Columns: columns, Rows: [][]string{}}
	}

	rows := make([][]string, 0, end-start)
	for _, rec := range d.Records[start:end] {
		row := make([]string, len(columns))
		for j, col := range columns {
			if rec.IsNull(col) {
				continue
			}
			row[j] = rec.Cell(col)
		}
		rows = append(rows, row)
	}
	return &Table{Columns: columns, Rows: rows}
}

// DateRange returns the earliest and latest known dates, and false when no record has a date.
func (d *Dataset) DateRange() (Day, Day, bool) {
	var first, last Day
	for _, rec := range d.Records {
		if !rec.Date.Valid() {
			continue
		}
		if !first.Valid() || rec.Date.Before(first.Time) {
			first = rec.Date
		}
		if !last.Valid() || rec.Date.After(last.Time) {
			last = rec.Date
		}
	}
	return first, last, first.Valid()
}

// Totals sums the additive metrics of every record and derives the ratios.
func (d *Dataset) Totals() Metrics {
	var m Metrics
	for _, rec := range d.Records {
		m.Add(rec.Metrics)
	}
	m.Derive()
	return m
}

// Profile describes a raw table at ingestion time.
type Profile struct {
	TotalRows      int            `json:"total_rows"`
	TotalColumns   int            `json:"total_columns"`
	Columns        []string       `json:"columns"`
	MissingValues  map[string]int `json:"missing_values"`
	DuplicateRows  int            `json:"duplicate_rows"`
	DateColumns    []string       `json:"date_columns"`
	NumericColumns []string       `json:"numeric_columns"`
}
