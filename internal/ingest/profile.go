package ingest

import (
	"strings"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/normalize"
)

// typeShare is the share of non-empty cells that must parse for a column to count as a date or
// numeric column.
const typeShare = 0.8

// Profile describes a raw table: sizes, missing cells per column, exact duplicate rows, and the
// columns that look like dates or numbers. A column that reads as dates is not also numeric.
func Profile(table *dataset.Table) dataset.Profile {
	p := dataset.Profile{
		TotalRows:      table.Len(),
		TotalColumns:   len(table.Columns),
		Columns:        append([]string{}, table.Columns...),
		MissingValues:  make(map[string]int, len(table.Columns)),
		DateColumns:    []string{},
		NumericColumns: []string{},
	}

	seen := make(map[string]struct{}, table.Len())
	for _, row := range table.Rows {
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			p.DuplicateRows++
			continue
		}
		seen[key] = struct{}{}
	}

	for j, col := range table.Columns {
		var filled, dates, numbers int
		for i := range table.Rows {
			cell := table.Cell(i, j)
			if cell == "" {
				p.MissingValues[col]++
				continue
			}
			filled++
			if _, ok := normalize.ParseDate(cell); ok {
				dates++
			}
			if _, ok := normalize.ParseNumber(cell); ok {
				numbers++
			}
		}
		if _, ok := p.MissingValues[col]; !ok {
			p.MissingValues[col] = 0
		}
		if filled == 0 {
			continue
		}

		switch {
		case float64(dates) >= typeShare*float64(filled):
			p.DateColumns = append(p.DateColumns, col)
		case float64(numbers) >= typeShare*float64(filled):
			p.NumericColumns = append(p.NumericColumns, col)
		}
	}
	return p
}
