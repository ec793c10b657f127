package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

func TestProfile(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"Day", "Campaign", "Cost", "Notes"},
		Rows: [][]string{
			{"2024-01-01", "Brand", "$1,200.50", ""},
			{"2024-01-02", "Brand", "300", "ok"},
			{"2024-01-02", "Brand", "300", "ok"},
			{"01/03/2024", "Generic", "", "n/a"},
			{"not a date", "Generic", "12", ""},
		},
	}

	p := Profile(table)

	assert.Equal(t, 5, p.TotalRows)
	assert.Equal(t, 4, p.TotalColumns)
	assert.Equal(t, 1, p.DuplicateRows)
	assert.Equal(t, map[string]int{"Day": 0, "Campaign": 0, "Cost": 1, "Notes": 2}, p.MissingValues)
	assert.Equal(t, []string{"Day"}, p.DateColumns)
	assert.Equal(t, []string{"Cost"}, p.NumericColumns)
}

func TestProfileEmpty(t *testing.T) {
	p := Profile(&dataset.Table{Columns: []string{"a"}})

	assert.Zero(t, p.TotalRows)
	assert.Equal(t, map[string]int{"a": 0}, p.MissingValues)
	assert.Empty(t, p.DateColumns)
	assert.NotNil(t, p.NumericColumns)
}
