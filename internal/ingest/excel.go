package ingest

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

// readExcel reads the first sheet of a workbook. The first non-empty row is the header.
func (r *Reader) readExcel(data []byte) (*dataset.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrMalformed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformed, sheets[0], err)
	}

	header := -1
	for i, row := range rows {
		if !blank(row) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, ErrEmptyInput
	}

	r.logger.Debug("workbook sheet selected", "sheet", sheets[0], "sheets", len(sheets), "rows", len(rows))
	return rectangular(rows[header], rows[header+1:]), nil
}
