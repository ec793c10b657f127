package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

// fallbackEncodings are tried, in order, when a CSV file is not valid UTF-8.
var fallbackEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"windows-1252", charmap.Windows1252},
	{"iso-8859-1", charmap.ISO8859_1},
}

var delimiters = []rune{',', ';', '\t'}

func (r *Reader) readCSV(data []byte) (*dataset.Table, error) {
	text, name, err := decodeText(stripBOM(data))
	if err != nil {
		return nil, err
	}
	if name != "utf-8" {
		r.logger.Warn("csv is not utf-8, decoded with fallback", "encoding", name)
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.Comma = sniffDelimiter(text)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rows = append(rows, rec)
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
	return rectangular(rows[header], rows[header+1:]), nil
}

// decodeText returns UTF-8 text and the name of the encoding it was read as.
func decodeText(data []byte) ([]byte, string, error) {
	if utf8.Valid(data) {
		return data, "utf-8", nil
	}
	for _, fb := range fallbackEncodings {
		decoded, _, err := transform.Bytes(fb.enc.NewDecoder(), data)
		if err == nil && utf8.Valid(decoded) {
			return decoded, fb.name, nil
		}
	}
	return nil, "", fmt.Errorf("%w: could not decode text with any supported encoding", ErrMalformed)
}

// sniffDelimiter picks the delimiter occurring most often outside quotes on the first non-empty
// line. Comma wins ties.
func sniffDelimiter(text []byte) rune {
	line := text
	for len(line) > 0 {
		end := bytes.IndexByte(line, '\n')
		if end < 0 {
			end = len(line)
		}
		if len(bytes.TrimSpace(line[:end])) > 0 {
			line = line[:end]
			break
		}
		if end == len(line) {
			line = nil
			break
		}
		line = line[end+1:]
	}

	counts := make(map[rune]int, len(delimiters))
	quoted := false
	for _, c := range string(line) {
		if c == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[c]++
		}
	}

	best := ','
	for _, d := range delimiters {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}
