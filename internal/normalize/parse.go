package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/dataset"
)

// DateLayouts are tried in order for every date cell; the first that parses wins.
// Month-first layouts precede day-first ones, so "01/02/2024" is January 2.
var DateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"2/1/2006",
	"2006/1/2",
	"2-1-2006",
	"1-2-2006",
	"20060102",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-1-2 15:04:05",
	time.RFC3339,
	"1-2-06",
	"1/2/06",
}

// ParseDate parses s with DateLayouts.
func ParseDate(s string) (dataset.Day, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return dataset.Day{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dataset.NewDay(t), true
		}
	}
	return dataset.Day{}, false
}

var numberReplacer = strings.NewReplacer(
	"R$", "", "$", "", "€", "", "£", "", "¥", "", "₹", "",
	",", "", "%", "", " ", "", " ", "",
)

// ParseNumber cleans currency symbols, thousands separators and percent signs from s and parses
// it. "(12.50)" is read as -12.50. Empty, non-numeric and non-finite values report false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = numberReplacer.Replace(s)
	if s == "" || s == "-" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
