package dataset

import (
	"encoding/json"
	"time"
)

// DayLayout is the wire and CSV format of calendar dates.
const DayLayout = "2006-01-02"

// Day is a calendar date in UTC. The zero value means the date is unknown.
type Day struct {
	time.Time
}

// NewDay truncates t to its calendar date.
func NewDay(t time.Time) Day {
	y, m, d := t.Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a date in DayLayout.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, err
	}
	return Day{t}, nil
}

// Valid reports whether the date is known.
func (d Day) Valid() bool {
	return !d.IsZero()
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DayLayout)
}

// WeekStart returns the Monday of the week containing d.
func (d Day) WeekStart() Day {
	offset := (int(d.Weekday()) + 6) % 7
	return Day{d.AddDate(0, 0, -offset)}
}

// MonthStart returns the first day of d's month.
func (d Day) MonthStart() Day {
	return Day{time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
