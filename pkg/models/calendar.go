package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CalendarMonth identifies a year and month with no day or time component.
type CalendarMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) CalendarMonth {
	return CalendarMonth{Year: t.Year(), Month: t.Month()}
}

// ParseCalendarMonth parses the "2006-01" form.
func ParseCalendarMonth(s string) (CalendarMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return CalendarMonth{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Time returns the first instant of the month in UTC.
func (m CalendarMonth) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves n calendar months forward (or backward when negative).
func (m CalendarMonth) AddMonths(n int) CalendarMonth {
	return MonthOf(m.Time().AddDate(0, n, 0))
}

// MonthsSince is the number of calendar months from other to m.
func (m CalendarMonth) MonthsSince(other CalendarMonth) int {
	return (m.Year-other.Year)*12 + int(m.Month-other.Month)
}

func (m CalendarMonth) Before(other CalendarMonth) bool {
	return m.MonthsSince(other) < 0
}

func (m CalendarMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m CalendarMonth) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *CalendarMonth) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCalendarMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
