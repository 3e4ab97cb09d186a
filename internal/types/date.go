// Package types holds calendar helpers shared by the domain packages.
//
// A calendar date is represented as a time.Time at midnight UTC. Callers
// normalize with DateOf before comparing or doing day arithmetic so that
// wall-clock offsets never leak into day counts.
package types

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateOf returns the calendar date t falls on in its own location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewDate returns the given calendar date as midnight UTC.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of calendar days from a to b. It is negative
// when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// CeilDays returns the duration from a to b in days, rounded up.
func CeilDays(a, b time.Time) int {
	return int(math.Ceil(b.Sub(a).Hours() / 24))
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfMonth returns the first day of the month t falls in.
func StartOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last day of the month t falls in.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// MonthKey formats the month t falls in as YYYY-MM.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), t.Month())
}

// Date is a calendar date that travels as YYYY-MM-DD in JSON and as a DATE
// column in the database.
type Date struct {
	time.Time
}

// DateValue wraps t as a Date, dropping the time of day.
func DateValue(t time.Time) Date {
	return Date{Time: DateOf(t)}
}

// DatePtr is DateValue for optional dates. A nil t gives nil.
func DatePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := DateValue(*t)
	return &d
}

// TimePtr unwraps an optional Date.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return FormatDate(d.Time)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + FormatDate(d.Time) + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD and, for clients that send timestamps, RFC 3339.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	*d = DateValue(t)
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return DateOf(d.Time), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateValue(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

func (d *Date) scanString(s string) error {
	if len(s) >= len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			*d = Date{Time: t}
			return nil
		}
	}
	return fmt.Errorf("cannot scan %q into Date", s)
}
