// Package recurrence computes occurrence dates and due status for recurring
// transaction rules.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/types"
)

// Frequency is the repeat interval of a recurring rule.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Frequencies lists every supported frequency in ascending interval order.
var Frequencies = []Frequency{Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly}

// ErrInvalidFrequency is returned for any frequency outside Frequencies.
var ErrInvalidFrequency = errors.New("invalid frequency")

// ParseFrequency validates s as a Frequency. Matching is case-insensitive.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// NextOccurrence returns the occurrence one step after from. Month based
// frequencies clamp to the last day of the target month, so Jan 31 monthly
// is Feb 28 (or 29) and Feb 29 yearly is Feb 28 on non-leap years.
func NextOccurrence(f Frequency, from time.Time) (time.Time, error) {
	from = types.DateOf(from)
	switch f {
	case Daily:
		return from.AddDate(0, 0, 1), nil
	case Weekly:
		return from.AddDate(0, 0, 7), nil
	case Biweekly:
		return from.AddDate(0, 0, 14), nil
	case Monthly:
		return addMonthsClamped(from, 1), nil
	case Quarterly:
		return addMonthsClamped(from, 3), nil
	case Yearly:
		return addMonthsClamped(from, 12), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, string(f))
}

// Occurrences returns up to limit successive occurrences after start that do
// not fall after until. A zero until means no upper bound.
func Occurrences(f Frequency, start, until time.Time, limit int) ([]time.Time, error) {
	var out []time.Time
	current := types.DateOf(start)
	for len(out) < limit {
		next, err := NextOccurrence(f, current)
		if err != nil {
			return nil, err
		}
		if !until.IsZero() && next.After(types.DateOf(until)) {
			break
		}
		out = append(out, next)
		current = next
	}
	return out, nil
}

// addMonthsClamped adds n calendar months to d, keeping the day of month when
// it exists in the target month and using the month's last day otherwise.
func addMonthsClamped(d time.Time, n int) time.Time {
	year, month, day := d.Date()
	total := int(month) - 1 + n
	targetYear := year + total/12
	targetMonth := time.Month(total%12 + 1)
	if last := types.DaysInMonth(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day, 0, 0, 0, 0, time.UTC)
}
