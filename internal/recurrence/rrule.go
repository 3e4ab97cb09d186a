package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// RRule renders r as an RFC 5545 recurrence rule anchored at its start date,
// for calendar clients. The string carries DTSTART and, when set, UNTIL.
// Month-end clamping has no RRULE equivalent; calendars skip short months.
func RRule(r Rule) (string, error) {
	opt := rrule.ROption{
		Dtstart: r.StartDate,
		Until:   derefTime(r.EndDate),
	}
	switch r.Frequency {
	case Daily:
		opt.Freq, opt.Interval = rrule.DAILY, 1
	case Weekly:
		opt.Freq, opt.Interval = rrule.WEEKLY, 1
	case Biweekly:
		opt.Freq, opt.Interval = rrule.WEEKLY, 2
	case Monthly:
		opt.Freq, opt.Interval = rrule.MONTHLY, 1
	case Quarterly:
		opt.Freq, opt.Interval = rrule.MONTHLY, 3
	case Yearly:
		opt.Freq, opt.Interval = rrule.YEARLY, 1
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, string(r.Frequency))
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("failed to build RRULE: %w", err)
	}
	return rule.String(), nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
