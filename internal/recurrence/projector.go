package recurrence

import (
	"time"

	"fintrack/internal/types"
)

// Due-window thresholds in days.
const (
	DueTodayDays    = 1
	DueSoonDays     = 3
	DueThisWeekDays = 7
)

// Status classifies a rule's next due date relative to now.
type Status string

const (
	StatusOverdue     Status = "overdue"
	StatusDueToday    Status = "due_today"
	StatusDueSoon     Status = "due_soon"
	StatusDueThisWeek Status = "due_this_week"
	StatusUpcoming    Status = "upcoming"
	StatusInactive    Status = "inactive"
)

// Rule is the scheduling view of a recurring transaction.
type Rule struct {
	Frequency   Frequency
	StartDate   time.Time
	EndDate     *time.Time
	NextDueDate time.Time
	IsActive    bool
}

// Projection is the derived due status of a rule at a point in time.
type Projection struct {
	IsActive      bool      `json:"is_active"`
	IsOverdue     bool      `json:"is_overdue"`
	IsDueSoon     bool      `json:"is_due_soon"`
	IsDueThisWeek bool      `json:"is_due_this_week"`
	DaysUntilDue  int       `json:"days_until_due"`
	Status        Status    `json:"status"`
	NextDueDate   time.Time `json:"next_due_date"`
}

// Effective reports whether the rule is active at now. A rule whose end date
// has passed, or whose next due date lies beyond it, is inactive whatever its
// flag says.
func (r Rule) Effective(now time.Time) bool {
	if !r.IsActive || Exhausted(r.NextDueDate, r.EndDate) {
		return false
	}
	if r.EndDate != nil && types.DateOf(*r.EndDate).Before(types.DateOf(now)) {
		return false
	}
	return true
}

// Project computes the due status of r at now. It never moves NextDueDate;
// an overdue rule stays overdue until it is edited or an occurrence is recorded.
func Project(r Rule, now time.Time) Projection {
	due := types.DateOf(r.NextDueDate)
	days := types.DaysBetween(now, due)

	p := Projection{
		IsActive:     r.Effective(now),
		DaysUntilDue: days,
		NextDueDate:  due,
	}
	if !p.IsActive {
		p.Status = StatusInactive
		return p
	}

	p.IsOverdue = days < 0
	p.IsDueSoon = days >= 0 && days <= DueSoonDays
	p.IsDueThisWeek = days >= 0 && days <= DueThisWeekDays

	switch {
	case p.IsOverdue:
		p.Status = StatusOverdue
	case days <= DueTodayDays:
		p.Status = StatusDueToday
	case days <= DueSoonDays:
		p.Status = StatusDueSoon
	case days <= DueThisWeekDays:
		p.Status = StatusDueThisWeek
	default:
		p.Status = StatusUpcoming
	}
	return p
}

// InitialNextDue returns the first due date of a rule anchored at start: one
// step after it, since the start date itself is the originating transaction.
func InitialNextDue(f Frequency, start time.Time) (time.Time, error) {
	return NextOccurrence(f, start)
}

// Advance returns the due date following current and whether the rule is
// still within its end date afterwards.
func Advance(r Rule) (time.Time, bool, error) {
	next, err := NextOccurrence(r.Frequency, r.NextDueDate)
	if err != nil {
		return time.Time{}, false, err
	}
	return next, !Exhausted(next, r.EndDate), nil
}

// Exhausted reports whether due falls after end, leaving the rule nothing
// to record.
func Exhausted(due time.Time, end *time.Time) bool {
	return end != nil && types.DateOf(due).After(types.DateOf(*end))
}
