package notify

import (
	"fmt"
	"time"

	"fintrack/internal/recurrence"
	"fintrack/internal/types"
)

// Reminders go out for rules due within this many days, but not on the due day.
const (
	reminderMinDays = 1
	reminderMaxDays = 2
)

// DueRule is a recurring rule as seen by the reminder check.
type DueRule struct {
	ID       string
	Title    string
	Amount   Amount
	Currency string
	Rule     recurrence.Rule
}

// ReminderCandidates returns a reminder for every active rule due in one or
// two days. A rule due tomorrow gets a warning, otherwise it is info.
func ReminderCandidates(rules []DueRule, now time.Time) []Candidate {
	var out []Candidate
	for _, r := range rules {
		p := recurrence.Project(r.Rule, now)
		if !p.IsActive || p.DaysUntilDue < reminderMinDays || p.DaysUntilDue > reminderMaxDays {
			continue
		}

		due := types.FormatDate(p.NextDueDate)
		c := Candidate{
			Title:     fmt.Sprintf("%s is due in %d days", r.Title, p.DaysUntilDue),
			Message:   fmt.Sprintf("%s for %s is due on %s.", r.Title, FormatAmount(r.Amount, r.Currency), due),
			Type:      TypeInfo,
			ActionURL: "/recurring",
			DedupeKey: fmt.Sprintf("recurring:%s:%s", r.ID, due),
		}
		if p.DaysUntilDue == 1 {
			c.Title = r.Title + " is due tomorrow"
			c.Type = TypeWarning
		}
		out = append(out, c)
	}
	return out
}
