package notify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/types"
)

// Amount is a money value.
type Amount = decimal.Decimal

// Default thresholds as a percentage of the monthly budget.
const (
	DefaultWarningPct  = 80
	DefaultCriticalPct = 100
)

// Budget is a user's monthly spending limit. A zero Monthly disables alerts.
type Budget struct {
	Monthly     Amount
	WarningPct  int
	CriticalPct int
	Currency    string
}

func (b Budget) thresholds() (warning, critical int) {
	warning, critical = b.WarningPct, b.CriticalPct
	if warning <= 0 {
		warning = DefaultWarningPct
	}
	if critical <= 0 {
		critical = DefaultCriticalPct
	}
	return warning, critical
}

// BudgetCandidate returns the alert for spending spent in the month of now.
// Crossing the critical threshold yields an error; crossing only the warning
// threshold yields a warning.
func BudgetCandidate(b Budget, spent Amount, now time.Time) (Candidate, bool) {
	if !b.Monthly.IsPositive() {
		return Candidate{}, false
	}
	warning, critical := b.thresholds()
	used := spent.Div(b.Monthly).Mul(decimal.NewFromInt(100))
	month := types.MonthKey(now)

	switch {
	case used.GreaterThanOrEqual(decimal.NewFromInt(int64(critical))):
		return Candidate{
			Title: "Budget exceeded",
			Message: fmt.Sprintf("You have spent %s of your %s budget for %s.",
				FormatAmount(spent, b.Currency), FormatAmount(b.Monthly, b.Currency), monthName(now)),
			Type:      TypeError,
			ActionURL: "/analytics",
			DedupeKey: "budget:critical:" + month,
		}, true
	case used.GreaterThanOrEqual(decimal.NewFromInt(int64(warning))):
		return Candidate{
			Title: "Approaching budget limit",
			Message: fmt.Sprintf("You have used %s%% of your %s budget for %s.",
				used.Round(0).String(), FormatAmount(b.Monthly, b.Currency), monthName(now)),
			Type:      TypeWarning,
			ActionURL: "/analytics",
			DedupeKey: "budget:warning:" + month,
		}, true
	}
	return Candidate{}, false
}

func monthName(t time.Time) string {
	return t.UTC().Format("January 2006")
}
