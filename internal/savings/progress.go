// Package savings evaluates how a savings goal is progressing against its
// deadline.
package savings

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/types"
)

// Status classifies a goal's progress.
type Status string

const (
	StatusCompleted      Status = "Completed"
	StatusOnTrack        Status = "On Track"
	StatusSlightlyBehind Status = "Slightly Behind"
	StatusAtRisk         Status = "At Risk"
)

const (
	onTrackRatio        = 0.9
	slightlyBehindRatio = 0.7
	daysPerMonth        = 30
	// Projections further out than this are not reported.
	maxProjectionDays = 100 * 365
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Goal is the subset of a savings goal the engine needs.
type Goal struct {
	TargetAmount decimal.Decimal
	SavedAmount  decimal.Decimal
	TargetDate   *time.Time
	CreatedAt    time.Time
}

// Progress is the derived state of a goal at a point in time.
type Progress struct {
	Percent                     float64         `json:"percent"`
	Status                      Status          `json:"status"`
	ExpectedProgress            float64         `json:"expected_progress"`
	RequiredMonthlyContribution decimal.Decimal `json:"required_monthly_contribution"`
	RemainingAmount             decimal.Decimal `json:"remaining_amount"`
	DaysRemaining               *int            `json:"days_remaining,omitempty"`
	ProjectedCompletion         *time.Time      `json:"projected_completion,omitempty"`
}

// Remaining returns how much is still to be saved, never negative.
func (g Goal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.SavedAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Percent returns saved as a percentage of target. It is not capped at 100.
func (g Goal) Percent() float64 {
	if !g.TargetAmount.IsPositive() {
		if g.SavedAmount.GreaterThanOrEqual(g.TargetAmount) {
			return 100
		}
		return 0
	}
	return g.SavedAmount.Div(g.TargetAmount).Mul(hundred).InexactFloat64()
}

// Evaluate computes the progress of g as of now.
func Evaluate(g Goal, now time.Time) Progress {
	p := Progress{
		Percent:         g.Percent(),
		RemainingAmount: g.Remaining(),
	}

	if g.SavedAmount.GreaterThanOrEqual(g.TargetAmount) {
		p.Status = StatusCompleted
		p.ExpectedProgress = 100
		p.RequiredMonthlyContribution = decimal.Zero
		return p
	}

	p.ProjectedCompletion = projectCompletion(g, now)

	if g.TargetDate == nil {
		p.Status = StatusOnTrack
		p.RequiredMonthlyContribution = decimal.Zero
		return p
	}

	p.ExpectedProgress = ExpectedProgress(g.CreatedAt, *g.TargetDate, now)
	p.Status = classify(p.Percent, p.ExpectedProgress)

	daysLeft := types.CeilDays(now, *g.TargetDate)
	p.DaysRemaining = &daysLeft
	p.RequiredMonthlyContribution = RequiredMonthly(p.RemainingAmount, daysLeft)
	return p
}

// ExpectedProgress is the percentage of the goal's timeline that has elapsed
// by now, capped at 100. A timeline with no length counts as fully due.
func ExpectedProgress(created, target, now time.Time) float64 {
	totalDays := types.CeilDays(created, target)
	if totalDays <= 0 {
		return 100
	}
	elapsed := types.CeilDays(created, now)
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Min(100, float64(elapsed)/float64(totalDays)*100)
}

// RequiredMonthly spreads remaining over the months left before the deadline,
// with at least one month and at least 1 per month.
func RequiredMonthly(remaining decimal.Decimal, daysLeft int) decimal.Decimal {
	months := decimal.NewFromInt(int64(daysLeft)).Div(decimal.NewFromInt(daysPerMonth))
	if months.LessThan(one) {
		months = one
	}
	required := remaining.Div(months).Round(2)
	if required.LessThan(one) {
		return one
	}
	return required
}

func classify(actual, expected float64) Status {
	switch {
	case actual >= onTrackRatio*expected:
		return StatusOnTrack
	case actual >= slightlyBehindRatio*expected:
		return StatusSlightlyBehind
	default:
		return StatusAtRisk
	}
}

// projectCompletion extrapolates the average daily saving since creation.
func projectCompletion(g Goal, now time.Time) *time.Time {
	if !g.SavedAmount.IsPositive() {
		return nil
	}
	elapsed := types.CeilDays(g.CreatedAt, now)
	if elapsed < 1 {
		elapsed = 1
	}
	perDay := g.SavedAmount.Div(decimal.NewFromInt(int64(elapsed)))
	daysNeeded := g.Remaining().Div(perDay).Ceil()
	if daysNeeded.GreaterThan(decimal.NewFromInt(maxProjectionDays)) {
		return nil
	}
	d := types.DateOf(now).AddDate(0, 0, int(daysNeeded.IntPart()))
	return &d
}
