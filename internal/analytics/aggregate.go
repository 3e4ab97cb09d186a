// Package analytics derives dashboard metrics from a user's transactions.
//
// Everything here is a pure function of the rows passed in. Amounts are
// summed as decimals; only the derived percentages are floats, and those are
// always finite.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/ryanuber/go-glob"
	"github.com/shopspring/decimal"

	"fintrack/internal/types"
)

// Uncategorized is the label used for transactions without a category.
const Uncategorized = "Uncategorized"

// dailyBucketMaxDays is the widest window that is bucketed by day.
const dailyBucketMaxDays = 7

var hundred = decimal.NewFromInt(100)

// Kind is the direction of a transaction.
type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// Granularity is the bucket size of a trend series.
type Granularity string

const (
	Daily   Granularity = "day"
	Monthly Granularity = "month"
)

// Entry is one transaction as seen by the aggregator.
type Entry struct {
	Amount   decimal.Decimal
	Category string
	Kind     Kind
	Date     time.Time
}

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthWindow returns the window covering the calendar month t falls in.
func MonthWindow(t time.Time) Window {
	return Window{Start: types.StartOfMonth(t), End: types.EndOfMonth(t)}
}

// Days returns the number of calendar days in the window, 0 when it is empty.
func (w Window) Days() int {
	n := types.DaysBetween(w.Start, w.End) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	d = types.DateOf(d)
	return !d.Before(types.DateOf(w.Start)) && !d.After(types.DateOf(w.End))
}

// Filter narrows the rows that are aggregated.
type Filter struct {
	// Category is an exact category name or a glob pattern such as "Food*".
	// Matching is case-insensitive. Empty matches everything.
	Category string
}

func (f Filter) matches(category string) bool {
	if f.Category == "" {
		return true
	}
	return glob.Glob(strings.ToLower(f.Category), strings.ToLower(category))
}

// CategoryTotal is one row of the expense breakdown.
type CategoryTotal struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
	Count      int             `json:"count"`
}

// TrendPoint is one bucket of the income/expense series.
type TrendPoint struct {
	Period   string          `json:"period"`
	Start    time.Time       `json:"start"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Metrics is the aggregate view of a set of transactions.
type Metrics struct {
	WindowStart       time.Time       `json:"window_start"`
	WindowEnd         time.Time       `json:"window_end"`
	Income            decimal.Decimal `json:"income"`
	Expenses          decimal.Decimal `json:"expenses"`
	NetFlow           decimal.Decimal `json:"net_flow"`
	SavingsRate       float64         `json:"savings_rate"`
	CategoryBreakdown []CategoryTotal `json:"category_breakdown"`
	Granularity       Granularity     `json:"granularity"`
	Trend             []TrendPoint    `json:"trend"`
	HealthScore       int             `json:"financial_health_score"`
	TransactionCount  int             `json:"transaction_count"`
	AverageExpense    decimal.Decimal `json:"average_expense"`
	TopCategory       string          `json:"top_category,omitempty"`
}

// NormalizeCategory maps blank categories to Uncategorized.
func NormalizeCategory(category string) string {
	c := strings.TrimSpace(category)
	if c == "" {
		return Uncategorized
	}
	return c
}

// Aggregate computes Metrics over the entries that fall in w and match f.
func Aggregate(entries []Entry, w Window, f Filter) Metrics {
	w = Window{Start: types.DateOf(w.Start), End: types.DateOf(w.End)}
	m := Metrics{
		WindowStart:       w.Start,
		WindowEnd:         w.End,
		CategoryBreakdown: []CategoryTotal{},
	}

	byCategory := make(map[string]*CategoryTotal)
	expenseCount := 0
	var selected []Entry

	for _, e := range entries {
		if !w.Contains(e.Date) {
			continue
		}
		category := NormalizeCategory(e.Category)
		if !f.matches(category) {
			continue
		}
		e.Category = category
		selected = append(selected, e)

		switch e.Kind {
		case Income:
			m.Income = m.Income.Add(e.Amount)
		case Expense:
			m.Expenses = m.Expenses.Add(e.Amount)
			expenseCount++
			ct, ok := byCategory[category]
			if !ok {
				ct = &CategoryTotal{Category: category}
				byCategory[category] = ct
			}
			ct.Amount = ct.Amount.Add(e.Amount)
			ct.Count++
		}
	}

	m.TransactionCount = len(selected)
	m.NetFlow = m.Income.Sub(m.Expenses)
	m.SavingsRate = SavingsRate(m.Income, m.Expenses)
	m.CategoryBreakdown = breakdown(byCategory, m.Expenses)
	if len(m.CategoryBreakdown) > 0 {
		m.TopCategory = m.CategoryBreakdown[0].Category
	}
	if expenseCount > 0 {
		m.AverageExpense = m.Expenses.Div(decimal.NewFromInt(int64(expenseCount))).Round(2)
	}
	m.Granularity, m.Trend = trend(selected, w)
	m.HealthScore = HealthScore(m.Income, m.Expenses, m.SavingsRate)
	return m
}

// SavingsRate returns net flow as a percentage of income, or 0 without income.
func SavingsRate(income, expenses decimal.Decimal) float64 {
	if !income.IsPositive() {
		return 0
	}
	return income.Sub(expenses).Div(income).Mul(hundred).InexactFloat64()
}

// Percentage returns part as a percentage of total, or 0 when total is not positive.
func Percentage(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Div(total).Mul(hundred).InexactFloat64()
}

func breakdown(byCategory map[string]*CategoryTotal, total decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		ct.Percentage = Percentage(ct.Amount, total)
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func trend(entries []Entry, w Window) (Granularity, []TrendPoint) {
	days := w.Days()
	if days == 0 {
		return Monthly, []TrendPoint{}
	}

	granularity := Monthly
	if days <= dailyBucketMaxDays {
		granularity = Daily
	}

	var points []TrendPoint
	index := make(map[string]int)
	for start := bucketStart(w.Start, granularity); !start.After(w.End); start = nextBucket(start, granularity) {
		key := bucketKey(start, granularity)
		index[key] = len(points)
		points = append(points, TrendPoint{Period: key, Start: start})
	}

	for _, e := range entries {
		i, ok := index[bucketKey(types.DateOf(e.Date), granularity)]
		if !ok {
			continue
		}
		switch e.Kind {
		case Income:
			points[i].Income = points[i].Income.Add(e.Amount)
		case Expense:
			points[i].Expenses = points[i].Expenses.Add(e.Amount)
		}
	}
	return granularity, points
}

func bucketStart(d time.Time, g Granularity) time.Time {
	if g == Daily {
		return types.DateOf(d)
	}
	return types.StartOfMonth(d)
}

func nextBucket(d time.Time, g Granularity) time.Time {
	if g == Daily {
		return d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 1, 0)
}

func bucketKey(d time.Time, g Granularity) string {
	if g == Daily {
		return types.FormatDate(d)
	}
	return types.MonthKey(d)
}
