package analytics

import "github.com/shopspring/decimal"

// Budget adherence is not tracked yet, so every score carries this flat share.
const healthBaseline = 30

var (
	eightTenths = decimal.NewFromFloat(0.8)
	sixTenths   = decimal.NewFromFloat(0.6)
)

// HealthScore rates a period from 0 to 100: up to 40 points for the savings
// rate, up to 30 for the income/expense ratio and a 30 point baseline.
func HealthScore(income, expenses decimal.Decimal, savingsRate float64) int {
	score := healthBaseline

	switch {
	case savingsRate >= 20:
		score += 40
	case savingsRate >= 10:
		score += 30
	case savingsRate >= 5:
		score += 20
	case savingsRate > 0:
		score += 10
	}

	switch {
	case income.GreaterThan(expenses):
		score += 30
	case income.GreaterThan(expenses.Mul(eightTenths)):
		score += 20
	case income.GreaterThan(expenses.Mul(sixTenths)):
		score += 10
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
