package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthScore(t *testing.T) {
	tests := []struct {
		name     string
		income   int64
		expenses int64
		want     int
	}{
		{"no_activity", 0, 0, 30},
		{"only_expenses", 0, 500, 30},
		{"only_income", 1000, 0, 100},
		{"saving_15_percent", 1000, 850, 90},
		{"saving_7_percent", 1000, 930, 80},
		{"saving_2_percent", 1000, 980, 70},
		{"spending_10_percent_over", 1000, 1100, 50},
		{"spending_50_percent_over", 1000, 1500, 40},
		{"spending_double", 1000, 2000, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			income, expenses := dec(tt.income), dec(tt.expenses)
			got := HealthScore(income, expenses, SavingsRate(income, expenses))
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}
