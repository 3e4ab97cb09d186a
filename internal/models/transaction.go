package models

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/analytics"
	"fintrack/internal/types"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Kind maps the type onto the aggregator's kinds.
func (t TransactionType) Kind() analytics.Kind {
	if t == TransactionTypeIncome {
		return analytics.Income
	}
	return analytics.Expense
}

// Transaction is a single income or expense. It lives in the expenses table,
// which holds both kinds.
type Transaction struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index:idx_expenses_user_date,priority:1" json:"user_id"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Category        *string         `gorm:"size:100" json:"category"`
	Type            TransactionType `gorm:"column:transaction_type;size:16;not null" json:"type"`
	TransactionDate *types.Date     `gorm:"type:date;index:idx_expenses_user_date,priority:2" json:"transaction_date"`
	RecurringRuleID *string         `gorm:"type:uuid;index" json:"recurring_rule_id,omitempty"`
}

// TableName keeps the hosted backend's table name.
func (Transaction) TableName() string { return "expenses" }

// Date is the transaction date, falling back to the creation time.
func (t Transaction) Date() time.Time {
	if t.TransactionDate != nil && !t.TransactionDate.IsZero() {
		return t.TransactionDate.Time
	}
	return types.DateOf(t.CreatedAt)
}

// CategoryName returns the category, or Uncategorized when there is none.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return analytics.Uncategorized
	}
	return analytics.NormalizeCategory(*t.Category)
}

// Entry converts the row for the metrics aggregator.
func (t Transaction) Entry() analytics.Entry {
	return analytics.Entry{
		Amount:   t.Amount,
		Category: t.CategoryName(),
		Kind:     t.Type.Kind(),
		Date:     t.Date(),
	}
}
