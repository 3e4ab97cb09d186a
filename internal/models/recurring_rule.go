package models

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/recurrence"
	"fintrack/internal/types"
)

// RecurringRule is a template for a transaction that repeats on a schedule.
type RecurringRule struct {
	Base
	UserID      string               `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string               `gorm:"size:255;not null" json:"title"`
	Amount      decimal.Decimal      `gorm:"type:decimal(20,2);not null" json:"amount"`
	Category    *string              `gorm:"size:100" json:"category"`
	Type        TransactionType      `gorm:"column:transaction_type;size:16;not null" json:"type"`
	Frequency   recurrence.Frequency `gorm:"size:16;not null" json:"frequency"`
	StartDate   types.Date           `gorm:"type:date;not null" json:"start_date"`
	EndDate     *types.Date          `gorm:"type:date" json:"end_date"`
	NextDueDate types.Date           `gorm:"type:date;not null;index" json:"next_due_date"`
	IsActive    bool                 `gorm:"not null" json:"is_active"`
}

// TableName keeps the hosted backend's table name.
func (RecurringRule) TableName() string { return "recurring_transactions" }

// Schedule returns the scheduling view used by the projector.
func (r RecurringRule) Schedule() recurrence.Rule {
	return recurrence.Rule{
		Frequency:   r.Frequency,
		StartDate:   r.StartDate.Time,
		EndDate:     r.EndDate.TimePtr(),
		NextDueDate: r.NextDueDate.Time,
		IsActive:    r.IsActive,
	}
}
