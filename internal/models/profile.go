package models

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/notify"
)

// Profile holds per-user settings. There is at most one per user.
type Profile struct {
	UserID               string          `gorm:"type:uuid;primaryKey" json:"user_id"`
	DisplayName          string          `gorm:"size:255" json:"display_name"`
	Email                string          `gorm:"size:255" json:"email"`
	Currency             string          `gorm:"size:3;not null" json:"currency"`
	MonthlyBudget        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"monthly_budget"`
	WarningThresholdPct  int             `gorm:"not null" json:"warning_threshold_pct"`
	CriticalThresholdPct int             `gorm:"not null" json:"critical_threshold_pct"`
	EmailNotifications   bool            `gorm:"not null" json:"email_notifications"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// DefaultCurrency is used until the user picks one.
const DefaultCurrency = "USD"

// NewProfile returns the settings a user starts with.
func NewProfile(userID string, warningPct, criticalPct int) Profile {
	return Profile{
		UserID:               userID,
		Currency:             DefaultCurrency,
		WarningThresholdPct:  warningPct,
		CriticalThresholdPct: criticalPct,
	}
}

// Budget returns the budget alert settings.
func (p Profile) Budget() notify.Budget {
	return notify.Budget{
		Monthly:     p.MonthlyBudget,
		WarningPct:  p.WarningThresholdPct,
		CriticalPct: p.CriticalThresholdPct,
		Currency:    p.Currency,
	}
}
