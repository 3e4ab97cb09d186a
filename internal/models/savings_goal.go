package models

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/savings"
	"fintrack/internal/types"
)

// GoalPriority ranks savings goals.
type GoalPriority string

const (
	GoalPriorityHigh   GoalPriority = "High"
	GoalPriorityMedium GoalPriority = "Medium"
	GoalPriorityLow    GoalPriority = "Low"
)

// SavingsGoal is a target amount the user saves towards.
type SavingsGoal struct {
	Base
	UserID                string          `gorm:"type:uuid;not null;index" json:"user_id"`
	GoalName              string          `gorm:"size:255;not null" json:"goal_name"`
	TargetAmount          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"target_amount"`
	SavedAmount           decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"saved_amount"`
	TargetDate            *types.Date     `gorm:"type:date" json:"target_date"`
	Priority              GoalPriority    `gorm:"size:16;not null" json:"priority"`
	LastNotifiedMilestone int             `gorm:"not null" json:"last_notified_milestone"`
}

// TableName keeps the hosted backend's table name.
func (SavingsGoal) TableName() string { return "savings" }

// Input returns the view used by the progress engine.
func (g SavingsGoal) Input() savings.Goal {
	return savings.Goal{
		TargetAmount: g.TargetAmount,
		SavedAmount:  g.SavedAmount,
		TargetDate:   g.TargetDate.TimePtr(),
		CreatedAt:    g.CreatedAt,
	}
}

// Contribution is an append-only deposit towards a goal.
type Contribution struct {
	Base
	UserID           string          `gorm:"type:uuid;not null;index" json:"user_id"`
	GoalID           string          `gorm:"type:uuid;not null;index" json:"goal_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	ContributionDate types.Date      `gorm:"type:date;not null" json:"contribution_date"`
	Note             string          `gorm:"size:500" json:"note"`
}

// TableName keeps the hosted backend's table name.
func (Contribution) TableName() string { return "goal_contributions" }
