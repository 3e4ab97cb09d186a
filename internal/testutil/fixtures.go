package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/recurrence"
	"fintrack/internal/types"
	"fintrack/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns a fresh user id, as the hosted backend would issue.
func NewUserID() string {
	return uuid.New()
}

// CreateTestProfile creates a profile with a unique email and the given monthly budget.
func CreateTestProfile(t *testing.T, db *gorm.DB, userID string, monthlyBudget int64) *models.Profile {
	t.Helper()

	profile := models.NewProfile(userID, 80, 100)
	profile.Email = fmt.Sprintf("user%d@test.com", nextID())
	profile.DisplayName = "Test User"
	profile.MonthlyBudget = decimal.NewFromInt(monthlyBudget)
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return &profile
}

// CreateTestTransaction creates a transaction dated on date.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, txType models.TransactionType, amount int64, category string, date time.Time) *models.Transaction {
	t.Helper()

	var cat *string
	if category != "" {
		cat = &category
	}
	d := types.DateValue(date)
	tx := &models.Transaction{
		UserID:          userID,
		Title:           fmt.Sprintf("Test Transaction %d", nextID()),
		Amount:          decimal.NewFromInt(amount),
		Category:        cat,
		Type:            txType,
		TransactionDate: &d,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRule creates an active expense rule whose next due date is nextDue.
func CreateTestRule(t *testing.T, db *gorm.DB, userID string, freq recurrence.Frequency, start, nextDue time.Time) *models.RecurringRule {
	t.Helper()

	category := "Bills"
	rule := &models.RecurringRule{
		UserID:      userID,
		Title:       fmt.Sprintf("Test Rule %d", nextID()),
		Amount:      decimal.NewFromInt(1500),
		Category:    &category,
		Type:        models.TransactionTypeExpense,
		Frequency:   freq,
		StartDate:   types.DateValue(start),
		NextDueDate: types.DateValue(nextDue),
		IsActive:    true,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}

// CreateTestGoal creates a goal with the given target and saved amounts.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID string, target, saved int64, targetDate *time.Time) *models.SavingsGoal {
	t.Helper()

	goal := &models.SavingsGoal{
		UserID:       userID,
		GoalName:     fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount: decimal.NewFromInt(target),
		SavedAmount:  decimal.NewFromInt(saved),
		TargetDate:   types.DatePtr(targetDate),
		Priority:     models.GoalPriorityMedium,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}
