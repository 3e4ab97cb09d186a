package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/analytics"
	"fintrack/internal/exporter"
	"fintrack/internal/importer"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/recurrence"
	"fintrack/internal/savings"
)

// TransactionInput is the full editable state of a transaction.
type TransactionInput struct {
	Title    string
	Amount   decimal.Decimal
	Category *string
	Type     models.TransactionType
	Date     *time.Time
}

// RepeatInput turns a new transaction into the first of a recurring series.
type RepeatInput struct {
	Frequency string
	EndDate   *time.Time
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
	Category string
}

// ImportResult summarizes an import.
type ImportResult struct {
	Imported int                `json:"imported"`
	Skipped  int                `json:"skipped"`
	Warnings []importer.Warning `json:"warnings"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID string, in TransactionInput, repeat *RepeatInput) (*models.Transaction, *models.RecurringRule, error)
	GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, in TransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	ImportTransactions(ctx context.Context, userID string, parsed importer.Result) (*ImportResult, error)
}

// RecurringInput is the full editable state of a recurring rule.
type RecurringInput struct {
	Title     string
	Amount    decimal.Decimal
	Category  *string
	Type      models.TransactionType
	Frequency string
	StartDate time.Time
	EndDate   *time.Time
	IsActive  *bool
}

// RuleView is a recurring rule with its due status at the time of the request.
type RuleView struct {
	models.RecurringRule
	Projection recurrence.Projection `json:"projection"`
	RRule      string                `json:"rrule,omitempty"`
}

// UpcomingOccurrence is one expected future transaction.
type UpcomingOccurrence struct {
	RuleID   string                 `json:"rule_id"`
	Title    string                 `json:"title"`
	Amount   decimal.Decimal        `json:"amount"`
	Type     models.TransactionType `json:"type"`
	Category *string                `json:"category"`
	Date     string                 `json:"date"`
}

// RecurringServicer defines the contract for recurring transaction rules.
type RecurringServicer interface {
	CreateRule(ctx context.Context, userID string, in RecurringInput) (*RuleView, error)
	GetUserRules(ctx context.Context, userID string) ([]RuleView, error)
	GetRuleByID(ctx context.Context, userID, ruleID string) (*RuleView, error)
	UpdateRule(ctx context.Context, userID, ruleID string, in RecurringInput) (*RuleView, error)
	ToggleRule(ctx context.Context, userID, ruleID string) (*RuleView, error)
	DeleteRule(ctx context.Context, userID, ruleID string) error
	RecordOccurrence(ctx context.Context, userID, ruleID string) (*models.Transaction, *RuleView, error)
	GetUpcoming(ctx context.Context, userID string, days int) ([]UpcomingOccurrence, error)
}

// GoalInput is the editable state of a savings goal.
type GoalInput struct {
	GoalName     string
	TargetAmount decimal.Decimal
	SavedAmount  *decimal.Decimal
	TargetDate   *time.Time
	Priority     models.GoalPriority
}

// GoalView is a savings goal with its progress at the time of the request.
type GoalView struct {
	models.SavingsGoal
	Progress savings.Progress `json:"progress"`
}

// ContributionInput is a deposit towards a goal.
type ContributionInput struct {
	Amount decimal.Decimal
	Date   *time.Time
	Note   string
}

// GoalServicer defines the contract for savings goals and their contributions.
type GoalServicer interface {
	CreateGoal(ctx context.Context, userID string, in GoalInput) (*GoalView, error)
	GetUserGoals(ctx context.Context, userID string) ([]GoalView, error)
	GetGoalByID(ctx context.Context, userID, goalID string) (*GoalView, error)
	UpdateGoal(ctx context.Context, userID, goalID string, in GoalInput) (*GoalView, error)
	DeleteGoal(ctx context.Context, userID, goalID string) error
	AddContribution(ctx context.Context, userID, goalID string, in ContributionInput) (*models.Contribution, *GoalView, error)
	GetContributions(ctx context.Context, userID, goalID string, page pagination.PageRequest) (*pagination.PageResponse[models.Contribution], error)
}

// ReminderRun summarizes one pass of the due-reminder pipeline.
type ReminderRun struct {
	Users                int `json:"users"`
	RulesDue             int `json:"rules_due"`
	NotificationsCreated int `json:"notifications_created"`
	EmailsQueued         int `json:"emails_queued"`
}

// NotificationServicer defines the contract for notifications and the triggers
// that create them.
type NotificationServicer interface {
	GetUserNotifications(ctx context.Context, userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	MarkRead(ctx context.Context, userID, notificationID string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, notificationID string) error

	CheckBudget(ctx context.Context, userID string) error
	CheckMilestone(ctx context.Context, userID string, goal *models.SavingsGoal) error
	CheckReminders(ctx context.Context, userID string) error
	RunReminders(ctx context.Context) (*ReminderRun, error)
}

// ProfileInput is the editable state of a profile.
type ProfileInput struct {
	DisplayName          string
	Email                string
	Currency             string
	MonthlyBudget        decimal.Decimal
	WarningThresholdPct  int
	CriticalThresholdPct int
	EmailNotifications   bool
}

// ProfileServicer defines the contract for user settings.
type ProfileServicer interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.Profile, error)
}

// AnalyticsServicer defines the contract for derived financial metrics.
type AnalyticsServicer interface {
	GetSummary(ctx context.Context, userID string, window analytics.Window, filter analytics.Filter) (*analytics.Metrics, error)
}

// ExportServicer defines the contract for downloads.
type ExportServicer interface {
	ExportTransactions(ctx context.Context, userID string, w io.Writer, format exporter.Format, filter TransactionFilter) error
	ExportGoals(ctx context.Context, userID string, w io.Writer) error
}
