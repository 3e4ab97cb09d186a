package handlers

import (
	"context"
	"io"

	"fintrack/internal/analytics"
	"fintrack/internal/exporter"
	"fintrack/internal/importer"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// --- transactions ---

type mockTransactionService struct {
	createTransactionFn   func(userID string, in services.TransactionInput, repeat *services.RepeatInput) (*models.Transaction, *models.RecurringRule, error)
	getUserTransactionsFn func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn  func(userID, transactionID string) (*models.Transaction, error)
	updateTransactionFn   func(userID, transactionID string, in services.TransactionInput) (*models.Transaction, error)
	deleteTransactionFn   func(userID, transactionID string) error
	importTransactionsFn  func(userID string, parsed importer.Result) (*services.ImportResult, error)
}

func (m *mockTransactionService) CreateTransaction(_ context.Context, userID string, in services.TransactionInput, repeat *services.RepeatInput) (*models.Transaction, *models.RecurringRule, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, in, repeat)
	}
	return &models.Transaction{}, nil, nil
}

func (m *mockTransactionService) GetUserTransactions(_ context.Context, userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse[models.Transaction](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(_ context.Context, userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(_ context.Context, userID, transactionID string, in services.TransactionInput) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(userID, transactionID, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) ImportTransactions(_ context.Context, userID string, parsed importer.Result) (*services.ImportResult, error) {
	if m.importTransactionsFn != nil {
		return m.importTransactionsFn(userID, parsed)
	}
	return &services.ImportResult{Imported: len(parsed.Rows), Skipped: len(parsed.Warnings), Warnings: parsed.Warnings}, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

// --- recurring rules ---

type mockRecurringService struct {
	createRuleFn       func(userID string, in services.RecurringInput) (*services.RuleView, error)
	getUserRulesFn     func(userID string) ([]services.RuleView, error)
	getRuleByIDFn      func(userID, ruleID string) (*services.RuleView, error)
	updateRuleFn       func(userID, ruleID string, in services.RecurringInput) (*services.RuleView, error)
	toggleRuleFn       func(userID, ruleID string) (*services.RuleView, error)
	deleteRuleFn       func(userID, ruleID string) error
	recordOccurrenceFn func(userID, ruleID string) (*models.Transaction, *services.RuleView, error)
	getUpcomingFn      func(userID string, days int) ([]services.UpcomingOccurrence, error)
}

func (m *mockRecurringService) CreateRule(_ context.Context, userID string, in services.RecurringInput) (*services.RuleView, error) {
	if m.createRuleFn != nil {
		return m.createRuleFn(userID, in)
	}
	return &services.RuleView{}, nil
}

func (m *mockRecurringService) GetUserRules(_ context.Context, userID string) ([]services.RuleView, error) {
	if m.getUserRulesFn != nil {
		return m.getUserRulesFn(userID)
	}
	return []services.RuleView{}, nil
}

func (m *mockRecurringService) GetRuleByID(_ context.Context, userID, ruleID string) (*services.RuleView, error) {
	if m.getRuleByIDFn != nil {
		return m.getRuleByIDFn(userID, ruleID)
	}
	return &services.RuleView{}, nil
}

func (m *mockRecurringService) UpdateRule(_ context.Context, userID, ruleID string, in services.RecurringInput) (*services.RuleView, error) {
	if m.updateRuleFn != nil {
		return m.updateRuleFn(userID, ruleID, in)
	}
	return &services.RuleView{}, nil
}

func (m *mockRecurringService) ToggleRule(_ context.Context, userID, ruleID string) (*services.RuleView, error) {
	if m.toggleRuleFn != nil {
		return m.toggleRuleFn(userID, ruleID)
	}
	return &services.RuleView{}, nil
}

func (m *mockRecurringService) DeleteRule(_ context.Context, userID, ruleID string) error {
	if m.deleteRuleFn != nil {
		return m.deleteRuleFn(userID, ruleID)
	}
	return nil
}

func (m *mockRecurringService) RecordOccurrence(_ context.Context, userID, ruleID string) (*models.Transaction, *services.RuleView, error) {
	if m.recordOccurrenceFn != nil {
		return m.recordOccurrenceFn(userID, ruleID)
	}
	return &models.Transaction{}, &services.RuleView{}, nil
}

func (m *mockRecurringService) GetUpcoming(_ context.Context, userID string, days int) ([]services.UpcomingOccurrence, error) {
	if m.getUpcomingFn != nil {
		return m.getUpcomingFn(userID, days)
	}
	return []services.UpcomingOccurrence{}, nil
}

var _ services.RecurringServicer = (*mockRecurringService)(nil)

// --- goals ---

type mockGoalService struct {
	createGoalFn       func(userID string, in services.GoalInput) (*services.GoalView, error)
	getUserGoalsFn     func(userID string) ([]services.GoalView, error)
	getGoalByIDFn      func(userID, goalID string) (*services.GoalView, error)
	updateGoalFn       func(userID, goalID string, in services.GoalInput) (*services.GoalView, error)
	deleteGoalFn       func(userID, goalID string) error
	addContributionFn  func(userID, goalID string, in services.ContributionInput) (*models.Contribution, *services.GoalView, error)
	getContributionsFn func(userID, goalID string, page pagination.PageRequest) (*pagination.PageResponse[models.Contribution], error)
}

func (m *mockGoalService) CreateGoal(_ context.Context, userID string, in services.GoalInput) (*services.GoalView, error) {
	if m.createGoalFn != nil {
		return m.createGoalFn(userID, in)
	}
	return &services.GoalView{}, nil
}

func (m *mockGoalService) GetUserGoals(_ context.Context, userID string) ([]services.GoalView, error) {
	if m.getUserGoalsFn != nil {
		return m.getUserGoalsFn(userID)
	}
	return []services.GoalView{}, nil
}

func (m *mockGoalService) GetGoalByID(_ context.Context, userID, goalID string) (*services.GoalView, error) {
	if m.getGoalByIDFn != nil {
		return m.getGoalByIDFn(userID, goalID)
	}
	return &services.GoalView{}, nil
}

func (m *mockGoalService) UpdateGoal(_ context.Context, userID, goalID string, in services.GoalInput) (*services.GoalView, error) {
	if m.updateGoalFn != nil {
		return m.updateGoalFn(userID, goalID, in)
	}
	return &services.GoalView{}, nil
}

func (m *mockGoalService) DeleteGoal(_ context.Context, userID, goalID string) error {
	if m.deleteGoalFn != nil {
		return m.deleteGoalFn(userID, goalID)
	}
	return nil
}

func (m *mockGoalService) AddContribution(_ context.Context, userID, goalID string, in services.ContributionInput) (*models.Contribution, *services.GoalView, error) {
	if m.addContributionFn != nil {
		return m.addContributionFn(userID, goalID, in)
	}
	return &models.Contribution{}, &services.GoalView{}, nil
}

func (m *mockGoalService) GetContributions(_ context.Context, userID, goalID string, page pagination.PageRequest) (*pagination.PageResponse[models.Contribution], error) {
	if m.getContributionsFn != nil {
		return m.getContributionsFn(userID, goalID, page)
	}
	resp := pagination.NewPageResponse[models.Contribution](nil, 1, 20, 0)
	return &resp, nil
}

var _ services.GoalServicer = (*mockGoalService)(nil)

// --- notifications ---

type mockNotificationService struct {
	getUserNotificationsFn func(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	markReadFn             func(userID, notificationID string) (*models.Notification, error)
	markAllReadFn          func(userID string) (int64, error)
	deleteNotificationFn   func(userID, notificationID string) error
	runRemindersFn         func() (*services.ReminderRun, error)
}

func (m *mockNotificationService) GetUserNotifications(_ context.Context, userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	if m.getUserNotificationsFn != nil {
		return m.getUserNotificationsFn(userID, unreadOnly, page)
	}
	resp := pagination.NewPageResponse[models.Notification](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockNotificationService) MarkRead(_ context.Context, userID, notificationID string) (*models.Notification, error) {
	if m.markReadFn != nil {
		return m.markReadFn(userID, notificationID)
	}
	return &models.Notification{Read: true}, nil
}

func (m *mockNotificationService) MarkAllRead(_ context.Context, userID string) (int64, error) {
	if m.markAllReadFn != nil {
		return m.markAllReadFn(userID)
	}
	return 0, nil
}

func (m *mockNotificationService) DeleteNotification(_ context.Context, userID, notificationID string) error {
	if m.deleteNotificationFn != nil {
		return m.deleteNotificationFn(userID, notificationID)
	}
	return nil
}

func (m *mockNotificationService) CheckBudget(context.Context, string) error { return nil }

func (m *mockNotificationService) CheckMilestone(context.Context, string, *models.SavingsGoal) error {
	return nil
}

func (m *mockNotificationService) CheckReminders(context.Context, string) error { return nil }

func (m *mockNotificationService) RunReminders(context.Context) (*services.ReminderRun, error) {
	if m.runRemindersFn != nil {
		return m.runRemindersFn()
	}
	return &services.ReminderRun{}, nil
}

var _ services.NotificationServicer = (*mockNotificationService)(nil)

// --- profile ---

type mockProfileService struct {
	getProfileFn    func(userID string) (*models.Profile, error)
	updateProfileFn func(userID string, in services.ProfileInput) (*models.Profile, error)
}

func (m *mockProfileService) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(userID)
	}
	p := models.NewProfile(userID, 80, 100)
	return &p, nil
}

func (m *mockProfileService) UpdateProfile(_ context.Context, userID string, in services.ProfileInput) (*models.Profile, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(userID, in)
	}
	p := models.NewProfile(userID, in.WarningThresholdPct, in.CriticalThresholdPct)
	return &p, nil
}

var _ services.ProfileServicer = (*mockProfileService)(nil)

// --- analytics ---

type mockAnalyticsService struct {
	getSummaryFn func(userID string, window analytics.Window, filter analytics.Filter) (*analytics.Metrics, error)
}

func (m *mockAnalyticsService) GetSummary(_ context.Context, userID string, window analytics.Window, filter analytics.Filter) (*analytics.Metrics, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(userID, window, filter)
	}
	return &analytics.Metrics{}, nil
}

var _ services.AnalyticsServicer = (*mockAnalyticsService)(nil)

// --- export ---

type mockExportService struct {
	exportTransactionsFn func(userID string, w io.Writer, format exporter.Format, filter services.TransactionFilter) error
	exportGoalsFn        func(userID string, w io.Writer) error
}

func (m *mockExportService) ExportTransactions(_ context.Context, userID string, w io.Writer, format exporter.Format, filter services.TransactionFilter) error {
	if m.exportTransactionsFn != nil {
		return m.exportTransactionsFn(userID, w, format, filter)
	}
	return nil
}

func (m *mockExportService) ExportGoals(_ context.Context, userID string, w io.Writer) error {
	if m.exportGoalsFn != nil {
		return m.exportGoalsFn(userID, w)
	}
	return nil
}

var _ services.ExportServicer = (*mockExportService)(nil)
