package server

import (
	"gorm.io/gorm"

	"fintrack/internal/config"
	"fintrack/internal/mailer"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
)

// Services bundles every service the router needs.
type Services struct {
	Notifications services.NotificationServicer
	Transactions  services.TransactionServicer
	Recurring     services.RecurringServicer
	Goals         services.GoalServicer
	Profiles      services.ProfileServicer
	Analytics     services.AnalyticsServicer
	Export        services.ExportServicer
}

// NewServices wires the services around one database handle. A nil dispatcher
// disables outbound email.
func NewServices(db *gorm.DB, cfg *config.Config, m *metrics.Metrics, dispatcher *mailer.Dispatcher) Services {
	notifications := services.NewNotificationService(db, services.NotificationOptions{
		Mailer:            dispatcher,
		Metrics:           m,
		ReminderEmails:    cfg.ReminderEmails,
		BudgetWarningPct:  cfg.BudgetWarningPct,
		BudgetCriticalPct: cfg.BudgetCriticalPct,
	})

	return Services{
		Notifications: notifications,
		Transactions:  services.NewTransactionService(db, notifications, m),
		Recurring:     services.NewRecurringService(db, notifications, m),
		Goals:         services.NewGoalService(db, notifications, m),
		Profiles:      services.NewProfileService(db, notifications, m, cfg.BudgetWarningPct, cfg.BudgetCriticalPct),
		Analytics:     services.NewAnalyticsService(db),
		Export:        services.NewExportService(db),
	}
}
