package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
	"fintrack/internal/types"
)

// testServices wires every service over one database and one fixed clock.
type testServices struct {
	db            *gorm.DB
	metrics       *metrics.Metrics
	setNow        func(time.Time)
	notifications *notificationService
	transactions  *transactionService
	recurring     *recurringService
	goals         *goalService
	profiles      ProfileServicer
	analytics     AnalyticsServicer
	export        *exportService
}

func newTestServices(t *testing.T, start time.Time) *testServices {
	t.Helper()

	db := testutil.SetupTestDB(t)
	m := metrics.New()
	now, set := testutil.Clock(start)

	notifications := NewNotificationService(db, NotificationOptions{
		Metrics:           m,
		BudgetWarningPct:  80,
		BudgetCriticalPct: 100,
	}).(*notificationService)
	notifications.now = now

	transactions := NewTransactionService(db, notifications, m).(*transactionService)
	transactions.now = now
	recurring := NewRecurringService(db, notifications, m).(*recurringService)
	recurring.now = now
	goals := NewGoalService(db, notifications, m).(*goalService)
	goals.now = now
	export := NewExportService(db).(*exportService)
	export.now = now

	return &testServices{
		db:            db,
		metrics:       m,
		setNow:        set,
		notifications: notifications,
		transactions:  transactions,
		recurring:     recurring,
		goals:         goals,
		profiles:      NewProfileService(db, notifications, m, 80, 100),
		analytics:     NewAnalyticsService(db),
		export:        export,
	}
}

// notificationsOf returns every stored notification of the user, oldest first.
func notificationsOf(t *testing.T, db *gorm.DB, userID string) []models.Notification {
	t.Helper()

	var out []models.Notification
	if err := db.Where("user_id = ?", userID).Order("created_at").Order("id").Find(&out).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	return out
}

func date(year int, month time.Month, day int) time.Time {
	return types.NewDate(year, month, day)
}

func ptr[T any](v T) *T {
	return &v
}
