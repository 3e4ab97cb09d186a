package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"fintrack/internal/mailer"
	"fintrack/internal/models"
	"fintrack/internal/notify"
	"fintrack/internal/pagination"
	"fintrack/internal/recurrence"
	"fintrack/internal/testutil"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func createNotification(t *testing.T, s *testServices, userID, title string) *models.Notification {
	t.Helper()

	n := models.NotificationFrom(userID, notify.Candidate{Title: title, Message: title, Type: notify.TypeInfo})
	if err := s.db.Create(&n).Error; err != nil {
		t.Fatalf("failed to create notification: %v", err)
	}
	return &n
}

func TestNotificationInbox(t *testing.T) {
	ctx := context.Background()

	t.Run("unread_filter", func(t *testing.T) {
		s := newTestServices(t, may10)
		userID := testutil.NewUserID()
		first := createNotification(t, s, userID, "one")
		createNotification(t, s, userID, "two")
		createNotification(t, s, testutil.NewUserID(), "other user")

		_, err := s.notifications.MarkRead(ctx, userID, first.ID)
		testutil.AssertNoError(t, err)

		all, err := s.notifications.GetUserNotifications(ctx, userID, false, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		unread, err := s.notifications.GetUserNotifications(ctx, userID, true, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if all.TotalItems != 2 || unread.TotalItems != 1 {
			t.Errorf("expected 2 total and 1 unread, got %d and %d", all.TotalItems, unread.TotalItems)
		}
		if unread.Data[0].Title != "two" {
			t.Errorf("expected the unread one to be two, got %q", unread.Data[0].Title)
		}
	})

	t.Run("mark_all_read", func(t *testing.T) {
		s := newTestServices(t, may10)
		userID := testutil.NewUserID()
		createNotification(t, s, userID, "one")
		createNotification(t, s, userID, "two")

		n, err := s.notifications.MarkAllRead(ctx, userID)
		testutil.AssertNoError(t, err)
		if n != 2 {
			t.Errorf("expected 2 updated, got %d", n)
		}

		n, err = s.notifications.MarkAllRead(ctx, userID)
		testutil.AssertNoError(t, err)
		if n != 0 {
			t.Errorf("expected nothing left to mark, got %d", n)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newTestServices(t, may10)
		userID := testutil.NewUserID()
		n := createNotification(t, s, userID, "one")

		err := s.notifications.DeleteNotification(ctx, testutil.NewUserID(), n.ID)
		testutil.AssertAppError(t, err, "NOTIFICATION_NOT_FOUND")

		testutil.AssertNoError(t, s.notifications.DeleteNotification(ctx, userID, n.ID))
		_, err = s.notifications.MarkRead(ctx, userID, n.ID)
		testutil.AssertAppError(t, err, "NOTIFICATION_NOT_FOUND")
	})
}

func TestCheckBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("warning_then_critical_once_each", func(t *testing.T) {
		s := newTestServices(t, may10)
		userID := testutil.NewUserID()
		testutil.CreateTestProfile(t, s.db, userID, 100)
		testutil.CreateTestTransaction(t, s.db, userID, models.TransactionTypeExpense, 85, "Food", date(2024, 5, 1))

		testutil.AssertNoError(t, s.notifications.CheckBudget(ctx, userID))
		testutil.AssertNoError(t, s.notifications.CheckBudget(ctx, userID))

		testutil.CreateTestTransaction(t, s.db, userID, models.TransactionTypeExpense, 20, "Food", date(2024, 5, 2))
		testutil.AssertNoError(t, s.notifications.CheckBudget(ctx, userID))
		testutil.AssertNoError(t, s.notifications.CheckBudget(ctx, userID))

		got := notificationsOf(t, s.db, userID)
		if len(got) != 2 {
			t.Fatalf("expected 2 notifications, got %d", len(got))
		}
		if got[0].Type != notify.TypeWarning || got[1].Type != notify.TypeError {
			t.Errorf("expected warning then error, got %s then %s", got[0].Type, got[1].Type)
		}
	})

	t.Run("new_month_alerts_again", func(t *testing.T) {
		s := newTestServices(t, may10)
		userID := testutil.NewUserID()
		testutil.CreateTestProfile(t, s.db, userID, 100)
		testutil.CreateTestTransaction(t, s.db, userID, models.TransactionTypeExpense, 90, "Food", date(2024, 5, 1))
		testutil.AssertNoError(t, s.notifications.CheckBudget(ctx, userID))

		s.setNow(time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC))
		testutil.AssertNoError(t, s.notifications.CheckBudget(ctx, userID))
		if got := notificationsOf(t, s.db, userID); len(got) != 1 {
			t.Fatalf("expected May spending not to count in June, got %d notifications", len(got))
		}

		testutil.CreateTestTransaction(t, s.db, userID, models.TransactionTypeExpense, 81, "Food", date(2024, 6, 2))
		testutil.AssertNoError(t, s.notifications.CheckBudget(ctx, userID))
		if got := notificationsOf(t, s.db, userID); len(got) != 2 {
			t.Fatalf("expected a June warning, got %d notifications", len(got))
		}
	})

	t.Run("zero_budget_disables_alerts", func(t *testing.T) {
		s := newTestServices(t, may10)
		userID := testutil.NewUserID()
		testutil.CreateTestProfile(t, s.db, userID, 0)
		testutil.CreateTestTransaction(t, s.db, userID, models.TransactionTypeExpense, 500, "Food", date(2024, 5, 1))

		testutil.AssertNoError(t, s.notifications.CheckBudget(ctx, userID))
		if got := notificationsOf(t, s.db, userID); len(got) != 0 {
			t.Errorf("expected no notifications, got %d", len(got))
		}
	})

	t.Run("no_profile", func(t *testing.T) {
		s := newTestServices(t, may10)

		testutil.AssertNoError(t, s.notifications.CheckBudget(ctx, testutil.NewUserID()))
	})
}

func TestCheckMilestoneWithStaleGoal(t *testing.T) {
	s := newTestServices(t, may10)
	userID := testutil.NewUserID()
	goal := testutil.CreateTestGoal(t, s.db, userID, 100, 60, nil)

	// Two requests that loaded the goal before either announced anything.
	first, second := *goal, *goal
	testutil.AssertNoError(t, s.notifications.CheckMilestone(context.Background(), userID, &first))
	testutil.AssertNoError(t, s.notifications.CheckMilestone(context.Background(), userID, &second))

	if got := notificationsOf(t, s.db, userID); len(got) != 1 {
		t.Fatalf("expected one milestone notification, got %d", len(got))
	}
	if first.LastNotifiedMilestone != 50 {
		t.Errorf("expected marker 50, got %d", first.LastNotifiedMilestone)
	}
}

func TestRunReminders(t *testing.T) {
	s := newTestServices(t, may10)
	sender := &recordingSender{}
	dispatcher := mailer.NewDispatcher(sender, time.Second, s.metrics)
	s.notifications.opts.Mailer = dispatcher
	s.notifications.opts.ReminderEmails = true

	withEmail := testutil.NewUserID()
	profile := testutil.CreateTestProfile(t, s.db, withEmail, 0)
	s.db.Model(profile).Update("email_notifications", true)
	testutil.CreateTestRule(t, s.db, withEmail, recurrence.Monthly, date(2024, 4, 11), date(2024, 5, 11))

	withoutEmail := testutil.NewUserID()
	testutil.CreateTestRule(t, s.db, withoutEmail, recurrence.Weekly, date(2024, 5, 5), date(2024, 5, 12))
	testutil.CreateTestRule(t, s.db, withoutEmail, recurrence.Weekly, date(2024, 5, 13), date(2024, 5, 20))

	run, err := s.notifications.RunReminders(context.Background())
	testutil.AssertNoError(t, err)
	dispatcher.Wait()

	if run.Users != 2 || run.RulesDue != 2 || run.NotificationsCreated != 2 || run.EmailsQueued != 1 {
		t.Errorf("unexpected run %+v", run)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != profile.Email {
		t.Fatalf("expected one email to %s, got %+v", profile.Email, sender.sent)
	}
	if !strings.Contains(sender.sent[0].Subject, "tomorrow") {
		t.Errorf("expected a due-tomorrow subject, got %q", sender.sent[0].Subject)
	}

	again, err := s.notifications.RunReminders(context.Background())
	testutil.AssertNoError(t, err)
	dispatcher.Wait()
	if again.NotificationsCreated != 0 || again.EmailsQueued != 0 {
		t.Errorf("expected a second run to be a no-op, got %+v", again)
	}
}

func TestRunRemindersSkipsRulesPastEndDate(t *testing.T) {
	s := newTestServices(t, may10)
	userID := testutil.NewUserID()
	rule := testutil.CreateTestRule(t, s.db, userID, recurrence.Weekly, date(2024, 5, 5), date(2024, 5, 12))
	s.db.Model(rule).Update("end_date", date(2024, 5, 11))

	run, err := s.notifications.RunReminders(context.Background())
	testutil.AssertNoError(t, err)

	if run.RulesDue != 0 || run.NotificationsCreated != 0 {
		t.Errorf("expected no reminders for a rule due after its end date, got %+v", run)
	}
	if got := notificationsOf(t, s.db, userID); len(got) != 0 {
		t.Errorf("expected no notifications, got %d", len(got))
	}
}
