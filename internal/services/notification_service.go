package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/mailer"
	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/notify"
	"fintrack/internal/pagination"
	"fintrack/internal/savings"
	"fintrack/internal/types"
)

// NotificationOptions configures the notification service.
type NotificationOptions struct {
	Mailer            *mailer.Dispatcher
	Metrics           *metrics.Metrics
	ReminderEmails    bool
	BudgetWarningPct  int
	BudgetCriticalPct int
}

// notificationService stores notifications and evaluates their triggers.
type notificationService struct {
	db      *gorm.DB
	opts    NotificationOptions
	effects sideEffects
	now     func() time.Time
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB, opts NotificationOptions) NotificationServicer {
	return &notificationService{
		db:      db,
		opts:    opts,
		effects: sideEffects{metrics: opts.Metrics},
		now:     time.Now,
	}
}

// GetUserNotifications returns the user's notifications, newest first.
func (s *notificationService) GetUserNotifications(ctx context.Context, userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	base := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("read = ?", false)
	}

	result, err := pagination.Find[models.Notification](base, page, "created_at DESC", "id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func (s *notificationService) getNotification(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &n, nil
}

// MarkRead marks one notification as read.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	n, err := s.getNotification(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}
	if err := s.db.WithContext(ctx).Model(n).Update("read", true).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteNotification permanently deletes a notification.
func (s *notificationService) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	n, err := s.getNotification(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(n).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *notificationService) evaluator() *notify.Evaluator {
	return notify.NewEvaluator(&notificationStore{db: s.db, now: s.now}).WithClock(s.now)
}

// loadProfile returns the user's profile, or the defaults when none was saved.
func (s *notificationService) loadProfile(ctx context.Context, userID string) (models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewProfile(userID, s.opts.BudgetWarningPct, s.opts.BudgetCriticalPct), nil
	}
	return p, err
}

// CheckBudget compares this month's spending with the user's budget and
// stores at most one alert per severity per month.
func (s *notificationService) CheckBudget(ctx context.Context, userID string) error {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	budget := profile.Budget()
	if !budget.Monthly.IsPositive() {
		return nil
	}

	now := s.now()
	spent, err := monthlyExpenses(ctx, s.db, userID, now)
	if err != nil {
		return fmt.Errorf("summing expenses: %w", err)
	}

	created, err := s.evaluator().Budget(ctx, userID, budget, spent)
	s.record("budget", created)
	return err
}

// CheckMilestone announces the highest savings milestone the goal has newly
// reached. The marker on the goal moves in the same transaction as the insert,
// so concurrent contributions cannot announce a milestone twice.
func (s *notificationService) CheckMilestone(ctx context.Context, userID string, goal *models.SavingsGoal) error {
	percent := savings.Evaluate(goal.Input(), s.now()).Percent
	c, milestone, ok := notify.MilestoneCandidate(goal.ID, goal.GoalName, percent, goal.LastNotifiedMilestone)
	if !ok {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SavingsGoal{}).
			Where("id = ? AND user_id = ? AND last_notified_milestone < ?", goal.ID, userID, milestone).
			Update("last_notified_milestone", milestone)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errMilestoneAnnounced
		}
		n := models.NotificationFrom(userID, c)
		n.CreatedAt = s.now().UTC()
		return tx.Create(&n).Error
	})
	if errors.Is(err, errMilestoneAnnounced) {
		return nil
	}
	if err != nil {
		return err
	}

	goal.LastNotifiedMilestone = milestone
	s.record("milestone", []notify.Candidate{c})
	return nil
}

var errMilestoneAnnounced = errors.New("milestone already announced")

// CheckReminders stores due reminders for the user's rules.
func (s *notificationService) CheckReminders(ctx context.Context, userID string) error {
	rules, err := s.dueRules(ctx, &userID)
	if err != nil {
		return err
	}
	_, err = s.remind(ctx, userID, rules[userID])
	return err
}

// RunReminders stores due reminders for every user and queues their emails.
// It is the entry point for an external scheduler.
func (s *notificationService) RunReminders(ctx context.Context) (*ReminderRun, error) {
	byUser, err := s.dueRules(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	run := &ReminderRun{Users: len(byUser)}
	var errs []error
	for userID, rules := range byUser {
		run.RulesDue += len(rules)
		created, err := s.remind(ctx, userID, rules)
		if err != nil {
			errs = append(errs, err)
		}
		run.NotificationsCreated += len(created)
		run.EmailsQueued += s.emailReminders(ctx, userID, created)
	}

	if err := errors.Join(errs...); err != nil {
		logger.Get().Errorw("reminder run finished with errors", "error", err, "users", run.Users)
		s.opts.Metrics.SideEffectFailed("reminders")
	}
	return run, nil
}

func (s *notificationService) remind(ctx context.Context, userID string, rules []models.RecurringRule) ([]notify.Candidate, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	due := make([]notify.DueRule, 0, len(rules))
	for _, r := range rules {
		due = append(due, notify.DueRule{
			ID:       r.ID,
			Title:    r.Title,
			Amount:   r.Amount,
			Currency: profile.Currency,
			Rule:     r.Schedule(),
		})
	}

	created, err := s.evaluator().Reminders(ctx, userID, due)
	s.record("reminder", created)
	return created, err
}

// dueRules loads active rules due in one or two days, grouped by user.
func (s *notificationService) dueRules(ctx context.Context, userID *string) (map[string][]models.RecurringRule, error) {
	today := types.DateOf(s.now())
	q := s.db.WithContext(ctx).
		Where("is_active = ? AND next_due_date >= ? AND next_due_date <= ?", true, today.AddDate(0, 0, 1), today.AddDate(0, 0, 2)).
		Where("end_date IS NULL OR next_due_date <= end_date")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var rules []models.RecurringRule
	if err := q.Order("next_due_date").Find(&rules).Error; err != nil {
		return nil, err
	}

	byUser := make(map[string][]models.RecurringRule)
	for _, r := range rules {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}
	return byUser, nil
}

func (s *notificationService) emailReminders(ctx context.Context, userID string, created []notify.Candidate) int {
	if !s.opts.ReminderEmails || s.opts.Mailer == nil || len(created) == 0 {
		return 0
	}
	profile, err := s.loadProfile(ctx, userID)
	if err != nil || !profile.EmailNotifications || profile.Email == "" {
		return 0
	}

	for _, c := range created {
		s.opts.Mailer.Dispatch(reminderEmail(profile, c))
	}
	return len(created)
}

func reminderEmail(p models.Profile, c notify.Candidate) mailer.Message {
	greeting := "Hi"
	if p.DisplayName != "" {
		greeting = "Hi " + p.DisplayName
	}
	return mailer.Message{
		To:      p.Email,
		Subject: c.Title,
		Text:    fmt.Sprintf("%s,\n\n%s\n", greeting, c.Message),
		HTML:    fmt.Sprintf("<p>%s,</p><p>%s</p>", html.EscapeString(greeting), html.EscapeString(c.Message)),
	}
}

func (s *notificationService) record(trigger string, created []notify.Candidate) {
	for _, c := range created {
		s.opts.Metrics.NotificationCreated(trigger, string(c.Type))
	}
}

// monthlyExpenses sums the user's expenses dated in the calendar month of now.
func monthlyExpenses(ctx context.Context, db *gorm.DB, userID string, now time.Time) (decimal.Decimal, error) {
	var spent decimal.Decimal
	err := db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND transaction_type = ? AND transaction_date >= ? AND transaction_date <= ?",
			userID, models.TransactionTypeExpense, types.StartOfMonth(now), types.EndOfMonth(now)).
		Row().Scan(&spent)
	return spent, err
}

// notificationStore adapts the notifications table to the evaluator.
type notificationStore struct {
	db  *gorm.DB
	now func() time.Time
}

func (s *notificationStore) ExistsSince(ctx context.Context, userID, dedupeKey string, since time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND dedupe_key = ? AND created_at >= ?", userID, dedupeKey, since).
		Count(&count).Error
	return count > 0, err
}

func (s *notificationStore) Create(ctx context.Context, userID string, c notify.Candidate) error {
	n := models.NotificationFrom(userID, c)
	n.CreatedAt = s.now().UTC()
	return s.db.WithContext(ctx).Create(&n).Error
}
