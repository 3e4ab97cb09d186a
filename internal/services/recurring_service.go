package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/recurrence"
	"fintrack/internal/types"
)

// maxUpcomingDays bounds the upcoming view.
const maxUpcomingDays = 366

// recurringService manages recurring rules and the transactions they spawn.
type recurringService struct {
	db            *gorm.DB
	notifications NotificationServicer
	metrics       *metrics.Metrics
	effects       sideEffects
	now           func() time.Time
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, notifications NotificationServicer, m *metrics.Metrics) RecurringServicer {
	return &recurringService{
		db:            db,
		notifications: notifications,
		metrics:       m,
		effects:       sideEffects{metrics: m},
		now:           time.Now,
	}
}

func (s *recurringService) view(r models.RecurringRule) RuleView {
	v := RuleView{
		RecurringRule: r,
		Projection:    recurrence.Project(r.Schedule(), s.now()),
	}
	rrule, err := recurrence.RRule(r.Schedule())
	if err != nil {
		logger.Get().Warnw("cannot render rrule", "rule_id", r.ID, "error", err)
	}
	v.RRule = rrule
	return v
}

func parseRuleInput(in RecurringInput) (recurrence.Frequency, error) {
	freq, err := recurrence.ParseFrequency(in.Frequency)
	if err != nil {
		return "", apperrors.ErrInvalidFrequency
	}
	if in.Amount.IsNegative() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}
	if in.Type != models.TransactionTypeIncome && in.Type != models.TransactionTypeExpense {
		return "", apperrors.ErrInvalidTransactionType
	}
	if strings.TrimSpace(in.Title) == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if in.StartDate.IsZero() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	if in.EndDate != nil && types.DateOf(*in.EndDate).Before(types.DateOf(in.StartDate)) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidDateRange, "end date must not be before the start date")
	}
	return freq, nil
}

// CreateRule stores a rule whose first due date is one step after its start.
func (s *recurringService) CreateRule(ctx context.Context, userID string, in RecurringInput) (*RuleView, error) {
	freq, err := parseRuleInput(in)
	if err != nil {
		return nil, err
	}
	next, err := recurrence.InitialNextDue(freq, types.DateOf(in.StartDate))
	if err != nil {
		return nil, apperrors.ErrInvalidFrequency
	}

	rule := &models.RecurringRule{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Amount:      in.Amount.Round(2),
		Category:    cleanCategory(in.Category),
		Type:        in.Type,
		Frequency:   freq,
		StartDate:   types.DateValue(in.StartDate),
		EndDate:     types.DatePtr(in.EndDate),
		NextDueDate: types.DateValue(next),
		IsActive:    (in.IsActive == nil || *in.IsActive) && !recurrence.Exhausted(next, in.EndDate),
	}
	if err := s.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.checkReminders(ctx, userID)
	v := s.view(*rule)
	return &v, nil
}

// GetUserRules returns every rule of the user with its projection, soonest due first.
func (s *recurringService) GetUserRules(ctx context.Context, userID string) ([]RuleView, error) {
	var rules []models.RecurringRule
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]RuleView, 0, len(rules))
	for _, r := range rules {
		views = append(views, s.view(r))
	}
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].NextDueDate.Time, views[j].NextDueDate.Time
		if a.Equal(b) {
			return views[i].Title < views[j].Title
		}
		return a.Before(b)
	})
	return views, nil
}

func (s *recurringService) getRule(ctx context.Context, db *gorm.DB, userID, ruleID string) (*models.RecurringRule, error) {
	var rule models.RecurringRule
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", ruleID, userID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringRuleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rule, nil
}

// GetRuleByID retrieves a rule with its projection.
func (s *recurringService) GetRuleByID(ctx context.Context, userID, ruleID string) (*RuleView, error) {
	rule, err := s.getRule(ctx, s.db, userID, ruleID)
	if err != nil {
		return nil, err
	}
	v := s.view(*rule)
	return &v, nil
}

// UpdateRule replaces the rule's fields. The next due date is recomputed only
// when the frequency or start date changes.
func (s *recurringService) UpdateRule(ctx context.Context, userID, ruleID string, in RecurringInput) (*RuleView, error) {
	freq, err := parseRuleInput(in)
	if err != nil {
		return nil, err
	}
	rule, err := s.getRule(ctx, s.db, userID, ruleID)
	if err != nil {
		return nil, err
	}

	start := types.DateOf(in.StartDate)
	if freq != rule.Frequency || !start.Equal(rule.StartDate.Time) {
		next, err := recurrence.InitialNextDue(freq, start)
		if err != nil {
			return nil, apperrors.ErrInvalidFrequency
		}
		rule.NextDueDate = types.DateValue(next)
	}

	rule.Title = strings.TrimSpace(in.Title)
	rule.Amount = in.Amount.Round(2)
	rule.Category = cleanCategory(in.Category)
	rule.Type = in.Type
	rule.Frequency = freq
	rule.StartDate = types.DateValue(start)
	rule.EndDate = types.DatePtr(in.EndDate)
	if in.IsActive != nil {
		rule.IsActive = *in.IsActive
	}
	if recurrence.Exhausted(rule.NextDueDate.Time, in.EndDate) {
		rule.IsActive = false
	}

	if err := s.db.WithContext(ctx).Save(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.checkReminders(ctx, userID)
	v := s.view(*rule)
	return &v, nil
}

// ToggleRule flips the rule's active flag.
func (s *recurringService) ToggleRule(ctx context.Context, userID, ruleID string) (*RuleView, error) {
	rule, err := s.getRule(ctx, s.db, userID, ruleID)
	if err != nil {
		return nil, err
	}

	rule.IsActive = !rule.IsActive
	if err := s.db.WithContext(ctx).Model(rule).Update("is_active", rule.IsActive).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if rule.IsActive {
		s.checkReminders(ctx, userID)
	}
	v := s.view(*rule)
	return &v, nil
}

// DeleteRule permanently deletes a rule. Transactions it spawned are kept and
// unlinked.
func (s *recurringService) DeleteRule(ctx context.Context, userID, ruleID string) error {
	rule, err := s.getRule(ctx, s.db, userID, ruleID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND recurring_rule_id = ?", userID, rule.ID).
			Update("recurring_rule_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(rule).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecordOccurrence materializes the rule's current due date as a transaction
// and advances the rule by one step. A rule that steps past its end date is
// deactivated.
func (s *recurringService) RecordOccurrence(ctx context.Context, userID, ruleID string) (*models.Transaction, *RuleView, error) {
	var (
		transaction *models.Transaction
		rule        *models.RecurringRule
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rule, err = s.getRule(ctx, tx, userID, ruleID)
		if err != nil {
			return err
		}
		if !rule.Schedule().Effective(s.now()) {
			return apperrors.ErrRecurringRuleInactive
		}

		due := rule.NextDueDate
		transaction = &models.Transaction{
			UserID:          userID,
			Title:           rule.Title,
			Amount:          rule.Amount,
			Category:        rule.Category,
			Type:            rule.Type,
			TransactionDate: &due,
			RecurringRuleID: &rule.ID,
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		next, active, err := recurrence.Advance(rule.Schedule())
		if err != nil {
			return apperrors.ErrInvalidFrequency
		}
		rule.NextDueDate = types.DateValue(next)
		rule.IsActive = active
		if err := tx.Model(rule).Updates(map[string]interface{}{
			"next_due_date": rule.NextDueDate,
			"is_active":     rule.IsActive,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.OccurrenceRecorded()
	if transaction.Type == models.TransactionTypeExpense && s.notifications != nil {
		s.effects.run("budget_check", userID, func() error {
			return s.notifications.CheckBudget(ctx, userID)
		})
	}
	s.checkReminders(ctx, userID)

	v := s.view(*rule)
	return transaction, &v, nil
}

// GetUpcoming lists the expected transactions of the user's active rules over
// the next days days, in date order.
func (s *recurringService) GetUpcoming(ctx context.Context, userID string, days int) ([]UpcomingOccurrence, error) {
	if days <= 0 || days > maxUpcomingDays {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "days must be between 1 and 366")
	}

	var rules []models.RecurringRule
	if err := s.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true).Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := s.now()
	today := types.DateOf(now)
	horizon := today.AddDate(0, 0, days)

	out := []UpcomingOccurrence{}
	for _, r := range rules {
		schedule := r.Schedule()
		if !schedule.Effective(now) {
			continue
		}
		until := horizon
		if schedule.EndDate != nil && schedule.EndDate.Before(until) {
			until = types.DateOf(*schedule.EndDate)
		}

		first := types.DateOf(schedule.NextDueDate)
		if first.After(until) {
			continue
		}
		dates := []time.Time{first}
		rest, err := recurrence.Occurrences(schedule.Frequency, first, until, days)
		if err != nil {
			return nil, apperrors.ErrInvalidFrequency
		}
		dates = append(dates, rest...)

		for _, d := range dates {
			if d.Before(today) {
				continue
			}
			out = append(out, UpcomingOccurrence{
				RuleID:   r.ID,
				Title:    r.Title,
				Amount:   r.Amount,
				Type:     r.Type,
				Category: r.Category,
				Date:     types.FormatDate(d),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date == out[j].Date {
			return out[i].Title < out[j].Title
		}
		return out[i].Date < out[j].Date
	})
	return out, nil
}

func (s *recurringService) checkReminders(ctx context.Context, userID string) {
	if s.notifications == nil {
		return
	}
	s.effects.run("reminder_check", userID, func() error {
		return s.notifications.CheckReminders(ctx, userID)
	})
}
