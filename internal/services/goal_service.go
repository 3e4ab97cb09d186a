package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/savings"
	"fintrack/internal/types"
)

// goalService manages savings goals and contributions.
type goalService struct {
	db            *gorm.DB
	notifications NotificationServicer
	effects       sideEffects
	now           func() time.Time
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB, notifications NotificationServicer, m *metrics.Metrics) GoalServicer {
	return &goalService{
		db:            db,
		notifications: notifications,
		effects:       sideEffects{metrics: m},
		now:           time.Now,
	}
}

func (s *goalService) view(g models.SavingsGoal) GoalView {
	return GoalView{SavingsGoal: g, Progress: savings.Evaluate(g.Input(), s.now())}
}

func validateGoal(in GoalInput) error {
	if strings.TrimSpace(in.GoalName) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if !in.TargetAmount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
	}
	if in.SavedAmount != nil && in.SavedAmount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "saved amount must not be negative")
	}
	switch in.Priority {
	case "", models.GoalPriorityHigh, models.GoalPriorityMedium, models.GoalPriorityLow:
		return nil
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, "priority must be High, Medium or Low")
}

func priorityOrDefault(p models.GoalPriority) models.GoalPriority {
	if p == "" {
		return models.GoalPriorityMedium
	}
	return p
}

// CreateGoal stores a new goal.
func (s *goalService) CreateGoal(ctx context.Context, userID string, in GoalInput) (*GoalView, error) {
	if err := validateGoal(in); err != nil {
		return nil, err
	}

	saved := decimal.Zero
	if in.SavedAmount != nil {
		saved = in.SavedAmount.Round(2)
	}
	goal := &models.SavingsGoal{
		UserID:       userID,
		GoalName:     strings.TrimSpace(in.GoalName),
		TargetAmount: in.TargetAmount.Round(2),
		SavedAmount:  saved,
		TargetDate:   types.DatePtr(in.TargetDate),
		Priority:     priorityOrDefault(in.Priority),
	}
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.checkMilestone(ctx, userID, goal)
	v := s.view(*goal)
	return &v, nil
}

var priorityRank = map[models.GoalPriority]int{
	models.GoalPriorityHigh:   0,
	models.GoalPriorityMedium: 1,
	models.GoalPriorityLow:    2,
}

// GetUserGoals returns the user's goals with progress, highest priority first.
func (s *goalService) GetUserGoals(ctx context.Context, userID string) ([]GoalView, error) {
	var goals []models.SavingsGoal
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Order("id").Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, s.view(g))
	}
	sort.SliceStable(views, func(i, j int) bool {
		return priorityRank[views[i].Priority] < priorityRank[views[j].Priority]
	})
	return views, nil
}

func (s *goalService) getGoal(ctx context.Context, db *gorm.DB, userID, goalID string) (*models.SavingsGoal, error) {
	var goal models.SavingsGoal
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// GetGoalByID retrieves a goal with its progress.
func (s *goalService) GetGoalByID(ctx context.Context, userID, goalID string) (*GoalView, error) {
	goal, err := s.getGoal(ctx, s.db, userID, goalID)
	if err != nil {
		return nil, err
	}
	v := s.view(*goal)
	return &v, nil
}

// UpdateGoal replaces the goal's fields. A nil SavedAmount keeps the current
// total. The milestone marker never moves backwards.
func (s *goalService) UpdateGoal(ctx context.Context, userID, goalID string, in GoalInput) (*GoalView, error) {
	if err := validateGoal(in); err != nil {
		return nil, err
	}
	goal, err := s.getGoal(ctx, s.db, userID, goalID)
	if err != nil {
		return nil, err
	}

	var targetDate interface{}
	if in.TargetDate != nil {
		targetDate = types.DateValue(*in.TargetDate)
	}
	updates := map[string]interface{}{
		"goal_name":     strings.TrimSpace(in.GoalName),
		"target_amount": in.TargetAmount.Round(2),
		"target_date":   targetDate,
		"priority":      priorityOrDefault(in.Priority),
	}
	if in.SavedAmount != nil {
		updates["saved_amount"] = in.SavedAmount.Round(2)
	}
	if err := s.db.WithContext(ctx).Model(goal).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	goal, err = s.getGoal(ctx, s.db, userID, goalID)
	if err != nil {
		return nil, err
	}
	s.checkMilestone(ctx, userID, goal)
	v := s.view(*goal)
	return &v, nil
}

// DeleteGoal permanently deletes a goal and its contributions.
func (s *goalService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	goal, err := s.getGoal(ctx, s.db, userID, goalID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ? AND user_id = ?", goal.ID, userID).Delete(&models.Contribution{}).Error; err != nil {
			return err
		}
		return tx.Delete(goal).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AddContribution records a deposit and increments the goal's saved amount
// in the same database transaction.
func (s *goalService) AddContribution(ctx context.Context, userID, goalID string, in ContributionInput) (*models.Contribution, *GoalView, error) {
	if !in.Amount.IsPositive() {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	date := types.DateOf(s.now())
	if in.Date != nil {
		date = types.DateOf(*in.Date)
	}

	var (
		contribution *models.Contribution
		goal         *models.SavingsGoal
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		goal, err = s.getGoal(ctx, tx, userID, goalID)
		if err != nil {
			return err
		}

		contribution = &models.Contribution{
			UserID:           userID,
			GoalID:           goal.ID,
			Amount:           in.Amount.Round(2),
			ContributionDate: types.DateValue(date),
			Note:             strings.TrimSpace(in.Note),
		}
		if err := tx.Create(contribution).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Model(&models.SavingsGoal{}).
			Where("id = ? AND user_id = ?", goal.ID, userID).
			Update("saved_amount", gorm.Expr("saved_amount + ?", contribution.Amount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		goal, err = s.getGoal(ctx, tx, userID, goalID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.checkMilestone(ctx, userID, goal)
	v := s.view(*goal)
	return contribution, &v, nil
}

// GetContributions lists a goal's contributions, newest first.
func (s *goalService) GetContributions(ctx context.Context, userID, goalID string, page pagination.PageRequest) (*pagination.PageResponse[models.Contribution], error) {
	if _, err := s.getGoal(ctx, s.db, userID, goalID); err != nil {
		return nil, err
	}
	base := s.db.WithContext(ctx).Model(&models.Contribution{}).Where("user_id = ? AND goal_id = ?", userID, goalID)

	result, err := pagination.Find[models.Contribution](base, page, "contribution_date DESC", "created_at DESC", "id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func (s *goalService) checkMilestone(ctx context.Context, userID string, goal *models.SavingsGoal) {
	if s.notifications == nil {
		return
	}
	s.effects.run("milestone_check", userID, func() error {
		return s.notifications.CheckMilestone(ctx, userID, goal)
	})
}
