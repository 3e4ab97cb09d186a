package services

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/metrics"
	"fintrack/internal/models"
)

// profileService manages per-user settings.
type profileService struct {
	db                *gorm.DB
	notifications     NotificationServicer
	effects           sideEffects
	defaultWarningPct int
	defaultCritPct    int
}

// NewProfileService creates a new ProfileServicer. New profiles start with
// the given budget thresholds.
func NewProfileService(db *gorm.DB, notifications NotificationServicer, m *metrics.Metrics, warningPct, criticalPct int) ProfileServicer {
	return &profileService{
		db:                db,
		notifications:     notifications,
		effects:           sideEffects{metrics: m},
		defaultWarningPct: warningPct,
		defaultCritPct:    criticalPct,
	}
}

// GetProfile returns the user's profile, creating it with defaults on first use.
func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile := models.NewProfile(userID, s.defaultWarningPct, s.defaultCritPct)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&profile).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var stored models.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

// UpdateProfile replaces the user's settings. A budget change re-runs the
// budget check for the current month.
func (s *profileService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.Profile, error) {
	if in.MonthlyBudget.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly budget must not be negative")
	}
	if in.WarningThresholdPct <= 0 || in.CriticalThresholdPct <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "thresholds must be greater than zero")
	}
	if in.WarningThresholdPct > in.CriticalThresholdPct {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "warning threshold must not exceed the critical threshold")
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = models.DefaultCurrency
	}
	profile.DisplayName = strings.TrimSpace(in.DisplayName)
	profile.Email = strings.TrimSpace(in.Email)
	profile.Currency = currency
	profile.MonthlyBudget = in.MonthlyBudget.Round(2)
	profile.WarningThresholdPct = in.WarningThresholdPct
	profile.CriticalThresholdPct = in.CriticalThresholdPct
	profile.EmailNotifications = in.EmailNotifications

	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.notifications != nil {
		s.effects.run("budget_check", userID, func() error {
			return s.notifications.CheckBudget(ctx, userID)
		})
	}
	return profile, nil
}
