package services

import (
	"context"

	"gorm.io/gorm"

	"fintrack/internal/analytics"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/types"
)

// analyticsService loads a user's transactions and aggregates them.
type analyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return &analyticsService{db: db}
}

// GetSummary computes the metrics of the user's transactions inside window.
// Rows without a transaction date are loaded too; the aggregator places them
// by creation date.
func (s *analyticsService) GetSummary(ctx context.Context, userID string, window analytics.Window, filter analytics.Filter) (*analytics.Metrics, error) {
	if window.End.Before(window.Start) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var transactions []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("transaction_date IS NULL OR (transaction_date >= ? AND transaction_date <= ?)",
			types.DateValue(window.Start), types.DateValue(window.End)).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entries := make([]analytics.Entry, 0, len(transactions))
	for _, t := range transactions {
		entries = append(entries, t.Entry())
	}

	m := analytics.Aggregate(entries, window, filter)
	return &m, nil
}
