package services

import (
	"context"
	"io"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/exporter"
	"fintrack/internal/models"
	"fintrack/internal/savings"
)

// exportService renders a user's data for download.
type exportService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewExportService creates a new ExportServicer.
func NewExportService(db *gorm.DB) ExportServicer {
	return &exportService{db: db, now: time.Now}
}

// ExportTransactions writes the user's transactions matching filter, oldest
// first. Nothing is written when loading fails.
func (s *exportService) ExportTransactions(ctx context.Context, userID string, w io.Writer, format exporter.Format, filter TransactionFilter) error {
	q := applyTransactionFilters(s.db.WithContext(ctx).Where("user_id = ?", userID), filter)

	var transactions []models.Transaction
	if err := q.Order("transaction_date").Order("created_at").Find(&transactions).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rows := make([]exporter.Transaction, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, exporter.Transaction{
			Date:     t.Date(),
			Title:    t.Title,
			Category: t.CategoryName(),
			Type:     string(t.Type),
			Amount:   t.Amount,
		})
	}

	if err := exporter.WriteTransactions(w, format, rows); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ExportGoals writes the user's goals with their progress as CSV.
func (s *exportService) ExportGoals(ctx context.Context, userID string, w io.Writer) error {
	var goals []models.SavingsGoal
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Order("id").Find(&goals).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := s.now()
	rows := make([]exporter.Goal, 0, len(goals))
	for _, g := range goals {
		p := savings.Evaluate(g.Input(), now)
		rows = append(rows, exporter.Goal{
			Name:         g.GoalName,
			Priority:     string(g.Priority),
			TargetAmount: g.TargetAmount,
			SavedAmount:  g.SavedAmount,
			Percent:      p.Percent,
			Status:       string(p.Status),
			TargetDate:   g.TargetDate.TimePtr(),
			CreatedAt:    g.CreatedAt,
		})
	}

	if err := exporter.WriteGoals(w, rows); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
