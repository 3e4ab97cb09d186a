package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/importer"
	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/recurrence"
	"fintrack/internal/types"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db            *gorm.DB
	notifications NotificationServicer
	metrics       *metrics.Metrics
	effects       sideEffects
	now           func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, notifications NotificationServicer, m *metrics.Metrics) TransactionServicer {
	return &transactionService{
		db:            db,
		notifications: notifications,
		metrics:       m,
		effects:       sideEffects{metrics: m},
		now:           time.Now,
	}
}

func validateTransaction(in TransactionInput) error {
	if in.Amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}
	if in.Type != models.TransactionTypeIncome && in.Type != models.TransactionTypeExpense {
		return apperrors.ErrInvalidTransactionType
	}
	if strings.TrimSpace(in.Title) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	return nil
}

func cleanCategory(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// apply copies in onto t. A missing date defaults to today.
func (s *transactionService) apply(t *models.Transaction, in TransactionInput) {
	date := types.DateOf(s.now())
	if in.Date != nil {
		date = types.DateOf(*in.Date)
	}
	d := types.DateValue(date)

	t.Title = strings.TrimSpace(in.Title)
	t.Amount = in.Amount.Round(2)
	t.Category = cleanCategory(in.Category)
	t.Type = in.Type
	t.TransactionDate = &d
}

// CreateTransaction stores a transaction. With repeat set, a recurring rule
// anchored at the transaction date is created in the same database transaction
// and the new row is linked to it.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, in TransactionInput, repeat *RepeatInput) (*models.Transaction, *models.RecurringRule, error) {
	if err := validateTransaction(in); err != nil {
		return nil, nil, err
	}

	transaction := &models.Transaction{UserID: userID}
	s.apply(transaction, in)

	var rule *models.RecurringRule
	if repeat != nil {
		var err error
		rule, err = ruleFromTransaction(transaction, *repeat)
		if err != nil {
			return nil, nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rule != nil {
			if err := tx.Create(rule).Error; err != nil {
				return err
			}
			transaction.RecurringRuleID = &rule.ID
		}
		return tx.Create(transaction).Error
	})
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.afterWrite(ctx, userID, transaction.Type, rule != nil)
	return transaction, rule, nil
}

func ruleFromTransaction(t *models.Transaction, repeat RepeatInput) (*models.RecurringRule, error) {
	freq, err := recurrence.ParseFrequency(repeat.Frequency)
	if err != nil {
		return nil, apperrors.ErrInvalidFrequency
	}
	start := t.TransactionDate.Time
	if repeat.EndDate != nil && types.DateOf(*repeat.EndDate).Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidDateRange, "end date must not be before the transaction date")
	}
	next, err := recurrence.InitialNextDue(freq, start)
	if err != nil {
		return nil, apperrors.ErrInvalidFrequency
	}

	var end *types.Date
	if repeat.EndDate != nil {
		end = types.DatePtr(repeat.EndDate)
	}
	return &models.RecurringRule{
		UserID:      t.UserID,
		Title:       t.Title,
		Amount:      t.Amount,
		Category:    t.Category,
		Type:        t.Type,
		Frequency:   freq,
		StartDate:   types.DateValue(start),
		EndDate:     end,
		NextDueDate: types.DateValue(next),
		IsActive:    !recurrence.Exhausted(next, repeat.EndDate),
	}, nil
}

// afterWrite runs the checks that depend on the user's transactions.
func (s *transactionService) afterWrite(ctx context.Context, userID string, txType models.TransactionType, ruleCreated bool) {
	if s.notifications == nil {
		return
	}
	if txType == models.TransactionTypeExpense {
		s.effects.run("budget_check", userID, func() error {
			return s.notifications.CheckBudget(ctx, userID)
		})
	}
	if ruleCreated {
		s.effects.run("reminder_check", userID, func() error {
			return s.notifications.CheckReminders(ctx, userID)
		})
	}
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return nil, apperrors.ErrInvalidDateRange
	}
	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	result, err := pagination.Find[models.Transaction](base, page, "transaction_date DESC", "created_at DESC", "id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", types.DateValue(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date <= ?", types.DateValue(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("transaction_type = ?", *f.Type)
	}
	if f.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(strings.TrimSpace(f.Category)))
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction replaces every editable field of a transaction.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, in TransactionInput) (*models.Transaction, error) {
	if err := validateTransaction(in); err != nil {
		return nil, err
	}
	transaction, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	previous := transaction.Type
	s.apply(transaction, in)
	if err := s.db.WithContext(ctx).Save(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if previous == models.TransactionTypeExpense || transaction.Type == models.TransactionTypeExpense {
		s.afterWrite(ctx, userID, models.TransactionTypeExpense, false)
	}
	return transaction, nil
}

// DeleteTransaction permanently deletes a transaction.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ImportTransactions stores the accepted rows of a parsed import in one
// database transaction. Rejected rows are reported as warnings.
func (s *transactionService) ImportTransactions(ctx context.Context, userID string, parsed importer.Result) (*ImportResult, error) {
	result := &ImportResult{
		Imported: len(parsed.Rows),
		Skipped:  len(parsed.Warnings),
		Warnings: parsed.Warnings,
	}
	if result.Warnings == nil {
		result.Warnings = []importer.Warning{}
	}

	if len(parsed.Rows) > 0 {
		rows := make([]models.Transaction, 0, len(parsed.Rows))
		hasExpense := false
		for _, r := range parsed.Rows {
			category := r.Category
			d := types.DateValue(r.Date)
			t := models.Transaction{
				UserID:          userID,
				Title:           r.Title,
				Amount:          r.Amount,
				Category:        cleanCategory(&category),
				Type:            models.TransactionType(r.Type),
				TransactionDate: &d,
			}
			hasExpense = hasExpense || t.Type == models.TransactionTypeExpense
			rows = append(rows, t)
		}

		if err := s.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if hasExpense {
			s.afterWrite(ctx, userID, models.TransactionTypeExpense, false)
		}
	}

	s.metrics.RowsImported(result.Imported, result.Skipped)
	return result, nil
}
