// Package notify decides which notifications a change should produce and
// makes sure each one is delivered at most once.
package notify

import (
	"context"
	"errors"
	"time"
)

// Type is the severity shown next to a notification.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Valid reports whether t is a known notification type.
func (t Type) Valid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Candidate is a notification that should exist once per DedupeKey.
type Candidate struct {
	Title     string
	Message   string
	Type      Type
	ActionURL string
	DedupeKey string
}

// Store persists notifications.
type Store interface {
	// ExistsSince reports whether the user already has a notification with
	// the key created at or after since.
	ExistsSince(ctx context.Context, userID, dedupeKey string, since time.Time) (bool, error)
	Create(ctx context.Context, userID string, c Candidate) error
}

// Evaluator turns domain events into stored notifications.
type Evaluator struct {
	store Store
	now   func() time.Time
}

// NewEvaluator creates an Evaluator backed by store.
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store, now: time.Now}
}

// WithClock returns a copy of e that reads the time from now.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	cp := *e
	cp.now = now
	return &cp
}

// Budget emits the budget alert for the current month's spending, if any is due
// and has not been sent this month.
func (e *Evaluator) Budget(ctx context.Context, userID string, b Budget, spent Amount) ([]Candidate, error) {
	now := e.now()
	c, ok := BudgetCandidate(b, spent, now)
	if !ok {
		return nil, nil
	}
	return e.emit(ctx, userID, []Candidate{c}, startOfMonth(now))
}

// Reminders emits due reminders for the rules, once per rule and due date.
func (e *Evaluator) Reminders(ctx context.Context, userID string, rules []DueRule) ([]Candidate, error) {
	return e.emit(ctx, userID, ReminderCandidates(rules, e.now()), time.Time{})
}

func (e *Evaluator) emit(ctx context.Context, userID string, candidates []Candidate, since time.Time) ([]Candidate, error) {
	var created []Candidate
	var errs []error
	for _, c := range candidates {
		exists, err := e.store.ExistsSince(ctx, userID, c.DedupeKey, since)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if exists {
			continue
		}
		if err := e.store.Create(ctx, userID, c); err != nil {
			errs = append(errs, err)
			continue
		}
		created = append(created, c)
	}
	return created, errors.Join(errs...)
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
