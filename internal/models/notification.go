package models

import "fintrack/internal/notify"

// Notification is an in-app message. It only changes when read or deleted.
type Notification struct {
	Base
	UserID    string      `gorm:"type:uuid;not null;index:idx_notifications_user_key,priority:1" json:"user_id"`
	Title     string      `gorm:"size:255;not null" json:"title"`
	Message   string      `gorm:"type:text;not null" json:"message"`
	Type      notify.Type `gorm:"size:16;not null" json:"type"`
	ActionURL string      `gorm:"size:255" json:"action_url,omitempty"`
	Read      bool        `gorm:"not null" json:"read"`
	DedupeKey string      `gorm:"size:255;index:idx_notifications_user_key,priority:2" json:"-"`
}

// TableName keeps the hosted backend's table name.
func (Notification) TableName() string { return "notifications" }

// NotificationFrom builds a row from an evaluator candidate.
func NotificationFrom(userID string, c notify.Candidate) Notification {
	return Notification{
		UserID:    userID,
		Title:     c.Title,
		Message:   c.Message,
		Type:      c.Type,
		ActionURL: c.ActionURL,
		DedupeKey: c.DedupeKey,
	}
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Transaction{},
		&RecurringRule{},
		&SavingsGoal{},
		&Contribution{},
		&Notification{},
	}
}
