package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType represents the kind of notification
type NotificationType string

const (
	NotificationTypeHabitReminder   NotificationType = "HABIT_REMINDER"
	NotificationTypeStreakMilestone NotificationType = "STREAK_MILESTONE"
)

// NotificationStatus represents the lifecycle status of a notification
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is one scheduled or fired reminder. It is a derived,
// disposable artifact of a habit: firing makes the record terminal and the
// next occurrence is created as a fresh record.
type Notification struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	HabitID uuid.UUID

	Title   string
	Message string
	Type    NotificationType
	Status  NotificationStatus

	ScheduledFor time.Time // UTC instant
	IsRead       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
