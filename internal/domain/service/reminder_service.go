package service

import (
	"context"
	"habit-service/internal/domain/entity"
	"time"

	"github.com/google/uuid"
)

// ReminderSender delivers a reminder to a stored subscription endpoint.
// Delivery is best-effort: a failure never aborts the sweep.
type ReminderSender interface {
	Send(ctx context.Context, endpoint, title, message string) error
}

// ReminderService schedules habit reminders and owns the user-facing
// notification records.
type ReminderService interface {
	// ScheduleNext computes the next fire instant for the habit's reminder
	// (owner's timezone, repeat-day restriction) and persists a pending
	// notification for it
	ScheduleNext(ctx context.Context, habit *entity.Habit) (*entity.Notification, error)

	// RunSweep promotes due pending notifications: delivers those whose
	// habit is still incomplete, marks each processed record terminal, and
	// schedules the next occurrence. One item's failure does not abort the
	// remaining items.
	RunSweep(ctx context.Context, now time.Time) error

	// ListNotifications returns the user's notifications, omitting reminders
	// whose habit is no longer incomplete
	ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*entity.Notification, error)

	// MarkRead marks a notification as read
	MarkRead(ctx context.Context, notificationID uuid.UUID) (*entity.Notification, error)

	// DeleteNotification removes a notification
	DeleteNotification(ctx context.Context, notificationID uuid.UUID) error

	// SavePushSubscription stores the user's reminder delivery target
	SavePushSubscription(ctx context.Context, userID uuid.UUID, endpoint string) error
}
