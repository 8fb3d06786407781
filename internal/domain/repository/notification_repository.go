package repository

import (
	"context"
	"habit-service/internal/domain/entity"
	"time"

	"github.com/google/uuid"
)

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	// Create creates a new notification record
	Create(ctx context.Context, notification *entity.Notification) error

	// GetByID retrieves a notification by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error)

	// GetByUserID retrieves a user's notifications, newest first
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*entity.Notification, error)

	// GetDue retrieves pending notifications with scheduled_for <= now
	GetDue(ctx context.Context, now time.Time, limit int32) ([]*entity.Notification, error)

	// UpdateStatus moves a notification to a terminal status
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.NotificationStatus) error

	// MarkRead marks a notification as read
	MarkRead(ctx context.Context, id uuid.UUID) error

	// Delete removes a notification
	Delete(ctx context.Context, id uuid.UUID) error
}
