package repository

import (
	"context"
	"habit-service/internal/domain/entity"
	"time"

	"github.com/google/uuid"
)

// HabitRepository defines the interface for habit persistence
type HabitRepository interface {
	// Create creates a new habit
	Create(ctx context.Context, habit *entity.Habit) error

	// GetByID retrieves a habit by ID
	GetByID(ctx context.Context, habitID uuid.UUID) (*entity.Habit, error)

	// GetByIDAndUserID retrieves a habit by ID and owner (for authorization)
	GetByIDAndUserID(ctx context.Context, habitID, userID uuid.UUID) (*entity.Habit, error)

	// GetByUserID retrieves all habits for a user, newest first
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Habit, error)

	// GetScheduledForDay retrieves a user's habits scheduled on the given
	// weekday name (empty repeat_days, or containing the weekday)
	GetScheduledForDay(ctx context.Context, userID uuid.UUID, weekday string) ([]*entity.Habit, error)

	// GetPublicByUserID retrieves a user's public habits
	GetPublicByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Habit, error)

	// Update updates a habit's editable fields
	Update(ctx context.Context, habit *entity.Habit) error

	// UpdateStatus writes a habit's status, streak and last-completed marker
	UpdateStatus(ctx context.Context, habitID uuid.UUID, status entity.HabitStatus, streak int32, lastCompleted *time.Time) error

	// ResetCompleted bulk-transitions a user's complete habits back to
	// incomplete. Returns the number of habits reset.
	ResetCompleted(ctx context.Context, userID uuid.UUID) (int64, error)

	// Delete removes a habit and, in the same transaction, its ledger
	// entries and notifications
	Delete(ctx context.Context, habitID uuid.UUID) error
}
