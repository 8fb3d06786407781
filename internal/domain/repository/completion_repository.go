package repository

import (
	"context"
	"habit-service/internal/domain/entity"
	"time"

	"github.com/google/uuid"
)

// CompletionRepository defines the interface for the completion ledger.
// The ledger holds one record per (habit, UTC-normalized day); the unique key
// is enforced by storage and Upsert/Decrement are safe to race.
type CompletionRepository interface {
	// Upsert increments the day's completed count by one, creating the
	// record on first touch of the day with completedAt = now
	Upsert(ctx context.Context, habitID, userID uuid.UUID, day time.Time, now time.Time) error

	// Decrement decrements the day's completed count by one, deleting the
	// record if it would reach zero. A missing record is a no-op.
	Decrement(ctx context.Context, habitID uuid.UUID, day time.Time) error

	// GetForDay retrieves the ledger entry for a habit on a day, or
	// ErrNotFound if the day has no entry
	GetForDay(ctx context.Context, habitID uuid.UUID, day time.Time) (*entity.HabitCompletion, error)

	// GetRange retrieves a habit's ledger entries with day in [from, to]
	GetRange(ctx context.Context, habitID uuid.UUID, from, to time.Time) ([]*entity.HabitCompletion, error)

	// GetUserRange retrieves all of a user's ledger entries with day in
	// [from, to], across habits
	GetUserRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*entity.HabitCompletion, error)
}
