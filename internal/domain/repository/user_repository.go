package repository

import (
	"context"
	"habit-service/internal/domain/entity"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the streak-facing interface to the user directory
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// UpdateStreak writes the general streak counters and day markers
	UpdateStreak(ctx context.Context, userID uuid.UUID, genStreak, longest int32, lastIncrement, lastUpdate *time.Time) error

	// UpdateLastHabitReset writes the day-truncated rollover marker
	UpdateLastHabitReset(ctx context.Context, userID uuid.UUID, day time.Time) error

	// UpdateTimeZone writes the user's IANA timezone name
	UpdateTimeZone(ctx context.Context, userID uuid.UUID, timeZone string) error

	// SetVacation toggles vacation mode
	SetVacation(ctx context.Context, userID uuid.UUID, on bool) error

	// GetWithActiveStreaks retrieves users with a positive general streak
	// that are not on vacation (the missed-day audit population)
	GetWithActiveStreaks(ctx context.Context) ([]*entity.User, error)
}

// PushSubscriptionRepository stores one reminder delivery target per user
type PushSubscriptionRepository interface {
	// Save creates or replaces the user's subscription
	Save(ctx context.Context, sub *entity.PushSubscription) error

	// GetByUserID retrieves the user's subscription, or ErrNotFound
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.PushSubscription, error)
}
