package service

import (
	"context"

	"habit-service/internal/domain/entity"

	"github.com/google/uuid"
)

// TodayCache caches the per-user today view. Implementations may be absent
// (nil); every use is best-effort.
type TodayCache interface {
	GetTodayHabits(ctx context.Context, userID uuid.UUID, day string) ([]*entity.Habit, bool)
	SetTodayHabits(ctx context.Context, userID uuid.UUID, day string, habits []*entity.Habit) error
	InvalidateToday(ctx context.Context, userID uuid.UUID, day string) error
}

// EventPublisher publishes habit and streak events for downstream consumers.
// Publishing is best-effort bookkeeping; failures are logged, never surfaced.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, userID uuid.UUID, payload map[string]any) error
}
