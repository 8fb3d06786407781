package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"habit-service/internal/config"
	"habit-service/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client is a read-through cache for the per-user today view. Keys carry the
// local calendar day, so a rollover naturally misses yesterday's entry; status
// mutations invalidate eagerly.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a redis client and verifies connectivity
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	ttl := cfg.TodayTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

func todayKey(userID uuid.UUID, day string) string {
	return fmt.Sprintf("habits:today:%s:%s", userID, day)
}

// GetTodayHabits returns the cached today view, or found=false on miss or
// any redis error
func (c *Client) GetTodayHabits(ctx context.Context, userID uuid.UUID, day string) ([]*entity.Habit, bool) {
	data, err := c.rdb.Get(ctx, todayKey(userID, day)).Bytes()
	if err != nil {
		return nil, false
	}

	var habits []*entity.Habit
	if err := json.Unmarshal(data, &habits); err != nil {
		return nil, false
	}

	return habits, true
}

// SetTodayHabits stores the today view for the user's current local day
func (c *Client) SetTodayHabits(ctx context.Context, userID uuid.UUID, day string, habits []*entity.Habit) error {
	data, err := json.Marshal(habits)
	if err != nil {
		return fmt.Errorf("failed to marshal habits: %w", err)
	}

	if err := c.rdb.Set(ctx, todayKey(userID, day), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set today cache: %w", err)
	}

	return nil
}

// InvalidateToday drops the cached today view for the given local day
func (c *Client) InvalidateToday(ctx context.Context, userID uuid.UUID, day string) error {
	if err := c.rdb.Del(ctx, todayKey(userID, day)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate today cache: %w", err)
	}
	return nil
}

// Close closes the underlying redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
