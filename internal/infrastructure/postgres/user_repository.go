package postgres

import (
	"context"
	"errors"
	"time"

	"habit-service/internal/apperr"
	"habit-service/internal/domain/entity"
	"habit-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `
	id, email, time_zone,
	gen_streak_count, longest_streak,
	last_streak_increment, last_streak_update, last_habit_reset,
	is_vacation, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	user := &entity.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.TimeZone,
		&user.GenStreakCount, &user.LongestStreak,
		&user.LastStreakIncrement, &user.LastStreakUpdate, &user.LastHabitReset,
		&user.IsVacation, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("user %s", userID)
		}
		return nil, apperr.Storagef(err, "failed to get user")
	}

	return user, nil
}

func (r *userRepository) UpdateStreak(ctx context.Context, userID uuid.UUID, genStreak, longest int32, lastIncrement, lastUpdate *time.Time) error {
	query := `
		UPDATE users SET
			gen_streak_count = $1,
			longest_streak = $2,
			last_streak_increment = $3,
			last_streak_update = $4,
			updated_at = $5
		WHERE id = $6
	`

	result, err := r.pool.Exec(ctx, query, genStreak, longest, lastIncrement, lastUpdate, time.Now().UTC(), userID)
	if err != nil {
		return apperr.Storagef(err, "failed to update streak")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("user %s", userID)
	}

	return nil
}

func (r *userRepository) UpdateLastHabitReset(ctx context.Context, userID uuid.UUID, day time.Time) error {
	query := `
		UPDATE users SET
			last_habit_reset = $1,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, day, time.Now().UTC(), userID)
	if err != nil {
		return apperr.Storagef(err, "failed to update last habit reset")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("user %s", userID)
	}

	return nil
}

func (r *userRepository) UpdateTimeZone(ctx context.Context, userID uuid.UUID, timeZone string) error {
	query := `
		UPDATE users SET
			time_zone = $1,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, timeZone, time.Now().UTC(), userID)
	if err != nil {
		return apperr.Storagef(err, "failed to update timezone")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("user %s", userID)
	}

	return nil
}

func (r *userRepository) SetVacation(ctx context.Context, userID uuid.UUID, on bool) error {
	query := `
		UPDATE users SET
			is_vacation = $1,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, on, time.Now().UTC(), userID)
	if err != nil {
		return apperr.Storagef(err, "failed to set vacation mode")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("user %s", userID)
	}

	return nil
}

func (r *userRepository) GetWithActiveStreaks(ctx context.Context) ([]*entity.User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE gen_streak_count > 0 AND is_vacation = FALSE
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperr.Storagef(err, "failed to get users with active streaks")
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Storagef(err, "failed to scan user")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storagef(err, "failed to iterate users")
	}

	return users, nil
}

type pushSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPushSubscriptionRepository creates a new PostgreSQL push subscription repository
func NewPushSubscriptionRepository(pool *pgxpool.Pool) repository.PushSubscriptionRepository {
	return &pushSubscriptionRepository{pool: pool}
}

func (r *pushSubscriptionRepository) Save(ctx context.Context, sub *entity.PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (id, user_id, endpoint, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			endpoint = EXCLUDED.endpoint,
			created_at = EXCLUDED.created_at
	`

	_, err := r.pool.Exec(ctx, query, sub.ID, sub.UserID, sub.Endpoint, sub.CreatedAt)
	if err != nil {
		return apperr.Storagef(err, "failed to save push subscription")
	}

	return nil
}

func (r *pushSubscriptionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.PushSubscription, error) {
	query := `
		SELECT id, user_id, endpoint, created_at
		FROM push_subscriptions
		WHERE user_id = $1
	`

	sub := &entity.PushSubscription{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("push subscription for user %s", userID)
		}
		return nil, apperr.Storagef(err, "failed to get push subscription")
	}

	return sub, nil
}
