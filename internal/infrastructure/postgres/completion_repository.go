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

type completionRepository struct {
	pool *pgxpool.Pool
}

// NewCompletionRepository creates a new PostgreSQL completion ledger repository
func NewCompletionRepository(pool *pgxpool.Pool) repository.CompletionRepository {
	return &completionRepository{pool: pool}
}

// Upsert relies on the UNIQUE (habit_id, day) constraint: concurrent calls
// for the same day land on one row and each accepted increment is counted.
func (r *completionRepository) Upsert(ctx context.Context, habitID, userID uuid.UUID, day time.Time, now time.Time) error {
	query := `
		INSERT INTO habit_completions (
			id, habit_id, user_id, day, completed_count, completed_at, created_at
		) VALUES (
			$1, $2, $3, $4, 1, $5, $5
		)
		ON CONFLICT (habit_id, day) DO UPDATE SET
			completed_count = habit_completions.completed_count + 1,
			completed_at = EXCLUDED.completed_at
	`

	_, err := r.pool.Exec(ctx, query, uuid.New(), habitID, userID, day, now)
	if err != nil {
		return apperr.Storagef(err, "failed to upsert completion")
	}

	return nil
}

func (r *completionRepository) Decrement(ctx context.Context, habitID uuid.UUID, day time.Time) error {
	query := `
		UPDATE habit_completions SET
			completed_count = completed_count - 1
		WHERE habit_id = $1 AND day = $2
	`

	_, err := r.pool.Exec(ctx, query, habitID, day)
	if err != nil {
		return apperr.Storagef(err, "failed to decrement completion")
	}

	cleanup := `
		DELETE FROM habit_completions
		WHERE habit_id = $1 AND day = $2 AND completed_count <= 0
	`

	if _, err := r.pool.Exec(ctx, cleanup, habitID, day); err != nil {
		return apperr.Storagef(err, "failed to remove drained completion")
	}

	return nil
}

func (r *completionRepository) GetForDay(ctx context.Context, habitID uuid.UUID, day time.Time) (*entity.HabitCompletion, error) {
	query := `
		SELECT id, habit_id, user_id, day, completed_count, completed_at, created_at
		FROM habit_completions
		WHERE habit_id = $1 AND day = $2
	`

	completion := &entity.HabitCompletion{}
	err := r.pool.QueryRow(ctx, query, habitID, day).Scan(
		&completion.ID, &completion.HabitID, &completion.UserID,
		&completion.Day, &completion.CompletedCount, &completion.CompletedAt,
		&completion.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("completion for habit %s on %s", habitID, day.Format("2006-01-02"))
		}
		return nil, apperr.Storagef(err, "failed to get completion")
	}

	return completion, nil
}

func (r *completionRepository) GetRange(ctx context.Context, habitID uuid.UUID, from, to time.Time) ([]*entity.HabitCompletion, error) {
	query := `
		SELECT id, habit_id, user_id, day, completed_count, completed_at, created_at
		FROM habit_completions
		WHERE habit_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day ASC
	`

	rows, err := r.pool.Query(ctx, query, habitID, from, to)
	if err != nil {
		return nil, apperr.Storagef(err, "failed to get completions")
	}

	return collectCompletions(rows)
}

func (r *completionRepository) GetUserRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*entity.HabitCompletion, error) {
	query := `
		SELECT id, habit_id, user_id, day, completed_count, completed_at, created_at
		FROM habit_completions
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, apperr.Storagef(err, "failed to get user completions")
	}

	return collectCompletions(rows)
}

func collectCompletions(rows pgx.Rows) ([]*entity.HabitCompletion, error) {
	defer rows.Close()

	var completions []*entity.HabitCompletion
	for rows.Next() {
		completion := &entity.HabitCompletion{}
		err := rows.Scan(
			&completion.ID, &completion.HabitID, &completion.UserID,
			&completion.Day, &completion.CompletedCount, &completion.CompletedAt,
			&completion.CreatedAt,
		)
		if err != nil {
			return nil, apperr.Storagef(err, "failed to scan completion")
		}
		completions = append(completions, completion)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storagef(err, "failed to iterate completions")
	}

	return completions, nil
}
