package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habit-service/internal/apperr"
	"habit-service/internal/domain/entity"
	"habit-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const habitColumns = `
	id, user_id, title, icon, notes,
	reminder_time, repeat_days, target_count, is_public,
	status, habit_streak, last_completed,
	created_at, updated_at`

type habitRepository struct {
	pool *pgxpool.Pool
}

// NewHabitRepository creates a new PostgreSQL habit repository
func NewHabitRepository(pool *pgxpool.Pool) repository.HabitRepository {
	return &habitRepository{pool: pool}
}

func scanHabit(row pgx.Row) (*entity.Habit, error) {
	habit := &entity.Habit{}
	err := row.Scan(
		&habit.ID, &habit.UserID, &habit.Title, &habit.Icon, &habit.Notes,
		&habit.ReminderTime, &habit.RepeatDays, &habit.TargetCount, &habit.IsPublic,
		&habit.Status, &habit.HabitStreak, &habit.LastCompleted,
		&habit.CreatedAt, &habit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return habit, nil
}

func (r *habitRepository) collectHabits(rows pgx.Rows) ([]*entity.Habit, error) {
	defer rows.Close()

	var habits []*entity.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, apperr.Storagef(err, "failed to scan habit")
		}
		habits = append(habits, habit)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storagef(err, "failed to iterate habits")
	}

	return habits, nil
}

func (r *habitRepository) Create(ctx context.Context, habit *entity.Habit) error {
	query := `
		INSERT INTO habits (
			id, user_id, title, icon, notes,
			reminder_time, repeat_days, target_count, is_public,
			status, habit_streak, last_completed,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14
		)
	`

	_, err := r.pool.Exec(ctx, query,
		habit.ID, habit.UserID, habit.Title, habit.Icon, habit.Notes,
		habit.ReminderTime, habit.RepeatDays, habit.TargetCount, habit.IsPublic,
		habit.Status, habit.HabitStreak, habit.LastCompleted,
		habit.CreatedAt, habit.UpdatedAt,
	)

	if err != nil {
		return apperr.Storagef(err, "failed to create habit")
	}

	return nil
}

func (r *habitRepository) GetByID(ctx context.Context, habitID uuid.UUID) (*entity.Habit, error) {
	query := fmt.Sprintf(`SELECT %s FROM habits WHERE id = $1`, habitColumns)

	habit, err := scanHabit(r.pool.QueryRow(ctx, query, habitID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("habit %s", habitID)
		}
		return nil, apperr.Storagef(err, "failed to get habit")
	}

	return habit, nil
}

func (r *habitRepository) GetByIDAndUserID(ctx context.Context, habitID, userID uuid.UUID) (*entity.Habit, error) {
	query := fmt.Sprintf(`SELECT %s FROM habits WHERE id = $1 AND user_id = $2`, habitColumns)

	habit, err := scanHabit(r.pool.QueryRow(ctx, query, habitID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("habit %s", habitID)
		}
		return nil, apperr.Storagef(err, "failed to get habit")
	}

	return habit, nil
}

func (r *habitRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Habit, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM habits
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, habitColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperr.Storagef(err, "failed to get habits")
	}

	return r.collectHabits(rows)
}

func (r *habitRepository) GetScheduledForDay(ctx context.Context, userID uuid.UUID, weekday string) ([]*entity.Habit, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM habits
		WHERE user_id = $1
		  AND (cardinality(repeat_days) = 0 OR $2 = ANY(repeat_days))
		ORDER BY created_at DESC
	`, habitColumns)

	rows, err := r.pool.Query(ctx, query, userID, weekday)
	if err != nil {
		return nil, apperr.Storagef(err, "failed to get scheduled habits")
	}

	return r.collectHabits(rows)
}

func (r *habitRepository) GetPublicByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Habit, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM habits
		WHERE user_id = $1 AND is_public = TRUE
		ORDER BY created_at DESC
	`, habitColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperr.Storagef(err, "failed to get public habits")
	}

	return r.collectHabits(rows)
}

func (r *habitRepository) Update(ctx context.Context, habit *entity.Habit) error {
	query := `
		UPDATE habits SET
			title = $1,
			icon = $2,
			notes = $3,
			reminder_time = $4,
			repeat_days = $5,
			target_count = $6,
			is_public = $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := r.pool.Exec(ctx, query,
		habit.Title, habit.Icon, habit.Notes,
		habit.ReminderTime, habit.RepeatDays, habit.TargetCount, habit.IsPublic,
		time.Now().UTC(), habit.ID,
	)

	if err != nil {
		return apperr.Storagef(err, "failed to update habit")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("habit %s", habit.ID)
	}

	return nil
}

func (r *habitRepository) UpdateStatus(ctx context.Context, habitID uuid.UUID, status entity.HabitStatus, streak int32, lastCompleted *time.Time) error {
	query := `
		UPDATE habits SET
			status = $1,
			habit_streak = $2,
			last_completed = $3,
			updated_at = $4
		WHERE id = $5
	`

	result, err := r.pool.Exec(ctx, query, status, streak, lastCompleted, time.Now().UTC(), habitID)
	if err != nil {
		return apperr.Storagef(err, "failed to update habit status")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("habit %s", habitID)
	}

	return nil
}

func (r *habitRepository) ResetCompleted(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		UPDATE habits SET
			status = 'incomplete',
			updated_at = $1
		WHERE user_id = $2 AND status = 'complete'
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		return 0, apperr.Storagef(err, "failed to reset completed habits")
	}

	return result.RowsAffected(), nil
}

// Delete removes the habit and its dependent records in one transaction.
// The ledger rows go with the habit; history of a deleted habit has no owner
// to report to.
func (r *habitRepository) Delete(ctx context.Context, habitID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Storagef(err, "failed to begin delete transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM habit_completions WHERE habit_id = $1`, habitID); err != nil {
		return apperr.Storagef(err, "failed to delete habit completions")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM notifications WHERE habit_id = $1`, habitID); err != nil {
		return apperr.Storagef(err, "failed to delete habit notifications")
	}

	result, err := tx.Exec(ctx, `DELETE FROM habits WHERE id = $1`, habitID)
	if err != nil {
		return apperr.Storagef(err, "failed to delete habit")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("habit %s", habitID)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Storagef(err, "failed to commit delete transaction")
	}

	return nil
}
