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

const notificationColumns = `
	id, user_id, habit_id, title, message, type, status,
	scheduled_for, is_read, created_at, updated_at`

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new PostgreSQL notification repository
func NewNotificationRepository(pool *pgxpool.Pool) repository.NotificationRepository {
	return &notificationRepository{pool: pool}
}

func scanNotification(row pgx.Row) (*entity.Notification, error) {
	n := &entity.Notification{}
	err := row.Scan(
		&n.ID, &n.UserID, &n.HabitID, &n.Title, &n.Message, &n.Type, &n.Status,
		&n.ScheduledFor, &n.IsRead, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, habit_id, title, message, type, status,
			scheduled_for, is_read, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11
		)
	`

	_, err := r.pool.Exec(ctx, query,
		notification.ID, notification.UserID, notification.HabitID,
		notification.Title, notification.Message, notification.Type, notification.Status,
		notification.ScheduledFor, notification.IsRead,
		notification.CreatedAt, notification.UpdatedAt,
	)

	if err != nil {
		return apperr.Storagef(err, "failed to create notification")
	}

	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	query := `SELECT` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFoundf("notification %s", id)
		}
		return nil, apperr.Storagef(err, "failed to get notification")
	}

	return n, nil
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, apperr.Storagef(err, "failed to get notifications")
	}

	return collectNotifications(rows)
}

func (r *notificationRepository) GetDue(ctx context.Context, now time.Time, limit int32) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = 500
	}

	query := `SELECT` + notificationColumns + `
		FROM notifications
		WHERE status = 'pending' AND scheduled_for <= $1
		ORDER BY scheduled_for ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, apperr.Storagef(err, "failed to get due notifications")
	}

	return collectNotifications(rows)
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.NotificationStatus) error {
	query := `
		UPDATE notifications SET
			status = $1,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return apperr.Storagef(err, "failed to update notification status")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("notification %s", id)
	}

	return nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notifications SET
			is_read = TRUE,
			updated_at = $1
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return apperr.Storagef(err, "failed to mark notification read")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("notification %s", id)
	}

	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return apperr.Storagef(err, "failed to delete notification")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFoundf("notification %s", id)
	}

	return nil
}

func collectNotifications(rows pgx.Rows) ([]*entity.Notification, error) {
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, apperr.Storagef(err, "failed to scan notification")
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Storagef(err, "failed to iterate notifications")
	}

	return notifications, nil
}
