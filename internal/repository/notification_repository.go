package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/psuflow/psuflow-api/internal/models"
)

const notificationColumns = `id, to_user_id, title, body, read, created_at, updated_at`

// NotificationRepository persists recipient inbox messages.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores a notification and fills in its generated fields.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	const query = `INSERT INTO notifications (to_user_id, title, body, read)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, n.ToUserID, n.Title, n.Body, n.Read)
	if err := row.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByUser returns a recipient's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM notifications WHERE to_user_id = $1 ORDER BY id DESC`
	var list []models.Notification
	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// SetRead updates the read flag and returns the stored row.
func (r *NotificationRepository) SetRead(ctx context.Context, id int64, read bool) (*models.Notification, error) {
	const query = `UPDATE notifications SET read = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + notificationColumns
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, read, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return &n, nil
}
