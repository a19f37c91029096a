package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines notification data access
type Repository interface {
	// CreateIfUnseen inserts the notification unless an unread one of the same
	// type from the same actor already exists for the user. Returns true if a
	// row was inserted.
	CreateIfUnseen(ctx context.Context, n *Notification) (bool, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error)
	CountUnreadByUser(ctx context.Context, userID int64) (int, error)
	MarkAsRead(ctx context.Context, userID int64, id uuid.UUID) (bool, error)
	MarkAllAsRead(ctx context.Context, userID int64) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates notification repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateIfUnseen(ctx context.Context, n *Notification) (bool, error) {
	query := `
		INSERT INTO notifications (id, user_id, actor_id, type, is_read, created_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE NOT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $2 AND actor_id = $3 AND type = $4 AND NOT is_read
		)
	`
	res, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.ActorID, n.Type, n.IsRead, n.CreatedAt)
	if err != nil {
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return inserted > 0, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var notifications []*Notification
	err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset)
	return notifications, err
}

func (r *repository) CountUnreadByUser(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`
	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}

func (r *repository) MarkAsRead(ctx context.Context, userID int64, id uuid.UUID) (bool, error) {
	query := `UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE id = $1 AND user_id = $2 AND NOT is_read`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return updated > 0, nil
}

func (r *repository) MarkAllAsRead(ctx context.Context, userID int64) error {
	query := `UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE user_id = $1 AND NOT is_read`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
