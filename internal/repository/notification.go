package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/modelhub/portal/internal/model"
	"github.com/modelhub/portal/internal/notification"
)

// NotificationRepository implements notification.Store on Postgres.
type NotificationRepository struct {
	repo *Repository
}

// NewNotificationRepository creates a notification store.
func NewNotificationRepository(repo *Repository) *NotificationRepository {
	return &NotificationRepository{repo: repo}
}

// List returns the user's notifications, newest first.
func (n *NotificationRepository) List(ctx context.Context, userID string) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, link, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := n.repo.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	items := []model.Notification{}
	for rows.Next() {
		var item model.Notification
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Type,
			&item.Title,
			&item.Message,
			&item.Link,
			&item.Read,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return items, nil
}

const insertNotificationSQL = `
	INSERT INTO notifications (id, user_id, type, title, message, link, read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING
`

func insertBatch(items []model.Notification) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(insertNotificationSQL,
			item.ID,
			item.UserID,
			string(item.Type),
			item.Title,
			item.Message,
			item.Link,
			item.Read,
			item.CreatedAt,
		)
	}
	return batch
}

// Insert stores notifications in a single batch.
func (n *NotificationRepository) Insert(ctx context.Context, items []model.Notification) error {
	if len(items) == 0 {
		return nil
	}
	if err := n.repo.pool.SendBatch(ctx, insertBatch(items)).Close(); err != nil {
		return fmt.Errorf("failed to insert notifications: %w", err)
	}
	return nil
}

// SetRead sets the read flag of one notification.
func (n *NotificationRepository) SetRead(ctx context.Context, userID, id string, read bool) error {
	query := `UPDATE notifications SET read = $3 WHERE user_id = $1 AND id = $2`

	tag, err := n.repo.pool.Exec(ctx, query, userID, id, read)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotFound
	}
	return nil
}

// MarkRead marks ids as read, or every unread notification when ids is empty.
func (n *NotificationRepository) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	query := `
		UPDATE notifications SET read = TRUE
		WHERE user_id = $1 AND NOT read
		  AND (cardinality($2::text[]) = 0 OR id = ANY($2::text[]))
	`

	if ids == nil {
		ids = []string{}
	}
	tag, err := n.repo.pool.Exec(ctx, query, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Delete removes the given notifications.
func (n *NotificationRepository) Delete(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := n.repo.pool.Exec(ctx,
		`DELETE FROM notifications WHERE user_id = $1 AND id = ANY($2::text[])`,
		userID, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// UnreadCount returns the number of unread notifications.
func (n *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := n.repo.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// Seed inserts the starter notifications and the seed marker in one
// transaction. It reports false when another caller already seeded the user.
func (n *NotificationRepository) Seed(ctx context.Context, userID string, items []model.Notification) (bool, error) {
	tx, err := n.repo.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO notification_seeds (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark notifications seeded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if len(items) > 0 {
		if err := tx.SendBatch(ctx, insertBatch(items)).Close(); err != nil {
			return false, fmt.Errorf("failed to insert starter notifications: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}
	return true, nil
}
