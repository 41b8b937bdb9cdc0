package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/efvillarin/sis-api/internal/models"
)

// NotificationRepository handles persistence for per-recipient notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, user_id, title, body, audience, sender_id, read_at, created_at`

// List returns a user's notifications, newest first.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}

	if filter.Unread != nil {
		if *filter.Unread {
			conditions = append(conditions, "read_at IS NULL")
		} else {
			conditions = append(conditions, "read_at IS NOT NULL")
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM notifications WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		notificationColumns, strings.Join(conditions, " AND "), size, offset)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CreateBatch inserts one row per recipient inside a transaction so a
// broadcast lands for all recipients or none.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification batch: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO notifications (id, user_id, title, body, audience, sender_id, created_at)
        VALUES (:id, :user_id, :title, :body, :audience, :sender_id, :created_at)`
	now := time.Now().UTC()
	for i := range notifications {
		if notifications[i].ID == "" {
			notifications[i].ID = uuid.NewString()
		}
		notifications[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, notifications[i]); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notification batch: %w", err)
	}
	return nil
}

// MarkRead stamps one notification, scoped to its owner.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	const query = `UPDATE notifications SET read_at = $3 WHERE id = $1 AND user_id = $2 AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead stamps every unread notification of a user.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	const query = `UPDATE notifications SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// CountUnread returns the user's unread notification total.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// RecipientUserIDs resolves the audience of a broadcast to concrete user IDs.
// SECTION audiences resolve through student section assignment.
func (r *NotificationRepository) RecipientUserIDs(ctx context.Context, audience models.NotificationAudience, sectionID string) ([]string, error) {
	var query string
	var args []interface{}
	switch audience {
	case models.NotificationAudienceAll:
		query = `SELECT id FROM users WHERE active = TRUE`
	case models.NotificationAudienceTeachers:
		query = `SELECT id FROM users WHERE active = TRUE AND role = $1`
		args = append(args, models.RoleTeacher)
	case models.NotificationAudienceStudents:
		query = `SELECT id FROM users WHERE active = TRUE AND role = $1`
		args = append(args, models.RoleStudent)
	case models.NotificationAudienceSection:
		query = `SELECT u.id FROM users u JOIN students s ON s.user_id = u.id
            WHERE u.active = TRUE AND s.section_id = $1`
		args = append(args, sectionID)
	default:
		return nil, fmt.Errorf("unknown notification audience %q", audience)
	}

	var userIDs []string
	if err := r.db.SelectContext(ctx, &userIDs, query, args...); err != nil {
		return nil, fmt.Errorf("resolve notification recipients: %w", err)
	}
	return userIDs, nil
}
