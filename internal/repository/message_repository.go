package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/efvillarin/sis-api/internal/models"
)

// MessageRepository handles persistence for direct messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageDetailSelect = `SELECT m.id, m.sender_id, m.receiver_id, m.body, m.read_at, m.created_at,
        su.first_name || ' ' || su.last_name AS sender_name,
        ru.first_name || ' ' || ru.last_name AS receiver_name
        FROM messages m
        JOIN users su ON su.id = m.sender_id
        JOIN users ru ON ru.id = m.receiver_id`

// Conversation returns messages between two users, newest page first.
func (r *MessageRepository) Conversation(ctx context.Context, userID, peerID string, page, pageSize int) ([]models.MessageDetail, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`%s WHERE (m.sender_id = $1 AND m.receiver_id = $2)
        OR (m.sender_id = $2 AND m.receiver_id = $1)
        ORDER BY m.created_at DESC LIMIT %d OFFSET %d`, messageDetailSelect, pageSize, offset)

	var messages []models.MessageDetail
	if err := r.db.SelectContext(ctx, &messages, query, userID, peerID); err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return messages, nil
}

// Inbox returns the latest message of each conversation the user takes part
// in, newest conversation first.
func (r *MessageRepository) Inbox(ctx context.Context, userID string) ([]models.MessageDetail, error) {
	query := messageDetailSelect + ` WHERE m.id IN (
        SELECT DISTINCT ON (LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id)) id
        FROM messages WHERE sender_id = $1 OR receiver_id = $1
        ORDER BY LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id), created_at DESC
        ) ORDER BY m.created_at DESC`

	var messages []models.MessageDetail
	if err := r.db.SelectContext(ctx, &messages, query, userID); err != nil {
		return nil, fmt.Errorf("load inbox: %w", err)
	}
	return messages, nil
}

// Create persists a new message.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO messages (id, sender_id, receiver_id, body, created_at)
        VALUES (:id, :sender_id, :receiver_id, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// MarkRead stamps every unread message sent by peer to user.
func (r *MessageRepository) MarkRead(ctx context.Context, userID, peerID string) error {
	const query = `UPDATE messages SET read_at = $3
        WHERE receiver_id = $1 AND sender_id = $2 AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, userID, peerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

// CountUnread returns the user's unread message total.
func (r *MessageRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND read_at IS NULL`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}
