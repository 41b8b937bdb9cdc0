package models

import "time"

// Message is a direct message between two users.
type Message struct {
	ID         string     `db:"id" json:"id"`
	SenderID   string     `db:"sender_id" json:"sender_id"`
	ReceiverID string     `db:"receiver_id" json:"receiver_id"`
	Body       string     `db:"body" json:"body"`
	ReadAt     *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// MessageDetail includes sender/receiver names for rendering threads.
type MessageDetail struct {
	Message
	SenderName   string `db:"sender_name" json:"sender_name"`
	ReceiverName string `db:"receiver_name" json:"receiver_name"`
}

// MessageFilter lists messages of a conversation or inbox.
type MessageFilter struct {
	UserID   string
	PeerID   string
	Unread   *bool
	Page     int
	PageSize int
}
