package models

import "time"

// NotificationAudience defines who a broadcast targets.
type NotificationAudience string

const (
	NotificationAudienceAll      NotificationAudience = "ALL"
	NotificationAudienceTeachers NotificationAudience = "TEACHERS"
	NotificationAudienceStudents NotificationAudience = "STUDENTS"
	NotificationAudienceSection  NotificationAudience = "SECTION"
)

// Notification is one delivered notification row. Broadcasts fan out to one
// row per recipient so read state stays per-user.
type Notification struct {
	ID        string               `db:"id" json:"id"`
	UserID    string               `db:"user_id" json:"user_id"`
	Title     string               `db:"title" json:"title"`
	Body      string               `db:"body" json:"body"`
	Audience  NotificationAudience `db:"audience" json:"audience"`
	SenderID  *string              `db:"sender_id" json:"sender_id,omitempty"`
	ReadAt    *time.Time           `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
}

// NotificationFilter lists a user's notifications.
type NotificationFilter struct {
	UserID   string
	Unread   *bool
	Page     int
	PageSize int
}
