package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/jobs"
)

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
	RecipientUserIDs(ctx context.Context, audience models.NotificationAudience, sectionID string) ([]string, error)
}

type notificationQueue interface {
	Enqueue(job jobs.Job) error
}

// BroadcastInput is an admin/teacher announcement payload.
type BroadcastInput struct {
	Title     string                      `json:"title" validate:"required,max=200"`
	Body      string                      `json:"body" validate:"required,max=2000"`
	Audience  models.NotificationAudience `json:"audience" validate:"required,oneof=ALL TEACHERS STUDENTS SECTION"`
	SectionID string                      `json:"section_id" validate:"required_if=Audience SECTION"`
}

type broadcastPayload struct {
	Input    BroadcastInput
	SenderID string
}

// NotificationService broadcasts announcements, fanning out one row per
// recipient through the background queue so large audiences do not block the
// request.
type NotificationService struct {
	repo      notificationRepository
	queue     notificationQueue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs a NotificationService instance.
func NewNotificationService(repo notificationRepository, queue notificationQueue, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &NotificationService{repo: repo, queue: queue, validator: validate, logger: logger}
}

// JobType is the queue job type the service handles.
const notificationJobType = "notification.broadcast"

// Broadcast validates and enqueues an announcement for asynchronous fan-out.
func (s *NotificationService) Broadcast(ctx context.Context, senderID string, input BroadcastInput) (string, error) {
	if err := s.validator.Struct(input); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid broadcast payload")
	}

	jobID := uuid.NewString()
	job := jobs.Job{
		ID:      jobID,
		Type:    notificationJobType,
		Payload: broadcastPayload{Input: input, SenderID: senderID},
	}
	if s.queue != nil {
		if err := s.queue.Enqueue(job); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue broadcast")
		}
		s.logger.Info("broadcast enqueued",
			zap.String("job_id", jobID),
			zap.String("audience", string(input.Audience)))
		return jobID, nil
	}

	// No queue wired (tests, one-shot tools): deliver synchronously.
	if err := s.deliver(ctx, senderID, input); err != nil {
		return "", err
	}
	return jobID, nil
}

// HandleJob is the queue handler performing the actual fan-out.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(broadcastPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}
	return s.deliver(ctx, payload.SenderID, payload.Input)
}

// List returns the user's notifications.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	notifications, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead stamps one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead stamps every unread notification of a user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	return count, nil
}

func (s *NotificationService) deliver(ctx context.Context, senderID string, input BroadcastInput) error {
	recipients, err := s.repo.RecipientUserIDs(ctx, input.Audience, input.SectionID)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		s.logger.Warn("broadcast resolved to no recipients", zap.String("audience", string(input.Audience)))
		return nil
	}

	notifications := make([]models.Notification, 0, len(recipients))
	var sender *string
	if senderID != "" {
		sender = &senderID
	}
	for _, userID := range recipients {
		notifications = append(notifications, models.Notification{
			UserID:   userID,
			Title:    input.Title,
			Body:     input.Body,
			Audience: input.Audience,
			SenderID: sender,
		})
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("persist notifications: %w", err)
	}

	s.logger.Info("broadcast delivered",
		zap.String("audience", string(input.Audience)),
		zap.Int("recipients", len(recipients)))
	return nil
}
