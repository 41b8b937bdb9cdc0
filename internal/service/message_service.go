package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
)

type messageRepository interface {
	Conversation(ctx context.Context, userID, peerID string, page, pageSize int) ([]models.MessageDetail, error)
	Inbox(ctx context.Context, userID string) ([]models.MessageDetail, error)
	Create(ctx context.Context, message *models.Message) error
	MarkRead(ctx context.Context, userID, peerID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

type messageUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// SendMessageInput is a direct message payload.
type SendMessageInput struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Body       string `json:"body" validate:"required,max=2000"`
}

// MessageService handles direct messaging between users.
type MessageService struct {
	repo      messageRepository
	users     messageUserReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs a MessageService instance.
func NewMessageService(repo messageRepository, users messageUserReader, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MessageService{repo: repo, users: users, validator: validate, logger: logger}
}

// Send delivers a direct message. Opening a conversation with yourself or an
// inactive account is rejected.
func (s *MessageService) Send(ctx context.Context, senderID string, input SendMessageInput) (*models.Message, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message body is empty")
	}
	if input.ReceiverID == senderID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot message yourself")
	}

	receiver, err := s.users.FindByID(ctx, input.ReceiverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
	}
	if !receiver.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "recipient account is inactive")
	}

	message := &models.Message{
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		Body:       input.Body,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}

	s.logger.Info("message sent", zap.String("message_id", message.ID), zap.String("receiver_id", message.ReceiverID))
	return message, nil
}

// Conversation returns the thread between the user and a peer and marks the
// peer's messages read.
func (s *MessageService) Conversation(ctx context.Context, userID, peerID string, page, pageSize int) ([]models.MessageDetail, error) {
	messages, err := s.repo.Conversation(ctx, userID, peerID, page, pageSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conversation")
	}
	if err := s.repo.MarkRead(ctx, userID, peerID); err != nil {
		s.logger.Warn("failed to mark conversation read", zap.Error(err))
	}
	return messages, nil
}

// Inbox returns the latest message of each of the user's conversations.
func (s *MessageService) Inbox(ctx context.Context, userID string) ([]models.MessageDetail, error) {
	messages, err := s.repo.Inbox(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inbox")
	}
	return messages, nil
}

// UnreadCount returns the number of unread messages.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread messages")
	}
	return count, nil
}
