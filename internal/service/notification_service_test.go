package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/jobs"
)

type mockNotificationRepo struct {
	recipients []string
	batches    [][]models.Notification
	readIDs    []string
}

func (m *mockNotificationRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	m.batches = append(m.batches, notifications)
	return nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	m.readIDs = append(m.readIDs, id)
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	return nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (m *mockNotificationRepo) RecipientUserIDs(ctx context.Context, audience models.NotificationAudience, sectionID string) ([]string, error) {
	return m.recipients, nil
}

type mockQueue struct {
	jobs []jobs.Job
}

func (m *mockQueue) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

func TestNotificationBroadcastEnqueues(t *testing.T) {
	repo := &mockNotificationRepo{}
	queue := &mockQueue{}
	svc := NewNotificationService(repo, queue, validator.New(), zap.NewNop())

	jobID, err := svc.Broadcast(context.Background(), "admin1", BroadcastInput{
		Title:    "Enrollment opens Monday",
		Body:     "Submit your forms through the portal.",
		Audience: models.NotificationAudienceStudents,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)
	require.Len(t, queue.jobs, 1)
	assert.Empty(t, repo.batches)
}

func TestNotificationBroadcastSectionRequiresSectionID(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Broadcast(context.Background(), "admin1", BroadcastInput{
		Title:    "Homeroom meeting",
		Body:     "Friday, 3pm.",
		Audience: models.NotificationAudienceSection,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationHandleJobFansOutPerRecipient(t *testing.T) {
	repo := &mockNotificationRepo{recipients: []string{"u1", "u2", "u3"}}
	queue := &mockQueue{}
	svc := NewNotificationService(repo, queue, validator.New(), zap.NewNop())

	_, err := svc.Broadcast(context.Background(), "admin1", BroadcastInput{
		Title:    "Report cards released",
		Body:     "Check your grades page.",
		Audience: models.NotificationAudienceStudents,
	})
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)

	err = svc.HandleJob(context.Background(), queue.jobs[0])
	require.NoError(t, err)
	require.Len(t, repo.batches, 1)
	require.Len(t, repo.batches[0], 3)
	assert.Equal(t, "u1", repo.batches[0][0].UserID)
	assert.Equal(t, "Report cards released", repo.batches[0][0].Title)
}

func TestNotificationBroadcastSynchronousWithoutQueue(t *testing.T) {
	repo := &mockNotificationRepo{recipients: []string{"u1"}}
	svc := NewNotificationService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Broadcast(context.Background(), "admin1", BroadcastInput{
		Title:    "Maintenance window",
		Body:     "The portal goes down at midnight.",
		Audience: models.NotificationAudienceAll,
	})
	require.NoError(t, err)
	require.Len(t, repo.batches, 1)
}
