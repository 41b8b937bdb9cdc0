package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
)

type mockScheduleRepo struct {
	byID      map[string]*models.Schedule
	byTeacher []models.Schedule
	bySection []models.Schedule
	created   *models.Schedule
	updated   *models.Schedule
	deleted   []string
}

func (m *mockScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	return nil, nil
}

func (m *mockScheduleRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error) {
	return m.byTeacher, nil
}

func (m *mockScheduleRepo) ListBySection(ctx context.Context, sectionID string) ([]models.Schedule, error) {
	return m.bySection, nil
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	sched, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sched, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	schedule.ID = "sch-new"
	m.created = schedule
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, schedule *models.Schedule) error {
	m.updated = schedule
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func slotInput(day, start, end string) ScheduleInput {
	return ScheduleInput{
		TeacherID: "t1",
		SectionID: "sec1",
		SubjectID: "sub1",
		Day:       day,
		StartTime: start,
		EndTime:   end,
	}
}

func TestScheduleCreate(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := NewScheduleService(repo, 0, validator.New(), zap.NewNop())

	schedule, err := svc.Create(context.Background(), slotInput("Monday", "08:00", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, "sch-new", schedule.ID)
	require.NotNil(t, repo.created)
}

func TestScheduleCreateTeacherOverlap(t *testing.T) {
	repo := &mockScheduleRepo{byTeacher: []models.Schedule{
		{ID: "sch1", TeacherID: "t1", SectionID: "other", Day: "Monday", StartTime: "08:30", EndTime: "09:30"},
	}}
	svc := NewScheduleService(repo, 0, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), slotInput("Monday", "08:00", "09:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleCreateSectionOverlap(t *testing.T) {
	repo := &mockScheduleRepo{bySection: []models.Schedule{
		{ID: "sch1", TeacherID: "t2", SectionID: "sec1", Day: "Monday", StartTime: "08:00", EndTime: "09:00"},
	}}
	svc := NewScheduleService(repo, 0, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), slotInput("Monday", "08:30", "09:30"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleCreateBackToBackAllowed(t *testing.T) {
	repo := &mockScheduleRepo{byTeacher: []models.Schedule{
		{ID: "sch1", TeacherID: "t1", SectionID: "sec1", Day: "Monday", StartTime: "08:00", EndTime: "09:00"},
	}}
	svc := NewScheduleService(repo, 0, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), slotInput("Monday", "09:00", "10:00"))
	require.NoError(t, err)
}

func TestScheduleCreateOverLoadCap(t *testing.T) {
	repo := &mockScheduleRepo{byTeacher: []models.Schedule{
		{ID: "sch1", TeacherID: "t1", SectionID: "other", Day: "Monday", StartTime: "08:00", EndTime: "12:00"},
	}}
	svc := NewScheduleService(repo, 5, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), slotInput("Tuesday", "08:00", "10:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestScheduleUpdateDoesNotDoubleCountItself(t *testing.T) {
	existing := models.Schedule{ID: "sch1", TeacherID: "t1", SectionID: "sec1", Day: "Monday", StartTime: "08:00", EndTime: "12:00"}
	repo := &mockScheduleRepo{
		byID:      map[string]*models.Schedule{"sch1": &existing},
		byTeacher: []models.Schedule{existing},
		bySection: []models.Schedule{existing},
	}
	svc := NewScheduleService(repo, 5, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "sch1", slotInput("Monday", "08:00", "12:30"))
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, "12:30", repo.updated.EndTime)
}

func TestScheduleCreateBadTimes(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := NewScheduleService(repo, 0, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), slotInput("Monday", "10:00", "09:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleTeacherLoad(t *testing.T) {
	repo := &mockScheduleRepo{byTeacher: []models.Schedule{
		{ID: "sch1", TeacherID: "t1", Day: "Monday", StartTime: "08:00", EndTime: "10:00"},
		{ID: "sch2", TeacherID: "t1", Day: "Tuesday", StartTime: "08:00", EndTime: "09:30"},
	}}
	svc := NewScheduleService(repo, 10, validator.New(), zap.NewNop())

	load, err := svc.TeacherLoad(context.Background(), "t1")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, load.TotalHours, 0.01)
	assert.False(t, load.OverCapacity)
}
