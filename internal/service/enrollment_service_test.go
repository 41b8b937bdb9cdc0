package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	byID            map[string]*models.Enrollment
	byStudentYear   *models.Enrollment
	history         []models.Enrollment
	bySchoolYear    []models.Enrollment
	created         *models.Enrollment
	updatedStatuses map[string]models.EnrollmentStatus
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return m.history, nil
}

func (m *mockEnrollmentRepo) ListBySchoolYear(ctx context.Context, schoolYear string) ([]models.Enrollment, error) {
	return m.bySchoolYear, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	e, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

func (m *mockEnrollmentRepo) FindByStudentAndYear(ctx context.Context, studentID, schoolYear string) (*models.Enrollment, error) {
	if m.byStudentYear == nil {
		return nil, sql.ErrNoRows
	}
	return m.byStudentYear, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = "enr-new"
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if m.updatedStatuses == nil {
		m.updatedStatuses = make(map[string]models.EnrollmentStatus)
	}
	m.updatedStatuses[id] = status
	return nil
}

type mockEnrollmentStudents struct {
	byUserID    *models.Student
	all         []models.Student
	setEnrolled map[string]bool
}

func (m *mockEnrollmentStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if m.byUserID != nil && m.byUserID.ID == id {
		return m.byUserID, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentStudents) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if m.byUserID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byUserID, nil
}

func (m *mockEnrollmentStudents) SetEnrollmentStatus(ctx context.Context, id string, enrolled bool) error {
	if m.setEnrolled == nil {
		m.setEnrolled = make(map[string]bool)
	}
	m.setEnrolled[id] = enrolled
	return nil
}

func (m *mockEnrollmentStudents) ListAll(ctx context.Context) ([]models.Student, error) {
	return m.all, nil
}

type mockPeriodReader struct {
	period *models.EnrollmentPeriod
}

func (m *mockPeriodReader) FindBySchoolYear(ctx context.Context, schoolYear string) (*models.EnrollmentPeriod, error) {
	if m.period == nil {
		return nil, sql.ErrNoRows
	}
	return m.period, nil
}

type mockUserReader struct {
	user      *models.User
	setActive map[string]bool
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockUserReader) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActive == nil {
		m.setActive = make(map[string]bool)
	}
	m.setActive[id] = active
	return nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) InvalidateDashboard(ctx context.Context) {
	m.calls++
}

func validForm() EnrollmentForm {
	return EnrollmentForm{
		SchoolYear:         "2025-2026",
		GradeLevelToEnroll: "8",
		FirstName:          "Rosa",
		LastName:           "Reyes",
		Sex:                "F",
		DateOfBirth:        "2012-03-15",
		PlaceOfBirth:       "Quezon City",
		MotherTongue:       "Filipino",
		CurrentAddress:     "12 Sampaguita St",
		PermanentAddress:   "12 Sampaguita St",
	}
}

func activePeriod(now time.Time) *models.EnrollmentPeriod {
	return &models.EnrollmentPeriod{
		SchoolYear: "2025-2026",
		StartDate:  now.Add(-24 * time.Hour),
		EndDate:    now.Add(24 * time.Hour),
		IsActive:   true,
	}
}

func newEnrollmentFixture(repo *mockEnrollmentRepo, students *mockEnrollmentStudents, periods *mockPeriodReader) (*EnrollmentService, *mockInvalidator) {
	invalidator := &mockInvalidator{}
	svc := NewEnrollmentService(repo, students, periods, &mockUserReader{}, invalidator, validator.New(), zap.NewNop())
	return svc, invalidator
}

func TestEnrollmentSubmitSuccess(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockEnrollmentRepo{}
	students := &mockEnrollmentStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	svc, invalidator := newEnrollmentFixture(repo, students, &mockPeriodReader{period: activePeriod(now)})

	enrollment, err := svc.Submit(context.Background(), "u1", validForm(), false)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	assert.Equal(t, 8, enrollment.GradeLevelToEnroll)
	assert.Equal(t, "stu1", enrollment.StudentID)
	require.NotNil(t, enrollment.DateOfBirth)
	assert.Equal(t, 1, invalidator.calls)
}

func TestEnrollmentSubmitOutsideWindow(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students := &mockEnrollmentStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	period := activePeriod(time.Now().UTC())
	period.IsActive = false
	svc, _ := newEnrollmentFixture(repo, students, &mockPeriodReader{period: period})

	_, err := svc.Submit(context.Background(), "u1", validForm(), false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEnrollmentClosed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentSubmitAdminBypassesWindow(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students := &mockEnrollmentStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	svc, _ := newEnrollmentFixture(repo, students, &mockPeriodReader{})

	enrollment, err := svc.Submit(context.Background(), "u1", validForm(), true)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
}

func TestEnrollmentSubmitNotPromoted(t *testing.T) {
	notPromoted := false
	repo := &mockEnrollmentRepo{}
	students := &mockEnrollmentStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1", IsPromoted: &notPromoted}}
	svc, _ := newEnrollmentFixture(repo, students, &mockPeriodReader{period: activePeriod(time.Now().UTC())})

	_, err := svc.Submit(context.Background(), "u1", validForm(), false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotPromoted.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentSubmitUnsetPromotionAllowed(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students := &mockEnrollmentStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1", IsPromoted: nil}}
	svc, _ := newEnrollmentFixture(repo, students, &mockPeriodReader{period: activePeriod(time.Now().UTC())})

	_, err := svc.Submit(context.Background(), "u1", validForm(), false)
	require.NoError(t, err)
}

func TestEnrollmentSubmitDuplicatePending(t *testing.T) {
	repo := &mockEnrollmentRepo{byStudentYear: &models.Enrollment{ID: "enr1", Status: models.EnrollmentStatusPending}}
	students := &mockEnrollmentStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	svc, _ := newEnrollmentFixture(repo, students, &mockPeriodReader{period: activePeriod(time.Now().UTC())})

	_, err := svc.Submit(context.Background(), "u1", validForm(), false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentSubmitAfterDecline(t *testing.T) {
	repo := &mockEnrollmentRepo{byStudentYear: &models.Enrollment{ID: "enr1", Status: models.EnrollmentStatusDeclined}}
	students := &mockEnrollmentStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	svc, _ := newEnrollmentFixture(repo, students, &mockPeriodReader{period: activePeriod(time.Now().UTC())})

	_, err := svc.Submit(context.Background(), "u1", validForm(), false)
	require.NoError(t, err)
}

func TestEnrollmentSubmitMissingFields(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students := &mockEnrollmentStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	svc, _ := newEnrollmentFixture(repo, students, &mockPeriodReader{period: activePeriod(time.Now().UTC())})

	form := validForm()
	form.FirstName = ""
	_, err := svc.Submit(context.Background(), "u1", form, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentAccept(t *testing.T) {
	repo := &mockEnrollmentRepo{byID: map[string]*models.Enrollment{
		"enr1": {ID: "enr1", StudentID: "stu1", Status: models.EnrollmentStatusPending},
	}}
	students := &mockEnrollmentStudents{}
	svc, invalidator := newEnrollmentFixture(repo, students, &mockPeriodReader{})

	enrollment, err := svc.Accept(context.Background(), "enr1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.Equal(t, models.EnrollmentStatusEnrolled, repo.updatedStatuses["enr1"])
	assert.True(t, students.setEnrolled["stu1"])
	assert.Equal(t, 1, invalidator.calls)
}

func TestEnrollmentDecideNonPending(t *testing.T) {
	repo := &mockEnrollmentRepo{byID: map[string]*models.Enrollment{
		"enr1": {ID: "enr1", Status: models.EnrollmentStatusEnrolled},
	}}
	svc, _ := newEnrollmentFixture(repo, &mockEnrollmentStudents{}, &mockPeriodReader{})

	_, err := svc.Decline(context.Background(), "enr1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentMarkNotEnrolledRejectsEnrolled(t *testing.T) {
	repo := &mockEnrollmentRepo{byID: map[string]*models.Enrollment{
		"enr1": {ID: "enr1", Status: models.EnrollmentStatusEnrolled},
	}}
	svc, _ := newEnrollmentFixture(repo, &mockEnrollmentStudents{}, &mockPeriodReader{})

	_, err := svc.MarkNotEnrolled(context.Background(), "enr1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentDropEnrolledStudent(t *testing.T) {
	repo := &mockEnrollmentRepo{byID: map[string]*models.Enrollment{
		"enr1": {ID: "enr1", StudentID: "stu1", Status: models.EnrollmentStatusEnrolled},
	}}
	students := &mockEnrollmentStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	users := &mockUserReader{user: &models.User{ID: "u1"}}
	invalidator := &mockInvalidator{}
	svc := NewEnrollmentService(repo, students, &mockPeriodReader{}, users, invalidator, validator.New(), zap.NewNop())

	enrollment, err := svc.Drop(context.Background(), "enr1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusDropped, enrollment.Status)
	assert.Equal(t, models.EnrollmentStatusDropped, repo.updatedStatuses["enr1"])
	assert.False(t, students.setEnrolled["stu1"])
	require.Contains(t, students.setEnrolled, "stu1")
	deactivated, ok := users.setActive["u1"]
	require.True(t, ok)
	assert.False(t, deactivated)
	assert.Equal(t, 1, invalidator.calls)
}

func TestEnrollmentDropRejectsDecided(t *testing.T) {
	repo := &mockEnrollmentRepo{byID: map[string]*models.Enrollment{
		"enr1": {ID: "enr1", StudentID: "stu1", Status: models.EnrollmentStatusDeclined},
	}}
	svc, _ := newEnrollmentFixture(repo, &mockEnrollmentStudents{}, &mockPeriodReader{})

	_, err := svc.Drop(context.Background(), "enr1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentFormDefaultsFromLatest(t *testing.T) {
	dob := time.Date(2012, 3, 15, 0, 0, 0, 0, time.UTC)
	repo := &mockEnrollmentRepo{history: []models.Enrollment{
		{ID: "enr1", StudentID: "stu1", SchoolYear: "2024-2025", FirstName: "Rosa", LastName: "Reyes", Sex: "F", DateOfBirth: &dob, DateSubmitted: time.Now().Add(-time.Hour)},
	}}
	students := &mockEnrollmentStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1", GradeLevel: 8}}
	invalidator := &mockInvalidator{}
	users := &mockUserReader{user: &models.User{ID: "u1", FirstName: "Rosa", LastName: "Reyes"}}
	svc := NewEnrollmentService(repo, students, &mockPeriodReader{}, users, invalidator, validator.New(), zap.NewNop())

	form, err := svc.FormDefaults(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Rosa", form.FirstName)
	assert.Equal(t, "2012-03-15", form.DateOfBirth)
}
