package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/export"
)

type mockMasterlistRepo struct {
	byID        map[string]*models.Masterlist
	byKey       *models.Masterlist
	listed      []models.Masterlist
	created     *models.Masterlist
	added       []string
	removed     []string
	assignments map[string]string
	adviserID   *string
}

func (m *mockMasterlistRepo) List(ctx context.Context, filter models.MasterlistFilter) ([]models.Masterlist, error) {
	return m.listed, nil
}

func (m *mockMasterlistRepo) FindByID(ctx context.Context, id string) (*models.Masterlist, error) {
	ml, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return ml, nil
}

func (m *mockMasterlistRepo) FindByKey(ctx context.Context, grade int, sectionName, schoolYear string) (*models.Masterlist, error) {
	if m.byKey == nil {
		return nil, sql.ErrNoRows
	}
	return m.byKey, nil
}

func (m *mockMasterlistRepo) Create(ctx context.Context, masterlist *models.Masterlist) error {
	masterlist.ID = "ml-new"
	m.created = masterlist
	return nil
}

func (m *mockMasterlistRepo) SetAdviser(ctx context.Context, id string, adviserID *string) error {
	m.adviserID = adviserID
	return nil
}

func (m *mockMasterlistRepo) AddStudent(ctx context.Context, masterlistID, studentUserID string) error {
	m.added = append(m.added, studentUserID)
	return nil
}

func (m *mockMasterlistRepo) RemoveStudent(ctx context.Context, masterlistID, studentUserID string) error {
	m.removed = append(m.removed, studentUserID)
	return nil
}

func (m *mockMasterlistRepo) AssignSubjectTeacher(ctx context.Context, masterlistID, subjectID, teacherID string) error {
	if m.assignments == nil {
		m.assignments = make(map[string]string)
	}
	m.assignments[subjectID] = teacherID
	return nil
}

type mockMasterlistSections struct {
	byGradeAndName *models.Section
	listed         []models.SectionDetail
}

func (m *mockMasterlistSections) FindByID(ctx context.Context, id string) (*models.Section, error) {
	return nil, sql.ErrNoRows
}

func (m *mockMasterlistSections) FindByGradeAndName(ctx context.Context, gradeLevel int, name string) (*models.Section, error) {
	if m.byGradeAndName == nil {
		return nil, sql.ErrNoRows
	}
	return m.byGradeAndName, nil
}

func (m *mockMasterlistSections) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error) {
	return m.listed, nil
}

type mockMasterlistStudents struct {
	byUserID     *models.Student
	setSectionID *string
	setEnrolled  *bool
}

func (m *mockMasterlistStudents) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if m.byUserID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byUserID, nil
}

func (m *mockMasterlistStudents) SetSection(ctx context.Context, id string, sectionID *string, enrolled bool) error {
	m.setSectionID = sectionID
	m.setEnrolled = &enrolled
	return nil
}

type mockMasterlistSubjects struct {
	subject *models.Subject
}

func (m *mockMasterlistSubjects) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if m.subject == nil {
		return nil, sql.ErrNoRows
	}
	return m.subject, nil
}

type mockMasterlistUsers struct {
	users map[string]*models.User
}

func (m *mockMasterlistUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func newMasterlistFixture(repo *mockMasterlistRepo, sections *mockMasterlistSections, students *mockMasterlistStudents, subjects *mockMasterlistSubjects, users *mockMasterlistUsers) *MasterlistService {
	if sections == nil {
		sections = &mockMasterlistSections{}
	}
	if students == nil {
		students = &mockMasterlistStudents{}
	}
	if subjects == nil {
		subjects = &mockMasterlistSubjects{}
	}
	if users == nil {
		users = &mockMasterlistUsers{}
	}
	return NewMasterlistService(repo, sections, students, subjects, users, export.NewCSVExporter(), nil, validator.New(), zap.NewNop())
}

func TestMasterlistEnsureCreatesLazily(t *testing.T) {
	repo := &mockMasterlistRepo{}
	sections := &mockMasterlistSections{byGradeAndName: &models.Section{ID: "sec1", GradeLevel: 8, SectionName: "Rose"}}
	svc := newMasterlistFixture(repo, sections, nil, nil, nil)

	masterlist, err := svc.Ensure(context.Background(), 8, "Rose", "2025-2026")
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "sec1", masterlist.Section.ID)
	assert.False(t, masterlist.Section.Legacy())
	assert.Empty(t, masterlist.StudentUserIDs)
}

func TestMasterlistEnsureLegacySection(t *testing.T) {
	repo := &mockMasterlistRepo{}
	svc := newMasterlistFixture(repo, &mockMasterlistSections{}, nil, nil, nil)

	masterlist, err := svc.Ensure(context.Background(), 9, "Orchid", "2025-2026")
	require.NoError(t, err)
	assert.True(t, masterlist.Section.Legacy())
	assert.Equal(t, "Orchid", masterlist.Section.Name())
}

func TestMasterlistEnsureReturnsExisting(t *testing.T) {
	existing := &models.Masterlist{ID: "ml1", Grade: 8, Section: models.SectionRef{SectionName: "Rose"}, SchoolYear: "2025-2026"}
	repo := &mockMasterlistRepo{byKey: existing}
	svc := newMasterlistFixture(repo, nil, nil, nil, nil)

	masterlist, err := svc.Ensure(context.Background(), 8, "Rose", "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, "ml1", masterlist.ID)
	assert.Nil(t, repo.created)
}

func TestMasterlistAddStudentUpdatesSection(t *testing.T) {
	repo := &mockMasterlistRepo{byID: map[string]*models.Masterlist{
		"ml1": {ID: "ml1", Grade: 8, Section: models.SectionRef{ID: "sec1", SectionName: "Rose"}},
	}}
	students := &mockMasterlistStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	svc := newMasterlistFixture(repo, nil, students, nil, nil)

	masterlist, err := svc.AddStudent(context.Background(), "ml1", "u1")
	require.NoError(t, err)
	assert.Contains(t, masterlist.StudentUserIDs, "u1")
	require.NotNil(t, students.setSectionID)
	assert.Equal(t, "sec1", *students.setSectionID)
	require.NotNil(t, students.setEnrolled)
	assert.True(t, *students.setEnrolled)
}

func TestMasterlistAddStudentLegacyKeepsNilSection(t *testing.T) {
	repo := &mockMasterlistRepo{byID: map[string]*models.Masterlist{
		"ml1": {ID: "ml1", Grade: 8, Section: models.SectionRef{SectionName: "Orchid"}},
	}}
	students := &mockMasterlistStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	svc := newMasterlistFixture(repo, nil, students, nil, nil)

	_, err := svc.AddStudent(context.Background(), "ml1", "u1")
	require.NoError(t, err)
	assert.Nil(t, students.setSectionID)
	require.NotNil(t, students.setEnrolled)
	assert.True(t, *students.setEnrolled)
}

func TestMasterlistAddStudentDuplicate(t *testing.T) {
	repo := &mockMasterlistRepo{byID: map[string]*models.Masterlist{
		"ml1": {ID: "ml1", Grade: 8, StudentUserIDs: []string{"u1"}},
	}}
	students := &mockMasterlistStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	svc := newMasterlistFixture(repo, nil, students, nil, nil)

	_, err := svc.AddStudent(context.Background(), "ml1", "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestMasterlistRemoveStudentClearsSection(t *testing.T) {
	repo := &mockMasterlistRepo{byID: map[string]*models.Masterlist{
		"ml1": {ID: "ml1", Grade: 8, StudentUserIDs: []string{"u1", "u2"}},
	}}
	students := &mockMasterlistStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	svc := newMasterlistFixture(repo, nil, students, nil, nil)

	masterlist, err := svc.RemoveStudent(context.Background(), "ml1", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, masterlist.StudentUserIDs)
	assert.Nil(t, students.setSectionID)
	require.NotNil(t, students.setEnrolled)
	assert.False(t, *students.setEnrolled)
}

func TestMasterlistRosterChangesInvalidateDashboard(t *testing.T) {
	repo := &mockMasterlistRepo{byID: map[string]*models.Masterlist{
		"ml1": {ID: "ml1", Grade: 8, Section: models.SectionRef{ID: "sec1", SectionName: "Rose"}},
	}}
	students := &mockMasterlistStudents{byUserID: &models.Student{ID: "stu1", UserID: "u1"}}
	invalidator := &mockInvalidator{}
	svc := NewMasterlistService(repo, &mockMasterlistSections{}, students, &mockMasterlistSubjects{}, &mockMasterlistUsers{}, export.NewCSVExporter(), invalidator, validator.New(), zap.NewNop())

	_, err := svc.AddStudent(context.Background(), "ml1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, invalidator.calls)

	_, err = svc.RemoveStudent(context.Background(), "ml1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, invalidator.calls)
}

func TestMasterlistAssignSubjectTeacher(t *testing.T) {
	repo := &mockMasterlistRepo{byID: map[string]*models.Masterlist{
		"ml1": {ID: "ml1", Grade: 8},
	}}
	subjects := &mockMasterlistSubjects{subject: &models.Subject{ID: "sub1", GradeLevel: 8, TeacherIDs: []string{"t1"}}}
	svc := newMasterlistFixture(repo, nil, nil, subjects, nil)

	err := svc.AssignSubjectTeacher(context.Background(), "ml1", "sub1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", repo.assignments["sub1"])
}

func TestMasterlistAssignSubjectTeacherWrongGrade(t *testing.T) {
	repo := &mockMasterlistRepo{byID: map[string]*models.Masterlist{
		"ml1": {ID: "ml1", Grade: 8},
	}}
	subjects := &mockMasterlistSubjects{subject: &models.Subject{ID: "sub1", GradeLevel: 9, TeacherIDs: []string{"t1"}}}
	svc := newMasterlistFixture(repo, nil, nil, subjects, nil)

	err := svc.AssignSubjectTeacher(context.Background(), "ml1", "sub1", "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestMasterlistAssignSubjectTeacherNotOnSubject(t *testing.T) {
	repo := &mockMasterlistRepo{byID: map[string]*models.Masterlist{
		"ml1": {ID: "ml1", Grade: 8},
	}}
	subjects := &mockMasterlistSubjects{subject: &models.Subject{ID: "sub1", GradeLevel: 8}}
	svc := newMasterlistFixture(repo, nil, nil, subjects, nil)

	err := svc.AssignSubjectTeacher(context.Background(), "ml1", "sub1", "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestMasterlistExportCSV(t *testing.T) {
	repo := &mockMasterlistRepo{byID: map[string]*models.Masterlist{
		"ml1": {ID: "ml1", Grade: 8, Section: models.SectionRef{SectionName: "Rose"}, SchoolYear: "2025-2026", StudentUserIDs: []string{"u1"}},
	}}
	users := &mockMasterlistUsers{users: map[string]*models.User{
		"u1": {ID: "u1", FirstName: "Rosa", LastName: "Reyes"},
	}}
	svc := newMasterlistFixture(repo, nil, nil, nil, users)

	payload, filename, err := svc.ExportCSV(context.Background(), "ml1")
	require.NoError(t, err)
	assert.Equal(t, "masterlist-grade8-Rose-2025-2026.csv", filename)
	assert.True(t, strings.Contains(string(payload), "Rosa"))
}
