package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/export"
)

type masterlistRepository interface {
	List(ctx context.Context, filter models.MasterlistFilter) ([]models.Masterlist, error)
	FindByID(ctx context.Context, id string) (*models.Masterlist, error)
	FindByKey(ctx context.Context, grade int, sectionName, schoolYear string) (*models.Masterlist, error)
	Create(ctx context.Context, masterlist *models.Masterlist) error
	SetAdviser(ctx context.Context, id string, adviserID *string) error
	AddStudent(ctx context.Context, masterlistID, studentUserID string) error
	RemoveStudent(ctx context.Context, masterlistID, studentUserID string) error
	AssignSubjectTeacher(ctx context.Context, masterlistID, subjectID, teacherID string) error
}

type masterlistSectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	FindByGradeAndName(ctx context.Context, gradeLevel int, name string) (*models.Section, error)
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error)
}

type masterlistStudentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	SetSection(ctx context.Context, id string, sectionID *string, enrolled bool) error
}

type masterlistSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type masterlistUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type rosterExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

// MasterlistService manages section rosters. A masterlist is created lazily
// the first time anything touches the (grade, section, schoolYear) key.
type MasterlistService struct {
	repo        masterlistRepository
	sections    masterlistSectionRepository
	students    masterlistStudentRepository
	subjects    masterlistSubjectReader
	users       masterlistUserReader
	exporter    rosterExporter
	invalidator dashboardInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMasterlistService constructs a MasterlistService instance.
func NewMasterlistService(
	repo masterlistRepository,
	sections masterlistSectionRepository,
	students masterlistStudentRepository,
	subjects masterlistSubjectReader,
	users masterlistUserReader,
	exporter rosterExporter,
	invalidator dashboardInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *MasterlistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MasterlistService{
		repo:        repo,
		sections:    sections,
		students:    students,
		subjects:    subjects,
		users:       users,
		exporter:    exporter,
		invalidator: invalidator,
		validator:   validate,
		logger:      logger,
	}
}

// List returns masterlists matching the filter.
func (s *MasterlistService) List(ctx context.Context, filter models.MasterlistFilter) ([]models.Masterlist, error) {
	masterlists, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list masterlists")
	}
	return masterlists, nil
}

// Get returns one masterlist.
func (s *MasterlistService) Get(ctx context.Context, id string) (*models.Masterlist, error) {
	masterlist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "masterlist not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load masterlist")
	}
	return masterlist, nil
}

// Ensure returns the masterlist for the key, creating an empty one when none
// exists yet.
func (s *MasterlistService) Ensure(ctx context.Context, grade int, sectionName, schoolYear string) (*models.Masterlist, error) {
	if grade < models.MinGradeLevel || grade > models.MaxGradeLevel {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade must be between 7 and 10")
	}
	if sectionName == "" || schoolYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section and school year are required")
	}

	masterlist, err := s.repo.FindByKey(ctx, grade, sectionName, schoolYear)
	if err == nil {
		return masterlist, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load masterlist")
	}

	ref := models.SectionRef{SectionName: sectionName}
	if section, err := s.sections.FindByGradeAndName(ctx, grade, sectionName); err == nil {
		ref.ID = section.ID
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section")
	}

	masterlist = &models.Masterlist{
		Grade:          grade,
		Section:        ref,
		SchoolYear:     schoolYear,
		StudentUserIDs: []string{},
	}
	if err := s.repo.Create(ctx, masterlist); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create masterlist")
	}

	s.logger.Info("masterlist created",
		zap.Int("grade", grade),
		zap.String("section", sectionName),
		zap.String("school_year", schoolYear))
	return masterlist, nil
}

// AddStudent places a student on the roster and keeps the denormalized
// Student.SectionID/EnrollmentStatus pair in step.
func (s *MasterlistService) AddStudent(ctx context.Context, masterlistID, studentUserID string) (*models.Masterlist, error) {
	masterlist, err := s.Get(ctx, masterlistID)
	if err != nil {
		return nil, err
	}

	student, err := s.students.FindByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if masterlist.HasStudent(studentUserID) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already on the roster")
	}

	if err := s.repo.AddStudent(ctx, masterlistID, studentUserID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add student to roster")
	}

	var sectionID *string
	if !masterlist.Section.Legacy() {
		id := masterlist.Section.ID
		sectionID = &id
	}
	if err := s.students.SetSection(ctx, student.ID, sectionID, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student section")
	}

	masterlist.StudentUserIDs = append(masterlist.StudentUserIDs, studentUserID)
	s.logger.Info("student added to roster",
		zap.String("masterlist_id", masterlistID),
		zap.String("student_user_id", studentUserID))
	s.invalidate(ctx)
	return masterlist, nil
}

// RemoveStudent takes a student off the roster and clears the denormalized
// section assignment.
func (s *MasterlistService) RemoveStudent(ctx context.Context, masterlistID, studentUserID string) (*models.Masterlist, error) {
	masterlist, err := s.Get(ctx, masterlistID)
	if err != nil {
		return nil, err
	}
	if !masterlist.HasStudent(studentUserID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not on the roster")
	}

	student, err := s.students.FindByUserID(ctx, studentUserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := s.repo.RemoveStudent(ctx, masterlistID, studentUserID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student from roster")
	}

	if student != nil {
		if err := s.students.SetSection(ctx, student.ID, nil, false); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear student section")
		}
	}

	kept := masterlist.StudentUserIDs[:0]
	for _, id := range masterlist.StudentUserIDs {
		if id != studentUserID {
			kept = append(kept, id)
		}
	}
	masterlist.StudentUserIDs = kept
	s.invalidate(ctx)
	return masterlist, nil
}

// SetAdviser assigns the homeroom adviser.
func (s *MasterlistService) SetAdviser(ctx context.Context, masterlistID string, adviserID *string) (*models.Masterlist, error) {
	masterlist, err := s.Get(ctx, masterlistID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetAdviser(ctx, masterlistID, adviserID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set adviser")
	}
	masterlist.AdviserID = adviserID
	return masterlist, nil
}

// AssignSubjectTeacher binds a subject of the masterlist's grade to a teacher.
// The teacher must already be assigned to the subject in the curriculum.
func (s *MasterlistService) AssignSubjectTeacher(ctx context.Context, masterlistID, subjectID, teacherID string) error {
	masterlist, err := s.Get(ctx, masterlistID)
	if err != nil {
		return err
	}

	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if subject.GradeLevel != masterlist.Grade {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject belongs to a different grade level")
	}
	if !subject.HasTeacher(teacherID) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher is not assigned to this subject")
	}

	if err := s.repo.AssignSubjectTeacher(ctx, masterlistID, subjectID, teacherID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign subject teacher")
	}
	return nil
}

// StudentAssignment reconciles where a student stands relative to the
// masterlist of the given key.
func (s *MasterlistService) StudentAssignment(ctx context.Context, studentUserID string, grade int, sectionName, schoolYear string) (StudentAssignment, error) {
	student, err := s.students.FindByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StudentAssignment{}, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return StudentAssignment{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	masterlists, err := s.repo.List(ctx, models.MasterlistFilter{Grade: grade, SchoolYear: schoolYear})
	if err != nil {
		return StudentAssignment{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load masterlists")
	}

	details, err := s.sections.List(ctx, models.SectionFilter{})
	if err != nil {
		return StudentAssignment{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	sections := make([]models.Section, 0, len(details))
	for _, d := range details {
		sections = append(sections, d.Section)
	}

	masterlist := FindMasterlist(masterlists, grade, sectionName)
	return ResolveStudentAssignment(*student, masterlist, sections), nil
}

// ExportCSV renders the roster as a CSV document.
func (s *MasterlistService) ExportCSV(ctx context.Context, masterlistID string) ([]byte, string, error) {
	masterlist, err := s.Get(ctx, masterlistID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"#", "Student Name", "User ID"},
	}
	for i, userID := range masterlist.StudentUserIDs {
		name := userID
		if user, err := s.users.FindByID(ctx, userID); err == nil {
			name = user.FullName()
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"#":            strconv.Itoa(i + 1),
			"Student Name": name,
			"User ID":      userID,
		})
	}

	payload, err := s.exporter.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
	}

	filename := fmt.Sprintf("masterlist-grade%d-%s-%s.csv", masterlist.Grade, masterlist.Section.Name(), masterlist.SchoolYear)
	return payload, filename, nil
}

// Roster changes flip the denormalized enrollment flags feeding the cached
// dashboard aggregate, so they invalidate it the same way decisions do.
func (s *MasterlistService) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidateDashboard(ctx)
	}
}
