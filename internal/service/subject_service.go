package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
	AddTeacher(ctx context.Context, subjectID, teacherID string) error
	RemoveTeacher(ctx context.Context, subjectID, teacherID string) error
}

type subjectTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// SubjectInput is the payload for creating or renaming a subject.
type SubjectInput struct {
	SubjectName string `json:"subject_name" validate:"required"`
	GradeLevel  int    `json:"grade_level" validate:"required,min=7,max=10"`
}

// SubjectService manages the curriculum and subject-teacher assignments.
type SubjectService struct {
	repo      subjectRepository
	teachers  subjectTeacherReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService instance.
func NewSubjectService(repo subjectRepository, teachers subjectTeacherReader, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns curriculum subjects.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Get returns one subject.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a subject to the curriculum.
func (s *SubjectService) Create(ctx context.Context, input SubjectInput) (*models.Subject, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := &models.Subject{
		SubjectName: input.SubjectName,
		GradeLevel:  input.GradeLevel,
		TeacherIDs:  []string{},
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.logger.Info("subject created", zap.String("subject_id", subject.ID), zap.Int("grade_level", subject.GradeLevel))
	return subject, nil
}

// Update renames or re-levels a subject.
func (s *SubjectService) Update(ctx context.Context, id string, input SubjectInput) (*models.Subject, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject.SubjectName = input.SubjectName
	subject.GradeLevel = input.GradeLevel
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// Delete removes a subject from the curriculum.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

// AssignTeacher allows a teacher to post grades for the subject.
func (s *SubjectService) AssignTeacher(ctx context.Context, subjectID, teacherID string) (*models.Subject, error) {
	subject, err := s.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if subject.HasTeacher(teacherID) {
		return subject, nil
	}
	if err := s.repo.AddTeacher(ctx, subjectID, teacherID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}
	subject.TeacherIDs = append(subject.TeacherIDs, teacherID)
	return subject, nil
}

// UnassignTeacher removes a teacher from the subject.
func (s *SubjectService) UnassignTeacher(ctx context.Context, subjectID, teacherID string) (*models.Subject, error) {
	subject, err := s.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if !subject.HasTeacher(teacherID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher is not assigned to this subject")
	}
	if err := s.repo.RemoveTeacher(ctx, subjectID, teacherID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign teacher")
	}
	kept := subject.TeacherIDs[:0]
	for _, id := range subject.TeacherIDs {
		if id != teacherID {
			kept = append(kept, id)
		}
	}
	subject.TeacherIDs = kept
	return subject, nil
}
