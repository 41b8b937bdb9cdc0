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

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	FindByGradeAndName(ctx context.Context, gradeLevel int, name string) (*models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, id string) error
}

type sectionTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type sectionStudentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
}

// SectionInput is the payload for creating or updating a section.
type SectionInput struct {
	GradeLevel  int     `json:"grade_level" validate:"required,min=7,max=10"`
	SectionName string  `json:"section_name" validate:"required,max=100"`
	AdviserID   *string `json:"adviser_id"`
}

// SectionService manages class sections and their advisers.
type SectionService struct {
	repo      sectionRepository
	teachers  sectionTeacherReader
	students  sectionStudentLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs a SectionService.
func NewSectionService(
	repo sectionRepository,
	teachers sectionTeacherReader,
	students sectionStudentLister,
	validate *validator.Validate,
	logger *zap.Logger,
) *SectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SectionService{
		repo:      repo,
		teachers:  teachers,
		students:  students,
		validator: validate,
		logger:    logger,
	}
}

// List returns sections matching the filter.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error) {
	sections, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// ByGrade groups all sections by grade level for the enrollment and
// masterlist pickers.
func (s *SectionService) ByGrade(ctx context.Context) (map[int][]models.SectionDetail, error) {
	sections, err := s.repo.List(ctx, models.SectionFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	grouped := make(map[int][]models.SectionDetail, models.MaxGradeLevel-models.MinGradeLevel+1)
	for _, section := range sections {
		grouped[section.GradeLevel] = append(grouped[section.GradeLevel], section)
	}
	return grouped, nil
}

// Get returns a single section.
func (s *SectionService) Get(ctx context.Context, id string) (*models.Section, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch section")
	}
	return section, nil
}

// Create registers a new section. (GradeLevel, SectionName) must be unique.
func (s *SectionService) Create(ctx context.Context, input SectionInput) (*models.Section, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section")
	}
	name := strings.TrimSpace(input.SectionName)
	if existing, err := s.repo.FindByGradeAndName(ctx, input.GradeLevel, name); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a section with that name already exists for this grade")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section name")
	}
	if input.AdviserID != nil {
		if err := s.verifyAdviser(ctx, *input.AdviserID); err != nil {
			return nil, err
		}
	}
	section := &models.Section{
		GradeLevel:  input.GradeLevel,
		SectionName: name,
		AdviserID:   input.AdviserID,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	s.logger.Info("section created",
		zap.String("section_id", section.ID),
		zap.Int("grade_level", section.GradeLevel),
		zap.String("section_name", section.SectionName))
	return section, nil
}

// Update renames a section or reassigns its adviser.
func (s *SectionService) Update(ctx context.Context, id string, input SectionInput) (*models.Section, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section")
	}
	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.SectionName)
	if name != section.SectionName || input.GradeLevel != section.GradeLevel {
		if existing, err := s.repo.FindByGradeAndName(ctx, input.GradeLevel, name); err == nil && existing != nil && existing.ID != id {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a section with that name already exists for this grade")
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section name")
		}
	}
	if input.AdviserID != nil {
		if err := s.verifyAdviser(ctx, *input.AdviserID); err != nil {
			return nil, err
		}
	}
	section.GradeLevel = input.GradeLevel
	section.SectionName = name
	section.AdviserID = input.AdviserID
	if err := s.repo.Update(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}
	return section, nil
}

// Delete removes a section. Sections with enrolled students cannot be deleted.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	students, total, err := s.students.List(ctx, models.StudentFilter{SectionID: id, PageSize: 1})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section membership")
	}
	if total > 0 || len(students) > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "section still has assigned students")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	s.logger.Info("section deleted", zap.String("section_id", id))
	return nil
}

func (s *SectionService) verifyAdviser(ctx context.Context, teacherID string) error {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "adviser not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify adviser")
	}
	return nil
}
