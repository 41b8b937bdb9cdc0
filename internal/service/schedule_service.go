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

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.Schedule, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

// ScheduleInput is the payload for creating or moving a slot.
type ScheduleInput struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	Day       string `json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// ScheduleService manages recurring teaching slots, rejecting overlaps on
// both the teacher's and the section's timetable.
type ScheduleService struct {
	repo      scheduleRepository
	capHours  float64
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService instance. capHours bounds a
// teacher's weekly load; zero disables the check.
func NewScheduleService(repo scheduleRepository, capHours float64, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScheduleService{repo: repo, capHours: capHours, validator: validate, logger: logger}
}

// List returns schedules with display names.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	schedules, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// Create validates the slot against both timetables and persists it.
func (s *ScheduleService) Create(ctx context.Context, input ScheduleInput) (*models.Schedule, error) {
	schedule, err := s.buildSlot(input, "")
	if err != nil {
		return nil, err
	}
	if err := s.checkConflicts(ctx, schedule); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	s.logger.Info("schedule created",
		zap.String("schedule_id", schedule.ID),
		zap.String("teacher_id", schedule.TeacherID),
		zap.String("day", schedule.Day))
	return schedule, nil
}

// Update moves an existing slot, re-running conflict checks with the slot
// itself excluded.
func (s *ScheduleService) Update(ctx context.Context, id string, input ScheduleInput) (*models.Schedule, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	schedule, err := s.buildSlot(input, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkConflicts(ctx, schedule); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return schedule, nil
}

// Delete removes a slot.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

// TeacherLoad computes a teacher's weekly load against the configured cap.
func (s *ScheduleService) TeacherLoad(ctx context.Context, teacherID string) (TeachingLoad, error) {
	schedules, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return TeachingLoad{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	return ComputeTeachingLoad(teacherID, schedules, s.capHours), nil
}

// TeacherConflicts lists colliding pairs in a teacher's timetable. A healthy
// timetable returns an empty slice; conflicts can only appear through data
// imported outside the service.
func (s *ScheduleService) TeacherConflicts(ctx context.Context, teacherID string) ([]ScheduleConflict, error) {
	schedules, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	return FindConflicts(schedules), nil
}

func (s *ScheduleService) buildSlot(input ScheduleInput, id string) (*models.Schedule, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	schedule := &models.Schedule{
		ID:        id,
		TeacherID: input.TeacherID,
		SectionID: input.SectionID,
		SubjectID: input.SubjectID,
		Day:       input.Day,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	}
	if _, _, err := schedule.Minutes(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot times")
	}
	return schedule, nil
}

func (s *ScheduleService) checkConflicts(ctx context.Context, candidate *models.Schedule) error {
	teacherSlots, err := s.repo.ListByTeacher(ctx, candidate.TeacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher schedule")
	}
	for _, slot := range teacherSlots {
		if slot.ID == candidate.ID {
			continue
		}
		if SlotsOverlap(slot, *candidate) {
			return appErrors.Clone(appErrors.ErrConflict, "slot overlaps the teacher's existing schedule")
		}
	}

	sectionSlots, err := s.repo.ListBySection(ctx, candidate.SectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section schedule")
	}
	for _, slot := range sectionSlots {
		if slot.ID == candidate.ID {
			continue
		}
		if SlotsOverlap(slot, *candidate) {
			return appErrors.Clone(appErrors.ErrConflict, "slot overlaps the section's existing schedule")
		}
	}

	if s.capHours > 0 {
		projected := make([]models.Schedule, 0, len(teacherSlots)+1)
		for _, slot := range teacherSlots {
			if slot.ID != candidate.ID {
				projected = append(projected, slot)
			}
		}
		projected = append(projected, *candidate)
		load := ComputeTeachingLoad(candidate.TeacherID, projected, s.capHours)
		if load.OverCapacity {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "slot would push the teacher past the weekly load cap")
		}
	}
	return nil
}
