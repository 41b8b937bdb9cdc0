package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
)

type enrollmentPeriodRepository interface {
	List(ctx context.Context) ([]models.EnrollmentPeriod, error)
	FindByID(ctx context.Context, id string) (*models.EnrollmentPeriod, error)
	FindBySchoolYear(ctx context.Context, schoolYear string) (*models.EnrollmentPeriod, error)
	Create(ctx context.Context, period *models.EnrollmentPeriod) error
	Update(ctx context.Context, period *models.EnrollmentPeriod) error
}

// EnrollmentPeriodInput is the admin payload for configuring a window.
type EnrollmentPeriodInput struct {
	SchoolYear string    `json:"school_year" validate:"required"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
	IsActive   bool      `json:"is_active"`
}

// EnrollmentPeriodService manages enrollment window configuration.
type EnrollmentPeriodService struct {
	repo      enrollmentPeriodRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentPeriodService constructs an EnrollmentPeriodService instance.
func NewEnrollmentPeriodService(repo enrollmentPeriodRepository, validate *validator.Validate, logger *zap.Logger) *EnrollmentPeriodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentPeriodService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns every configured period.
func (s *EnrollmentPeriodService) List(ctx context.Context) ([]models.EnrollmentPeriod, error) {
	periods, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment periods")
	}
	return periods, nil
}

// Current returns the period for the school year together with whether it
// currently accepts submissions.
func (s *EnrollmentPeriodService) Current(ctx context.Context, schoolYear string) (*models.EnrollmentPeriod, bool, error) {
	period, err := s.repo.FindBySchoolYear(ctx, schoolYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "no enrollment period configured")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment period")
	}
	return period, period.CurrentlyActive(s.now()), nil
}

// Upsert creates the period for a school year or updates its window.
func (s *EnrollmentPeriodService) Upsert(ctx context.Context, input EnrollmentPeriodInput) (*models.EnrollmentPeriod, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment period payload")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	existing, err := s.repo.FindBySchoolYear(ctx, input.SchoolYear)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment period")
	}

	if existing != nil {
		existing.StartDate = input.StartDate
		existing.EndDate = input.EndDate
		existing.IsActive = input.IsActive
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment period")
		}
		s.logger.Info("enrollment period updated", zap.String("school_year", existing.SchoolYear), zap.Bool("is_active", existing.IsActive))
		return existing, nil
	}

	period := &models.EnrollmentPeriod{
		SchoolYear: input.SchoolYear,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		IsActive:   input.IsActive,
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment period")
	}
	s.logger.Info("enrollment period created", zap.String("school_year", period.SchoolYear))
	return period, nil
}

// SetActive toggles the admin switch without touching the window dates.
func (s *EnrollmentPeriodService) SetActive(ctx context.Context, id string, active bool) (*models.EnrollmentPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment period")
	}
	period.IsActive = active
	if err := s.repo.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment period")
	}
	return period, nil
}
