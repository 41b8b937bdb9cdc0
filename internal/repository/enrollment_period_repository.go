package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/efvillarin/sis-api/internal/models"
)

// EnrollmentPeriodRepository handles persistence for enrollment windows.
type EnrollmentPeriodRepository struct {
	db *sqlx.DB
}

// NewEnrollmentPeriodRepository constructs the repository.
func NewEnrollmentPeriodRepository(db *sqlx.DB) *EnrollmentPeriodRepository {
	return &EnrollmentPeriodRepository{db: db}
}

const periodColumns = `id, school_year, start_date, end_date, is_active, created_at, updated_at`

// List returns all enrollment periods, newest school year first.
func (r *EnrollmentPeriodRepository) List(ctx context.Context) ([]models.EnrollmentPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollment_periods ORDER BY school_year DESC", periodColumns)
	var periods []models.EnrollmentPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list enrollment periods: %w", err)
	}
	return periods, nil
}

// FindByID returns one period.
func (r *EnrollmentPeriodRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollment_periods WHERE id = $1", periodColumns)
	var period models.EnrollmentPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindBySchoolYear returns the period configured for a school year.
func (r *EnrollmentPeriodRepository) FindBySchoolYear(ctx context.Context, schoolYear string) (*models.EnrollmentPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollment_periods WHERE school_year = $1", periodColumns)
	var period models.EnrollmentPeriod
	if err := r.db.GetContext(ctx, &period, query, schoolYear); err != nil {
		return nil, err
	}
	return &period, nil
}

// Create persists a new enrollment period.
func (r *EnrollmentPeriodRepository) Create(ctx context.Context, period *models.EnrollmentPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now
	const query = `INSERT INTO enrollment_periods (id, school_year, start_date, end_date, is_active, created_at, updated_at)
        VALUES (:id, :school_year, :start_date, :end_date, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create enrollment period: %w", err)
	}
	return nil
}

// Update persists window dates and the active toggle.
func (r *EnrollmentPeriodRepository) Update(ctx context.Context, period *models.EnrollmentPeriod) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollment_periods SET start_date = :start_date, end_date = :end_date,
        is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update enrollment period: %w", err)
	}
	return nil
}
