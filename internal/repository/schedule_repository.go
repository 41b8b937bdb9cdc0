package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/efvillarin/sis-api/internal/models"
)

// ScheduleRepository handles persistence for recurring teaching slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleDetailSelect = `SELECT sc.id, sc.teacher_id, sc.section_id, sc.subject_id, sc.day,
        sc.start_time, sc.end_time, sc.created_at, sc.updated_at,
        u.first_name || ' ' || u.last_name AS teacher_name,
        sec.section_name AS section_name,
        sub.subject_name AS subject_name
        FROM schedules sc
        JOIN teachers t ON t.id = sc.teacher_id
        JOIN users u ON u.id = t.user_id
        JOIN sections sec ON sec.id = sc.section_id
        JOIN subjects sub ON sub.id = sc.subject_id`

// List returns schedules with display names.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("sc.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("sc.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("sc.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("sc.day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}

	query := scheduleDetailSelect + " WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY sc.day ASC, sc.start_time ASC"

	var schedules []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// ListByTeacher returns the bare slots of one teacher, for conflict and load
// computation.
func (r *ScheduleRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error) {
	const query = `SELECT id, teacher_id, section_id, subject_id, day, start_time, end_time, created_at, updated_at
        FROM schedules WHERE teacher_id = $1 ORDER BY day ASC, start_time ASC`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher schedules: %w", err)
	}
	return schedules, nil
}

// ListBySection returns the bare slots of one section.
func (r *ScheduleRepository) ListBySection(ctx context.Context, sectionID string) ([]models.Schedule, error) {
	const query = `SELECT id, teacher_id, section_id, subject_id, day, start_time, end_time, created_at, updated_at
        FROM schedules WHERE section_id = $1 ORDER BY day ASC, start_time ASC`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section schedules: %w", err)
	}
	return schedules, nil
}

// FindByID returns one schedule slot.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, teacher_id, section_id, subject_id, day, start_time, end_time, created_at, updated_at
        FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create persists a new schedule slot.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	const query = `INSERT INTO schedules (id, teacher_id, section_id, subject_id, day, start_time, end_time, created_at, updated_at)
        VALUES (:id, :teacher_id, :section_id, :subject_id, :day, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update persists mutable slot fields.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET teacher_id = :teacher_id, section_id = :section_id,
        subject_id = :subject_id, day = :day, start_time = :start_time, end_time = :end_time,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule slot.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
