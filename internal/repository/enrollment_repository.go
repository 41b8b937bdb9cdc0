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

// EnrollmentRepository handles persistence for enrollment applications.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, student_id, school_year, grade_level_to_enroll, with_lrn, returning,
        first_name, last_name, middle_name, extension_name, sex, date_of_birth, place_of_birth,
        mother_tongue, current_address, permanent_address,
        last_grade_level_completed, last_school_year_completed, last_school_enrolled, school_id,
        status, date_submitted, created_at, updated_at`

// List returns enrollments matching the filter.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SchoolYear != "" {
		conditions = append(conditions, fmt.Sprintf("e.school_year = $%d", len(args)+1))
		args = append(args, filter.SchoolYear)
	}
	if filter.GradeLevel > 0 {
		conditions = append(conditions, fmt.Sprintf("e.grade_level_to_enroll = $%d", len(args)+1))
		args = append(args, filter.GradeLevel)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"date_submitted": "e.date_submitted",
		"last_name":      "e.last_name",
		"grade_level":    "e.grade_level_to_enroll",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.date_submitted"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	cols := prefixColumns(enrollmentColumns, "e")
	query := fmt.Sprintf(`SELECT %s, s.lrn AS student_lrn,
        u.first_name || ' ' || u.last_name AS student_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN users u ON u.id = s.user_id%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		cols, clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM enrollments e" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// ListByStudent returns every application of one student, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE student_id = $1 ORDER BY date_submitted DESC, id DESC", enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListBySchoolYear returns every application for one school year.
func (r *EnrollmentRepository) ListBySchoolYear(ctx context.Context, schoolYear string) ([]models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE school_year = $1", enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, schoolYear); err != nil {
		return nil, fmt.Errorf("list school year enrollments: %w", err)
	}
	return enrollments, nil
}

// FindByID returns one enrollment application.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByStudentAndYear returns the student's application for one school year,
// if any. Multiple rows resolve to the newest submission with the greatest ID.
func (r *EnrollmentRepository) FindByStudentAndYear(ctx context.Context, studentID, schoolYear string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE student_id = $1 AND school_year = $2
        ORDER BY date_submitted DESC, id DESC LIMIT 1`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, schoolYear); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create persists a new enrollment application.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, student_id, school_year, grade_level_to_enroll, with_lrn, returning,
        first_name, last_name, middle_name, extension_name, sex, date_of_birth, place_of_birth,
        mother_tongue, current_address, permanent_address,
        last_grade_level_completed, last_school_year_completed, last_school_enrolled, school_id,
        status, date_submitted, created_at, updated_at)
        VALUES (:id, :student_id, :school_year, :grade_level_to_enroll, :with_lrn, :returning,
        :first_name, :last_name, :middle_name, :extension_name, :sex, :date_of_birth, :place_of_birth,
        :mother_tongue, :current_address, :permanent_address,
        :last_grade_level_completed, :last_school_year_completed, :last_school_enrolled, :school_id,
        :status, :date_submitted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateStatus transitions the application status.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// CountByStatus aggregates one school year's applications into status
// buckets. The not-enrolled bucket counts only students whose promotion flag
// is explicitly false, the same partition service.CountByStatus derives from
// loaded rows.
func (r *EnrollmentRepository) CountByStatus(ctx context.Context, schoolYear string) (models.EnrollmentCounts, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE e.status = 'ENROLLED') AS enrolled,
        COUNT(*) FILTER (WHERE e.status = 'PENDING') AS pending,
        COUNT(*) FILTER (WHERE e.status = 'NOT_ENROLLED' AND s.is_promoted = FALSE) AS not_enrolled
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.school_year = $1`
	var counts models.EnrollmentCounts
	row := struct {
		Enrolled    int `db:"enrolled"`
		Pending     int `db:"pending"`
		NotEnrolled int `db:"not_enrolled"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, schoolYear); err != nil {
		return counts, fmt.Errorf("count enrollments by status: %w", err)
	}
	counts.Enrolled = row.Enrolled
	counts.Pending = row.Pending
	counts.NotEnrolled = row.NotEnrolled
	return counts, nil
}

// prefixColumns rewrites a bare column list to alias-qualified form.
func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
