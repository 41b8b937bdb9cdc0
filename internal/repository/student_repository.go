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

// StudentRepository handles persistence for learner profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentDetailSelect = `SELECT s.id, s.user_id, s.lrn, s.grade_level, s.section_id,
        s.guardian_name, s.guardian_contact, s.is_promoted, s.enrollment_status,
        s.created_at, s.updated_at,
        u.first_name, u.last_name, u.middle_name, u.sex, u.active,
        sec.section_name AS section_name
        FROM students s
        JOIN users u ON u.id = s.user_id
        LEFT JOIN sections sec ON sec.id = s.section_id`

// List returns students joined with their user identity.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.GradeLevel > 0 {
		conditions = append(conditions, fmt.Sprintf("s.grade_level = $%d", len(args)+1))
		args = append(args, filter.GradeLevel)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("s.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.Promoted != nil {
		conditions = append(conditions, fmt.Sprintf("s.is_promoted = $%d", len(args)+1))
		args = append(args, *filter.Promoted)
	}
	if filter.Enrolled != nil {
		conditions = append(conditions, fmt.Sprintf("s.enrollment_status = $%d", len(args)+1))
		args = append(args, *filter.Enrolled)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR s.lrn ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"last_name":   "u.last_name",
		"lrn":         "s.lrn",
		"grade_level": "s.grade_level",
		"created_at":  "s.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "u.last_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT %d OFFSET %d",
		studentDetailSelect, clause, orderBy, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM students s JOIN users u ON u.id = s.user_id" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListAll returns every student profile without pagination. Used by
// reconciliation paths that need the full population.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, user_id, lrn, grade_level, section_id, guardian_name, guardian_contact,
        is_promoted, enrollment_status, created_at, updated_at FROM students`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// FindByID returns one student profile.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, lrn, grade_level, section_id, guardian_name, guardian_contact,
        is_promoted, enrollment_status, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID returns the student profile owned by a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT id, user_id, lrn, grade_level, section_id, guardian_name, guardian_contact,
        is_promoted, enrollment_status, created_at, updated_at FROM students WHERE user_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create persists a new student profile.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, lrn, grade_level, section_id, guardian_name, guardian_contact,
        is_promoted, enrollment_status, created_at, updated_at)
        VALUES (:id, :user_id, :lrn, :grade_level, :section_id, :guardian_name, :guardian_contact,
        :is_promoted, :enrollment_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update persists mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET lrn = :lrn, grade_level = :grade_level, section_id = :section_id,
        guardian_name = :guardian_name, guardian_contact = :guardian_contact,
        is_promoted = :is_promoted, enrollment_status = :enrollment_status, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// SetPromoted records the promotion decision for a student.
func (r *StudentRepository) SetPromoted(ctx context.Context, id string, promoted bool) error {
	const query = `UPDATE students SET is_promoted = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, promoted, time.Now().UTC()); err != nil {
		return fmt.Errorf("set student promoted: %w", err)
	}
	return nil
}

// SetSection assigns or clears the section and enrollment flag together so the
// denormalized pair never drifts apart.
func (r *StudentRepository) SetSection(ctx context.Context, id string, sectionID *string, enrolled bool) error {
	const query = `UPDATE students SET section_id = $2, enrollment_status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, sectionID, enrolled, time.Now().UTC()); err != nil {
		return fmt.Errorf("set student section: %w", err)
	}
	return nil
}

// SetEnrollmentStatus flips the enrolled flag without touching the section.
func (r *StudentRepository) SetEnrollmentStatus(ctx context.Context, id string, enrolled bool) error {
	const query = `UPDATE students SET enrollment_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, enrolled, time.Now().UTC()); err != nil {
		return fmt.Errorf("set student enrollment status: %w", err)
	}
	return nil
}

// CountEnrolled returns the number of students currently flagged enrolled.
func (r *StudentRepository) CountEnrolled(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE enrollment_status = TRUE`); err != nil {
		return 0, fmt.Errorf("count enrolled students: %w", err)
	}
	return count, nil
}

// Count returns the total number of student profiles.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
