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

// SubjectRepository handles persistence for curriculum subjects and their
// teacher assignments (subject_teachers join table).
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectColumns = `id, subject_name, grade_level, created_at, updated_at`

// List returns subjects matching the filter, teacher assignments included.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.GradeLevel > 0 {
		conditions = append(conditions, fmt.Sprintf("s.grade_level = $%d", len(args)+1))
		args = append(args, filter.GradeLevel)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM subject_teachers st WHERE st.subject_id = s.id AND st.teacher_id = $%d)", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("s.subject_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	query := fmt.Sprintf(`SELECT s.id, s.subject_name, s.grade_level, s.created_at, s.updated_at
        FROM subjects s WHERE %s ORDER BY s.grade_level ASC, s.subject_name ASC`,
		strings.Join(conditions, " AND "))

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	for i := range subjects {
		if err := r.loadTeachers(ctx, &subjects[i]); err != nil {
			return nil, err
		}
	}
	return subjects, nil
}

// FindByID returns one subject with teacher assignments.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE id = $1", subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	if err := r.loadTeachers(ctx, &subject); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create persists a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, subject_name, grade_level, created_at, updated_at)
        VALUES (:id, :subject_name, :grade_level, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update persists mutable subject fields.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET subject_name = :subject_name, grade_level = :grade_level,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject and its teacher assignments.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subject_teachers WHERE subject_id = $1`, id); err != nil {
		return fmt.Errorf("delete subject teachers: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

// AddTeacher assigns a teacher to the subject. Duplicate assignment is a no-op.
func (r *SubjectRepository) AddTeacher(ctx context.Context, subjectID, teacherID string) error {
	const query = `INSERT INTO subject_teachers (subject_id, teacher_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, subjectID, teacherID); err != nil {
		return fmt.Errorf("add subject teacher: %w", err)
	}
	return nil
}

// RemoveTeacher unassigns a teacher from the subject.
func (r *SubjectRepository) RemoveTeacher(ctx context.Context, subjectID, teacherID string) error {
	const query = `DELETE FROM subject_teachers WHERE subject_id = $1 AND teacher_id = $2`
	if _, err := r.db.ExecContext(ctx, query, subjectID, teacherID); err != nil {
		return fmt.Errorf("remove subject teacher: %w", err)
	}
	return nil
}

func (r *SubjectRepository) loadTeachers(ctx context.Context, subject *models.Subject) error {
	const query = `SELECT teacher_id FROM subject_teachers WHERE subject_id = $1 ORDER BY teacher_id`
	if err := r.db.SelectContext(ctx, &subject.TeacherIDs, query, subject.ID); err != nil {
		return fmt.Errorf("load subject teachers: %w", err)
	}
	return nil
}
