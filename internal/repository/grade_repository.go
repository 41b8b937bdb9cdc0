package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/efvillarin/sis-api/internal/models"
)

// GradeRepository handles persistence for grade records. Quarterly marks live
// in grade_subjects, one row per (grade record, subject).
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `id, student_id, school_year, final_grade, remarks, comment, created_at, updated_at`

// FindByStudentAndYear returns the grade record for one student and school
// year, subject marks included.
func (r *GradeRepository) FindByStudentAndYear(ctx context.Context, studentID, schoolYear string) (*models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades WHERE student_id = $1 AND school_year = $2", gradeColumns)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, studentID, schoolYear); err != nil {
		return nil, err
	}
	if err := r.loadSubjects(ctx, &grade); err != nil {
		return nil, err
	}
	return &grade, nil
}

// ListByStudent returns every grade record of one student, per school year.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades WHERE student_id = $1 ORDER BY school_year DESC", gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	for i := range grades {
		if err := r.loadSubjects(ctx, &grades[i]); err != nil {
			return nil, err
		}
	}
	return grades, nil
}

// Create persists an empty grade record for the school year.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	grade.CreatedAt = now
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, school_year, final_grade, remarks, comment, created_at, updated_at)
        VALUES (:id, :student_id, :school_year, :final_grade, :remarks, :comment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade record: %w", err)
	}
	return nil
}

// UpsertSubjectMark writes one quarter mark for one subject, creating the
// subject row on first post. Quarter must be 1..4.
func (r *GradeRepository) UpsertSubjectMark(ctx context.Context, gradeID, subjectID string, quarter int, value float64) error {
	if quarter < 1 || quarter > 4 {
		return fmt.Errorf("upsert subject mark: quarter %d out of range", quarter)
	}
	column := fmt.Sprintf("q%d", quarter)
	query := fmt.Sprintf(`INSERT INTO grade_subjects (grade_id, subject_id, %s)
        VALUES ($1, $2, $3)
        ON CONFLICT (grade_id, subject_id) DO UPDATE SET %s = EXCLUDED.%s`,
		column, column, column)
	if _, err := r.db.ExecContext(ctx, query, gradeID, subjectID, value); err != nil {
		return fmt.Errorf("upsert subject mark: %w", err)
	}
	return nil
}

// UpdateSummary writes the computed final grade, remarks and adviser comment.
func (r *GradeRepository) UpdateSummary(ctx context.Context, gradeID string, finalGrade *float64, remarks, comment string) error {
	const query = `UPDATE grades SET final_grade = $2, remarks = $3, comment = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, gradeID, finalGrade, remarks, comment, time.Now().UTC()); err != nil {
		return fmt.Errorf("update grade summary: %w", err)
	}
	return nil
}

func (r *GradeRepository) loadSubjects(ctx context.Context, grade *models.Grade) error {
	const query = `SELECT gs.subject_id, sub.subject_name, gs.q1, gs.q2, gs.q3, gs.q4
        FROM grade_subjects gs
        JOIN subjects sub ON sub.id = gs.subject_id
        WHERE gs.grade_id = $1 ORDER BY sub.subject_name`
	if err := r.db.SelectContext(ctx, &grade.Subjects, query, grade.ID); err != nil {
		return fmt.Errorf("load grade subjects: %w", err)
	}
	return nil
}
