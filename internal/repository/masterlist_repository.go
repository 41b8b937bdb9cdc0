package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/efvillarin/sis-api/internal/models"
)

// MasterlistRepository handles persistence for section rosters. The section
// reference is stored as a nullable section_id plus a denormalized
// section_name so legacy rows created before sections had IDs still load.
type MasterlistRepository struct {
	db *sqlx.DB
}

// NewMasterlistRepository constructs the repository.
func NewMasterlistRepository(db *sqlx.DB) *MasterlistRepository {
	return &MasterlistRepository{db: db}
}

type masterlistRow struct {
	ID          string         `db:"id"`
	Grade       int            `db:"grade"`
	SectionID   sql.NullString `db:"section_id"`
	SectionName string         `db:"section_name"`
	SchoolYear  string         `db:"school_year"`
	AdviserID   *string        `db:"adviser_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (row masterlistRow) toModel() models.Masterlist {
	ref := models.SectionRef{SectionName: row.SectionName}
	if row.SectionID.Valid {
		ref.ID = row.SectionID.String
	}
	return models.Masterlist{
		ID:         row.ID,
		Grade:      row.Grade,
		Section:    ref,
		SchoolYear: row.SchoolYear,
		AdviserID:  row.AdviserID,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

const masterlistColumns = `id, grade, section_id, section_name, school_year, adviser_id, created_at, updated_at`

// List returns masterlists with rosters and subject-teacher assignments
// hydrated.
func (r *MasterlistRepository) List(ctx context.Context, filter models.MasterlistFilter) ([]models.Masterlist, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Grade > 0 {
		conditions = append(conditions, fmt.Sprintf("grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.SchoolYear != "" {
		conditions = append(conditions, fmt.Sprintf("school_year = $%d", len(args)+1))
		args = append(args, filter.SchoolYear)
	}
	if filter.AdviserID != "" {
		conditions = append(conditions, fmt.Sprintf("adviser_id = $%d", len(args)+1))
		args = append(args, filter.AdviserID)
	}

	query := fmt.Sprintf("SELECT %s FROM masterlists WHERE %s ORDER BY grade ASC, section_name ASC",
		masterlistColumns, strings.Join(conditions, " AND "))

	var rows []masterlistRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list masterlists: %w", err)
	}

	masterlists := make([]models.Masterlist, 0, len(rows))
	for _, row := range rows {
		masterlist := row.toModel()
		if err := r.hydrate(ctx, &masterlist); err != nil {
			return nil, err
		}
		masterlists = append(masterlists, masterlist)
	}
	return masterlists, nil
}

// FindByID returns one masterlist with roster and assignments.
func (r *MasterlistRepository) FindByID(ctx context.Context, id string) (*models.Masterlist, error) {
	query := fmt.Sprintf("SELECT %s FROM masterlists WHERE id = $1", masterlistColumns)
	var row masterlistRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	masterlist := row.toModel()
	if err := r.hydrate(ctx, &masterlist); err != nil {
		return nil, err
	}
	return &masterlist, nil
}

// FindByKey returns the unique masterlist for (grade, section name, school
// year), matching by name so legacy rows resolve too.
func (r *MasterlistRepository) FindByKey(ctx context.Context, grade int, sectionName, schoolYear string) (*models.Masterlist, error) {
	query := fmt.Sprintf(`SELECT %s FROM masterlists
        WHERE grade = $1 AND section_name = $2 AND school_year = $3`, masterlistColumns)
	var row masterlistRow
	if err := r.db.GetContext(ctx, &row, query, grade, sectionName, schoolYear); err != nil {
		return nil, err
	}
	masterlist := row.toModel()
	if err := r.hydrate(ctx, &masterlist); err != nil {
		return nil, err
	}
	return &masterlist, nil
}

// Create persists a new masterlist shell (empty roster).
func (r *MasterlistRepository) Create(ctx context.Context, masterlist *models.Masterlist) error {
	if masterlist.ID == "" {
		masterlist.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	masterlist.CreatedAt = now
	masterlist.UpdatedAt = now

	var sectionID interface{}
	if !masterlist.Section.Legacy() {
		sectionID = masterlist.Section.ID
	}
	const query = `INSERT INTO masterlists (id, grade, section_id, section_name, school_year, adviser_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query, masterlist.ID, masterlist.Grade, sectionID,
		masterlist.Section.Name(), masterlist.SchoolYear, masterlist.AdviserID,
		masterlist.CreatedAt, masterlist.UpdatedAt); err != nil {
		return fmt.Errorf("create masterlist: %w", err)
	}
	return nil
}

// SetAdviser assigns the adviser for the roster.
func (r *MasterlistRepository) SetAdviser(ctx context.Context, id string, adviserID *string) error {
	const query = `UPDATE masterlists SET adviser_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, adviserID, time.Now().UTC()); err != nil {
		return fmt.Errorf("set masterlist adviser: %w", err)
	}
	return nil
}

// AddStudent inserts a roster membership row. Duplicate membership is a no-op.
func (r *MasterlistRepository) AddStudent(ctx context.Context, masterlistID, studentUserID string) error {
	const query = `INSERT INTO masterlist_students (masterlist_id, student_user_id)
        VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, masterlistID, studentUserID); err != nil {
		return fmt.Errorf("add masterlist student: %w", err)
	}
	return nil
}

// RemoveStudent deletes a roster membership row.
func (r *MasterlistRepository) RemoveStudent(ctx context.Context, masterlistID, studentUserID string) error {
	const query = `DELETE FROM masterlist_students WHERE masterlist_id = $1 AND student_user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, masterlistID, studentUserID); err != nil {
		return fmt.Errorf("remove masterlist student: %w", err)
	}
	return nil
}

// AssignSubjectTeacher upserts a subject-teacher assignment for the roster.
func (r *MasterlistRepository) AssignSubjectTeacher(ctx context.Context, masterlistID, subjectID, teacherID string) error {
	const query = `INSERT INTO masterlist_subject_teachers (masterlist_id, subject_id, teacher_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (masterlist_id, subject_id) DO UPDATE SET teacher_id = EXCLUDED.teacher_id`
	if _, err := r.db.ExecContext(ctx, query, masterlistID, subjectID, teacherID); err != nil {
		return fmt.Errorf("assign subject teacher: %w", err)
	}
	return nil
}

// hydrate loads the roster and subject-teacher assignments.
func (r *MasterlistRepository) hydrate(ctx context.Context, masterlist *models.Masterlist) error {
	const studentsQuery = `SELECT student_user_id FROM masterlist_students WHERE masterlist_id = $1 ORDER BY student_user_id`
	if err := r.db.SelectContext(ctx, &masterlist.StudentUserIDs, studentsQuery, masterlist.ID); err != nil {
		return fmt.Errorf("load masterlist students: %w", err)
	}

	const teachersQuery = `SELECT mst.subject_id, sub.subject_name, mst.teacher_id,
        u.first_name || ' ' || u.last_name AS teacher_name
        FROM masterlist_subject_teachers mst
        JOIN subjects sub ON sub.id = mst.subject_id
        JOIN teachers t ON t.id = mst.teacher_id
        JOIN users u ON u.id = t.user_id
        WHERE mst.masterlist_id = $1 ORDER BY sub.subject_name`
	if err := r.db.SelectContext(ctx, &masterlist.SubjectTeachers, teachersQuery, masterlist.ID); err != nil {
		return fmt.Errorf("load subject teachers: %w", err)
	}
	return nil
}
