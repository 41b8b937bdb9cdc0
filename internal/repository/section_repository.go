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

// SectionRepository handles persistence for class sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionDetailSelect = `SELECT s.id, s.grade_level, s.section_name, s.adviser_id, s.created_at, s.updated_at,
        u.first_name || ' ' || u.last_name AS adviser_name
        FROM sections s
        LEFT JOIN teachers t ON t.id = s.adviser_id
        LEFT JOIN users u ON u.id = t.user_id`

// List returns sections with adviser identity.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.GradeLevel > 0 {
		conditions = append(conditions, fmt.Sprintf("s.grade_level = $%d", len(args)+1))
		args = append(args, filter.GradeLevel)
	}
	if filter.AdviserID != "" {
		conditions = append(conditions, fmt.Sprintf("s.adviser_id = $%d", len(args)+1))
		args = append(args, filter.AdviserID)
	}

	query := sectionDetailSelect + " WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY s.grade_level ASC, s.section_name ASC"

	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindByID returns one section.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, grade_level, section_name, adviser_id, created_at, updated_at FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// FindByGradeAndName returns the section matching the unique pair.
func (r *SectionRepository) FindByGradeAndName(ctx context.Context, gradeLevel int, name string) (*models.Section, error) {
	const query = `SELECT id, grade_level, section_name, adviser_id, created_at, updated_at
        FROM sections WHERE grade_level = $1 AND section_name = $2`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, gradeLevel, name); err != nil {
		return nil, err
	}
	return &section, nil
}

// Create persists a new section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now
	const query = `INSERT INTO sections (id, grade_level, section_name, adviser_id, created_at, updated_at)
        VALUES (:id, :grade_level, :section_name, :adviser_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update persists mutable section fields.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET section_name = :section_name, adviser_id = :adviser_id,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// Count returns the total number of sections.
func (r *SectionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sections`); err != nil {
		return 0, fmt.Errorf("count sections: %w", err)
	}
	return count, nil
}
