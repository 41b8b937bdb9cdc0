package models

import "time"

// MinGradeLevel and MaxGradeLevel bound the junior high school levels served.
const (
	MinGradeLevel = 7
	MaxGradeLevel = 10
)

// Section is a named class group within one grade level.
// (GradeLevel, SectionName) is unique.
type Section struct {
	ID          string    `db:"id" json:"id"`
	GradeLevel  int       `db:"grade_level" json:"grade_level"`
	SectionName string    `db:"section_name" json:"section_name"`
	AdviserID   *string   `db:"adviser_id" json:"adviser_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SectionDetail includes adviser identity.
type SectionDetail struct {
	Section
	AdviserName *string `db:"adviser_name" json:"adviser_name,omitempty"`
}

// SectionFilter lists sections.
type SectionFilter struct {
	GradeLevel int
	AdviserID  string
	Page       int
	PageSize   int
}
