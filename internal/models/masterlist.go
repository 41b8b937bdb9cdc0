package models

import (
	"encoding/json"
	"time"
)

// SectionRef is the single place that understands both historical shapes of a
// masterlist's section field: legacy records carry a raw section name string,
// newer records a populated section object. Every consumer goes through
// Name() instead of branching on representation.
type SectionRef struct {
	ID          string `json:"id,omitempty"`
	SectionName string `json:"section_name,omitempty"`
}

// Name returns the normalized section name regardless of representation.
func (r SectionRef) Name() string {
	return r.SectionName
}

// Legacy reports whether the reference predates section IDs.
func (r SectionRef) Legacy() bool {
	return r.ID == ""
}

// UnmarshalJSON accepts either "Lily" or {"id":"...","section_name":"Lily"}.
func (r *SectionRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*r = SectionRef{SectionName: name}
		return nil
	}
	type plain SectionRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = SectionRef(p)
	return nil
}

// SubjectTeacher assigns one subject of the masterlist's grade to a teacher.
type SubjectTeacher struct {
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SubjectName string `db:"subject_name" json:"subject_name,omitempty"`
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	TeacherName string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// Masterlist is the authoritative roster for one section in one school year:
// member students (by user ID), the adviser, and subject-teacher assignments.
// At most one masterlist exists per (grade, section, schoolYear); membership
// in StudentUserIDs is the authoritative "assigned to section" signal,
// independent of Student.SectionID.
type Masterlist struct {
	ID             string           `db:"id" json:"id"`
	Grade          int              `db:"grade" json:"grade"`
	Section        SectionRef       `json:"section"`
	SchoolYear     string           `db:"school_year" json:"school_year"`
	AdviserID      *string          `db:"adviser_id" json:"adviser_id,omitempty"`
	StudentUserIDs []string         `json:"students"`
	SubjectTeachers []SubjectTeacher `json:"subject_teachers"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// HasStudent reports membership of a student's user ID in the roster.
func (m Masterlist) HasStudent(userID string) bool {
	for _, id := range m.StudentUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// MasterlistFilter lists masterlists.
type MasterlistFilter struct {
	Grade      int
	SchoolYear string
	AdviserID  string
	Page       int
	PageSize   int
}
