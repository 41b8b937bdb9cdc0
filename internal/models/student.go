package models

import "time"

// Student represents a learner profile linked 1:1 to a user account.
//
// IsPromoted is deliberately tri-state: nil means the promotion decision has
// not been made yet, which must not be confused with an explicit false.
// EnrollmentStatus is the denormalized "currently enrolled" flag kept in step
// with masterlist membership by the masterlist service.
type Student struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	LRN              string    `db:"lrn" json:"lrn"`
	GradeLevel       int       `db:"grade_level" json:"grade_level"`
	SectionID        *string   `db:"section_id" json:"section_id,omitempty"`
	GuardianName     string    `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianContact  string    `db:"guardian_contact" json:"guardian_contact,omitempty"`
	IsPromoted       *bool     `db:"is_promoted" json:"is_promoted,omitempty"`
	EnrollmentStatus bool      `db:"enrollment_status" json:"enrollment_status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the student with user identity and section context.
type StudentDetail struct {
	Student
	FirstName   string  `db:"first_name" json:"first_name"`
	LastName    string  `db:"last_name" json:"last_name"`
	MiddleName  string  `db:"middle_name" json:"middle_name,omitempty"`
	Sex         string  `db:"sex" json:"sex"`
	Active      bool    `db:"active" json:"active"`
	SectionName *string `db:"section_name" json:"section_name,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	GradeLevel int
	SectionID  string
	Promoted   *bool
	Enrolled   *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
