package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment application.
type EnrollmentStatus string

// Possible enrollment statuses. NOT_ENROLLED is assigned to applications of
// promoted students who never completed enrollment for the school year, not
// reached by a transition from PENDING. DROPPED marks an admin removal of a
// pending or enrolled student mid-year and also deactivates the account.
const (
	EnrollmentStatusPending     EnrollmentStatus = "PENDING"
	EnrollmentStatusEnrolled    EnrollmentStatus = "ENROLLED"
	EnrollmentStatusDeclined    EnrollmentStatus = "DECLINED"
	EnrollmentStatusNotEnrolled EnrollmentStatus = "NOT_ENROLLED"
	EnrollmentStatusDropped     EnrollmentStatus = "DROPPED"
)

// Enrollment captures one enrollment application. Personal information is a
// snapshot taken at submission time and intentionally duplicates user fields:
// later edits to the user record must not rewrite submitted applications.
type Enrollment struct {
	ID                 string  `db:"id" json:"id"`
	StudentID          string  `db:"student_id" json:"student_id"`
	SchoolYear         string  `db:"school_year" json:"school_year"`
	GradeLevelToEnroll int     `db:"grade_level_to_enroll" json:"grade_level_to_enroll"`
	WithLRN            bool    `db:"with_lrn" json:"with_lrn"`
	Returning          bool    `db:"returning" json:"returning"`

	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	MiddleName       string     `db:"middle_name" json:"middle_name,omitempty"`
	ExtensionName    string     `db:"extension_name" json:"extension_name,omitempty"`
	Sex              string     `db:"sex" json:"sex"`
	DateOfBirth      *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	PlaceOfBirth     string     `db:"place_of_birth" json:"place_of_birth,omitempty"`
	MotherTongue     string     `db:"mother_tongue" json:"mother_tongue,omitempty"`
	CurrentAddress   string     `db:"current_address" json:"current_address,omitempty"`
	PermanentAddress string     `db:"permanent_address" json:"permanent_address,omitempty"`

	LastGradeLevelCompleted string `db:"last_grade_level_completed" json:"last_grade_level_completed,omitempty"`
	LastSchoolYearCompleted string `db:"last_school_year_completed" json:"last_school_year_completed,omitempty"`
	LastSchoolEnrolled      string `db:"last_school_enrolled" json:"last_school_enrolled,omitempty"`
	SchoolID                string `db:"school_id" json:"school_id,omitempty"`

	Status        EnrollmentStatus `db:"status" json:"status"`
	DateSubmitted time.Time        `db:"date_submitted" json:"date_submitted"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches an enrollment with student identity context.
type EnrollmentDetail struct {
	Enrollment
	StudentLRN  string `db:"student_lrn" json:"student_lrn"`
	StudentName string `db:"student_name" json:"student_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	SchoolYear string
	GradeLevel int
	Status     EnrollmentStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// EnrollmentCounts aggregates applications by derived status bucket.
type EnrollmentCounts struct {
	Enrolled    int `json:"enrolled"`
	Pending     int `json:"pending"`
	NotEnrolled int `json:"not_enrolled"`
}
