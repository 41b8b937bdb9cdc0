package models

import "time"

// PassingGrade is the pass/fail cutoff applied to subject averages and the
// final grade alike.
const PassingGrade = 75.0

// Grade remark values.
const (
	RemarksPassed = "PASSED"
	RemarksFailed = "FAILED"
)

// SubjectGrade holds the quarterly marks of one subject. The matrix is
// sparse: an entry exists only once the first quarter grade is posted, and
// individual quarters stay nil until graded.
type SubjectGrade struct {
	SubjectID   string   `db:"subject_id" json:"subject_id"`
	SubjectName string   `db:"subject_name" json:"subject_name,omitempty"`
	Q1          *float64 `db:"q1" json:"q1,omitempty"`
	Q2          *float64 `db:"q2" json:"q2,omitempty"`
	Q3          *float64 `db:"q3" json:"q3,omitempty"`
	Q4          *float64 `db:"q4" json:"q4,omitempty"`
}

// Quarter returns the mark for quarter n (1..4).
func (g SubjectGrade) Quarter(n int) *float64 {
	switch n {
	case 1:
		return g.Q1
	case 2:
		return g.Q2
	case 3:
		return g.Q3
	case 4:
		return g.Q4
	default:
		return nil
	}
}

// Grade is a student's grade record for one school year.
type Grade struct {
	ID         string         `db:"id" json:"id"`
	StudentID  string         `db:"student_id" json:"student_id"`
	SchoolYear string         `db:"school_year" json:"school_year"`
	Subjects   []SubjectGrade `json:"grades"`
	FinalGrade *float64       `db:"final_grade" json:"final_grade,omitempty"`
	Remarks    string         `db:"remarks" json:"remarks,omitempty"`
	Comment    string         `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// GradeFilter lists grade records.
type GradeFilter struct {
	StudentID  string
	SchoolYear string
	Page       int
	PageSize   int
}
