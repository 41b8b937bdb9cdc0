package models

import "time"

// Subject is a curriculum subject offered at a grade level.
// TeacherIDs lists the teachers allowed to post grades for it.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	GradeLevel  int       `db:"grade_level" json:"grade_level"`
	TeacherIDs  []string  `json:"teacher_ids"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// HasTeacher reports whether the teacher is assigned to the subject.
func (s Subject) HasTeacher(teacherID string) bool {
	for _, id := range s.TeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}

// SubjectFilter lists subjects.
type SubjectFilter struct {
	GradeLevel int
	TeacherID  string
	Search     string
	Page       int
	PageSize   int
}
