package models

import (
	"fmt"
	"time"
)

// Weekday values accepted by schedules, Monday-first school week.
var ScheduleDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Schedule is one recurring teaching slot for a teacher, section and subject.
// Times are "HH:MM" in 24-hour local school time.
type Schedule struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SectionID string    `db:"section_id" json:"section_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Day       string    `db:"day" json:"day"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleDetail adds display names for rendering timetables.
type ScheduleDetail struct {
	Schedule
	TeacherName string `db:"teacher_name" json:"teacher_name,omitempty"`
	SectionName string `db:"section_name" json:"section_name,omitempty"`
	SubjectName string `db:"subject_name" json:"subject_name,omitempty"`
}

// ScheduleFilter lists schedules.
type ScheduleFilter struct {
	TeacherID string
	SectionID string
	SubjectID string
	Day       string
	Page      int
	PageSize  int
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(raw string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", raw)
	}
	return h*60 + m, nil
}

// Minutes returns the slot as [start, end) minutes since midnight.
func (s Schedule) Minutes() (start, end int, err error) {
	start, err = ParseClock(s.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseClock(s.EndTime)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("schedule ends at or before it starts")
	}
	return start, end, nil
}
