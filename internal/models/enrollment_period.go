package models

import "time"

// EnrollmentPeriod defines the window during which students may submit
// enrollment applications for a school year.
type EnrollmentPeriod struct {
	ID         string    `db:"id" json:"id"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CurrentlyActive reports whether the period accepts submissions at the given
// instant: the admin toggle must be on AND now must fall inside the window.
func (p EnrollmentPeriod) CurrentlyActive(now time.Time) bool {
	return p.IsActive && !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// EnrollmentPeriodFilter lists periods.
type EnrollmentPeriodFilter struct {
	SchoolYear string
	IsActive   *bool
	Page       int
	PageSize   int
}
