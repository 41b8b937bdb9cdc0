package service

import (
	"strconv"

	"github.com/efvillarin/sis-api/internal/models"
)

// The functions in this file derive enrollment state from independently
// fetched collections. They are total and side-effect free: any input slice
// may be nil or partially loaded and the result degrades to empty/neutral
// values instead of failing.

// LatestEnrollment returns the student's most recent application by
// DateSubmitted. Equal timestamps are broken by the greater ID so the result
// does not depend on input order.
func LatestEnrollment(enrollments []models.Enrollment, studentID string) *models.Enrollment {
	var latest *models.Enrollment
	for i := range enrollments {
		e := &enrollments[i]
		if e.StudentID != studentID {
			continue
		}
		if latest == nil ||
			e.DateSubmitted.After(latest.DateSubmitted) ||
			(e.DateSubmitted.Equal(latest.DateSubmitted) && e.ID > latest.ID) {
			latest = e
		}
	}
	if latest == nil {
		return nil
	}
	found := *latest
	return &found
}

// DeriveFormDefaults pre-fills an enrollment form: per field prefer the
// latest application's snapshot, then the live student/user record, then
// empty. Without a prior application the grade level to enroll defaults to
// the student's current level plus one.
func DeriveFormDefaults(user *models.User, student *models.Student, latest *models.Enrollment) EnrollmentForm {
	form := EnrollmentForm{}

	if latest != nil {
		form.SchoolYear = latest.SchoolYear
		form.GradeLevelToEnroll = strconv.Itoa(latest.GradeLevelToEnroll)
		form.WithLRN = latest.WithLRN
		form.Returning = latest.Returning
		form.FirstName = latest.FirstName
		form.LastName = latest.LastName
		form.MiddleName = latest.MiddleName
		form.ExtensionName = latest.ExtensionName
		form.Sex = latest.Sex
		if latest.DateOfBirth != nil {
			form.DateOfBirth = latest.DateOfBirth.Format("2006-01-02")
		}
		form.PlaceOfBirth = latest.PlaceOfBirth
		form.MotherTongue = latest.MotherTongue
		form.CurrentAddress = latest.CurrentAddress
		form.PermanentAddress = latest.PermanentAddress
		form.LastGradeLevelCompleted = latest.LastGradeLevelCompleted
		form.LastSchoolYearCompleted = latest.LastSchoolYearCompleted
		form.LastSchoolEnrolled = latest.LastSchoolEnrolled
		form.SchoolID = latest.SchoolID
	}

	if user != nil {
		fallback(&form.FirstName, user.FirstName)
		fallback(&form.LastName, user.LastName)
		fallback(&form.MiddleName, user.MiddleName)
		fallback(&form.ExtensionName, user.ExtensionName)
		fallback(&form.Sex, user.Sex)
		if form.DateOfBirth == "" && user.DateOfBirth != nil {
			form.DateOfBirth = user.DateOfBirth.Format("2006-01-02")
		}
		fallback(&form.CurrentAddress, user.Address)
		fallback(&form.PermanentAddress, user.Address)
	}

	if student != nil {
		// The snapshot's WithLRN answer is authoritative once an application
		// exists; the profile LRN only seeds a first-time form.
		if latest == nil {
			form.WithLRN = student.LRN != ""
		}
		if form.GradeLevelToEnroll == "" && student.GradeLevel > 0 {
			form.GradeLevelToEnroll = strconv.Itoa(student.GradeLevel + 1)
		}
	}

	return form
}

// CountByStatus buckets applications into enrolled/pending/not-enrolled.
// The not-enrolled bucket is additionally restricted to students whose
// IsPromoted flag is explicitly false; an unset flag never counts. The
// buckets are disjoint but not exhaustive, so their sum may be less than
// len(enrollments).
func CountByStatus(enrollments []models.Enrollment, students []models.Student) models.EnrollmentCounts {
	promotedFalse := make(map[string]bool, len(students))
	for _, s := range students {
		if s.IsPromoted != nil && !*s.IsPromoted {
			promotedFalse[s.ID] = true
		}
	}

	var counts models.EnrollmentCounts
	for _, e := range enrollments {
		switch e.Status {
		case models.EnrollmentStatusEnrolled:
			counts.Enrolled++
		case models.EnrollmentStatusPending:
			counts.Pending++
		case models.EnrollmentStatusNotEnrolled:
			if promotedFalse[e.StudentID] {
				counts.NotEnrolled++
			}
		}
	}
	return counts
}

// StudentsWithoutEnrollment returns the students with no application in the
// given set, preserving input order.
func StudentsWithoutEnrollment(students []models.Student, enrollments []models.Enrollment) []models.Student {
	covered := make(map[string]bool, len(enrollments))
	for _, e := range enrollments {
		covered[e.StudentID] = true
	}

	missing := make([]models.Student, 0)
	for _, s := range students {
		if !covered[s.ID] {
			missing = append(missing, s)
		}
	}
	return missing
}

func fallback(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
