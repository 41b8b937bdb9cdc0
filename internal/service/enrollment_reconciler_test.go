package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efvillarin/sis-api/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestLatestEnrollmentPicksNewest(t *testing.T) {
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	enrollments := []models.Enrollment{
		{ID: "e1", StudentID: "s1", DateSubmitted: base},
		{ID: "e2", StudentID: "s1", DateSubmitted: base.Add(48 * time.Hour)},
		{ID: "e3", StudentID: "s2", DateSubmitted: base.Add(72 * time.Hour)},
	}

	latest := LatestEnrollment(enrollments, "s1")
	require.NotNil(t, latest)
	assert.Equal(t, "e2", latest.ID)
}

func TestLatestEnrollmentOrderIndependent(t *testing.T) {
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	a := models.Enrollment{ID: "e1", StudentID: "s1", DateSubmitted: ts}
	b := models.Enrollment{ID: "e2", StudentID: "s1", DateSubmitted: ts}

	first := LatestEnrollment([]models.Enrollment{a, b}, "s1")
	second := LatestEnrollment([]models.Enrollment{b, a}, "s1")
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "e2", first.ID)

	// Idempotent on the same input.
	again := LatestEnrollment([]models.Enrollment{a, b}, "s1")
	assert.Equal(t, first.ID, again.ID)
}

func TestLatestEnrollmentNoRecords(t *testing.T) {
	assert.Nil(t, LatestEnrollment(nil, "s1"))
	assert.Nil(t, LatestEnrollment([]models.Enrollment{{ID: "e1", StudentID: "other"}}, "s1"))
}

func TestDeriveFormDefaultsPrefersSnapshot(t *testing.T) {
	dob := time.Date(2010, 3, 14, 0, 0, 0, 0, time.UTC)
	user := &models.User{FirstName: "Juan", LastName: "Dela Cruz", Sex: "Male", Address: "Manila", DateOfBirth: &dob}
	student := &models.Student{ID: "s1", GradeLevel: 7, LRN: "123456789012"}
	latest := &models.Enrollment{
		SchoolYear:         "2023-2024",
		GradeLevelToEnroll: 8,
		FirstName:          "Juan Miguel",
		LastName:           "Dela Cruz",
		Sex:                "Male",
		CurrentAddress:     "Quezon City",
	}

	form := DeriveFormDefaults(user, student, latest)
	assert.Equal(t, "Juan Miguel", form.FirstName)
	assert.Equal(t, "8", form.GradeLevelToEnroll)
	assert.Equal(t, "Quezon City", form.CurrentAddress)
	// snapshot left permanent address blank, user record fills it
	assert.Equal(t, "Manila", form.PermanentAddress)
	assert.Equal(t, "2010-03-14", form.DateOfBirth)
	// snapshot answered "without LRN"; the profile LRN must not override it
	assert.False(t, form.WithLRN)
}

func TestDeriveFormDefaultsLRNSeedsFirstForm(t *testing.T) {
	student := &models.Student{ID: "s1", GradeLevel: 7, LRN: "123456789012"}

	form := DeriveFormDefaults(nil, student, nil)
	assert.True(t, form.WithLRN)
	assert.Equal(t, "8", form.GradeLevelToEnroll)
}

func TestDeriveFormDefaultsWithoutEnrollment(t *testing.T) {
	user := &models.User{FirstName: "Ana", LastName: "Reyes", Sex: "Female"}
	student := &models.Student{ID: "s1", GradeLevel: 8}

	form := DeriveFormDefaults(user, student, nil)
	assert.Equal(t, "Ana", form.FirstName)
	assert.Equal(t, "9", form.GradeLevelToEnroll)
	assert.False(t, form.WithLRN)
}

func TestDeriveFormDefaultsTotalOnNilInputs(t *testing.T) {
	form := DeriveFormDefaults(nil, nil, nil)
	assert.Equal(t, EnrollmentForm{}, form)
}

func TestCountByStatusPartition(t *testing.T) {
	students := []models.Student{
		{ID: "s1", IsPromoted: boolPtr(false)},
		{ID: "s2", IsPromoted: boolPtr(true)},
		{ID: "s3"}, // undecided: must never count as not-enrolled
	}
	enrollments := []models.Enrollment{
		{ID: "e1", StudentID: "s1", Status: models.EnrollmentStatusNotEnrolled},
		{ID: "e2", StudentID: "s2", Status: models.EnrollmentStatusNotEnrolled},
		{ID: "e3", StudentID: "s3", Status: models.EnrollmentStatusNotEnrolled},
		{ID: "e4", StudentID: "s2", Status: models.EnrollmentStatusEnrolled},
		{ID: "e5", StudentID: "s1", Status: models.EnrollmentStatusPending},
		{ID: "e6", StudentID: "s1", Status: models.EnrollmentStatusDeclined},
	}

	counts := CountByStatus(enrollments, students)
	assert.Equal(t, 1, counts.Enrolled)
	assert.Equal(t, 1, counts.Pending)
	assert.Equal(t, 1, counts.NotEnrolled)
	// buckets are disjoint and need not be exhaustive
	assert.LessOrEqual(t, counts.Enrolled+counts.Pending+counts.NotEnrolled, len(enrollments))
}

func TestCountByStatusEmptyInputs(t *testing.T) {
	counts := CountByStatus(nil, nil)
	assert.Zero(t, counts.Enrolled)
	assert.Zero(t, counts.Pending)
	assert.Zero(t, counts.NotEnrolled)
}

func TestStudentsWithoutEnrollment(t *testing.T) {
	students := []models.Student{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}, {ID: "s4"}, {ID: "s5"}}
	enrollments := []models.Enrollment{
		{ID: "e1", StudentID: "s1"},
		{ID: "e2", StudentID: "s3"},
		{ID: "e3", StudentID: "s5"},
	}

	missing := StudentsWithoutEnrollment(students, enrollments)
	require.Len(t, missing, 2)
	assert.Equal(t, "s2", missing[0].ID)
	assert.Equal(t, "s4", missing[1].ID)
}
