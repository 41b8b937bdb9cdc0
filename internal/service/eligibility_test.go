package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturningLearnerRequired(t *testing.T) {
	assert.True(t, ReturningLearnerRequired(8, true))
	assert.True(t, ReturningLearnerRequired(10, true))
	assert.False(t, ReturningLearnerRequired(7, true))
	assert.False(t, ReturningLearnerRequired(8, false))
	assert.False(t, ReturningLearnerRequired(0, true))
}

func TestValidateEnrollmentFormComplete(t *testing.T) {
	form := EnrollmentForm{
		SchoolYear:         "2024-2025",
		GradeLevelToEnroll: "7",
		FirstName:          "Juan",
		LastName:           "Dela Cruz",
		Sex:                "Male",
	}
	assert.Empty(t, ValidateEnrollmentForm(form))
}

func TestValidateEnrollmentFormMissingBaseFields(t *testing.T) {
	errs := ValidateEnrollmentForm(EnrollmentForm{})
	assert.Len(t, errs, 5)
	assert.Contains(t, errs, "school_year")
	assert.Contains(t, errs, "grade_level_to_enroll")
	assert.Contains(t, errs, "first_name")
	assert.Contains(t, errs, "last_name")
	assert.Contains(t, errs, "sex")
}

func TestValidateEnrollmentFormReturningLearner(t *testing.T) {
	form := EnrollmentForm{
		SchoolYear:         "2024-2025",
		GradeLevelToEnroll: "9",
		FirstName:          "A",
		LastName:           "B",
		Sex:                "Male",
		Returning:          true,
	}

	errs := ValidateEnrollmentForm(form)
	assert.Len(t, errs, 4)
	assert.Contains(t, errs, "last_grade_level_completed")
	assert.Contains(t, errs, "last_school_year_completed")
	assert.Contains(t, errs, "last_school_enrolled")
	assert.Contains(t, errs, "school_id")
}

func TestValidateEnrollmentFormReturningGrade7Exempt(t *testing.T) {
	form := EnrollmentForm{
		SchoolYear:         "2024-2025",
		GradeLevelToEnroll: "7",
		FirstName:          "A",
		LastName:           "B",
		Sex:                "Female",
		Returning:          true,
	}
	assert.Empty(t, ValidateEnrollmentForm(form))
}
