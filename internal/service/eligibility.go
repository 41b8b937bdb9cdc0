package service

// EnrollmentForm is the flat enrollment application payload. All values are
// strings because the form round-trips through UI inputs; the service layer
// converts and snapshots them onto models.Enrollment at submission.
type EnrollmentForm struct {
	SchoolYear         string `json:"school_year"`
	GradeLevelToEnroll string `json:"grade_level_to_enroll"`
	WithLRN            bool   `json:"with_lrn"`
	Returning          bool   `json:"returning"`

	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	MiddleName       string `json:"middle_name"`
	ExtensionName    string `json:"extension_name"`
	Sex              string `json:"sex"`
	DateOfBirth      string `json:"date_of_birth"`
	PlaceOfBirth     string `json:"place_of_birth"`
	MotherTongue     string `json:"mother_tongue"`
	CurrentAddress   string `json:"current_address"`
	PermanentAddress string `json:"permanent_address"`

	LastGradeLevelCompleted string `json:"last_grade_level_completed"`
	LastSchoolYearCompleted string `json:"last_school_year_completed"`
	LastSchoolEnrolled      string `json:"last_school_enrolled"`
	SchoolID                string `json:"school_id"`
}

// ReturningLearnerRequired reports whether the returning-learner sub-form is
// mandatory: only learners entering grade 8 or above who flagged themselves
// as returning must supply prior-school completion details.
func ReturningLearnerRequired(gradeLevel int, returning bool) bool {
	return gradeLevel >= 8 && returning
}

// ValidateEnrollmentForm checks required fields and returns a field→message
// map. An empty map means the form is submittable. Pure; no I/O.
func ValidateEnrollmentForm(form EnrollmentForm) map[string]string {
	errs := make(map[string]string)

	require := func(field, value, label string) {
		if value == "" {
			errs[field] = label + " is required"
		}
	}

	require("school_year", form.SchoolYear, "School year")
	require("grade_level_to_enroll", form.GradeLevelToEnroll, "Grade level to enroll")
	require("first_name", form.FirstName, "First name")
	require("last_name", form.LastName, "Last name")
	require("sex", form.Sex, "Sex")

	gradeLevel := parseGradeLevel(form.GradeLevelToEnroll)
	if ReturningLearnerRequired(gradeLevel, form.Returning) {
		require("last_grade_level_completed", form.LastGradeLevelCompleted, "Last grade level completed")
		require("last_school_year_completed", form.LastSchoolYearCompleted, "Last school year completed")
		require("last_school_enrolled", form.LastSchoolEnrolled, "Last school enrolled")
		require("school_id", form.SchoolID, "School ID")
	}

	return errs
}

func parseGradeLevel(raw string) int {
	level := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
		level = level*10 + int(r-'0')
	}
	return level
}
