package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efvillarin/sis-api/internal/models"
)

func enrollmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "school_year", "grade_level_to_enroll",
		"with_lrn", "returning", "first_name", "last_name", "middle_name", "extension_name",
		"sex", "date_of_birth", "place_of_birth", "mother_tongue", "current_address", "permanent_address",
		"last_grade_level_completed", "last_school_year_completed", "last_school_enrolled", "school_id",
		"status", "date_submitted", "created_at", "updated_at"})
}

func TestEnrollmentRepositoryFindByStudentAndYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := enrollmentRows().AddRow("e2", "s1", "2025-2026", 8, true, false,
		"Juan", "Dela Cruz", "", "", "M", nil, "", "", "", "",
		"", "", "", "", models.EnrollmentStatusPending, time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(`(?s)FROM enrollments WHERE student_id = \$1 AND school_year = \$2(.+)ORDER BY date_submitted DESC, id DESC LIMIT 1`).
		WithArgs("s1", "2025-2026").
		WillReturnRows(rows)

	enrollment, err := repo.FindByStudentAndYear(context.Background(), "s1", "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, "e2", enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{
		StudentID:          "s1",
		SchoolYear:         "2025-2026",
		GradeLevelToEnroll: 8,
		FirstName:          "Juan",
		LastName:           "Dela Cruz",
		Sex:                "M",
		Status:             models.EnrollmentStatusPending,
		DateSubmitted:      time.Now(),
	}
	err := repo.Create(context.Background(), enrollment)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("UPDATE enrollments SET status").
		WithArgs("e1", models.EnrollmentStatusEnrolled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "e1", models.EnrollmentStatusEnrolled)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"enrolled", "pending", "not_enrolled"}).
		AddRow(12, 3, 2)
	mock.ExpectQuery(`(?s)FROM enrollments e(.+)JOIN students s ON s\.id = e\.student_id(.+)WHERE e\.school_year = \$1`).
		WithArgs("2025-2026").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, 12, counts.Enrolled)
	assert.Equal(t, 3, counts.Pending)
	assert.Equal(t, 2, counts.NotEnrolled)
	assert.NoError(t, mock.ExpectationsWereMet())
}
