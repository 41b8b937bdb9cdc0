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

func TestMasterlistRepositoryFindByKeyLegacyRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterlistRepository(db)

	rows := sqlmock.NewRows([]string{"id", "grade", "section_id", "section_name", "school_year",
		"adviser_id", "created_at", "updated_at"}).
		AddRow("ml1", 7, nil, "Lily", "2025-2026", nil, time.Now(), time.Now())
	mock.ExpectQuery(`(?s)FROM masterlists(.+)grade = \$1 AND section_name = \$2 AND school_year = \$3`).
		WithArgs(7, "Lily", "2025-2026").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT student_user_id FROM masterlist_students`).
		WithArgs("ml1").
		WillReturnRows(sqlmock.NewRows([]string{"student_user_id"}).AddRow("u1").AddRow("u2"))
	mock.ExpectQuery(`FROM masterlist_subject_teachers`).
		WithArgs("ml1").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "subject_name", "teacher_id", "teacher_name"}))

	masterlist, err := repo.FindByKey(context.Background(), 7, "Lily", "2025-2026")
	require.NoError(t, err)
	assert.True(t, masterlist.Section.Legacy())
	assert.Equal(t, "Lily", masterlist.Section.Name())
	assert.Equal(t, []string{"u1", "u2"}, masterlist.StudentUserIDs)
	assert.True(t, masterlist.HasStudent("u2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterlistRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterlistRepository(db)

	mock.ExpectExec("INSERT INTO masterlists").
		WithArgs(sqlmock.AnyArg(), 8, "sec1", "Rose", "2025-2026", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	masterlist := &models.Masterlist{
		Grade:      8,
		Section:    models.SectionRef{ID: "sec1", SectionName: "Rose"},
		SchoolYear: "2025-2026",
	}
	err := repo.Create(context.Background(), masterlist)
	require.NoError(t, err)
	assert.NotEmpty(t, masterlist.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterlistRepositoryAddStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterlistRepository(db)

	mock.ExpectExec("INSERT INTO masterlist_students").
		WithArgs("ml1", "u1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AddStudent(context.Background(), "ml1", "u1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterlistRepositoryAssignSubjectTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterlistRepository(db)

	mock.ExpectExec("INSERT INTO masterlist_subject_teachers").
		WithArgs("ml1", "sub1", "t1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AssignSubjectTeacher(context.Background(), "ml1", "sub1", "t1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
