package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListBySchoolYear(ctx context.Context, schoolYear string) ([]models.Enrollment, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByStudentAndYear(ctx context.Context, studentID, schoolYear string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
}

type enrollmentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	ListAll(ctx context.Context) ([]models.Student, error)
	SetEnrollmentStatus(ctx context.Context, id string, enrolled bool) error
}

type enrollmentPeriodReader interface {
	FindBySchoolYear(ctx context.Context, schoolYear string) (*models.EnrollmentPeriod, error)
}

type enrollmentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type dashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context)
}

// EnrollmentService orchestrates the enrollment application lifecycle.
type EnrollmentService struct {
	repo        enrollmentRepository
	students    enrollmentStudentRepository
	periods     enrollmentPeriodReader
	users       enrollmentUserRepository
	invalidator dashboardInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(
	repo enrollmentRepository,
	students enrollmentStudentRepository,
	periods enrollmentPeriodReader,
	users enrollmentUserRepository,
	invalidator dashboardInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{
		repo:        repo,
		students:    students,
		periods:     periods,
		users:       users,
		invalidator: invalidator,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns enrollments with pagination.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, total, nil
}

// Get returns one enrollment application.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Submit files an enrollment application for a student. Students go through
// the enrollment window and promotion gates; admins filing on behalf of a
// student bypass the window.
func (s *EnrollmentService) Submit(ctx context.Context, studentUserID string, form EnrollmentForm, submittedByAdmin bool) (*models.Enrollment, error) {
	if fieldErrors := ValidateEnrollmentForm(form); len(fieldErrors) > 0 {
		err := appErrors.Clone(appErrors.ErrValidation, "enrollment form has missing fields")
		err.Err = fmt.Errorf("fields: %v", fieldErrors)
		return nil, err
	}

	student, err := s.students.FindByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if student.IsPromoted != nil && !*student.IsPromoted {
		return nil, appErrors.Clone(appErrors.ErrNotPromoted, "")
	}

	if !submittedByAdmin {
		period, err := s.periods.FindBySchoolYear(ctx, form.SchoolYear)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrEnrollmentClosed, "")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment period")
		}
		if !period.CurrentlyActive(s.now()) {
			return nil, appErrors.Clone(appErrors.ErrEnrollmentClosed, "")
		}
	}

	existing, err := s.repo.FindByStudentAndYear(ctx, student.ID, form.SchoolYear)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check prior application")
	}
	if existing != nil &&
		(existing.Status == models.EnrollmentStatusPending || existing.Status == models.EnrollmentStatusEnrolled) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an application for this school year already exists")
	}

	enrollment, err := s.buildEnrollment(student.ID, form)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist enrollment")
	}

	s.logger.Info("enrollment submitted",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", student.ID),
		zap.String("school_year", enrollment.SchoolYear),
		zap.Int("grade_level", enrollment.GradeLevelToEnroll))

	s.invalidate(ctx)
	return enrollment, nil
}

// Accept transitions a pending application to ENROLLED.
func (s *EnrollmentService) Accept(ctx context.Context, id string) (*models.Enrollment, error) {
	return s.transition(ctx, id, models.EnrollmentStatusEnrolled)
}

// Decline transitions a pending application to DECLINED.
func (s *EnrollmentService) Decline(ctx context.Context, id string) (*models.Enrollment, error) {
	return s.transition(ctx, id, models.EnrollmentStatusDeclined)
}

// MarkNotEnrolled flags the application of a student who never completed
// enrollment for the school year.
func (s *EnrollmentService) MarkNotEnrolled(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == models.EnrollmentStatusEnrolled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrolled applications cannot be marked not enrolled")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.EnrollmentStatusNotEnrolled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	enrollment.Status = models.EnrollmentStatusNotEnrolled
	if err := s.students.SetEnrollmentStatus(ctx, enrollment.StudentID, false); err != nil {
		s.logger.Warn("failed to clear student enrollment flag", zap.Error(err), zap.String("student_id", enrollment.StudentID))
	}
	s.invalidate(ctx)
	return enrollment, nil
}

// Drop removes a pending or enrolled student mid-year: the application moves
// to DROPPED, the student's enrollment flag is cleared and the account is
// deactivated.
func (s *EnrollmentService) Drop(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != models.EnrollmentStatusPending && enrollment.Status != models.EnrollmentStatusEnrolled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only pending or enrolled applications can be dropped")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.EnrollmentStatusDropped); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	enrollment.Status = models.EnrollmentStatusDropped

	if err := s.students.SetEnrollmentStatus(ctx, enrollment.StudentID, false); err != nil {
		s.logger.Warn("failed to clear student enrollment flag", zap.Error(err), zap.String("student_id", enrollment.StudentID))
	}

	student, err := s.students.FindByID(ctx, enrollment.StudentID)
	if err != nil {
		s.logger.Warn("failed to load student for deactivation", zap.Error(err), zap.String("student_id", enrollment.StudentID))
	} else if err := s.users.SetActive(ctx, student.UserID, false); err != nil {
		s.logger.Warn("failed to deactivate dropped student", zap.Error(err), zap.String("user_id", student.UserID))
	}

	s.logger.Info("enrollment dropped",
		zap.String("enrollment_id", id),
		zap.String("student_id", enrollment.StudentID))

	s.invalidate(ctx)
	return enrollment, nil
}

// FormDefaults pre-fills the enrollment form for a student from the latest
// application snapshot, falling back to the live profile.
func (s *EnrollmentService) FormDefaults(ctx context.Context, studentUserID string) (EnrollmentForm, error) {
	user, err := s.users.FindByID(ctx, studentUserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return EnrollmentForm{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	student, err := s.students.FindByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EnrollmentForm{}, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return EnrollmentForm{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	history, err := s.repo.ListByStudent(ctx, student.ID)
	if err != nil {
		return EnrollmentForm{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment history")
	}

	latest := LatestEnrollment(history, student.ID)
	return DeriveFormDefaults(user, student, latest), nil
}

// Counts aggregates the school year's applications into status buckets.
func (s *EnrollmentService) Counts(ctx context.Context, schoolYear string) (models.EnrollmentCounts, error) {
	enrollments, err := s.repo.ListBySchoolYear(ctx, schoolYear)
	if err != nil {
		return models.EnrollmentCounts{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return models.EnrollmentCounts{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	return CountByStatus(enrollments, students), nil
}

// Unenrolled lists the students with no application for the school year.
func (s *EnrollmentService) Unenrolled(ctx context.Context, schoolYear string) ([]models.Student, error) {
	enrollments, err := s.repo.ListBySchoolYear(ctx, schoolYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	return StudentsWithoutEnrollment(students, enrollments), nil
}

func (s *EnrollmentService) transition(ctx context.Context, id string, target models.EnrollmentStatus) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != models.EnrollmentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only pending applications can be decided")
	}
	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	enrollment.Status = target

	// Acceptance is what makes the student enrolled for the year; the section
	// flag follows later through the masterlist.
	if target == models.EnrollmentStatusEnrolled {
		if err := s.students.SetEnrollmentStatus(ctx, enrollment.StudentID, true); err != nil {
			s.logger.Warn("failed to flag student enrolled", zap.Error(err), zap.String("student_id", enrollment.StudentID))
		}
	}

	s.logger.Info("enrollment decided",
		zap.String("enrollment_id", id),
		zap.String("status", string(target)))

	s.invalidate(ctx)
	return enrollment, nil
}

func (s *EnrollmentService) buildEnrollment(studentID string, form EnrollmentForm) (*models.Enrollment, error) {
	gradeLevel, err := strconv.Atoi(form.GradeLevelToEnroll)
	if err != nil || gradeLevel < models.MinGradeLevel || gradeLevel > models.MaxGradeLevel {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade level to enroll must be between 7 and 10")
	}

	enrollment := &models.Enrollment{
		StudentID:          studentID,
		SchoolYear:         form.SchoolYear,
		GradeLevelToEnroll: gradeLevel,
		WithLRN:            form.WithLRN,
		Returning:          form.Returning,
		FirstName:          form.FirstName,
		LastName:           form.LastName,
		MiddleName:         form.MiddleName,
		ExtensionName:      form.ExtensionName,
		Sex:                form.Sex,
		PlaceOfBirth:       form.PlaceOfBirth,
		MotherTongue:       form.MotherTongue,
		CurrentAddress:     form.CurrentAddress,
		PermanentAddress:   form.PermanentAddress,

		LastGradeLevelCompleted: form.LastGradeLevelCompleted,
		LastSchoolYearCompleted: form.LastSchoolYearCompleted,
		LastSchoolEnrolled:      form.LastSchoolEnrolled,
		SchoolID:                form.SchoolID,

		Status:        models.EnrollmentStatusPending,
		DateSubmitted: s.now(),
	}

	if form.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", form.DateOfBirth)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date of birth must be YYYY-MM-DD")
		}
		enrollment.DateOfBirth = &dob
	}
	return enrollment, nil
}

func (s *EnrollmentService) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidateDashboard(ctx)
	}
}
