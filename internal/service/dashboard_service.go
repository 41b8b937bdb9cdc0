package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
)

const (
	dashboardCacheKey     = "dashboard:summary"
	dashboardCachePattern = "dashboard:*"
)

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type dashboardStudentReader interface {
	Count(ctx context.Context) (int, error)
	CountEnrolled(ctx context.Context) (int, error)
}

type dashboardTeacherReader interface {
	Count(ctx context.Context) (int, error)
}

type dashboardSectionReader interface {
	Count(ctx context.Context) (int, error)
}

type dashboardEnrollmentReader interface {
	CountByStatus(ctx context.Context, schoolYear string) (models.EnrollmentCounts, error)
}

// DashboardSummary is the admin landing page aggregate.
type DashboardSummary struct {
	SchoolYear       string                  `json:"school_year"`
	TotalStudents    int                     `json:"total_students"`
	EnrolledStudents int                     `json:"enrolled_students"`
	TotalTeachers    int                     `json:"total_teachers"`
	TotalSections    int                     `json:"total_sections"`
	Enrollment       models.EnrollmentCounts `json:"enrollment"`
	GeneratedAt      time.Time               `json:"generated_at"`
}

// DashboardService aggregates headline counts, cached in redis because the
// admin landing page polls them and the underlying queries span five tables.
type DashboardService struct {
	cache       dashboardCache
	students    dashboardStudentReader
	teachers    dashboardTeacherReader
	sections    dashboardSectionReader
	enrollments dashboardEnrollmentReader
	schoolYear  string
	ttl         time.Duration
	logger      *zap.Logger
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(
	cache dashboardCache,
	students dashboardStudentReader,
	teachers dashboardTeacherReader,
	sections dashboardSectionReader,
	enrollments dashboardEnrollmentReader,
	schoolYear string,
	ttl time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{
		cache:       cache,
		students:    students,
		teachers:    teachers,
		sections:    sections,
		enrollments: enrollments,
		schoolYear:  schoolYear,
		ttl:         ttl,
		logger:      logger,
	}
}

// Summary returns the dashboard aggregate, serving from cache when fresh.
// The second return value reports a cache hit.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, bool, error) {
	if s.cache != nil {
		var cached DashboardSummary
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, true, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

// InvalidateDashboard drops cached aggregates. Called by the enrollment and
// masterlist services after mutations.
func (s *DashboardService) InvalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) compute(ctx context.Context) (*DashboardSummary, error) {
	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	enrolledStudents, err := s.students.CountEnrolled(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrolled students")
	}
	totalTeachers, err := s.teachers.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	totalSections, err := s.sections.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sections")
	}

	enrollmentCounts, err := s.enrollments.CountByStatus(ctx, s.schoolYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}

	return &DashboardSummary{
		SchoolYear:       s.schoolYear,
		TotalStudents:    totalStudents,
		EnrolledStudents: enrolledStudents,
		TotalTeachers:    totalTeachers,
		TotalSections:    totalSections,
		Enrollment:       enrollmentCounts,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}
