package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
)

type mockDashboardCache struct {
	stored   map[string]interface{}
	deleted  []string
	getCalls int
}

func (m *mockDashboardCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.getCalls++
	v, ok := m.stored[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*DashboardSummary)) = *(v.(*DashboardSummary))
	return nil
}

func (m *mockDashboardCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.stored == nil {
		m.stored = make(map[string]interface{})
	}
	m.stored[key] = value
	return nil
}

func (m *mockDashboardCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	m.stored = nil
	return nil
}

type mockDashboardStudents struct {
	total    int
	enrolled int
}

func (m *mockDashboardStudents) Count(ctx context.Context) (int, error)         { return m.total, nil }
func (m *mockDashboardStudents) CountEnrolled(ctx context.Context) (int, error) { return m.enrolled, nil }

type mockCounter struct {
	n int
}

func (m *mockCounter) Count(ctx context.Context) (int, error) { return m.n, nil }

type mockDashboardEnrollments struct {
	counts models.EnrollmentCounts
}

func (m *mockDashboardEnrollments) CountByStatus(ctx context.Context, schoolYear string) (models.EnrollmentCounts, error) {
	return m.counts, nil
}

func newDashboardFixture(cache *mockDashboardCache) *DashboardService {
	students := &mockDashboardStudents{total: 120, enrolled: 100}
	enrollments := &mockDashboardEnrollments{counts: models.EnrollmentCounts{Enrolled: 100, Pending: 5}}
	return NewDashboardService(cache, students, &mockCounter{n: 15}, &mockCounter{n: 8}, enrollments, "2025-2026", time.Minute, zap.NewNop())
}

func TestDashboardSummaryComputesAndCaches(t *testing.T) {
	cache := &mockDashboardCache{}
	svc := newDashboardFixture(cache)

	summary, hit, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 120, summary.TotalStudents)
	assert.Equal(t, 100, summary.EnrolledStudents)
	assert.Equal(t, 15, summary.TotalTeachers)
	assert.Equal(t, 8, summary.TotalSections)
	assert.Equal(t, models.EnrollmentCounts{Enrolled: 100, Pending: 5}, summary.Enrollment)
	assert.Contains(t, cache.stored, "dashboard:summary")
}

func TestDashboardSummaryServesFromCache(t *testing.T) {
	cache := &mockDashboardCache{}
	svc := newDashboardFixture(cache)

	_, _, err := svc.Summary(context.Background())
	require.NoError(t, err)

	summary, hit, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 120, summary.TotalStudents)
}

func TestDashboardInvalidateDropsCache(t *testing.T) {
	cache := &mockDashboardCache{}
	svc := newDashboardFixture(cache)

	_, _, err := svc.Summary(context.Background())
	require.NoError(t, err)

	svc.InvalidateDashboard(context.Background())
	assert.Contains(t, cache.deleted, "dashboard:*")

	_, hit, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
}
