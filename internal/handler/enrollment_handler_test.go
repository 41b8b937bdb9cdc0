package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/efvillarin/sis-api/internal/middleware"
	"github.com/efvillarin/sis-api/internal/models"
	"github.com/efvillarin/sis-api/internal/service"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
)

type fakeEnrollmentSrv struct {
	submitErr  error
	lastSubmit struct {
		userID  string
		isAdmin bool
	}
}

func (f *fakeEnrollmentSrv) List(context.Context, models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeEnrollmentSrv) Get(context.Context, string) (*models.Enrollment, error) {
	return &models.Enrollment{}, nil
}

func (f *fakeEnrollmentSrv) Submit(_ context.Context, studentUserID string, _ service.EnrollmentForm, submittedByAdmin bool) (*models.Enrollment, error) {
	f.lastSubmit.userID = studentUserID
	f.lastSubmit.isAdmin = submittedByAdmin
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &models.Enrollment{StudentID: studentUserID}, nil
}

func (f *fakeEnrollmentSrv) Accept(context.Context, string) (*models.Enrollment, error) {
	return &models.Enrollment{}, nil
}

func (f *fakeEnrollmentSrv) Decline(context.Context, string) (*models.Enrollment, error) {
	return &models.Enrollment{}, nil
}

func (f *fakeEnrollmentSrv) Drop(context.Context, string) (*models.Enrollment, error) {
	return &models.Enrollment{}, nil
}

func (f *fakeEnrollmentSrv) MarkNotEnrolled(context.Context, string) (*models.Enrollment, error) {
	return &models.Enrollment{}, nil
}

func (f *fakeEnrollmentSrv) FormDefaults(context.Context, string) (service.EnrollmentForm, error) {
	return service.EnrollmentForm{}, nil
}

func (f *fakeEnrollmentSrv) Counts(context.Context, string) (models.EnrollmentCounts, error) {
	return models.EnrollmentCounts{}, nil
}

func (f *fakeEnrollmentSrv) Unenrolled(context.Context, string) ([]models.Student, error) {
	return nil, nil
}

const enrollmentFormBody = `{"school_year":"2025-2026","grade_level_to_enroll":"8","first_name":"Rosa","last_name":"Villar","sex":"F","date_of_birth":"2012-03-15"}`

func submitRequest(t *testing.T, srv *fakeEnrollmentSrv, claims *models.JWTClaims, query string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewEnrollmentHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/enrollments"+query, strings.NewReader(enrollmentFormBody))
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}

	handler.Submit(c)
	return rec
}

func TestEnrollmentSubmitRequiresAuth(t *testing.T) {
	rec := submitRequest(t, &fakeEnrollmentSrv{}, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEnrollmentSubmitStudentTargetsSelf(t *testing.T) {
	srv := &fakeEnrollmentSrv{}
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent}

	rec := submitRequest(t, srv, claims, "?studentUserId=user-9")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", srv.lastSubmit.userID)
	assert.False(t, srv.lastSubmit.isAdmin)
}

func TestEnrollmentSubmitAdminOverridesTarget(t *testing.T) {
	srv := &fakeEnrollmentSrv{}
	claims := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}

	rec := submitRequest(t, srv, claims, "?studentUserId=user-9")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-9", srv.lastSubmit.userID)
	assert.True(t, srv.lastSubmit.isAdmin)
}

func TestEnrollmentSubmitClosedWindow(t *testing.T) {
	srv := &fakeEnrollmentSrv{submitErr: appErrors.ErrEnrollmentClosed}
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent}

	rec := submitRequest(t, srv, claims, "")

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestEnrollmentCountsRequiresSchoolYear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEnrollmentHandler(&fakeEnrollmentSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/enrollments/counts", nil)

	handler.Counts(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
