package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/efvillarin/sis-api/internal/models"
	"github.com/efvillarin/sis-api/internal/service"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	Get(ctx context.Context, id string) (*models.Enrollment, error)
	Submit(ctx context.Context, studentUserID string, form service.EnrollmentForm, submittedByAdmin bool) (*models.Enrollment, error)
	Accept(ctx context.Context, id string) (*models.Enrollment, error)
	Decline(ctx context.Context, id string) (*models.Enrollment, error)
	MarkNotEnrolled(ctx context.Context, id string) (*models.Enrollment, error)
	Drop(ctx context.Context, id string) (*models.Enrollment, error)
	FormDefaults(ctx context.Context, studentUserID string) (service.EnrollmentForm, error)
	Counts(ctx context.Context, schoolYear string) (models.EnrollmentCounts, error)
	Unenrolled(ctx context.Context, schoolYear string) ([]models.Student, error)
}

// EnrollmentHandler exposes the enrollment application lifecycle.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollment applications
// @Tags Enrollment
// @Produce json
// @Param schoolYear query string false "Filter by school year"
// @Param status query string false "Filter by status"
// @Param grade query int false "Filter by grade level to enroll"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.SchoolYear = c.Query("schoolYear")
	filter.Status = models.EnrollmentStatus(c.Query("status"))
	if grade, err := strconv.Atoi(c.Query("grade")); err == nil {
		filter.GradeLevel = grade
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	enrollments, total, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, paginationOf(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get enrollment application
// @Tags Enrollment
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Submit godoc
// @Summary Submit an enrollment application
// @Description Students file for themselves inside the enrollment window; admins may file on a student's behalf at any time.
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param payload body service.EnrollmentForm true "Enrollment form"
// @Param studentUserId query string false "Target student user ID (admin only)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var form service.EnrollmentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment form"))
		return
	}

	isAdmin := claims.Role == models.RoleAdmin
	targetUserID := claims.UserID
	if isAdmin {
		if override := c.Query("studentUserId"); override != "" {
			targetUserID = override
		}
	}

	enrollment, err := h.enrollments.Submit(c.Request.Context(), targetUserID, form, isAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Accept godoc
// @Summary Accept a pending application
// @Tags Enrollment
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments/{id}/accept [post]
func (h *EnrollmentHandler) Accept(c *gin.Context) {
	enrollment, err := h.enrollments.Accept(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Decline godoc
// @Summary Decline a pending application
// @Tags Enrollment
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments/{id}/decline [post]
func (h *EnrollmentHandler) Decline(c *gin.Context) {
	enrollment, err := h.enrollments.Decline(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// MarkNotEnrolled godoc
// @Summary Mark an application NOT_ENROLLED
// @Tags Enrollment
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments/{id}/not-enrolled [post]
func (h *EnrollmentHandler) MarkNotEnrolled(c *gin.Context) {
	enrollment, err := h.enrollments.MarkNotEnrolled(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Drop godoc
// @Summary Drop a pending or enrolled student mid-year
// @Tags Enrollment
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments/{id}/drop [post]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	enrollment, err := h.enrollments.Drop(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// FormDefaults godoc
// @Summary Pre-filled enrollment form for the current student
// @Tags Enrollment
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments/form-defaults [get]
func (h *EnrollmentHandler) FormDefaults(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	form, err := h.enrollments.FormDefaults(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Counts godoc
// @Summary Enrollment status counts for a school year
// @Tags Enrollment
// @Produce json
// @Param schoolYear query string true "School year"
// @Success 200 {object} response.Envelope
// @Router /enrollments/counts [get]
func (h *EnrollmentHandler) Counts(c *gin.Context) {
	schoolYear := c.Query("schoolYear")
	if schoolYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYear query parameter required"))
		return
	}
	counts, err := h.enrollments.Counts(c.Request.Context(), schoolYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// Unenrolled godoc
// @Summary Students with no application for a school year
// @Tags Enrollment
// @Produce json
// @Param schoolYear query string true "School year"
// @Success 200 {object} response.Envelope
// @Router /enrollments/unenrolled [get]
func (h *EnrollmentHandler) Unenrolled(c *gin.Context) {
	schoolYear := c.Query("schoolYear")
	if schoolYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYear query parameter required"))
		return
	}
	students, err := h.enrollments.Unenrolled(c.Request.Context(), schoolYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
