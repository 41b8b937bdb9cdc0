package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/efvillarin/sis-api/internal/models"
	"github.com/efvillarin/sis-api/internal/service"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/response"
)

// MasterlistHandler exposes section roster endpoints.
type MasterlistHandler struct {
	masterlists *service.MasterlistService
}

// NewMasterlistHandler constructs MasterlistHandler.
func NewMasterlistHandler(masterlists *service.MasterlistService) *MasterlistHandler {
	return &MasterlistHandler{masterlists: masterlists}
}

// List godoc
// @Summary List masterlists
// @Tags Masterlists
// @Produce json
// @Param grade query int false "Filter by grade"
// @Param schoolYear query string false "Filter by school year"
// @Success 200 {object} response.Envelope
// @Router /masterlists [get]
func (h *MasterlistHandler) List(c *gin.Context) {
	var filter models.MasterlistFilter
	if grade, err := strconv.Atoi(c.Query("grade")); err == nil {
		filter.Grade = grade
	}
	filter.SchoolYear = c.Query("schoolYear")

	masterlists, err := h.masterlists.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, masterlists, nil)
}

// Get godoc
// @Summary Get masterlist
// @Tags Masterlists
// @Produce json
// @Param id path string true "Masterlist ID"
// @Success 200 {object} response.Envelope
// @Router /masterlists/{id} [get]
func (h *MasterlistHandler) Get(c *gin.Context) {
	masterlist, err := h.masterlists.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, masterlist, nil)
}

// Ensure godoc
// @Summary Get or create the masterlist for a class key
// @Tags Masterlists
// @Accept json
// @Produce json
// @Param payload body object true "Grade, section name and school year"
// @Success 200 {object} response.Envelope
// @Router /masterlists/ensure [post]
func (h *MasterlistHandler) Ensure(c *gin.Context) {
	var payload struct {
		Grade       int    `json:"grade" binding:"required"`
		SectionName string `json:"section_name" binding:"required"`
		SchoolYear  string `json:"school_year" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "grade, section_name and school_year required"))
		return
	}
	masterlist, err := h.masterlists.Ensure(c.Request.Context(), payload.Grade, payload.SectionName, payload.SchoolYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, masterlist, nil)
}

// AddStudent godoc
// @Summary Add a student to the roster
// @Tags Masterlists
// @Accept json
// @Produce json
// @Param id path string true "Masterlist ID"
// @Param payload body map[string]string true "Student user ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /masterlists/{id}/students [post]
func (h *MasterlistHandler) AddStudent(c *gin.Context) {
	var payload struct {
		StudentUserID string `json:"student_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_user_id required"))
		return
	}
	masterlist, err := h.masterlists.AddStudent(c.Request.Context(), c.Param("id"), payload.StudentUserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, masterlist, nil)
}

// RemoveStudent godoc
// @Summary Remove a student from the roster
// @Tags Masterlists
// @Produce json
// @Param id path string true "Masterlist ID"
// @Param userId path string true "Student user ID"
// @Success 200 {object} response.Envelope
// @Router /masterlists/{id}/students/{userId} [delete]
func (h *MasterlistHandler) RemoveStudent(c *gin.Context) {
	masterlist, err := h.masterlists.RemoveStudent(c.Request.Context(), c.Param("id"), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, masterlist, nil)
}

// SetAdviser godoc
// @Summary Assign the homeroom adviser
// @Tags Masterlists
// @Accept json
// @Produce json
// @Param id path string true "Masterlist ID"
// @Param payload body map[string]string true "Adviser teacher ID (null clears)"
// @Success 200 {object} response.Envelope
// @Router /masterlists/{id}/adviser [put]
func (h *MasterlistHandler) SetAdviser(c *gin.Context) {
	var payload struct {
		AdviserID *string `json:"adviser_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid adviser payload"))
		return
	}
	masterlist, err := h.masterlists.SetAdviser(c.Request.Context(), c.Param("id"), payload.AdviserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, masterlist, nil)
}

// AssignSubjectTeacher godoc
// @Summary Assign a subject teacher for the roster
// @Tags Masterlists
// @Accept json
// @Produce json
// @Param id path string true "Masterlist ID"
// @Param payload body map[string]string true "Subject and teacher IDs"
// @Success 204 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /masterlists/{id}/subject-teachers [put]
func (h *MasterlistHandler) AssignSubjectTeacher(c *gin.Context) {
	var payload struct {
		SubjectID string `json:"subject_id" binding:"required"`
		TeacherID string `json:"teacher_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "subject_id and teacher_id required"))
		return
	}
	if err := h.masterlists.AssignSubjectTeacher(c.Request.Context(), c.Param("id"), payload.SubjectID, payload.TeacherID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MyAssignment godoc
// @Summary Where the current student stands for a class key
// @Tags Masterlists
// @Produce json
// @Param grade query int true "Grade"
// @Param section query string true "Section name"
// @Param schoolYear query string true "School year"
// @Success 200 {object} response.Envelope
// @Router /masterlists/my-assignment [get]
func (h *MasterlistHandler) MyAssignment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grade, err := strconv.Atoi(c.Query("grade"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "grade query parameter required"))
		return
	}
	assignment, err := h.masterlists.StudentAssignment(c.Request.Context(), claims.UserID, grade, c.Query("section"), c.Query("schoolYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// ExportCSV godoc
// @Summary Download the roster as CSV
// @Tags Masterlists
// @Produce text/csv
// @Param id path string true "Masterlist ID"
// @Success 200 {file} file
// @Router /masterlists/{id}/export [get]
func (h *MasterlistHandler) ExportCSV(c *gin.Context) {
	payload, filename, err := h.masterlists.ExportCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", payload)
}
