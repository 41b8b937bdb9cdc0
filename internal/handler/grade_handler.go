package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/efvillarin/sis-api/internal/models"
	"github.com/efvillarin/sis-api/internal/service"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/response"
)

// GradeHandler exposes quarterly marks and report cards.
type GradeHandler struct {
	grades   *service.GradeService
	teachers *service.TeacherService
	students *service.StudentService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService, teachers *service.TeacherService, students *service.StudentService) *GradeHandler {
	return &GradeHandler{grades: grades, teachers: teachers, students: students}
}

// PostMark godoc
// @Summary Post a quarter mark
// @Description Only a teacher assigned to the subject may post marks.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.PostMarkInput true "Mark payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /grades/marks [post]
func (h *GradeHandler) PostMark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	teacher, err := h.teachers.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile for this account"))
		return
	}

	var input service.PostMarkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mark payload"))
		return
	}

	grade, err := h.grades.PostMark(c.Request.Context(), teacher.ID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// SetComment godoc
// @Summary Set the adviser comment on a grade record
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Student, school year and comment"
// @Success 200 {object} response.Envelope
// @Router /grades/comment [put]
func (h *GradeHandler) SetComment(c *gin.Context) {
	var payload struct {
		StudentID  string `json:"student_id" binding:"required"`
		SchoolYear string `json:"school_year" binding:"required"`
		Comment    string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}
	grade, err := h.grades.SetComment(c.Request.Context(), payload.StudentID, payload.SchoolYear, payload.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// ReportCard godoc
// @Summary Derived report card for a student
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Param schoolYear query string true "School year"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /grades/{studentId}/report-card [get]
func (h *GradeHandler) ReportCard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	schoolYear := c.Query("schoolYear")
	if schoolYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYear query parameter required"))
		return
	}

	selfView := claims.Role == models.RoleStudent
	card, err := h.grades.ReportCard(c.Request.Context(), claims.UserID, c.Param("studentId"), schoolYear, selfView)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// MyReportCard godoc
// @Summary Own report card
// @Tags Grades
// @Produce json
// @Param schoolYear query string true "School year"
// @Success 200 {object} response.Envelope
// @Router /grades/me [get]
func (h *GradeHandler) MyReportCard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	schoolYear := c.Query("schoolYear")
	if schoolYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYear query parameter required"))
		return
	}

	student, err := h.students.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	card, err := h.grades.ReportCard(c.Request.Context(), claims.UserID, student.ID, schoolYear, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// ExportPDF godoc
// @Summary Download a report card as PDF
// @Tags Grades
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Param schoolYear query string true "School year"
// @Success 200 {file} file
// @Router /grades/{studentId}/report-card/export [get]
func (h *GradeHandler) ExportPDF(c *gin.Context) {
	schoolYear := c.Query("schoolYear")
	if schoolYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYear query parameter required"))
		return
	}
	payload, filename, err := h.grades.ExportPDF(c.Request.Context(), c.Param("studentId"), schoolYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", payload)
}
