package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/efvillarin/sis-api/internal/service"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/response"
)

// EnrollmentPeriodHandler manages the admin-controlled enrollment window.
type EnrollmentPeriodHandler struct {
	periods *service.EnrollmentPeriodService
}

// NewEnrollmentPeriodHandler constructs EnrollmentPeriodHandler.
func NewEnrollmentPeriodHandler(periods *service.EnrollmentPeriodService) *EnrollmentPeriodHandler {
	return &EnrollmentPeriodHandler{periods: periods}
}

// List godoc
// @Summary List enrollment periods
// @Tags EnrollmentPeriods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollment-periods [get]
func (h *EnrollmentPeriodHandler) List(c *gin.Context) {
	periods, err := h.periods.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// Current godoc
// @Summary Current enrollment window state
// @Tags EnrollmentPeriods
// @Produce json
// @Param schoolYear query string true "School year"
// @Success 200 {object} response.Envelope
// @Router /enrollment-periods/current [get]
func (h *EnrollmentPeriodHandler) Current(c *gin.Context) {
	schoolYear := c.Query("schoolYear")
	if schoolYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolYear query parameter required"))
		return
	}
	period, active, err := h.periods.Current(c.Request.Context(), schoolYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"period": period, "open": active}, nil)
}

// Upsert godoc
// @Summary Create or update the period for a school year
// @Tags EnrollmentPeriods
// @Accept json
// @Produce json
// @Param payload body service.EnrollmentPeriodInput true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /enrollment-periods [put]
func (h *EnrollmentPeriodHandler) Upsert(c *gin.Context) {
	var input service.EnrollmentPeriodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period payload"))
		return
	}
	period, err := h.periods.Upsert(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// SetActive godoc
// @Summary Open or close the enrollment window
// @Tags EnrollmentPeriods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body map[string]bool true "Active flag"
// @Success 200 {object} response.Envelope
// @Router /enrollment-periods/{id}/active [patch]
func (h *EnrollmentPeriodHandler) SetActive(c *gin.Context) {
	var payload struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "active flag required"))
		return
	}
	period, err := h.periods.SetActive(c.Request.Context(), c.Param("id"), *payload.Active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}
