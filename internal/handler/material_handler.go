package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/efvillarin/sis-api/internal/models"
	"github.com/efvillarin/sis-api/internal/service"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/response"
)

// MaterialHandler exposes learning-material upload and download endpoints.
type MaterialHandler struct {
	materials *service.MaterialService
}

// NewMaterialHandler constructs MaterialHandler.
func NewMaterialHandler(materials *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{materials: materials}
}

// List godoc
// @Summary List learning materials
// @Tags Materials
// @Produce json
// @Param subjectId query string false "Filter by subject"
// @Param grade query int false "Filter by grade level"
// @Param uploaderId query string false "Filter by uploader"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.MaterialFilter{
		SubjectID:  c.Query("subjectId"),
		UploaderID: c.Query("uploaderId"),
		Page:       page,
		PageSize:   pageSize,
	}
	if raw := c.Query("grade"); raw != "" {
		if grade, err := strconv.Atoi(raw); err == nil {
			filter.GradeLevel = grade
		}
	}

	materials, total, err := h.materials.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, paginationOf(page, pageSize, total))
}

// Get godoc
// @Summary Fetch one material's metadata
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id} [get]
func (h *MaterialHandler) Get(c *gin.Context) {
	material, err := h.materials.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Upload godoc
// @Summary Upload a learning material
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File content"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param subject_id formData string false "Subject ID"
// @Param grade_level formData int true "Grade level (7-10)"
// @Success 201 {object} response.Envelope
// @Router /materials [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file part is required"))
		return
	}
	gradeLevel, err := strconv.Atoi(c.PostForm("grade_level"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "grade_level must be a number"))
		return
	}

	input := service.UploadMaterialInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		GradeLevel:  gradeLevel,
		Filename:    fileHeader.Filename,
		MIMEType:    fileHeader.Header.Get("Content-Type"),
		SizeBytes:   fileHeader.Size,
	}
	if subjectID := c.PostForm("subject_id"); subjectID != "" {
		input.SubjectID = &subjectID
	}

	content, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer content.Close()

	material, err := h.materials.Upload(c.Request.Context(), claims.UserID, input, content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// DownloadLink godoc
// @Summary Issue a signed, expiring download token
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id}/download-link [post]
func (h *MaterialHandler) DownloadLink(c *gin.Context) {
	token, expiresAt, err := h.materials.DownloadLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	}, nil)
}

// Download godoc
// @Summary Download a material via a signed token
// @Tags Materials
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /materials/download [get]
func (h *MaterialHandler) Download(c *gin.Context) {
	download, err := h.materials.ResolveDownload(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", `attachment; filename="`+download.Material.Title+`"`)
	c.DataFromReader(http.StatusOK, download.Material.SizeBytes, download.Material.MIMEType, download.File, nil)
}

// Delete godoc
// @Summary Delete a material and its stored file
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 204 "No Content"
// @Router /materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	isAdmin := claims.Role == models.RoleAdmin
	if err := h.materials.Delete(c.Request.Context(), c.Param("id"), claims.UserID, isAdmin); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
