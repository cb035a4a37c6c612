// Package resume provides HTTP handlers for résumé upload and management.
package resume

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// Controller handles résumé related endpoints
type Controller struct {
	DB *database.DBinstanceStruct
}

// NewController creates a new instance of Controller with the provided database connection.
func NewController(db *database.DBinstanceStruct) *Controller {
	return &Controller{DB: db}
}

var allowedExtensions = []string{".pdf", ".doc", ".docx"}

// Upload stores an uploaded résumé file for the calling applicant.
// @Summary Upload a résumé (applicant only)
// @Tags Resume
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 201 {object} model.Resume
// @Failure 400 {object} utilities.ErrorResponse "Missing or unsupported file"
// @Router /resume [post]
func (ctl *Controller) Upload(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "A file must be provided"})
		return
	}

	ext := filepath.Ext(fileHeader.Filename)
	if !utilities.Contains(allowedExtensions, ext) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Unsupported file extension %q", ext),
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Failed to open uploaded file"})
		return
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Failed to read uploaded file"})
		return
	}

	resume := model.Resume{
		ApplicantID: id.ProfileID,
		FileName:    fileHeader.Filename,
		Content:     content,
		Extension:   ext,
	}
	if err := ctl.DB.Create(&resume).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to store resume: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, resume)
}

// ListMine returns the caller's résumés without file content.
// @Summary List my résumés (applicant only)
// @Tags Resume
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Resume
// @Router /resume [get]
func (ctl *Controller) ListMine(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var resumes []model.Resume
	if err := ctl.DB.Omit("content").
		Where("applicant_id = ?", id.ProfileID).
		Order("uploaded_at DESC").
		Find(&resumes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list resumes: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, resumes)
}

// loadResume fetches a resume by path id, or writes the error response.
func (ctl *Controller) loadResume(c *gin.Context) (*model.Resume, bool) {
	resumeID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid resume id"})
		return nil, false
	}

	var resume model.Resume
	if err := ctl.DB.Where("id = ?", resumeID).First(&resume).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Resume not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve resume: %s", err.Error()),
		})
		return nil, false
	}
	return &resume, true
}

// Download streams the résumé file. Allowed for the owning applicant, and
// for staff/company whose company has an application referencing it.
// @Summary Download a résumé file
// @Tags Resume
// @Produce octet-stream
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {file} binary
// @Failure 403 {object} utilities.ErrorResponse "Not visible in your scope"
// @Router /resume/{id} [get]
func (ctl *Controller) Download(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	resume, ok := ctl.loadResume(c)
	if !ok {
		return
	}

	allowed := false
	switch id.Role {
	case model.RoleAdmin:
		allowed = true
	case model.RoleApplicant:
		allowed = resume.BelongsTo(id.ProfileID)
	case model.RoleStaff, model.RoleCompany:
		var count int64
		ctl.DB.Model(&model.Application{}).
			Where("resume_id = ? AND company_id = ?", resume.ID, id.CompanyID).
			Count(&count)
		allowed = count > 0
	}
	if !allowed {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{Error: "Resume not visible in your scope"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resume.FileName))
	c.Data(http.StatusOK, "application/octet-stream", resume.Content)
}

// Delete removes one of the caller's résumés.
// @Summary Delete my résumé (applicant only)
// @Tags Resume
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} utilities.MessageResponse
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Router /resume/{id} [delete]
func (ctl *Controller) Delete(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	resume, ok := ctl.loadResume(c)
	if !ok {
		return
	}

	if !resume.BelongsTo(id.ProfileID) {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{Error: "Resume belongs to another applicant"})
		return
	}

	if err := ctl.DB.Delete(resume).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete resume: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Resume deleted"})
}
