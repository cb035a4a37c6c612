// Package jobpost provides HTTP handlers for job posting operations.
package jobpost

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// Controller handles job posting related endpoints
type Controller struct {
	DB *database.DBinstanceStruct
}

// NewController creates a new instance of Controller with the provided database connection.
func NewController(db *database.DBinstanceStruct) *Controller {
	return &Controller{DB: db}
}

// validateContacter checks that the designated contact is an active hr
// staff member of the given company.
func (ctl *Controller) validateContacter(contacterID, companyID uuid.UUID) error {
	var contacter model.StaffProfile
	if err := ctl.DB.Where("id = ?", contacterID).First(&contacter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("contacter not found")
		}
		return err
	}
	if contacter.CompanyID != companyID {
		return errors.New("contacter does not belong to your company")
	}
	if contacter.Position != model.StaffPositionHR {
		return errors.New("contacter must have the hr position")
	}
	if !contacter.Active {
		return errors.New("contacter is deactivated")
	}
	return nil
}

// Create handles the creation of a job posting by a company.
// @Summary Create job post
// @Description Only company accounts can access this endpoint
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 201 {object} model.Job "Successfully created job post"
// @Failure 400 {object} utilities.ErrorResponse "Invalid body or contacter"
// @Router /jobpost [post]
func (ctl *Controller) Create(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var body struct {
		model.EditableJobInfo
		ContacterID uuid.UUID `json:"contacter_id" binding:"required"`
		Status      string    `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if err := ctl.validateContacter(body.ContacterID, id.CompanyID); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	status := body.Status
	if status == "" {
		status = model.JobStatusActive
	}
	if !utilities.Contains([]string{model.JobStatusDraft, model.JobStatusActive, model.JobStatusClosed}, status) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: fmt.Sprintf("Invalid job status %q", status)})
		return
	}

	job := model.Job{
		CompanyID:       id.CompanyID,
		ContacterID:     body.ContacterID,
		EditableJobInfo: body.EditableJobInfo,
		Status:          status,
	}
	if err := ctl.DB.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create job post: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// List returns active job postings with optional filters. Public to every
// authenticated role.
// @Summary List active job posts
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Job
// @Router /jobpost [get]
func (ctl *Controller) List(c *gin.Context) {
	q := ctl.DB.Where("status = ?", model.JobStatusActive)

	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if location := c.Query("location"); location != "" {
		q = q.Where("location = ?", location)
	}
	if jobType := c.Query("type"); jobType != "" {
		q = q.Where("type = ?", jobType)
	}
	if companyID, err := uuid.Parse(c.Query("company_id")); err == nil {
		q = q.Where("company_id = ?", companyID)
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		q = q.Limit(limit)
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		q = q.Offset(offset)
	}

	var jobs []model.Job
	if err := q.Order("post_time DESC").Find(&jobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list job posts: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// Get returns one job posting by id.
// @Summary Get a job post by id
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.Job
// @Failure 404 {object} utilities.ErrorResponse "Job post not found"
// @Router /jobpost/{id} [get]
func (ctl *Controller) Get(c *gin.Context) {
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid job id"})
		return
	}

	var job model.Job
	if err := ctl.DB.Where("id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job post: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// loadOwnJob fetches a job and checks that the caller's company owns it.
func (ctl *Controller) loadOwnJob(c *gin.Context, id identity.Identity) (*model.Job, bool) {
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid job id"})
		return nil, false
	}

	var job model.Job
	if err := ctl.DB.Where("id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job post not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job post: %s", err.Error()),
		})
		return nil, false
	}

	if id.Role != model.RoleAdmin && job.CompanyID != id.CompanyID {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{Error: "Job post belongs to another company"})
		return nil, false
	}

	return &job, true
}

// Edit patches the editable part of a job posting owned by the caller.
// @Summary Edit a job post (owning company or admin)
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.Job
// @Failure 403 {object} utilities.ErrorResponse "Not the owning company"
// @Router /jobpost/{id} [patch]
func (ctl *Controller) Edit(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	job, ok := ctl.loadOwnJob(c, id)
	if !ok {
		return
	}

	var patch model.EditableJobInfo
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	utilities.MergeNonEmpty(&job.EditableJobInfo, &patch)

	if err := ctl.DB.Save(job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update job post: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// Close marks a job posting closed so it stops accepting applications.
// @Summary Close a job post (owning company or admin)
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.Job
// @Router /jobpost/{id}/close [put]
func (ctl *Controller) Close(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	job, ok := ctl.loadOwnJob(c, id)
	if !ok {
		return
	}

	if err := ctl.DB.Model(job).UpdateColumn("status", model.JobStatusClosed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to close job post: %s", err.Error()),
		})
		return
	}
	job.Status = model.JobStatusClosed

	c.JSON(http.StatusOK, job)
}

// Delete removes a job posting and its applications.
// @Summary Delete a job post (owning company or admin)
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} utilities.MessageResponse
// @Router /jobpost/{id} [delete]
func (ctl *Controller) Delete(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	job, ok := ctl.loadOwnJob(c, id)
	if !ok {
		return
	}

	if err := ctl.DB.Delete(job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete job post: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Job post deleted"})
}
