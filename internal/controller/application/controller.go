package application

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// Controller exposes the lifecycle engine over HTTP.
type Controller struct {
	Engine *Engine
}

// NewController creates a new instance of Controller around the engine.
func NewController(engine *Engine) *Controller {
	return &Controller{Engine: engine}
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrJobNotFound), errors.Is(err, ErrApplicationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateApplication):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidResume), errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidInterviewer), errors.Is(err, ErrJobClosed):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Apply handles the creation of a new job application by an applicant.
// @Summary Apply for a job post
// @Description Only applicant accounts can access this endpoint
// @Tags Application
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 201 {object} model.Application "Successfully applied to job post"
// @Failure 400 {object} utilities.ErrorResponse "Invalid body or resume"
// @Failure 404 {object} utilities.ErrorResponse "Job post not found"
// @Failure 409 {object} utilities.ErrorResponse "Already applied"
// @Router /job/{job_id}/apply [post]
func (ctl *Controller) Apply(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	jobID, err := strconv.ParseUint(c.Param("job_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid job id"})
		return
	}

	var body struct {
		ResumeID int `json:"resume_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	app, err := ctl.Engine.Submit(c.Request.Context(), id, uint(jobID), body.ResumeID)
	if err != nil {
		c.JSON(statusFor(err), utilities.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, app)
}

// List returns the applications visible to the caller, filtered by the
// optional status and job_id query parameters.
// @Summary List applications in my scope
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Application
// @Router /application [get]
func (ctl *Controller) List(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	f := Filters{Status: c.Query("status")}
	if jobID, err := strconv.ParseUint(c.Query("job_id"), 10, 32); err == nil {
		f.JobID = uint(jobID)
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		f.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		f.Offset = offset
	}

	apps, err := ctl.Engine.List(c.Request.Context(), id, f)
	if err != nil {
		c.JSON(statusFor(err), utilities.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, apps)
}

// ListForJob returns the applications of one job post, scoped to the
// caller's company.
// @Summary List applications of a job post (staff/company only)
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Application
// @Router /application/job/{job_id} [get]
func (ctl *Controller) ListForJob(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	jobID, err := strconv.ParseUint(c.Param("job_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid job id"})
		return
	}

	apps, err := ctl.Engine.List(c.Request.Context(), id, Filters{JobID: uint(jobID), Status: c.Query("status")})
	if err != nil {
		c.JSON(statusFor(err), utilities.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, apps)
}

// Get returns one application when it is inside the caller's scope.
// @Summary Get an application by id
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.Application
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Router /application/{id} [get]
func (ctl *Controller) Get(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	appID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid application id"})
		return
	}

	app, err := ctl.Engine.Get(c.Request.Context(), id, uint(appID))
	if err != nil {
		c.JSON(statusFor(err), utilities.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

// UpdateStatus applies a status transition, optionally assigning an
// interviewer when moving into interview.
// @Summary Transition an application status (staff/company only)
// @Tags Application
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.Application
// @Failure 400 {object} utilities.ErrorResponse "Invalid status or interviewer"
// @Failure 403 {object} utilities.ErrorResponse "Not scoped to this application"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Router /application/{id} [put]
func (ctl *Controller) UpdateStatus(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	appID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid application id"})
		return
	}

	var body struct {
		Status        string     `json:"status" binding:"required"`
		InterviewerID *uuid.UUID `json:"interviewer_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	app, err := ctl.Engine.Transition(c.Request.Context(), id, uint(appID), body.Status, body.InterviewerID)
	if err != nil {
		c.JSON(statusFor(err), utilities.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

// Withdraw deletes the caller's own application.
// @Summary Withdraw my application
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} utilities.MessageResponse
// @Failure 403 {object} utilities.ErrorResponse "Not the owning applicant"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Router /application/{id} [delete]
func (ctl *Controller) Withdraw(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	appID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid application id"})
		return
	}

	if err := ctl.Engine.Withdraw(c.Request.Context(), id, uint(appID)); err != nil {
		c.JSON(statusFor(err), utilities.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Application withdrawn"})
}
