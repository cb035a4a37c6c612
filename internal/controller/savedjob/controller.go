// Package savedjob provides HTTP handlers for job bookmarks.
package savedjob

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// Controller handles saved-job related endpoints
type Controller struct {
	DB *database.DBinstanceStruct
}

// NewController creates a new instance of Controller with the provided database connection.
func NewController(db *database.DBinstanceStruct) *Controller {
	return &Controller{DB: db}
}

// Save bookmarks a job post for the calling applicant.
// @Summary Save a job post (applicant only)
// @Tags SavedJob
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 201 {object} model.SavedJob
// @Failure 404 {object} utilities.ErrorResponse "Job post not found"
// @Failure 409 {object} utilities.ErrorResponse "Already saved"
// @Router /savedjob/{job_id} [post]
func (ctl *Controller) Save(c *gin.Context) {
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

	saved := model.SavedJob{ApplicantID: id.ProfileID, JobID: job.ID}
	if err := ctl.DB.Create(&saved).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, utilities.ErrorResponse{Error: "Job post already saved"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to save job post: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, saved)
}

// ListMine returns the caller's bookmarks with their job posts.
// @Summary List my saved job posts (applicant only)
// @Tags SavedJob
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.SavedJob
// @Router /savedjob [get]
func (ctl *Controller) ListMine(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var saved []model.SavedJob
	if err := ctl.DB.Preload("Job").
		Where("applicant_id = ?", id.ProfileID).
		Order("saved_at DESC").
		Find(&saved).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list saved job posts: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, saved)
}

// Unsave removes a bookmark of the calling applicant.
// @Summary Unsave a job post (applicant only)
// @Tags SavedJob
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} utilities.MessageResponse
// @Failure 404 {object} utilities.ErrorResponse "Bookmark not found"
// @Router /savedjob/{job_id} [delete]
func (ctl *Controller) Unsave(c *gin.Context) {
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

	res := ctl.DB.Where("applicant_id = ? AND job_id = ?", id.ProfileID, jobID).Delete(&model.SavedJob{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to unsave job post: %s", res.Error.Error()),
		})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job post was not saved"})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Job post unsaved"})
}
