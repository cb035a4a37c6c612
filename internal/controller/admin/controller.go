// Package admin provides HTTP handlers for platform administration.
package admin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// Controller handles admin related endpoints
type Controller struct {
	DB *database.DBinstanceStruct
}

// NewController creates a new instance of Controller with the provided database connection.
func NewController(db *database.DBinstanceStruct) *Controller {
	return &Controller{DB: db}
}

// ListCompanies returns every company profile, optionally filtered by
// verification status.
// @Summary List companies (admin only)
// @Tags Admin
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.CompanyProfile
// @Router /admin/companies [get]
func (ctl *Controller) ListCompanies(c *gin.Context) {
	q := ctl.DB.Order("name ASC")
	if status := c.Query("status"); status != "" {
		q = q.Where("verified_status = ?", status)
	}

	var companies []model.CompanyProfile
	if err := q.Find(&companies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list companies: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, companies)
}

// VerifyCompany sets a company's verification status.
// @Summary Verify or reject a company (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.CompanyProfile
// @Failure 404 {object} utilities.ErrorResponse "Company not found"
// @Router /admin/verify-company/{company_id} [patch]
func (ctl *Controller) VerifyCompany(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("company_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid company id"})
		return
	}

	var body struct {
		Status string `json:"status" binding:"required,oneof=pending verified rejected"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "status (pending, verified or rejected) must be provided",
		})
		return
	}

	var company model.CompanyProfile
	if err := ctl.DB.Where("id = ?", companyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Company not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve company: %s", err.Error()),
		})
		return
	}

	if err := ctl.DB.Model(&company).UpdateColumn("verified_status", body.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update company: %s", err.Error()),
		})
		return
	}
	company.VerifiedStatus = body.Status

	c.JSON(http.StatusOK, company)
}
