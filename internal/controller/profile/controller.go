// Package profile provides HTTP handlers for role profile management,
// including company staff administration.
package profile

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// Controller handles profile related endpoints
type Controller struct {
	DB *database.DBinstanceStruct
}

// NewController creates a new instance of Controller with the provided database connection.
func NewController(db *database.DBinstanceStruct) *Controller {
	return &Controller{DB: db}
}

// GetMyApplicantProfile returns the caller's applicant profile.
// @Summary Get my applicant profile
// @Tags Profile
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.ApplicantProfile
// @Router /applicant/myprofile [get]
func (ctl *Controller) GetMyApplicantProfile(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var profile model.ApplicantProfile
	if err := ctl.DB.Where("id = ?", id.ProfileID).First(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve profile: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// EditApplicantProfile patches the caller's applicant profile with the
// non-empty fields of the body.
// @Summary Edit my applicant profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.ApplicantProfile
// @Router /applicant/profile [patch]
func (ctl *Controller) EditApplicantProfile(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var profile model.ApplicantProfile
	if err := ctl.DB.Where("id = ?", id.ProfileID).First(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve profile: %s", err.Error()),
		})
		return
	}

	var patch model.ApplicantProfile
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}
	// identity columns are not patchable
	patch.ID = uuid.Nil
	patch.AccountID = uuid.Nil

	utilities.MergeNonEmpty(&profile, &patch)

	if err := ctl.DB.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update profile: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetMyCompanyProfile returns the caller's company profile with its staff.
// @Summary Get my company profile
// @Tags Profile
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.CompanyProfile
// @Router /company/myprofile [get]
func (ctl *Controller) GetMyCompanyProfile(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var profile model.CompanyProfile
	if err := ctl.DB.Preload("Staff").Where("id = ?", id.ProfileID).First(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve profile: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetCompany returns a company profile by id, for any authenticated role.
// @Summary Get a company profile by id
// @Tags Profile
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.CompanyProfile
// @Failure 404 {object} utilities.ErrorResponse "Company not found"
// @Router /company/{company_id} [get]
func (ctl *Controller) GetCompany(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("company_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid company id"})
		return
	}

	var profile model.CompanyProfile
	if err := ctl.DB.Where("id = ?", companyID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Company not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve company: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// EditCompanyProfile patches the caller's company profile.
// @Summary Edit my company profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.CompanyProfile
// @Router /company/profile [patch]
func (ctl *Controller) EditCompanyProfile(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var profile model.CompanyProfile
	if err := ctl.DB.Where("id = ?", id.ProfileID).First(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve profile: %s", err.Error()),
		})
		return
	}

	var patch model.CompanyProfile
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}
	patch.ID = uuid.Nil
	patch.AccountID = uuid.Nil
	patch.Slug = ""
	patch.VerifiedStatus = ""

	utilities.MergeNonEmpty(&profile, &patch)

	if err := ctl.DB.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update profile: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// CreateStaff registers a staff account under the caller's company. The
// staff email is derived from the company's email domain.
// @Summary Create a staff account (company only)
// @Tags Profile
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 201 {object} model.StaffProfile
// @Failure 400 {object} utilities.ErrorResponse "Invalid body or position"
// @Failure 409 {object} utilities.ErrorResponse "Email already registered"
// @Router /company/staff [post]
func (ctl *Controller) CreateStaff(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var info struct {
		LocalPart string `json:"local_part" binding:"required"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Position  string `json:"position" binding:"required,oneof=hr interviewer other"`
	}
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "local_part, password and position (hr, interviewer or other) must be provided",
		})
		return
	}

	if len(info.Password) < 8 {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Password should longer or equal to 8 characters"})
		return
	}

	var company model.CompanyProfile
	if err := ctl.DB.Where("id = ?", id.ProfileID).First(&company).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve company: %s", err.Error()),
		})
		return
	}
	if company.EmailDomain == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Company has no email domain configured"})
		return
	}

	email := strings.ToLower(info.LocalPart + "@" + company.EmailDomain)

	var existing model.Account
	if err := ctl.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, utilities.ErrorResponse{Error: "Email already registered"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	hashed, err := utilities.HashPassword(info.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to hash password"})
		return
	}

	account := model.Account{
		Email:    email,
		Password: hashed,
		Role:     model.RoleStaff,
		Verified: true,
	}
	if err := ctl.DB.Create(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create account: %s", err.Error()),
		})
		return
	}

	staff := model.StaffProfile{
		AccountID: account.ID,
		CompanyID: company.ID,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Position:  info.Position,
		Active:    true,
	}
	if err := ctl.DB.Create(&staff).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create staff profile: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, staff)
}

// ListStaff returns every staff member of the caller's company.
// @Summary List my company's staff (company only)
// @Tags Profile
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.StaffProfile
// @Router /company/staff [get]
func (ctl *Controller) ListStaff(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var staff []model.StaffProfile
	if err := ctl.DB.Where("company_id = ?", id.ProfileID).Find(&staff).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list staff: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, staff)
}

// SetStaffActive activates or deactivates a staff member of the caller's
// company. Deactivated staff can no longer authenticate.
// @Summary Activate or deactivate a staff member (company only)
// @Tags Profile
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.StaffProfile
// @Failure 404 {object} utilities.ErrorResponse "Staff member not found"
// @Router /company/staff/{staff_id} [put]
func (ctl *Controller) SetStaffActive(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	staffID, err := uuid.Parse(c.Param("staff_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid staff id"})
		return
	}

	var body struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "active must be provided"})
		return
	}

	var staff model.StaffProfile
	if err := ctl.DB.Where("id = ? AND company_id = ?", staffID, id.ProfileID).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Staff member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve staff member: %s", err.Error()),
		})
		return
	}

	if err := ctl.DB.Model(&staff).UpdateColumn("active", *body.Active).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update staff member: %s", err.Error()),
		})
		return
	}
	staff.Active = *body.Active

	c.JSON(http.StatusOK, staff)
}
