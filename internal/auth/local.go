package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// LocalAuthHandler holds the database connection for local auth endpoints
type LocalAuthHandler struct {
	DB *database.DBinstanceStruct
}

// NewLocalAuthHandler creates a new instance of LocalAuthHandler with the provided database connection.
func NewLocalAuthHandler(db *database.DBinstanceStruct) *LocalAuthHandler {
	return &LocalAuthHandler{DB: db}
}

// LocalRegisterHandler handles registration of applicant and company accounts.
// @Summary Register an applicant or company account with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Success 201 {object} model.AuthResponse "Register success"
// @Failure 400 {object} utilities.ErrorResponse "Invalid body or role"
// @Failure 409 {object} utilities.ErrorResponse "Email already registered"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /auth/register [post]
func (h *LocalAuthHandler) LocalRegisterHandler(c *gin.Context) {
	var info struct {
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required"`
		Role        string `json:"role" binding:"required,oneof=applicant company"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		CompanyName string `json:"company_name"`
		EmailDomain string `json:"email_domain"`
	}

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email, password, and role (only 'applicant' or 'company') must be provided",
		})
		return
	}

	if len(info.Password) < 8 {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Password should longer or equal to 8 characters",
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))

	var existing model.Account
	err := h.DB.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		c.JSON(http.StatusConflict, utilities.ErrorResponse{Error: "Email already registered"})
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Do nothing
	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	hashedPassword, err := utilities.HashPassword(info.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed hash password: %s", err.Error()),
		})
		return
	}

	verified := false
	var verifyToken *string
	var verifyExpiry *time.Time
	if strings.ToLower(strings.TrimSpace(os.Getenv("BYPASS_VERIFICATION"))) == "true" {
		verified = true
	} else {
		token, err := utilities.RandomHex(16)
		if err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to generate verification token"})
			return
		}
		expiry := time.Now().Add(48 * time.Hour)
		verifyToken = &token
		verifyExpiry = &expiry
	}

	account := model.Account{
		Email:             email,
		Password:          hashedPassword,
		Role:              info.Role,
		Verified:          verified,
		VerifyToken:       verifyToken,
		VerifyTokenExpiry: verifyExpiry,
	}
	if err := h.DB.Create(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create account: %s", err.Error()),
		})
		return
	}

	var profile interface{}
	switch info.Role {
	case model.RoleApplicant:
		p := model.ApplicantProfile{
			AccountID: account.ID,
			FirstName: info.FirstName,
			LastName:  info.LastName,
		}
		if err := h.DB.Create(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to create profile: %s", err.Error()),
			})
			return
		}
		profile = p
	case model.RoleCompany:
		if info.CompanyName == "" {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "company_name must be provided"})
			return
		}
		p := model.CompanyProfile{
			AccountID:   account.ID,
			Name:        info.CompanyName,
			EmailDomain: info.EmailDomain,
		}
		if err := h.DB.Create(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to create profile: %s", err.Error()),
			})
			return
		}
		profile = p
	}

	accessToken, err := GenerateToken(account.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate access token: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, model.AuthResponse{
		Account:     account,
		Profile:     profile,
		AccessToken: accessToken,
	})
}

// LocalLoginHandler handles email + password login for any role.
// @Summary Login with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} model.AuthResponse "Login success"
// @Failure 400 {object} utilities.ErrorResponse "Invalid body"
// @Failure 401 {object} utilities.ErrorResponse "Wrong email or password"
// @Router /auth/login [post]
func (h *LocalAuthHandler) LocalLoginHandler(c *gin.Context) {
	var info struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email and password must be provided",
		})
		return
	}

	var account model.Account
	err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(info.Email))).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !utilities.CheckPassword(account.Password, info.Password)) {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: "Wrong email or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	now := time.Now()
	if err := h.DB.Model(&account).UpdateColumn("last_login_at", now).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to record login: %s", err.Error()),
		})
		return
	}
	account.LastLoginAt = &now

	accessToken, err := GenerateToken(account.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate access token: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, model.AuthResponse{
		Account:     account,
		AccessToken: accessToken,
	})
}

// VerifyEmailHandler flips the account to verified when the token matches
// and has not expired.
// @Summary Verify a freshly registered account
// @Tags Auth
// @Produce json
// @Success 200 {object} utilities.MessageResponse "Verified"
// @Failure 400 {object} utilities.ErrorResponse "Invalid or expired token"
// @Router /auth/verify [post]
func (h *LocalAuthHandler) VerifyEmailHandler(c *gin.Context) {
	var info struct {
		Email string `json:"email" binding:"required"`
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Email and token must be provided"})
		return
	}

	var account model.Account
	if err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(info.Email))).First(&account).Error; err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid verification token"})
		return
	}

	if account.VerifyToken == nil || *account.VerifyToken != info.Token ||
		account.VerifyTokenExpiry == nil || account.VerifyTokenExpiry.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid verification token"})
		return
	}

	updates := map[string]interface{}{
		"verified":            true,
		"verify_token":        nil,
		"verify_token_expiry": nil,
	}
	if err := h.DB.Model(&account).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to verify account"})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Account verified"})
}

// RequestPasswordResetHandler issues a reset token. The response is the same
// whether or not the email exists.
// @Summary Request a password reset token
// @Tags Auth
// @Produce json
// @Success 200 {object} utilities.MessageResponse "Reset requested"
// @Router /auth/reset/request [post]
func (h *LocalAuthHandler) RequestPasswordResetHandler(c *gin.Context) {
	var info struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Email must be provided"})
		return
	}

	var account model.Account
	err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(info.Email))).First(&account).Error
	if err == nil {
		token, terr := utilities.RandomHex(16)
		if terr == nil {
			expiry := time.Now().Add(2 * time.Hour)
			_ = h.DB.Model(&account).Updates(map[string]interface{}{
				"reset_token":        token,
				"reset_token_expiry": expiry,
			}).Error
		}
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "If the email exists, a reset token has been issued"})
}

// ResetPasswordHandler sets a new password when the reset token matches.
// @Summary Reset password with a previously issued token
// @Tags Auth
// @Produce json
// @Success 200 {object} utilities.MessageResponse "Password updated"
// @Failure 400 {object} utilities.ErrorResponse "Invalid or expired token"
// @Router /auth/reset [post]
func (h *LocalAuthHandler) ResetPasswordHandler(c *gin.Context) {
	var info struct {
		Email       string `json:"email" binding:"required"`
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Email, token and new_password must be provided"})
		return
	}

	if len(info.NewPassword) < 8 {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Password should longer or equal to 8 characters"})
		return
	}

	var account model.Account
	if err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(info.Email))).First(&account).Error; err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid reset token"})
		return
	}

	if account.ResetToken == nil || *account.ResetToken != info.Token ||
		account.ResetTokenExpiry == nil || account.ResetTokenExpiry.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid reset token"})
		return
	}

	hashed, err := utilities.HashPassword(info.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to hash password"})
		return
	}

	if err := h.DB.Model(&account).Updates(map[string]interface{}{
		"password":           hashed,
		"reset_token":        nil,
		"reset_token_expiry": nil,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Password updated"})
}
