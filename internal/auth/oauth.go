package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	// Auto load .env file
	_ "github.com/joho/godotenv/autoload"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// OauthLoginHandler exchanges Google authorization codes for user info and
// logs in (or registers) applicant accounts.
type OauthLoginHandler struct {
	DB          *database.DBinstanceStruct
	Config      *oauth2.Config
	UserInfoURL string
}

// NewOauthLoginHandler creates a new instance of OauthLoginHandler.
func NewOauthLoginHandler(db *database.DBinstanceStruct, config *oauth2.Config, userInfoURL string) *OauthLoginHandler {
	return &OauthLoginHandler{
		DB:          db,
		Config:      config,
		UserInfoURL: userInfoURL,
	}
}

type googleUserInfo struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

func (h *OauthLoginHandler) getUserInfo(c *gin.Context) (*googleUserInfo, error) {
	var body struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Authentication code must be provided"})
		return nil, err
	}

	token, err := h.Config.Exchange(c.Request.Context(), body.Code)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Fail to exchange code for token: %s", err.Error()),
		})
		return nil, err
	}

	client := h.Config.Client(c.Request.Context(), token)
	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Fail to fetch user info: %s", err.Error()),
		})
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	uInfo := googleUserInfo{}
	if err := json.NewDecoder(resp.Body).Decode(&uInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Fail to decode user info"})
		return nil, err
	}
	if uInfo.Email == "" {
		err := fmt.Errorf("no email in user info")
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return nil, err
	}

	return &uInfo, nil
}

// ApplicantGoogleLoginHandler handles Google login for the applicant role:
// exchanges the code, finds or creates the account and profile, and returns
// an access token.
// @Summary Google login for applicants
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} model.AuthResponse "Login success"
// @Success 201 {object} model.AuthResponse "Register success"
// @Failure 400 {object} utilities.ErrorResponse "Fail to receive token or fetch user info"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /auth/google/applicant [post]
func (h *OauthLoginHandler) ApplicantGoogleLoginHandler(c *gin.Context) {

	uInfo, err := h.getUserInfo(c)
	if err != nil {
		return
	}

	respStatus := http.StatusOK

	var account model.Account
	err = h.DB.Where("email = ?", uInfo.Email).First(&account).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Google vouches for the address, no separate verification pass
		account = model.Account{
			Email:    uInfo.Email,
			Role:     model.RoleApplicant,
			Verified: true,
		}
		if err := h.DB.Create(&account).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to create account: %s", err.Error()),
			})
			return
		}
		profile := model.ApplicantProfile{
			AccountID: account.ID,
			FirstName: uInfo.GivenName,
			LastName:  uInfo.FamilyName,
		}
		if err := h.DB.Create(&profile).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to create profile: %s", err.Error()),
			})
			return
		}
		respStatus = http.StatusCreated
	case err == nil:
		if account.Role != model.RoleApplicant {
			c.JSON(http.StatusConflict, utilities.ErrorResponse{
				Error: "Email already registered with a different role",
			})
			return
		}
	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	accessToken, err := GenerateToken(account.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate access token: %s", err.Error()),
		})
		return
	}

	c.JSON(respStatus, model.AuthResponse{
		Account:     account,
		AccessToken: accessToken,
	})
}
