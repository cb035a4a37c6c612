package auth

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var midTeardown func(context.Context, ...testcontainers.TerminateOption) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
}

func newAuthRouter() *gin.Engine {
	handler := NewLocalAuthHandler(testDB)
	r := gin.Default()
	r.POST("/register", handler.LocalRegisterHandler)
	r.POST("/login", handler.LocalLoginHandler)
	r.POST("/verify", handler.VerifyEmailHandler)
	r.POST("/reset/request", handler.RequestPasswordResetHandler)
	r.POST("/reset", handler.ResetPasswordHandler)
	return r
}

func TestRegisterApplicant(t *testing.T) {
	t.Setenv("BYPASS_VERIFICATION", "true")
	r := newAuthRouter()

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"email":      "New.Applicant@Mail.Test",
		"password":   "Password1!",
		"role":       model.RoleApplicant,
		"first_name": "New",
		"last_name":  "Applicant",
	}, "", r, "/register", http.MethodPost)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, resp["access_token"])

	// Email is stored lowercased and the profile exists
	var account model.Account
	require.NoError(t, testDB.Where("email = ?", "new.applicant@mail.test").First(&account).Error)
	assert.True(t, account.Verified)
	var profile model.ApplicantProfile
	assert.NoError(t, testDB.Where("account_id = ?", account.ID).First(&profile).Error)

	// Same email again conflicts, case-insensitively
	rec, _ = testutil.MakeJSONRequest(gin.H{
		"email":    "new.applicant@mail.test",
		"password": "Password1!",
		"role":     model.RoleApplicant,
	}, "", r, "/register", http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterCompany(t *testing.T) {
	t.Setenv("BYPASS_VERIFICATION", "true")
	r := newAuthRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"email":        "founder@initech.test",
		"password":     "Password1!",
		"role":         model.RoleCompany,
		"company_name": "Initech",
		"email_domain": "initech.test",
	}, "", r, "/register", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var account model.Account
	require.NoError(t, testDB.Where("email = ?", "founder@initech.test").First(&account).Error)
	var profile model.CompanyProfile
	require.NoError(t, testDB.Where("account_id = ?", account.ID).First(&profile).Error)
	assert.Equal(t, model.CompanyStatusPending, profile.VerifiedStatus)
	assert.NotEmpty(t, profile.Slug)

	// Companies must provide a name
	rec, _ = testutil.MakeJSONRequest(gin.H{
		"email":    "founder2@initech.test",
		"password": "Password1!",
		"role":     model.RoleCompany,
	}, "", r, "/register", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	r := newAuthRouter()

	// Short password
	rec, _ := testutil.MakeJSONRequest(gin.H{
		"email":    "short@mail.test",
		"password": "short",
		"role":     model.RoleApplicant,
	}, "", r, "/register", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Staff and admin accounts are never self-registered
	rec, _ = testutil.MakeJSONRequest(gin.H{
		"email":    "staff@mail.test",
		"password": "Password1!",
		"role":     model.RoleStaff,
	}, "", r, "/register", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	r := newAuthRouter()

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"email":    database.TestAccountApplicant1.Email,
		"password": database.TestSeedPassword,
	}, "", r, "/login", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, resp["access_token"])

	var account model.Account
	require.NoError(t, testDB.Where("id = ?", database.TestAccountApplicant1.ID).First(&account).Error)
	assert.NotNil(t, account.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	r := newAuthRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"email":    database.TestAccountApplicant1.Email,
		"password": "not-the-password",
	}, "", r, "/login", http.MethodPost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown email gets the same response as a wrong password
	rec, _ = testutil.MakeJSONRequest(gin.H{
		"email":    "nobody@mail.test",
		"password": "not-the-password",
	}, "", r, "/login", http.MethodPost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyEmail(t *testing.T) {
	t.Setenv("BYPASS_VERIFICATION", "")
	r := newAuthRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"email":      "unverified@mail.test",
		"password":   "Password1!",
		"role":       model.RoleApplicant,
		"first_name": "Una",
	}, "", r, "/register", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var account model.Account
	require.NoError(t, testDB.Where("email = ?", "unverified@mail.test").First(&account).Error)
	require.False(t, account.Verified)
	require.NotNil(t, account.VerifyToken)

	// Wrong token is rejected
	rec, _ = testutil.MakeJSONRequest(gin.H{
		"email": "unverified@mail.test",
		"token": "bogus",
	}, "", r, "/verify", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{
		"email": "unverified@mail.test",
		"token": *account.VerifyToken,
	}, "", r, "/verify", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, testDB.Where("id = ?", account.ID).First(&account).Error)
	assert.True(t, account.Verified)
	assert.Nil(t, account.VerifyToken)
}

func TestPasswordResetFlow(t *testing.T) {
	t.Setenv("BYPASS_VERIFICATION", "true")
	r := newAuthRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"email":    "resetme@mail.test",
		"password": "OldPassword1!",
		"role":     model.RoleApplicant,
	}, "", r, "/register", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The response does not reveal whether the email exists
	rec, resp := testutil.MakeJSONRequest(gin.H{"email": "resetme@mail.test"}, "", r, "/reset/request", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, respUnknown := testutil.MakeJSONRequest(gin.H{"email": "ghost@mail.test"}, "", r, "/reset/request", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp["message"], respUnknown["message"])

	var account model.Account
	require.NoError(t, testDB.Where("email = ?", "resetme@mail.test").First(&account).Error)
	require.NotNil(t, account.ResetToken)

	rec, _ = testutil.MakeJSONRequest(gin.H{
		"email":        "resetme@mail.test",
		"token":        *account.ResetToken,
		"new_password": "NewPassword1!",
	}, "", r, "/reset", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Old password no longer works, new one does
	rec, _ = testutil.MakeJSONRequest(gin.H{
		"email":    "resetme@mail.test",
		"password": "OldPassword1!",
	}, "", r, "/login", http.MethodPost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{
		"email":    "resetme@mail.test",
		"password": "NewPassword1!",
	}, "", r, "/login", http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
}
