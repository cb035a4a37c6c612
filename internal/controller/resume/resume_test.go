package resume

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/auth"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/middleware"
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

func newResumeRouter() *gin.Engine {
	resolver := identity.NewResolver(testDB)
	ctl := NewController(testDB)

	r := gin.Default()
	r.Use(middleware.RequireAuth(resolver))
	r.POST("/resume", middleware.CheckRole(model.RoleApplicant), ctl.Upload)
	r.GET("/resume", middleware.CheckRole(model.RoleApplicant), ctl.ListMine)
	r.GET("/resume/:id", ctl.Download)
	r.DELETE("/resume/:id", middleware.CheckRole(model.RoleApplicant), ctl.Delete)
	return r
}

func uploadFile(t *testing.T, r *gin.Engine, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, _ := http.NewRequest(http.MethodPost, "/resume", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUploadResume(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newResumeRouter()

	rec := uploadFile(t, r, token, "cv.pdf", []byte("%PDF-1.4 fake"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Unsupported extensions are rejected
	rec = uploadFile(t, r, token, "cv.exe", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No file at all
	rec2, _ := testutil.MakeJSONRequest(nil, token, r, "/resume", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestListMineOmitsContent(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newResumeRouter()

	req, _ := http.NewRequest(http.MethodGet, "/resume", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "resume one")
}

func TestDownloadScoping(t *testing.T) {
	r := newResumeRouter()
	path := "/resume/" + strconv.Itoa(database.TestResume1.ID)

	// Owner downloads their own file
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	rec, _ := testutil.MakeJSONRequest(nil, token, r, path, http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "resume one", rec.Body.String())

	// Another applicant may not
	token2, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	rec, _ = testutil.MakeJSONRequest(nil, token2, r, path, http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Staff without an application referencing the resume may not either
	hrToken, err := auth.GetAccessToken(t, testDB, database.TestAccountHR2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	rec, _ = testutil.MakeJSONRequest(nil, hrToken, r, path, http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDownloadAfterApplication(t *testing.T) {
	// Once an application references the resume, the company's staff can read it
	app := model.Application{
		JobID:       database.TestJob1.ID,
		ApplicantID: database.TestApplicant1.ID,
		HRID:        database.TestHR1.ID,
		CompanyID:   database.TestCompany1.ID,
		ResumeID:    database.TestResume1.ID,
		Status:      model.ApplicationStatusPending,
	}
	require.NoError(t, testDB.Create(&app).Error)

	hrToken, err := auth.GetAccessToken(t, testDB, database.TestAccountHR1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newResumeRouter()

	rec, _ := testutil.MakeJSONRequest(nil, hrToken, r, "/resume/"+strconv.Itoa(database.TestResume1.ID), http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteForeignResume(t *testing.T) {
	token2, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newResumeRouter()

	rec, _ := testutil.MakeJSONRequest(nil, token2, r, "/resume/"+strconv.Itoa(database.TestResume1.ID), http.MethodDelete)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
