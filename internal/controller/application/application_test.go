package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/auth"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/middleware"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/notify"
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

func newTestRouter() *gin.Engine {
	resolver := identity.NewResolver(testDB)
	fanout := notify.NewFanout(notify.NewStore(testDB), nil)
	ctl := NewController(NewEngine(testDB, fanout))

	r := gin.Default()
	r.POST("/job/:job_id/apply",
		middleware.RequireAuth(resolver), middleware.CheckRole(model.RoleApplicant), ctl.Apply)
	r.GET("/application", middleware.RequireAuth(resolver), ctl.List)
	r.GET("/application/:id", middleware.RequireAuth(resolver), ctl.Get)
	r.PUT("/application/:id",
		middleware.RequireAuth(resolver),
		middleware.CheckRole(model.RoleStaff, model.RoleCompany, model.RoleAdmin),
		ctl.UpdateStatus)
	r.DELETE("/application/:id",
		middleware.RequireAuth(resolver), middleware.CheckRole(model.RoleApplicant), ctl.Withdraw)
	return r
}

func jobCounter(t *testing.T, jobID uint) int64 {
	t.Helper()
	var job model.Job
	require.NoError(t, testDB.Where("id = ?", jobID).First(&job).Error)
	return job.ApplicationCount
}

func intString(n int) string {
	return strconv.Itoa(n)
}

func uintString(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}

func performList(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeApplications(t *testing.T, body []byte) []model.Application {
	t.Helper()
	var apps []model.Application
	require.NoError(t, json.Unmarshal(body, &apps))
	return apps
}

func TestSubmitApplication(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	before := jobCounter(t, database.TestJob1.ID)

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"resume_id": database.TestResume1.ID,
	}, token, r, "/job/"+uintString(database.TestJob1.ID)+"/apply", http.MethodPost)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, model.ApplicationStatusPending, resp["status"])
	assert.Equal(t, database.TestHR1.ID.String(), resp["hr_id"])
	assert.Equal(t, database.TestCompany1.ID.String(), resp["company_id"])
	assert.Equal(t, database.TestApplicant1.ID.String(), resp["applicant_id"])

	assert.Equal(t, before+1, jobCounter(t, database.TestJob1.ID))

	// The hr contact receives a persisted notification
	var n model.Notification
	err = testDB.
		Where("account_id = ? AND type = ?", database.TestAccountHR1.ID, model.NotificationTypeJobApplication).
		Order("id DESC").First(&n).Error
	require.NoError(t, err)
	assert.Equal(t, "New Application", n.Title)
	assert.Equal(t, model.RelatedApplication, n.RelatedKind)
	assert.False(t, n.IsRead)
}

func TestSubmitDuplicate(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	before := jobCounter(t, database.TestJob1.ID)

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"resume_id": database.TestResume1.ID,
	}, token, r, "/job/"+uintString(database.TestJob1.ID)+"/apply", http.MethodPost)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, before, jobCounter(t, database.TestJob1.ID))
}

func TestSubmitJobNotFound(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"resume_id": database.TestResume1.ID,
	}, token, r, "/job/999999/apply", http.MethodPost)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitForeignResume(t *testing.T) {
	// Applicant 2 may not apply with applicant 1's resume
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"resume_id": database.TestResume1.ID,
	}, token, r, "/job/"+uintString(database.TestJob1.ID)+"/apply", http.MethodPost)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitRequiresApplicantRole(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountHR1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"resume_id": database.TestResume1.ID,
	}, token, r, "/job/"+uintString(database.TestJob1.ID)+"/apply", http.MethodPost)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTransitionToInterview(t *testing.T) {
	// Applicant 2 applies to job 1 so company 1 staff can move it
	token2, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"resume_id": database.TestResume2.ID,
	}, token2, r, "/job/"+uintString(database.TestJob1.ID)+"/apply", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appID := int(resp["id"].(float64))

	hrToken, err := auth.GetAccessToken(t, testDB, database.TestAccountHR1.Email, database.TestSeedPassword)
	require.NoError(t, err)

	rec, resp = testutil.MakeJSONRequest(gin.H{
		"status":         model.ApplicationStatusInterview,
		"interviewer_id": database.TestIvw1.ID.String(),
	}, hrToken, r, "/application/"+intString(appID), http.MethodPut)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.ApplicationStatusInterview, resp["status"])
	assert.Equal(t, database.TestIvw1.ID.String(), resp["interviewer_id"])

	// Applicant is told about the status change
	var applicantNote model.Notification
	err = testDB.
		Where("account_id = ? AND type = ?", database.TestAccountApplicant2.ID, model.NotificationTypeApplicationUpdate).
		Order("id DESC").First(&applicantNote).Error
	require.NoError(t, err)
	assert.Equal(t, "Interview Scheduled", applicantNote.Title)

	// Newly assigned interviewer gets an assignment notification
	var ivwNote model.Notification
	err = testDB.
		Where("account_id = ? AND type = ?", database.TestAccountIvw1.ID, model.NotificationTypeInterviewAssignment).
		Order("id DESC").First(&ivwNote).Error
	require.NoError(t, err)
	assert.Equal(t, "Interview Assignment", ivwNote.Title)
}

func TestTransitionWrongCompany(t *testing.T) {
	var app model.Application
	require.NoError(t, testDB.
		Where("job_id = ? AND applicant_id = ?", database.TestJob1.ID, database.TestApplicant1.ID).
		First(&app).Error)
	prev := app.Status

	// Staff of company 2 may not touch a company 1 application
	hr2Token, err := auth.GetAccessToken(t, testDB, database.TestAccountHR2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"status": model.ApplicationStatusReviewed,
	}, hr2Token, r, "/application/"+uintString(app.ID), http.MethodPut)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var after model.Application
	require.NoError(t, testDB.Where("id = ?", app.ID).First(&after).Error)
	assert.Equal(t, prev, after.Status)
}

func TestTransitionInvalidStatus(t *testing.T) {
	var app model.Application
	require.NoError(t, testDB.
		Where("job_id = ? AND applicant_id = ?", database.TestJob1.ID, database.TestApplicant1.ID).
		First(&app).Error)

	hrToken, err := auth.GetAccessToken(t, testDB, database.TestAccountHR1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"status": "archived",
	}, hrToken, r, "/application/"+uintString(app.ID), http.MethodPut)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransitionInterviewerFromOtherCompany(t *testing.T) {
	var app model.Application
	require.NoError(t, testDB.
		Where("job_id = ? AND applicant_id = ?", database.TestJob1.ID, database.TestApplicant1.ID).
		First(&app).Error)

	hrToken, err := auth.GetAccessToken(t, testDB, database.TestAccountHR1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	rec, _ := testutil.MakeJSONRequest(gin.H{
		"status":         model.ApplicationStatusInterview,
		"interviewer_id": database.TestHR2.ID.String(),
	}, hrToken, r, "/application/"+uintString(app.ID), http.MethodPut)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWithdrawKeepsCounter(t *testing.T) {
	// Applicant 1 applies to job 2, then withdraws
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"resume_id": database.TestResume1.ID,
	}, token, r, "/job/"+uintString(database.TestJob2.ID)+"/apply", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appID := int(resp["id"].(float64))

	afterSubmit := jobCounter(t, database.TestJob2.ID)

	rec, _ = testutil.MakeJSONRequest(nil, token, r, "/application/"+intString(appID), http.MethodDelete)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int64
	require.NoError(t, testDB.Model(&model.Application{}).Where("id = ?", appID).Count(&count).Error)
	assert.Zero(t, count)

	// Withdrawal never decrements the denormalized counter
	assert.Equal(t, afterSubmit, jobCounter(t, database.TestJob2.ID))
}

func TestWithdrawForeignApplication(t *testing.T) {
	var app model.Application
	require.NoError(t, testDB.
		Where("job_id = ? AND applicant_id = ?", database.TestJob1.ID, database.TestApplicant1.ID).
		First(&app).Error)

	token2, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	rec, _ := testutil.MakeJSONRequest(nil, token2, r, "/application/"+uintString(app.ID), http.MethodDelete)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListScoping(t *testing.T) {
	r := newTestRouter()

	// Applicant 1 only sees their own applications
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodGet, "/application", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := performList(r, req)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, app := range decodeApplications(t, rec.Body.Bytes()) {
		assert.Equal(t, database.TestApplicant1.ID, app.ApplicantID)
	}

	// Staff of company 2 only sees company 2 applications
	hr2Token, err := auth.GetAccessToken(t, testDB, database.TestAccountHR2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	req, _ = http.NewRequest(http.MethodGet, "/application", nil)
	req.Header.Set("Authorization", "Bearer "+hr2Token)
	rec = performList(r, req)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, app := range decodeApplications(t, rec.Body.Bytes()) {
		assert.Equal(t, database.TestCompany2.ID, app.CompanyID)
	}
}

func TestGetOutOfScope(t *testing.T) {
	var app model.Application
	require.NoError(t, testDB.
		Where("job_id = ? AND applicant_id = ?", database.TestJob1.ID, database.TestApplicant1.ID).
		First(&app).Error)

	// Company 1 application is invisible to company 2 staff
	hr2Token, err := auth.GetAccessToken(t, testDB, database.TestAccountHR2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newTestRouter()

	rec, _ := testutil.MakeJSONRequest(nil, hr2Token, r, "/application/"+uintString(app.ID), http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConcurrentSubmitsIncrementCounterExactly(t *testing.T) {
	job := model.Job{
		CompanyID:       database.TestCompany1.ID,
		ContacterID:     database.TestHR1.ID,
		EditableJobInfo: model.EditableJobInfo{Title: "Burst Role", Category: "engineering"},
		Status:          model.JobStatusActive,
	}
	require.NoError(t, testDB.Create(&job).Error)

	const n = 6
	type submitter struct {
		ident    identity.Identity
		resumeID int
	}
	submitters := make([]submitter, 0, n)
	for i := 0; i < n; i++ {
		account := model.Account{Email: fmt.Sprintf("burst%d@mail.test", i), Role: model.RoleApplicant, Verified: true}
		require.NoError(t, testDB.Create(&account).Error)
		profile := model.ApplicantProfile{AccountID: account.ID, FirstName: fmt.Sprintf("Burst%d", i)}
		require.NoError(t, testDB.Create(&profile).Error)
		resume := model.Resume{ApplicantID: profile.ID, FileName: "cv.pdf", Content: []byte("cv"), Extension: ".pdf"}
		require.NoError(t, testDB.Create(&resume).Error)
		submitters = append(submitters, submitter{
			ident:    identity.Identity{AccountID: account.ID, Role: model.RoleApplicant, ProfileID: profile.ID},
			resumeID: resume.ID,
		})
	}

	engine := NewEngine(testDB, nil)

	// Each applicant submits twice in parallel: one attempt wins, the other
	// must land on the unique index and come back as a duplicate.
	var successes, duplicates atomic.Int64
	var wg sync.WaitGroup
	for _, s := range submitters {
		for attempt := 0; attempt < 2; attempt++ {
			wg.Add(1)
			go func(s submitter) {
				defer wg.Done()
				_, err := engine.Submit(context.Background(), s.ident, job.ID, s.resumeID)
				switch {
				case err == nil:
					successes.Add(1)
				case errors.Is(err, ErrDuplicateApplication):
					duplicates.Add(1)
				default:
					t.Errorf("unexpected submit error: %v", err)
				}
			}(s)
		}
	}
	wg.Wait()

	assert.Equal(t, int64(n), successes.Load())
	assert.Equal(t, int64(n), duplicates.Load())
	assert.Equal(t, int64(n), jobCounter(t, job.ID))

	var rows int64
	require.NoError(t, testDB.Model(&model.Application{}).Where("job_id = ?", job.ID).Count(&rows).Error)
	assert.Equal(t, int64(n), rows)
}

func TestTransientErrClassification(t *testing.T) {
	assert.True(t, transientErr(errors.New("driver: bad connection")))
	assert.True(t, transientErr(&pgconn.PgError{Code: "40001"}))
	assert.True(t, transientErr(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, transientErr(&pgconn.PgError{Code: "23505"}))
	assert.False(t, transientErr(&pgconn.PgError{Code: "23503"}))
}

func TestRunWithRetry(t *testing.T) {
	// A write conflict gets exactly one more attempt
	calls := 0
	err := runWithRetry("update", func() error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	// Constraint violations surface immediately
	calls = 0
	permanent := &pgconn.PgError{Code: "23505"}
	err = runWithRetry("create", func() error {
		calls++
		return permanent
	})
	assert.Equal(t, error(permanent), err)
	assert.Equal(t, 1, calls)

	// A persistent driver error still fails after the retry
	calls = 0
	broken := errors.New("connection reset")
	err = runWithRetry("delete", func() error {
		calls++
		return broken
	})
	assert.Equal(t, broken, err)
	assert.Equal(t, 2, calls)
}

// failingStore refuses every write.
type failingStore struct{}

func (failingStore) Create(ctx context.Context, n *model.Notification) error {
	return errors.New("store unavailable")
}

func TestTransitionSurvivesNotificationFailure(t *testing.T) {
	engine := NewEngine(testDB, notify.NewFanout(failingStore{}, nil))

	hrID := identity.Identity{
		AccountID: database.TestAccountHR1.ID,
		Role:      model.RoleStaff,
		ProfileID: database.TestHR1.ID,
		CompanyID: database.TestCompany1.ID,
	}

	var app model.Application
	require.NoError(t, testDB.
		Where("job_id = ? AND applicant_id = ?", database.TestJob1.ID, database.TestApplicant1.ID).
		First(&app).Error)

	updated, err := engine.Transition(context.Background(), hrID, app.ID, model.ApplicationStatusShortlisted, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusShortlisted, updated.Status)

	var after model.Application
	require.NoError(t, testDB.Where("id = ?", app.ID).First(&after).Error)
	assert.Equal(t, model.ApplicationStatusShortlisted, after.Status)
}
