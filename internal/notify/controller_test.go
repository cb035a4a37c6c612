package notify

import (
	"context"
	"encoding/json"
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

func newNotificationRouter() *gin.Engine {
	resolver := identity.NewResolver(testDB)
	fanout := NewFanout(NewStore(testDB), nil)
	ctl := NewController(testDB, fanout, nil)

	r := gin.Default()
	r.Use(middleware.RequireAuth(resolver))
	r.GET("/notification", ctl.ListMine)
	r.PUT("/notification/:id/read", ctl.MarkRead)
	r.POST("/notification", middleware.CheckRole(model.RoleAdmin, model.RoleStaff), ctl.Create)
	return r
}

func seedNotification(t *testing.T) model.Notification {
	t.Helper()
	n := model.Notification{
		AccountID: database.TestAccountApplicant1.ID,
		Type:      model.NotificationTypeSystem,
		Title:     "Maintenance",
		Content:   "The platform will restart tonight.",
	}
	require.NoError(t, testDB.Create(&n).Error)
	return n
}

func TestListMineScopedToAccount(t *testing.T) {
	seedNotification(t)

	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newNotificationRouter()

	req, _ := http.NewRequest(http.MethodGet, "/notification", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var notifications []model.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifications))
	require.NotEmpty(t, notifications)
	for _, n := range notifications {
		assert.Equal(t, database.TestAccountApplicant1.ID, n.AccountID)
	}

	// Another account sees none of them
	token2, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	req, _ = http.NewRequest(http.MethodGet, "/notification", nil)
	req.Header.Set("Authorization", "Bearer "+token2)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifications))
	assert.Empty(t, notifications)
}

func TestMarkRead(t *testing.T) {
	n := seedNotification(t)

	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newNotificationRouter()

	rec, resp := testutil.MakeJSONRequest(nil, token, r, "/notification/"+strconv.Itoa(int(n.ID))+"/read", http.MethodPut)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, resp["is_read"])

	// Other accounts cannot mark it, not even to probe its existence
	token2, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant2.Email, database.TestSeedPassword)
	require.NoError(t, err)
	rec, _ = testutil.MakeJSONRequest(nil, token2, r, "/notification/"+strconv.Itoa(int(n.ID))+"/read", http.MethodPut)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnreadFilter(t *testing.T) {
	n := seedNotification(t)

	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newNotificationRouter()

	rec, _ := testutil.MakeJSONRequest(nil, token, r, "/notification/"+strconv.Itoa(int(n.ID))+"/read", http.MethodPut)
	require.Equal(t, http.StatusOK, rec.Code)

	req, _ := http.NewRequest(http.MethodGet, "/notification?unread=true", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code)

	var notifications []model.Notification
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &notifications))
	for _, got := range notifications {
		assert.False(t, got.IsRead)
		assert.NotEqual(t, n.ID, got.ID)
	}
}

func TestCreateSystemNotification(t *testing.T) {
	hrToken, err := auth.GetAccessToken(t, testDB, database.TestAccountHR1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	r := newNotificationRouter()

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"account_id": database.TestAccountApplicant2.ID.String(),
		"title":      "Interview room changed",
		"content":    "Please come to room B instead.",
	}, hrToken, r, "/notification", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, model.NotificationTypeSystem, resp["type"])

	// Applicants cannot issue system notifications
	token, err := auth.GetAccessToken(t, testDB, database.TestAccountApplicant1.Email, database.TestSeedPassword)
	require.NoError(t, err)
	rec, _ = testutil.MakeJSONRequest(gin.H{
		"account_id": database.TestAccountApplicant2.ID.String(),
		"title":      "Fake",
		"content":    "Fake",
	}, token, r, "/notification", http.MethodPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
