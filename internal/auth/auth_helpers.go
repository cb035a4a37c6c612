package auth

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/testutil"

	"github.com/gin-gonic/gin"
)

// GetAccessToken is a helper function to obtain an access token for an
// account by simulating a login API call. Used by handler tests across
// packages.
func GetAccessToken(
	t *testing.T,
	db *database.DBinstanceStruct,
	email string,
	password string,
) (string, error) {
	t.Helper()

	handler := NewLocalAuthHandler(db)
	r := gin.New()
	r.POST("/login", handler.LocalLoginHandler)

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"email":    email,
		"password": password,
	}, "", r, "/login", http.MethodPost)

	if rec.Code != http.StatusOK {
		return "", fmt.Errorf("login failed: status %d, body: %s", rec.Code, rec.Body.String())
	}
	if resp["access_token"] == nil {
		return "", fmt.Errorf("login failed: no access_token in response: %s", rec.Body.String())
	}
	return resp["access_token"].(string), nil
}
