package controllers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

// SetupTestDB creates a mock database and sets it as the global DB for testing
func SetupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}

	originalDB := initializers.DB
	initializers.DB = goqu.New("postgres", db)

	cleanup := func() {
		// Small delay to allow goroutines (like push notifications) to complete
		time.Sleep(10 * time.Millisecond)
		db.Close()
		initializers.DB = originalDB
	}

	return db, mock, cleanup
}

// SetupTestContext creates a test Gin context with a response recorder
func SetupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	models.RegisterValidations()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

// SetAuthenticatedUser sets the values the CheckAuth middleware would set.
func SetAuthenticatedUser(c *gin.Context, user models.UserProfile, isAdmin bool) {
	c.Set("currentUser", user)
	c.Set("role", user.Role)
	c.Set("admin", isAdmin)
}

// SetJSONBody attaches body to the request as JSON. Strings are sent raw so
// tests can post malformed payloads.
func SetJSONBody(c *gin.Context, method, path string, body interface{}) {
	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	default:
		raw, _ = json.Marshal(b)
	}
	c.Request = httptest.NewRequest(method, path, bytes.NewBuffer(raw))
	c.Request.Header.Set("Content-Type", "application/json")
}

func SetRequest(c *gin.Context, method, path string) {
	c.Request = httptest.NewRequest(method, path, nil)
}

func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return response
}

var userProfileColumns = []string{
	"user_profile_id", "username", "password", "email", "first_name", "last_name",
	"phone_number", "role", "created_by", "datetime_create", "updated_by", "datetime_update", "deleted",
}

// UserRows builds sqlmock rows for user_profile selects.
func UserRows(users ...models.UserProfile) *sqlmock.Rows {
	rows := sqlmock.NewRows(userProfileColumns)
	for _, u := range users {
		var phone interface{}
		if u.Phone_Number != nil {
			phone = *u.Phone_Number
		}
		rows.AddRow(u.User_Profile_ID, u.Username, u.Password, u.Email, u.First_Name, u.Last_Name,
			phone, u.Role, u.Created_By, u.Datetime_Create, u.Updated_By, u.Datetime_Update, u.Deleted)
	}
	return rows
}

// SetupTestConfig installs a config with a signing secret for the test.
func SetupTestConfig(t *testing.T) *initializers.Config {
	t.Helper()
	original := initializers.Cfg
	cfg := initializers.DefaultConfig()
	cfg.Secret = "test-secret"
	initializers.Cfg = cfg
	t.Cleanup(func() { initializers.Cfg = original })
	return cfg
}
