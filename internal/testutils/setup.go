package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/database"
	"github.com/Kyz7/formbuilder/internal/mail"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/notify"
	"github.com/Kyz7/formbuilder/internal/revocation"
	"github.com/Kyz7/formbuilder/internal/server"
	"github.com/Kyz7/formbuilder/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestFrom     = "no-reply@test.local"
	TestPassword = "Secret#123"
)

// TestDB opens a private in-memory sqlite database with every model migrated.
// A single connection keeps the database alive and serializes transactions.
func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = database.Migrate(db)
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

// Clock is a settable time source shared by the app under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestEnv is everything SetupTestApp wires together.
type TestEnv struct {
	App    *fiber.App
	DB     *gorm.DB
	Config *config.Config
	Mail   *mail.Recorder
	Clock  *Clock
}

// SetupTestApp builds the application over an in-memory database. Mail is
// delivered synchronously into a recorder and time is driven by a Clock.
func SetupTestApp(t *testing.T) *TestEnv {
	return setupApp(t, func(cfg *config.Config, recorder *mail.Recorder) notify.Notifier {
		cfg.NotifyMode = "direct"
		return &notify.Direct{Mailer: recorder, From: cfg.MailFrom}
	})
}

// SetupQueuedTestApp is SetupTestApp with notifications published on an
// in-process bus and mailed by a Dispatcher. Publishing blocks until the
// dispatcher has handled the message, so the recorder is current once a
// request returns.
func SetupQueuedTestApp(t *testing.T) *TestEnv {
	return setupApp(t, func(cfg *config.Config, recorder *mail.Recorder) notify.Notifier {
		cfg.NotifyMode = "bus"
		ctx, cancel := context.WithCancel(context.Background())
		ps := notify.NewGoChannel(true)
		t.Cleanup(func() {
			cancel()
			ps.Close()
		})
		require.NoError(t, notify.NewDispatcher(ps.Subscriber, cfg.NotifyTopic, recorder, cfg.MailFrom).Start(ctx))
		return notify.NewBus(ps.Publisher, cfg.NotifyTopic)
	})
}

func setupApp(t *testing.T, notifier func(*config.Config, *mail.Recorder) notify.Notifier) *TestEnv {
	db := TestDB(t)

	cfg := config.Default()
	cfg.MailFrom = TestFrom
	cfg.FrontendURL = "http://frontend.test"

	recorder := &mail.Recorder{}
	clock := NewClock(time.Now().UTC().Truncate(time.Second))

	app := server.New(server.Deps{
		DB:       db,
		Config:   cfg,
		Revoker:  revocation.NewDBRevoker(db),
		Notifier: notifier(cfg, recorder),
		Now:      clock.Now,
	})

	return &TestEnv{App: app, DB: db, Config: cfg, Mail: recorder, Clock: clock}
}

// CreateTestUser inserts a user directly. An empty password leaves the
// account in the signed-up state with no password and is_activate false.
func CreateTestUser(t *testing.T, db *gorm.DB, username, email, password string, role models.Role) *models.User {
	user := &models.User{
		Username:  username,
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Contact:   "0123456789",
		Role:      role,
	}
	if password != "" {
		hashed, err := utils.HashPassword(password)
		require.NoError(t, err)
		user.Password = hashed
		user.IsActivate = true
	}

	err := db.Create(user).Error
	require.NoError(t, err, "Failed to create test user")
	return user
}

func GetAuthToken(t *testing.T, userID uint, role models.Role) string {
	token, _, err := utils.GenerateJWT(userID, string(role), utils.AccessToken, time.Now(), 15*time.Minute)
	assert.NoError(t, err, "Failed to generate test token")
	return token
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode
	for k, v := range resp.Header {
		for _, val := range v {
			rec.Header().Add(k, val)
		}
	}

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.Unmarshal(resp.Body.Bytes(), v)
	if err != nil {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error"`
	Meta    *Meta        `json:"meta"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

// Field returns the detail message for one field, or "".
func (e *ErrorDetail) Field(name string) string {
	if e == nil {
		return ""
	}
	details, _ := e.Details.(map[string]interface{})
	msg, _ := details[name].(string)
	return msg
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// DataMap returns the response data as a JSON object.
func (r StandardResponse) DataMap() map[string]interface{} {
	m, _ := r.Data.(map[string]interface{})
	return m
}

// DataList returns the response data as a JSON array.
func (r StandardResponse) DataList() []interface{} {
	l, _ := r.Data.([]interface{})
	return l
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) StandardResponse {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
	return result
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) StandardResponse {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	if assert.NotNil(t, result.Error, "Expected error object") {
		assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
	}
	return result
}
