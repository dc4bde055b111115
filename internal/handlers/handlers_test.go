package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"medcare-server/internal/config"
	"medcare-server/internal/models"
	"medcare-server/internal/notifier"
	"medcare-server/internal/routes"
	"medcare-server/internal/utils"
)

// fakeMailer records the last OTP instead of sending email.
type fakeMailer struct {
	lastTo  string
	lastOTP string
	fail    bool
}

func (m *fakeMailer) SendPasswordResetOTP(to, name, otp string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.lastTo = to
	m.lastOTP = otp
	return nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	mail   *fakeMailer
	hub    *notifier.Hub
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))

	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		OTPExpiryMinutes:   10,
		Environment:        "test",
	}

	env := &testEnv{
		db:   db,
		cfg:  cfg,
		mail: &fakeMailer{},
		hub:  notifier.NewHub(zerolog.Nop()),
	}
	env.router = gin.New()
	routes.SetupRoutes(env.router, db, cfg, env.hub, env.mail, zerolog.Nop())
	return env
}

// apiResponse mirrors the response envelope with the data left raw.
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// registerPatient registers a patient through the API and returns its token.
func (e *testEnv) registerPatient(t *testing.T, email string) string {
	t.Helper()
	w, resp := e.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Asha Rao",
		"email":    email,
		"password": "secret123",
		"phone":    "555-0101",
		"role":     "patient",
		"age":      34,
		"gender":   "female",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, resp.Message)
	return tokenFrom(t, resp)
}

// registerDoctor registers a doctor through the API and returns its token
// plus the doctor profile ID.
func (e *testEnv) registerDoctor(t *testing.T, email string) (string, uint) {
	t.Helper()
	w, resp := e.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"name":           "Dr. Mensah",
		"email":          email,
		"password":       "secret123",
		"phone":          "555-0102",
		"role":           "doctor",
		"specialization": "Cardiology",
		"qualification":  "MD",
		"experience":     12,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, resp.Message)
	token := tokenFrom(t, resp)

	var user struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &user))

	var doctor models.Doctor
	require.NoError(t, e.db.Where("user_id = ?", user.User.ID).First(&doctor).Error)
	return token, doctor.ID
}

// seedAdmin creates an admin directly and returns a token for it.
func (e *testEnv) seedAdmin(t *testing.T) string {
	t.Helper()
	admin := models.User{Name: "Root", Email: "admin@example.com", Phone: "555-0100", Role: models.RoleAdmin}
	require.NoError(t, admin.SetPassword("secret123"))
	require.NoError(t, e.db.Create(&admin).Error)

	token, err := utils.GenerateToken(&admin, e.cfg)
	require.NoError(t, err)
	return token
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func tokenFrom(t *testing.T, resp apiResponse) string {
	t.Helper()
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &auth))
	require.NotEmpty(t, auth.Token)
	return auth.Token
}
