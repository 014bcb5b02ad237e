package authController

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	authValidator "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	config.LoadConfig()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	app := fiber.New()

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", authValidator.Signup(), Signup)
	authGroup.Post("/login", authValidator.Login(), Login)
	authGroup.Patch("/reset/password", authValidator.ResetPassword(), ResetPassword)
	authGroup.Put("/change/password", authValidator.ChangePassword(), middleware.JWTMiddleware, ChangePassword)

	return app
}

func postJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestSignupAndLogin(t *testing.T) {
	app := setupTestApp(t)

	resp, env := postJSON(t, app, "POST", "/auth/signup", "", fiber.Map{
		"name":     "Sam Learn",
		"email":    "Sam@Example.com",
		"password": "supersecret",
		"role":     models.RoleStudent,
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, env["success"])

	data := env["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	// Email is stored normalized
	var user models.User
	require.NoError(t, database.Database.Db.Where("email = ?", "sam@example.com").First(&user).Error)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEqual(t, "supersecret", user.Password, "password must be hashed")

	// Duplicate email conflicts
	resp, _ = postJSON(t, app, "POST", "/auth/signup", "", fiber.Map{
		"name":     "Sam Again",
		"email":    "sam@example.com",
		"password": "supersecret",
		"role":     models.RoleStudent,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Login with correct credentials
	resp, env = postJSON(t, app, "POST", "/auth/login", "", fiber.Map{
		"email":    "sam@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, env["success"])

	// Wrong password
	resp, _ = postJSON(t, app, "POST", "/auth/login", "", fiber.Map{
		"email":    "sam@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSignupValidation(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := postJSON(t, app, "POST", "/auth/signup", "", fiber.Map{
		"name":     "X",
		"email":    "not-an-email",
		"password": "short",
		"role":     "SUPERUSER",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	app := setupTestApp(t)

	hashed, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{Name: "Sam", Email: "sam@example.com", Password: string(hashed), Role: models.RoleStudent}
	require.NoError(t, database.Database.Db.Create(&user).Error)

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)

	resp, _ := postJSON(t, app, "PUT", "/auth/change/password", token, fiber.Map{
		"currentPassword": "wrongpassword",
		"newPassword":     "brandnewpass",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, app, "PUT", "/auth/change/password", token, fiber.Map{
		"currentPassword": "oldpassword",
		"newPassword":     "brandnewpass",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.User
	require.NoError(t, database.Database.Db.First(&updated, user.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("brandnewpass")))
}

func TestResetPasswordWithOTP(t *testing.T) {
	app := setupTestApp(t)

	hashed, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{Name: "Sam", Email: "sam@example.com", Password: string(hashed), Role: models.RoleStudent}
	require.NoError(t, database.Database.Db.Create(&user).Error)

	code := "123456"
	hashedCode, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	require.NoError(t, err)

	otp := models.OTP{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      string(hashedCode),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, database.Database.Db.Create(&otp).Error)

	// Wrong code is rejected
	resp, _ := postJSON(t, app, "PATCH", "/auth/reset/password", "", fiber.Map{
		"email":       "sam@example.com",
		"otp":         "654321",
		"newPassword": "freshpassword",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Correct code resets and consumes the OTP
	resp, _ = postJSON(t, app, "PATCH", "/auth/reset/password", "", fiber.Map{
		"email":       "sam@example.com",
		"otp":         code,
		"newPassword": "freshpassword",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.User
	require.NoError(t, database.Database.Db.First(&updated, user.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("freshpassword")))

	var usedOTP models.OTP
	require.NoError(t, database.Database.Db.First(&usedOTP, otp.ID).Error)
	assert.True(t, usedOTP.IsUsed)

	// A consumed OTP cannot be replayed
	resp, _ = postJSON(t, app, "PATCH", "/auth/reset/password", "", fiber.Map{
		"email":       "sam@example.com",
		"otp":         code,
		"newPassword": "anotherpassword",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
