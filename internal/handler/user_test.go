package handler

import (
	"bytes"
	"encoding/json"
	"license-key-server/internal/database"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

const testJWTSecret = "test-jwt-secret"

func newUserApp(t *testing.T) *fiber.App {
	t.Helper()
	database.InitTestDB()
	t.Cleanup(database.CleanTestDB)

	app := fiber.New()
	app.Post("/api/v1/users/register", HandleUserRegister)
	app.Post("/api/v1/users/login", MakeLoginHandler(testJWTSecret))
	return app
}

func TestHandleUserRegister(t *testing.T) {
	app := newUserApp(t)

	tests := []struct {
		name       string
		input      RegisterInput
		wantStatus int
	}{
		{
			name: "valid_registration",
			input: RegisterInput{
				Username: "testuser",
				Password: "password123",
				Email:    "test@example.com",
			},
			wantStatus: fiber.StatusCreated,
		},
		{
			name: "duplicate_username",
			input: RegisterInput{
				Username: "testuser",
				Password: "password123",
				Email:    "another@example.com",
			},
			wantStatus: fiber.StatusInternalServerError,
		},
		{
			name: "missing_password",
			input: RegisterInput{
				Username: "another",
				Email:    "x@example.com",
			},
			wantStatus: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.input)
			req, _ := http.NewRequest("POST", "/api/v1/users/register", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHandleUserLogin(t *testing.T) {
	app := newUserApp(t)

	// 先注册一个用户
	body, _ := json.Marshal(RegisterInput{
		Username: "loginuser",
		Password: "password123",
		Email:    "login@example.com",
	})
	req, _ := http.NewRequest("POST", "/api/v1/users/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// 正确密码登录返回令牌
	body, _ = json.Marshal(LoginInput{Username: "loginuser", Password: "password123"})
	req, _ = http.NewRequest("POST", "/api/v1/users/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	assert.NotEmpty(t, result["token"])

	// 错误密码返回 401
	body, _ = json.Marshal(LoginInput{Username: "loginuser", Password: "wrong"})
	req, _ = http.NewRequest("POST", "/api/v1/users/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
