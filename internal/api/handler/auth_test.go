package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/contract_critic/config"
	"github.com/qs3c/contract_critic/internal/model/dto"
	"github.com/qs3c/contract_critic/internal/pkg/response"
	"github.com/qs3c/contract_critic/internal/repository"
	"github.com/qs3c/contract_critic/internal/service"
	"github.com/qs3c/contract_critic/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret-key",
			ExpireHours: 24,
		},
		Subscription: config.SubscriptionConfig{
			Levels: map[string]config.SubscriptionLevel{
				"free": {DailyQuota: 5},
				"pro":  {DailyQuota: 100},
			},
		},
		Upload: config.UploadConfig{
			MaxSize:           4096,
			AllowedExtensions: []string{".pdf", ".docx", ".doc", ".txt"},
		},
	}
}

func setupAuthHandler(t *testing.T) (*AuthHandler, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)

	authService := service.NewAuthService(userRepo, testConfig())
	handler := NewAuthHandler(authService)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return handler, cleanup
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func TestAuthHandler_Register_Success(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/register", handler.Register)

	req := dto.RegisterRequest{
		Email:    "test@example.com",
		Username: "testuser",
		Password: "password123",
		Company:  "Acme LLC",
	}

	w := performRequest(router, "POST", "/register", req)
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)
	data := resp.Data.(map[string]interface{})
	assert.Greater(t, data["user_id"].(float64), float64(0))
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/register", handler.Register)

	req := dto.RegisterRequest{
		Email:    "test@example.com",
		Username: "testuser1",
		Password: "password123",
	}

	// First registration
	w := performRequest(router, "POST", "/register", req)
	require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	// Duplicate email
	dupEmail := req
	dupEmail.Username = "testuser2"
	resp := parseResponse(t, performRequest(router, "POST", "/register", dupEmail))
	assert.Equal(t, response.CodeDuplicateAction, resp.Code)
	assert.Equal(t, service.ErrEmailExists.Error(), resp.Message)

	// Duplicate username
	dupName := req
	dupName.Email = "other@example.com"
	resp = parseResponse(t, performRequest(router, "POST", "/register", dupName))
	assert.Equal(t, response.CodeDuplicateAction, resp.Code)
	assert.Equal(t, service.ErrUsernameExists.Error(), resp.Message)
}

func TestAuthHandler_Register_InvalidRequest(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/register", handler.Register)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "invalid email", body: map[string]string{"email": "invalid-email"}},
		{name: "short password", body: dto.RegisterRequest{Email: "a@example.com", Username: "abcd", Password: "short"}},
		{name: "short username", body: dto.RegisterRequest{Email: "a@example.com", Username: "ab", Password: "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/register", tt.body)
			resp := parseResponse(t, w)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, response.CodeParamError, resp.Code)
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)

	registerReq := dto.RegisterRequest{
		Email:    "login@example.com",
		Username: "loginuser",
		Password: "password123",
	}
	w := performRequest(router, "POST", "/register", registerReq)
	require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	loginReq := dto.LoginRequest{
		Email:    "login@example.com",
		Password: "password123",
	}
	w = performRequest(router, "POST", "/login", loginReq)
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.CodeSuccess, resp.Code)
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "loginuser", user["username"])
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)

	w := performRequest(router, "POST", "/register", dto.RegisterRequest{
		Email:    "known@example.com",
		Username: "knownuser",
		Password: "password123",
	})
	require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	for _, req := range []dto.LoginRequest{
		{Email: "nonexistent@example.com", Password: "password123"},
		{Email: "known@example.com", Password: "wrongpassword"},
	} {
		resp := parseResponse(t, performRequest(router, "POST", "/login", req))
		assert.Equal(t, response.CodeAuthFailed, resp.Code)
		assert.Equal(t, service.ErrInvalidCredentials.Error(), resp.Message)
	}
}

func TestAuthHandler_Login_InvalidRequest(t *testing.T) {
	handler, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/login", handler.Login)

	w := performRequest(router, "POST", "/login", map[string]string{})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeParamError, resp.Code)
}
