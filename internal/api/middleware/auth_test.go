package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/contract_critic/internal/pkg/jwt"
	"github.com/qs3c/contract_critic/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key-for-middleware"

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func newAuthRouter(t *testing.T) *gin.Engine {
	router := gin.New()
	router.Use(Auth(testJWTSecret))
	router.GET("/test", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		require.True(t, ok)
		response.Success(c, gin.H{"user_id": userID})
	})
	return router
}

func TestAuth_Success(t *testing.T) {
	router := newAuthRouter(t)

	token, err := jwt.GenerateToken(123, testJWTSecret, 24)
	require.NoError(t, err)

	for _, header := range []string{"Bearer " + token, "bearer " + token, "  Bearer   " + token} {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		resp := parseResponse(t, w)
		assert.Equal(t, response.CodeSuccess, resp.Code, header)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(123), data["user_id"])
	}
}

func TestAuth_Rejected(t *testing.T) {
	valid, err := jwt.GenerateToken(123, testJWTSecret, 24)
	require.NoError(t, err)
	otherSecret, err := jwt.GenerateToken(123, "different-secret", 24)
	require.NoError(t, err)
	expired, err := jwt.GenerateToken(123, testJWTSecret, 0)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{name: "missing header", header: "", message: "请先登录"},
		{name: "no scheme", header: valid, message: "认证格式错误"},
		{name: "basic scheme", header: "Basic " + valid, message: "认证格式错误"},
		{name: "empty token", header: "Bearer   ", message: "认证格式错误"},
		{name: "garbage token", header: "Bearer not-a-jwt", message: "登录已失效，请重新登录"},
		{name: "wrong secret", header: "Bearer " + otherSecret, message: "登录已失效，请重新登录"},
		{name: "expired", header: "Bearer " + expired, message: "登录已失效，请重新登录"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(Auth(testJWTSecret))
			router.GET("/test", func(c *gin.Context) {
				t.Fatal("handler should not run")
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			resp := parseResponse(t, w)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, response.CodeAuthFailed, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestGetUserID(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		set    bool
		wantID int64
		wantOK bool
	}{
		{name: "not set"},
		{name: "wrong type", value: "not-an-int64", set: true},
		{name: "int64", value: int64(789), set: true, wantID: 789, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			if tt.set {
				c.Set(UserIDKey, tt.value)
			}
			id, ok := GetUserID(c)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
