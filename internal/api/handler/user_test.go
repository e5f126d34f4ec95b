package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/contract_critic/internal/model"
	"github.com/qs3c/contract_critic/internal/pkg/response"
	"github.com/qs3c/contract_critic/internal/testutil"
)

func userRouter(h *testHandlers, userID int64) *gin.Engine {
	router := gin.New()
	if userID > 0 {
		router.Use(mockAuth(userID))
	}
	router.GET("/profile", h.User.GetProfile)
	router.PUT("/profile", h.User.UpdateProfile)
	router.GET("/stats", h.User.GetStats)
	router.GET("/quota", h.Quota.GetQuota)
	return router
}

func TestUserHandler_GetProfile_Success(t *testing.T) {
	h, ctx := setupHandlers(t)
	user := testutil.TestUser(t, ctx.DB, testutil.WithUsername("profileuser"), testutil.WithQuotaUsed(2))

	w := performRequest(userRouter(h, user.ID), "GET", "/profile", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.CodeSuccess, resp.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "profileuser", data["username"])
	quota := data["quota_info"].(map[string]interface{})
	assert.Equal(t, float64(5), quota["daily_quota"])
	assert.Equal(t, float64(3), quota["quota_remaining"])
}

func TestUserHandler_Unauthorized(t *testing.T) {
	h, _ := setupHandlers(t)
	router := userRouter(h, 0)

	for _, r := range []struct{ method, path string }{
		{"GET", "/profile"},
		{"PUT", "/profile"},
		{"GET", "/stats"},
		{"GET", "/quota"},
	} {
		resp := parseResponse(t, performRequest(router, r.method, r.path, nil))
		assert.Equal(t, response.CodeAuthFailed, resp.Code, r.path)
	}
}

func TestUserHandler_UserNotFound(t *testing.T) {
	h, _ := setupHandlers(t)
	router := userRouter(h, 99999)

	for _, path := range []string{"/profile", "/stats", "/quota"} {
		resp := parseResponse(t, performRequest(router, "GET", path, nil))
		assert.Equal(t, response.CodeResourceNotFound, resp.Code, path)
	}
}

func TestUserHandler_UpdateProfile_Success(t *testing.T) {
	h, ctx := setupHandlers(t)
	user := testutil.TestUser(t, ctx.DB)

	body := map[string]string{
		"username":  "renamed",
		"full_name": "Jane Doe",
		"company":   "Acme LLC",
	}
	resp := parseResponse(t, performRequest(userRouter(h, user.ID), "PUT", "/profile", body))
	require.Equal(t, response.CodeSuccess, resp.Code)

	var reloaded model.User
	require.NoError(t, ctx.DB.First(&reloaded, user.ID).Error)
	assert.Equal(t, "renamed", reloaded.Username)
	assert.Equal(t, "Jane Doe", reloaded.FullName)
	assert.Equal(t, "Acme LLC", reloaded.Company)
}

func TestUserHandler_UpdateProfile_PartialKeepsOtherFields(t *testing.T) {
	h, ctx := setupHandlers(t)
	user := testutil.TestUser(t, ctx.DB, testutil.WithUsername("keepme"))

	resp := parseResponse(t, performRequest(userRouter(h, user.ID), "PUT", "/profile", map[string]string{"company": "Solo"}))
	require.Equal(t, response.CodeSuccess, resp.Code)

	var reloaded model.User
	require.NoError(t, ctx.DB.First(&reloaded, user.ID).Error)
	assert.Equal(t, "keepme", reloaded.Username)
	assert.Equal(t, "Solo", reloaded.Company)
}

func TestUserHandler_UpdateProfile_Errors(t *testing.T) {
	h, ctx := setupHandlers(t)
	testutil.TestUser(t, ctx.DB, testutil.WithUsername("taken"))
	user := testutil.TestUser(t, ctx.DB)
	router := userRouter(h, user.ID)

	resp := parseResponse(t, performRequest(router, "PUT", "/profile", map[string]string{"username": "taken"}))
	assert.Equal(t, response.CodeDuplicateAction, resp.Code)

	resp = parseResponse(t, performRequest(router, "PUT", "/profile", map[string]string{"username": "ab"}))
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestUserHandler_GetStats(t *testing.T) {
	h, ctx := setupHandlers(t)
	user := testutil.TestUser(t, ctx.DB)
	analyzed := testutil.TestContract(t, ctx.DB, user.ID, testutil.WithStatus(model.ContractStatusAnalyzed))
	testutil.TestAnalysis(t, ctx.DB, analyzed.ID, testutil.WithTokens(150))
	testutil.TestAnalysis(t, ctx.DB, analyzed.ID, testutil.WithTokens(50))
	testutil.TestContract(t, ctx.DB, user.ID)

	resp := parseResponse(t, performRequest(userRouter(h, user.ID), "GET", "/stats", nil))
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["total_contracts"])
	assert.Equal(t, float64(1), data["analyzed_contracts"])
	assert.Equal(t, float64(2), data["total_analyses"])
	assert.Equal(t, float64(200), data["total_tokens"])
	assert.Equal(t, "free", data["subscription_level"])
}

func TestQuotaHandler_GetQuota(t *testing.T) {
	h, ctx := setupHandlers(t)
	user := testutil.TestUser(t, ctx.DB, testutil.WithSubscription("pro", 100), testutil.WithQuotaUsed(10))

	resp := parseResponse(t, performRequest(userRouter(h, user.ID), "GET", "/quota", nil))
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(100), data["daily_quota"])
	assert.Equal(t, float64(10), data["quota_used_today"])
	assert.Equal(t, float64(90), data["quota_remaining"])
}
