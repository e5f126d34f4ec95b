package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/config"
	"github.com/qs3c/contract_critic/internal/model"
	"github.com/qs3c/contract_critic/internal/pkg/response"
	"github.com/qs3c/contract_critic/internal/repository"
	"github.com/qs3c/contract_critic/internal/service"
	"github.com/qs3c/contract_critic/internal/testutil"
)

func setupQuotaService(t *testing.T) (*service.QuotaService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{
		Subscription: config.SubscriptionConfig{
			Levels: map[string]config.SubscriptionLevel{
				"free":  {DailyQuota: 5},
				"basic": {DailyQuota: 30},
				"pro":   {DailyQuota: 100},
			},
		},
	}

	return service.NewQuotaService(repository.NewUserRepository(db), cfg), db
}

func quotaRouter(quotaService *service.QuotaService, userID int64) *gin.Engine {
	router := gin.New()
	if userID != 0 {
		router.Use(func(c *gin.Context) {
			c.Set(UserIDKey, userID)
			c.Next()
		})
	}
	router.Use(QuotaCheck(quotaService))
	router.POST("/analyze", func(c *gin.Context) {
		response.Success(c, nil)
	})
	return router
}

func TestQuotaCheck(t *testing.T) {
	quotaService, db := setupQuotaService(t)

	tests := []struct {
		name string
		user *model.User
		code int
	}{
		{name: "free with quota", user: testutil.TestUser(t, db), code: response.CodeSuccess},
		{name: "free last quota", user: testutil.TestUser(t, db, testutil.WithQuotaUsed(4)), code: response.CodeSuccess},
		{name: "free exhausted", user: testutil.TestUser(t, db, testutil.WithQuotaUsed(5)), code: response.CodeQuotaExceeded},
		{name: "basic partially used", user: testutil.TestUser(t, db, testutil.WithSubscription("basic", 30), testutil.WithQuotaUsed(10)), code: response.CodeSuccess},
		{name: "basic exhausted", user: testutil.TestUser(t, db, testutil.WithSubscription("basic", 30), testutil.WithQuotaUsed(30)), code: response.CodeQuotaExceeded},
		{name: "pro", user: testutil.TestUser(t, db, testutil.WithSubscription("pro", 100), testutil.WithQuotaUsed(50)), code: response.CodeSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			quotaRouter(quotaService, tt.user.ID).ServeHTTP(w, httptest.NewRequest("POST", "/analyze", nil))

			resp := parseResponse(t, w)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestQuotaCheck_ExceededCarriesQuotaInfo(t *testing.T) {
	quotaService, db := setupQuotaService(t)
	user := testutil.TestUser(t, db, testutil.WithQuotaUsed(5))

	w := httptest.NewRecorder()
	quotaRouter(quotaService, user.ID).ServeHTTP(w, httptest.NewRequest("POST", "/analyze", nil))

	resp := parseResponse(t, w)
	require.Equal(t, response.CodeQuotaExceeded, resp.Code)
	assert.Equal(t, service.ErrQuotaExceeded.Error(), resp.Message)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(5), data["daily_quota"])
	assert.Equal(t, float64(0), data["quota_remaining"])
}

func TestQuotaCheck_Unauthenticated(t *testing.T) {
	quotaService, _ := setupQuotaService(t)

	tests := []struct {
		name   string
		userID int64
	}{
		{name: "no user id", userID: 0},
		{name: "unknown user", userID: 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			quotaRouter(quotaService, tt.userID).ServeHTTP(w, httptest.NewRequest("POST", "/analyze", nil))

			resp := parseResponse(t, w)
			assert.Equal(t, response.CodeAuthFailed, resp.Code)
		})
	}
}
