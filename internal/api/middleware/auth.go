package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qs3c/contract_critic/internal/pkg/jwt"
	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/response"
)

const (
	UserIDKey = "userID"

	bearerScheme = "bearer"
)

// Auth 校验 Authorization: Bearer <token>，通过后写入用户 ID
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.AuthError(c, msg)
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(token, jwtSecret)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"request_id": GetRequestID(c),
				"path":       c.Request.URL.Path,
			}).Debugf("rejected token: %v", err)
			response.AuthError(c, "登录已失效，请重新登录")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// bearerToken 取出令牌，失败时返回给用户的提示
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "请先登录"
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", "认证格式错误"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "认证格式错误"
	}
	return token, ""
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
