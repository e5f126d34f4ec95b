package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/response"
	"github.com/qs3c/contract_critic/internal/service"
)

// QuotaCheck 分析前的配额预检，实际扣减在流水线开始前进行。
// 配额用完时在 data 中带上配额信息和重置时间。
func QuotaCheck(quotaService *service.QuotaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		hasQuota, err := quotaService.CheckQuota(userID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.AuthError(c, err.Error())
			} else {
				logger.LogError("middleware", "QuotaCheck", userID, err)
				response.ServerError(c, "配额检查失败")
			}
			c.Abort()
			return
		}
		if hasQuota {
			c.Next()
			return
		}

		info, err := quotaService.GetQuotaInfo(userID)
		if err != nil {
			response.QuotaError(c, service.ErrQuotaExceeded.Error())
		} else {
			response.ErrorWithData(c, response.CodeQuotaExceeded, service.ErrQuotaExceeded.Error(), info)
		}
		c.Abort()
	}
}
