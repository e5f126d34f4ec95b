package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/internal/pkg/response"
)

type HealthHandler struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

// HealthStatus 健康检查结果
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Time     string `json:"time"`
}

// Check 健康检查
// GET /api/v1/health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:   "ok",
		Database: "ok",
		Redis:    "disabled",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status.Status = "degraded"
		status.Database = "unavailable"
	}

	// Redis 只用于限流，不可用时服务仍可工作
	if h.rdb != nil {
		status.Redis = "ok"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			status.Redis = "unavailable"
		}
	}

	response.Success(c, status)
}
