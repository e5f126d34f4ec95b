package api

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/qs3c/contract_critic/config"
	"github.com/qs3c/contract_critic/internal/api/handler"
	"github.com/qs3c/contract_critic/internal/api/middleware"
	"github.com/qs3c/contract_critic/internal/service"
)

type Router struct {
	authHandler     *handler.AuthHandler
	userHandler     *handler.UserHandler
	quotaHandler    *handler.QuotaHandler
	contractHandler *handler.ContractHandler
	analysisHandler *handler.AnalysisHandler
	healthHandler   *handler.HealthHandler
	quotaService    *service.QuotaService
	rdb             *redis.Client
	cfg             *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	quotaHandler *handler.QuotaHandler,
	contractHandler *handler.ContractHandler,
	analysisHandler *handler.AnalysisHandler,
	healthHandler *handler.HealthHandler,
	quotaService *service.QuotaService,
	rdb *redis.Client,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:     authHandler,
		userHandler:     userHandler,
		quotaHandler:    quotaHandler,
		contractHandler: contractHandler,
		analysisHandler: analysisHandler,
		healthHandler:   healthHandler,
		quotaService:    quotaService,
		rdb:             rdb,
		cfg:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.CORS(r.cfg.CORS))

	// multipart 超出部分落临时文件
	engine.MaxMultipartMemory = r.cfg.Upload.MaxSize

	api := engine.Group("/api/v1")
	{
		api.GET("/health", r.healthHandler.Check)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.PUT("/profile", r.userHandler.UpdateProfile)
				user.GET("/stats", r.userHandler.GetStats)
				user.GET("/quota", r.quotaHandler.GetQuota)
			}

			// 合同
			contracts := authenticated.Group("/contracts")
			{
				contracts.POST("/upload", r.contractHandler.Upload)
				contracts.GET("", r.contractHandler.List)
				contracts.GET("/dashboard", r.contractHandler.Dashboard)
				contracts.GET("/:id", r.contractHandler.Get)
				contracts.DELETE("/:id", r.contractHandler.Delete)

				// 分析
				contracts.POST("/:id/analyze",
					middleware.QuotaCheck(r.quotaService),
					middleware.RateLimit(r.rdb, "analyze", r.cfg.RateLimit.AnalyzePerWindow, r.cfg.RateLimit.Window),
					r.analysisHandler.Analyze,
				)
				contracts.GET("/:id/analysis", r.analysisHandler.Latest)
				contracts.GET("/:id/analyses", r.analysisHandler.History)
				contracts.GET("/:id/analyses/:analysis_id", r.analysisHandler.Get)
			}
		}
	}

	return engine
}
