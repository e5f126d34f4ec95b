package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qs3c/contract_critic/config"
	"github.com/qs3c/contract_critic/internal/analyzer"
	"github.com/qs3c/contract_critic/internal/api"
	"github.com/qs3c/contract_critic/internal/api/handler"
	"github.com/qs3c/contract_critic/internal/database"
	"github.com/qs3c/contract_critic/internal/pkg/cron"
	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/storage"
	"github.com/qs3c/contract_critic/internal/repository"
	"github.com/qs3c/contract_critic/internal/service"
	"github.com/qs3c/contract_critic/internal/worker"
)

var configPath = flag.String("config", "config.yaml", "path to config file")

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(&cfg.Log)

	if cfg.LLM.APIKey == "" {
		logger.Warnf("LLM_API_KEY is not set, analysis requests will fail")
	}

	// 初始化数据库
	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect database: %v", err)
	}
	logger.Infof("Database connected (driver=%s)", cfg.Database.Driver)

	// Redis 只用于限流，连接失败时降级为不限流
	var rdb *redis.Client
	if client, err := database.NewRedis(&cfg.Redis); err != nil {
		logger.Warnf("Redis unavailable, rate limiting disabled: %v", err)
	} else {
		rdb = client
		defer rdb.Close()
		logger.Infof("Redis connected")
	}

	// 初始化存储
	store, err := storage.New(&cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to init storage: %v", err)
	}
	if ms, ok := store.(*storage.MinioStorage); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := ms.EnsureBucket(ctx)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to prepare minio bucket: %v", err)
		}
	}
	logger.Infof("Storage ready (driver=%s)", cfg.Storage.Driver)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	contractRepo := repository.NewContractRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	failureRepo := repository.NewFailureRepository(db)

	// 初始化分析流水线
	llm := analyzer.NewLLMClient(cfg.LLM)
	processor := worker.NewProcessor(contractRepo, analysisRepo, failureRepo, store, llm)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg)
	userService := service.NewUserService(userRepo, contractRepo, analysisRepo)
	quotaService := service.NewQuotaService(userRepo, cfg)
	contractService := service.NewContractService(contractRepo, analysisRepo, store, cfg)
	analysisService := service.NewAnalysisService(analysisRepo, contractService, quotaService, processor)

	// 定时任务，只有本地存储需要清理孤儿文件
	localStore, _ := store.(*storage.LocalStorage)
	cronService := cron.NewService(quotaService, contractRepo, localStore, cfg.Upload.OrphanExpireHours)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		handler.NewQuotaHandler(quotaService),
		handler.NewContractHandler(contractService),
		handler.NewAnalysisHandler(analysisService),
		handler.NewHealthHandler(db, rdb),
		quotaService,
		rdb,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutting down server...")

	// 分析请求是同步的，给进行中的模型调用留出时间
	ctx, cancel := context.WithTimeout(context.Background(), cfg.LLM.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Infof("Server exited")
}
