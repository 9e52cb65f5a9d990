package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"recipe-synthesizer/internal/api"
	chefCore "recipe-synthesizer/internal/core/chef"
	"recipe-synthesizer/internal/infrastructure/cache"
	"recipe-synthesizer/internal/infrastructure/config"
	"recipe-synthesizer/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("configuration loaded",
		zap.String("data_dir", cfg.Data.Dir),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.String("redis_password", config.MaskSecret(cfg.Redis.Password)),
	)

	// 載入知識庫，食材或食譜為空時無法提供服務
	svc, report, err := chefCore.Load(cfg.Data.Dir, nil)
	if err != nil {
		common.LogFatal("failed to load knowledge base", zap.Error(err))
	}
	common.LogInfo("knowledge base ready",
		zap.Int("warnings", len(report.Warnings)),
		zap.Strings("cuisines", svc.ListCuisines()),
	)

	// 初始化票據快取，關閉時不發票據
	tickets, err := cache.NewStore(cfg)
	switch {
	case errors.Is(err, common.ErrCacheDisabled):
		common.LogInfo("ticket cache disabled")
	case err != nil:
		common.LogFatal("failed to initialize ticket cache", zap.Error(err))
	default:
		defer tickets.Close()
	}

	// 設置路由
	router, err := api.SetupRouter(cfg, svc, tickets)
	if err != nil {
		common.LogFatal("failed to setup router", zap.Error(err))
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo(common.MsgServerStarting,
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo(common.MsgShuttingDown)

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo(common.MsgServerExited)
}
