package api

import (
	"context"
	"fmt"
	"time"

	chefHandler "recipe-synthesizer/internal/api/handlers/chef"
	"recipe-synthesizer/internal/api/handlers/health"
	"recipe-synthesizer/internal/api/middleware"
	chefCore "recipe-synthesizer/internal/core/chef"
	"recipe-synthesizer/internal/infrastructure/cache"
	"recipe-synthesizer/internal/infrastructure/config"
	"recipe-synthesizer/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// defaultRequestTimeout 設定沒有寫入逾時時使用
const defaultRequestTimeout = 30 * time.Second

// SetupRouter 設置路由，tickets 為 nil 時停用消歧義票據
func SetupRouter(cfg *config.Config, svc *chefCore.Service, tickets cache.Store) (*gin.Engine, error) {
	if svc == nil {
		return nil, fmt.Errorf("chef service is required")
	}

	common.LogInfo("starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	timeout := cfg.Server.WriteTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	// 全局中間件：設置超時並注入服務
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set(health.ContextKeyConfig, cfg)
		c.Set(health.ContextKeyChef, svc)
		if tickets != nil {
			c.Set(health.ContextKeyTickets, tickets)
		}

		c.Next()
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	h := chefHandler.NewHandler(svc, tickets)
	dedup := middleware.NewDeduplicator(cfg.DedupWindow)

	api := router.Group("/api/v1")
	{
		chef := api.Group("/chef")
		{
			chef.POST("/synthesize", dedup.Middleware(), h.HandleSynthesize)
			chef.POST("/tickets/:ticket/resolve", dedup.Middleware(), h.HandleResolve)

			chef.GET("/recipes/:id", h.HandleRecipe)
			chef.GET("/recipes/:id/related", h.HandleRelated)
			chef.GET("/intention", h.HandleIntention)
			chef.GET("/random/category/:category", h.HandleRandomByCategory)
			chef.GET("/random/cuisine/:cuisine", h.HandleRandomByCuisine)
			chef.GET("/cuisines", h.HandleCuisines)
			chef.GET("/categories", h.HandleCategories)
			chef.GET("/terms/:id", h.HandleTerm)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		common.WriteError(c, common.ErrNotFound)
	})

	stats := svc.KnowledgeBase().Stats()
	common.LogInfo("router setup completed",
		zap.Int("recipes", stats.Recipes),
		zap.Int("ingredients", stats.Ingredients),
		zap.Bool("tickets_enabled", tickets != nil),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
