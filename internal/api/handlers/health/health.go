package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	chefCore "recipe-synthesizer/internal/core/chef"
	"recipe-synthesizer/internal/core/knowledge"
	"recipe-synthesizer/internal/infrastructure/cache"
	"recipe-synthesizer/internal/infrastructure/config"
	"recipe-synthesizer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 路由注入到 gin.Context 的鍵
const (
	ContextKeyConfig  = "config"
	ContextKeyChef    = "chef_service"
	ContextKeyTickets = "ticket_store"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Knowledge *knowledge.Stats       `json:"knowledge,omitempty"`
	Tickets   map[string]interface{} `json:"tickets,omitempty"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	cfg, ok := c.MustGet(ContextKeyConfig).(*config.Config)
	if !ok {
		common.LogError("invalid configuration type in context")
		common.WriteError(c, common.ErrInternalError)
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if svc, ok := c.Get(ContextKeyChef); ok {
		if s, ok := svc.(*chefCore.Service); ok && s != nil {
			stats := s.KnowledgeBase().Stats()
			response.Knowledge = &stats
		}
	}
	if store := ticketStore(c); store != nil {
		response.Tickets = store.Stats()
	}

	common.LogDebug("health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 知識庫已載入且票據儲存可連線才算就緒
func ReadinessCheck(c *gin.Context) {
	svc, _ := c.Get(ContextKeyChef)
	if s, ok := svc.(*chefCore.Service); !ok || s == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "knowledge base not loaded"})
		return
	}

	if store := ticketStore(c); store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			common.LogWarn("ticket store not reachable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "ticket store unavailable"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func ticketStore(c *gin.Context) cache.Store {
	v, ok := c.Get(ContextKeyTickets)
	if !ok {
		return nil
	}
	store, _ := v.(cache.Store)
	return store
}
