package cache

import (
	"context"
	"sync"
	"time"

	"recipe-synthesizer/internal/infrastructure/config"
	"recipe-synthesizer/internal/pkg/common"

	"go.uber.org/zap"
)

// Manager 記憶體票據儲存，過期清理加上最少使用淘汰
type Manager struct {
	config *config.CacheConfig
	mu     sync.Mutex
	store  map[string]cacheEntry
	stats  cacheStats
	now    func() time.Time
	done   chan struct{}
	once   sync.Once
}

// cacheEntry 緩存條目
type cacheEntry struct {
	ticket      Ticket
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewManager 創建記憶體票據儲存並啟動定期清理
func NewManager(cfg *config.CacheConfig) *Manager {
	m := newManager(cfg, time.Now)
	if cfg.CleanupInterval > 0 {
		go m.startCleanup()
	}

	common.LogInfo("ticket cache initialized",
		zap.String("backend", config.CacheBackendMemory),
		zap.Int("max_size", cfg.MaxSize),
		zap.Duration("ttl", cfg.TTL),
		zap.Duration("cleanup_interval", cfg.CleanupInterval),
	)
	return m
}

func newManager(cfg *config.CacheConfig, now func() time.Time) *Manager {
	return &Manager{
		config: cfg,
		store:  make(map[string]cacheEntry),
		now:    now,
		done:   make(chan struct{}),
	}
}

// Get 取出票據，過期即刪除
func (m *Manager) Get(_ context.Context, id string) (*Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[id]
	if !exists {
		m.stats.misses++
		common.LogCacheMiss("ticket")
		return nil, common.ErrTicketNotFound
	}

	now := m.now()
	if now.After(entry.expiresAt) {
		delete(m.store, id)
		m.stats.evictions++
		m.stats.misses++
		common.LogDebug("ticket expired", zap.String("ticket", id))
		return nil, common.ErrTicketNotFound
	}

	// 更新訪問統計
	entry.lastAccess = now
	entry.accessCount++
	m.store[id] = entry
	m.stats.hits++
	common.LogCacheHit("ticket")

	t := entry.ticket
	return &t, nil
}

// Put 存入票據，滿了先清過期項目，再淘汰最少使用者
func (m *Manager) Put(_ context.Context, t *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[t.ID]; !exists && len(m.store) >= m.config.MaxSize {
		evicted := m.cleanup()
		if evicted == 0 {
			m.evictLRU()
		}
		if len(m.store) >= m.config.MaxSize {
			m.stats.errors++
			common.LogWarn("ticket cache full", zap.Int("size", len(m.store)))
			return common.ErrCacheFull
		}
	}

	now := m.now()
	m.store[t.ID] = cacheEntry{
		ticket:     *t,
		expiresAt:  now.Add(m.config.TTL),
		lastAccess: now,
	}
	common.LogDebug("ticket stored", zap.String("ticket", t.ID), zap.Int("options", len(t.OptionIDs)))
	return nil
}

// Delete 刪除票據，不存在時不視為錯誤
func (m *Manager) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

// Ping 記憶體儲存永遠可用
func (m *Manager) Ping(context.Context) error {
	return nil
}

// startCleanup 定期清理過期票據，Close 後結束
func (m *Manager) startCleanup() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// cleanup 清理過期的票據，呼叫端須持有鎖
func (m *Manager) cleanup() int {
	now := m.now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}

	if count > 0 {
		common.LogDebug("expired tickets cleaned",
			zap.Int("count", count),
			zap.Int64("total_evictions", m.stats.evictions),
			zap.Int("remaining_size", len(m.store)),
		)
	}
	return count
}

// evictLRU 淘汰訪問次數最少、最久未訪問的票據，呼叫端須持有鎖
func (m *Manager) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogDebug("ticket evicted (LRU)", zap.String("ticket", oldestKey))
	}
}

// Stats 獲取緩存統計信息
func (m *Manager) Stats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ratio := 0.0
	if total := m.stats.hits + m.stats.misses; total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"backend":   config.CacheBackendMemory,
		"size":      len(m.store),
		"max_size":  m.config.MaxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"errors":    m.stats.errors,
		"hit_ratio": ratio,
	}
}

// Close 停止清理並清空票據
func (m *Manager) Close() error {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]cacheEntry)
	common.LogInfo("ticket cache closed",
		zap.Int64("hits", m.stats.hits),
		zap.Int64("misses", m.stats.misses),
		zap.Int64("evictions", m.stats.evictions),
	)
	return nil
}
