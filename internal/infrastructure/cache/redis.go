package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"recipe-synthesizer/internal/infrastructure/config"
	"recipe-synthesizer/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore 以 Redis 保存票據，過期交給 Redis 的 TTL
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisStore 連線並測試 Redis
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("ticket cache initialized",
		zap.String("backend", config.CacheBackendRedis),
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", ttl),
	)
	return &RedisStore{client: client, prefix: cfg.Prefix, ttl: ttl}, nil
}

// Get 取出票據
func (s *RedisStore) Get(ctx context.Context, id string) (*Ticket, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
			common.LogCacheMiss("ticket")
			return nil, common.ErrTicketNotFound
		}
		return nil, common.Wrap(common.ErrServiceUnavailable, fmt.Errorf("failed to get ticket: %w", err))
	}

	var t Ticket
	if err := common.ParseJSONBytesStrict(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticket: %w", err)
	}
	s.hits.Add(1)
	common.LogCacheHit("ticket")
	return &t, nil
}

// Put 存入票據
func (s *RedisStore) Put(ctx context.Context, t *Ticket) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket: %w", err)
	}
	if err := s.client.Set(ctx, s.key(t.ID), data, s.ttl).Err(); err != nil {
		return common.Wrap(common.ErrServiceUnavailable, fmt.Errorf("failed to set ticket: %w", err))
	}
	return nil
}

// Delete 刪除票據
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}

// Ping 檢查 Redis 連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Stats 命中統計
func (s *RedisStore) Stats() map[string]interface{} {
	return map[string]interface{}{
		"backend": config.CacheBackendRedis,
		"hits":    s.hits.Load(),
		"misses":  s.misses.Load(),
	}
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// key 生成緩存鍵
func (s *RedisStore) key(id string) string {
	return s.prefix + id
}
