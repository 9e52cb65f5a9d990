// Package cache 保存消歧義票據：Synthesize 回傳多個選項時，
// 選項的食譜 id 以票據 id 暫存，呼叫端稍後以選項序號取回。
package cache

import (
	"context"
	"fmt"
	"time"

	"recipe-synthesizer/internal/infrastructure/config"
	"recipe-synthesizer/internal/pkg/common"
)

// Ticket 一次消歧義的選項
type Ticket struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	OptionIDs []string  `json:"option_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// Option 依序號取出選項的食譜 id
func (t *Ticket) Option(index int) (string, error) {
	if index < 0 || index >= len(t.OptionIDs) {
		return "", common.Wrap(common.ErrInvalidOption,
			fmt.Errorf("option %d of ticket %s, %d available", index, t.ID, len(t.OptionIDs)))
	}
	return t.OptionIDs[index], nil
}

// Store 票據儲存，實作需可併發使用
type Store interface {
	Put(ctx context.Context, t *Ticket) error
	// Get 找不到或已過期時回傳 common.ErrTicketNotFound
	Get(ctx context.Context, id string) (*Ticket, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Stats() map[string]interface{}
	Close() error
}

// NewTicket 以新的 UUID 建立票據
func NewTicket(query string, optionIDs []string) *Ticket {
	return &Ticket{
		ID:        common.GenerateUUID(),
		Query:     query,
		OptionIDs: optionIDs,
		CreatedAt: time.Now(),
	}
}

// NewStore 依設定建立票據儲存，快取關閉時回傳 common.ErrCacheDisabled
func NewStore(cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		return nil, common.ErrCacheDisabled
	}
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		return NewRedisStore(context.Background(), &cfg.Redis, cfg.Cache.TTL)
	default:
		return NewManager(&cfg.Cache), nil
	}
}
