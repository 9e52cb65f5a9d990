package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe-synthesizer/internal/infrastructure/config"
	"recipe-synthesizer/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(maxSize int) (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cfg := &config.CacheConfig{Enabled: true, MaxSize: maxSize, TTL: time.Minute}
	return newManager(cfg, clock.now), clock
}

func TestManager_PutGet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(10)

	ticket := NewTicket("свекла и капуста", []string{"borscht", "shchi"})
	require.NoError(t, m.Put(ctx, ticket))

	got, err := m.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.OptionIDs, got.OptionIDs)
	assert.Equal(t, "свекла и капуста", got.Query)

	_, err = m.Get(ctx, "unknown")
	assert.True(t, errors.Is(err, common.ErrTicketNotFound))

	stats := m.Stats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}

func TestManager_TTL(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(10)

	ticket := NewTicket("q", []string{"a"})
	require.NoError(t, m.Put(ctx, ticket))

	clock.advance(59 * time.Second)
	_, err := m.Get(ctx, ticket.ID)
	require.NoError(t, err)

	clock.advance(2 * time.Second)
	_, err = m.Get(ctx, ticket.ID)
	assert.ErrorIs(t, err, common.ErrTicketNotFound)
	assert.Equal(t, 0, m.Stats()["size"])
}

func TestManager_EvictsExpiredBeforeLRU(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(2)

	old := NewTicket("old", []string{"a"})
	require.NoError(t, m.Put(ctx, old))
	clock.advance(50 * time.Second)

	used := NewTicket("used", []string{"b"})
	require.NoError(t, m.Put(ctx, used))
	clock.advance(20 * time.Second)

	// old 已過期，存入新票據時先被清掉
	fresh := NewTicket("fresh", []string{"c"})
	require.NoError(t, m.Put(ctx, fresh))

	_, err := m.Get(ctx, used.ID)
	assert.NoError(t, err)
	_, err = m.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestManager_LRU(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(2)

	a := NewTicket("a", []string{"a"})
	b := NewTicket("b", []string{"b"})
	require.NoError(t, m.Put(ctx, a))
	clock.advance(time.Second)
	require.NoError(t, m.Put(ctx, b))
	clock.advance(time.Second)

	_, err := m.Get(ctx, a.ID)
	require.NoError(t, err)

	c := NewTicket("c", []string{"c"})
	require.NoError(t, m.Put(ctx, c))

	_, err = m.Get(ctx, b.ID)
	assert.ErrorIs(t, err, common.ErrTicketNotFound, "least used ticket is evicted")
	_, err = m.Get(ctx, a.ID)
	assert.NoError(t, err)
}

func TestManager_DeleteAndClose(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(10)

	ticket := NewTicket("q", []string{"a"})
	require.NoError(t, m.Put(ctx, ticket))
	require.NoError(t, m.Delete(ctx, ticket.ID))
	_, err := m.Get(ctx, ticket.ID)
	assert.ErrorIs(t, err, common.ErrTicketNotFound)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestTicket_Option(t *testing.T) {
	ticket := NewTicket("q", []string{"a", "b"})

	id, err := ticket.Option(1)
	require.NoError(t, err)
	assert.Equal(t, "b", id)

	_, err = ticket.Option(2)
	assert.ErrorIs(t, err, common.ErrInvalidOption)
	_, err = ticket.Option(-1)
	assert.ErrorIs(t, err, common.ErrInvalidOption)
}

func TestNewStore(t *testing.T) {
	_, err := NewStore(&config.Config{Cache: config.CacheConfig{Enabled: false}})
	assert.ErrorIs(t, err, common.ErrCacheDisabled)

	store, err := NewStore(&config.Config{Cache: config.CacheConfig{
		Enabled: true, Backend: config.CacheBackendMemory, MaxSize: 5, TTL: time.Minute, CleanupInterval: time.Hour,
	}})
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(context.Background()))
	assert.Equal(t, config.CacheBackendMemory, store.Stats()["backend"])
}
