package bots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/store/memstore"
)

func TestAliceScenario(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(memstore.New(), memstore.New())

	b, err := r.Create(ctx, "alice", NewBot{Name: "BTC DCA", Type: domain.BotTypeDCA, Pair: "BTC/USDT",
		Config: domain.BotConfig{"interval": "daily"}})
	require.NoError(t, err)
	assert.Equal(t, domain.BotStatusActive, b.Status)
	assert.Equal(t, 0.0, b.Profit)

	require.NoError(t, r.SetStatus(ctx, "alice", b.ID, domain.BotStatusStopped))

	list, err := r.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.BotStatusStopped, list[0].Status)
	assert.Equal(t, "daily", list[0].Config["interval"])

	require.NoError(t, r.Delete(ctx, "alice", b.ID))
	list, err = r.List(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestOwnershipScoping(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(memstore.New(), memstore.New())

	theirs, err := r.Create(ctx, "u2", NewBot{Name: "x", Type: domain.BotTypeGrid, Pair: "ETH/USDT"})
	require.NoError(t, err)

	assert.ErrorIs(t, r.SetStatus(ctx, "u1", theirs.ID, domain.BotStatusPaused), domain.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "u1", theirs.ID), domain.ErrNotFound)
	assert.ErrorIs(t, r.SetStatus(ctx, "u1", "missing", domain.BotStatusPaused), domain.ErrNotFound)

	list, err := r.List(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.BotStatusActive, list[0].Status)
}

func TestCreate_OrderAndTimestamps(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	r := NewRegistry(memstore.New(), memstore.New(), WithClock(func() time.Time { return now }))

	for _, name := range []string{"a", "b", "c"} {
		b, err := r.Create(ctx, "u", NewBot{Name: name, Type: "custom", Pair: "X/Y"})
		require.NoError(t, err)
		assert.Equal(t, now, b.CreatedAt)
		assert.Equal(t, now, b.UpdatedAt)
		assert.NotNil(t, b.Config)
	}
	list, err := r.List(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "c", list[2].Name)
	assert.Equal(t, domain.BotType("custom"), list[0].Type)
}

func TestRandomProfit(t *testing.T) {
	r := NewRegistry(memstore.New(), memstore.New(), WithProfitSeeder(RandomProfit{Min: 10, Max: 500}))
	for i := 0; i < 50; i++ {
		b, err := r.Create(context.Background(), "u", NewBot{Name: "n", Type: domain.BotTypeDCA, Pair: "BTC/USDT"})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b.Profit, 10.0)
		assert.Less(t, b.Profit, 500.0)
	}
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	for _, u := range []*domain.User{
		{ID: "fresh", Email: "f@x.com"},
		{ID: "busy", Email: "b@x.com"},
	} {
		require.NoError(t, store.InsertUser(ctx, u))
	}
	r := NewRegistry(store, store, WithProfitSeeder(RandomProfit{Min: 10, Max: 500}))
	_, err := r.Create(ctx, "busy", NewBot{Name: "mine", Type: domain.BotTypeDCA, Pair: "BTC/USDT"})
	require.NoError(t, err)

	n, err := r.SeedDemo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := r.List(ctx, "fresh")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "BTC DCA Bot", list[0].Name)
	assert.Equal(t, "ETH Grid Bot", list[1].Name)
	assert.Equal(t, "ADA Signal Bot", list[2].Name)
	assert.Equal(t, domain.BotStatusPaused, list[2].Status)
	assert.Equal(t, "RSI", list[2].Config["strategy"])
	assert.GreaterOrEqual(t, list[0].Profit, 100.0)
	assert.Less(t, list[2].Profit, 100.0)

	busy, err := r.List(ctx, "busy")
	require.NoError(t, err)
	assert.Len(t, busy, 1)

	// 再次执行不会重复
	n, err = r.SeedDemo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSeedDemo_ZeroProfit(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.InsertUser(ctx, &domain.User{ID: "u", Email: "u@x.com"}))
	r := NewRegistry(store, store)

	_, err := r.SeedDemo(ctx)
	require.NoError(t, err)
	list, err := r.List(ctx, "u")
	require.NoError(t, err)
	for _, b := range list {
		assert.Equal(t, 0.0, b.Profit)
	}
}
