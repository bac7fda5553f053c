// Package storetest is a conformance suite every ports.Store implementation
// runs from its own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/ports"
	"github.com/betbot/tradedesk/pkg/id"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) ports.Store

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s ports.Store)
	}{
		{"Users", testUsers},
		{"PortfolioGetOrCreate", testPortfolioGetOrCreate},
		{"PortfolioConcurrentCreate", testPortfolioConcurrentCreate},
		{"PortfolioReplace", testPortfolioReplace},
		{"BotsOwnership", testBotsOwnership},
		{"BotsOrderAndConfig", testBotsOrderAndConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func newUser(email string) *domain.User {
	return &domain.User{ID: id.New(), Email: email, Name: "n", PasswordHash: "$2a$hash", CreatedAt: t0}
}

func testUsers(t *testing.T, s ports.Store) {
	ctx := context.Background()

	alice := newUser("alice@x.com")
	require.NoError(t, s.InsertUser(ctx, alice))

	dup := newUser("alice@x.com")
	err := s.InsertUser(ctx, dup)
	assert.True(t, errors.Is(err, domain.ErrDuplicateIdentity), "got %v", err)

	// 大小写敏感：按存储值精确匹配
	upper := newUser("Alice@x.com")
	require.NoError(t, s.InsertUser(ctx, upper))

	got, err := s.FindUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "$2a$hash", got.PasswordHash)
	assert.True(t, t0.Equal(got.CreatedAt))

	got, err = s.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", got.Email)

	_, err = s.FindUserByID(ctx, id.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
	_, err = s.FindUserByEmail(ctx, "nobody@x.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	ids, err := s.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice.ID, upper.ID}, ids)
}

func samplePortfolio(userID string) *domain.Portfolio {
	holdings := []domain.Holding{
		{Symbol: "BTC", Amount: 0.5, Price: 40000, Value: 20000, Change24h: 1.5},
		{Symbol: "ETH", Amount: 2, Price: 3000, Value: 6000, Change24h: -2},
	}
	return &domain.Portfolio{
		ID:         id.New(),
		UserID:     userID,
		Exchange:   "Binance",
		Holdings:   holdings,
		TotalValue: domain.SumValues(holdings),
		UpdatedAt:  t0,
	}
}

func testPortfolioGetOrCreate(t *testing.T, s ports.Store) {
	ctx := context.Background()
	userID := id.New()

	_, err := s.FindPortfolioByUser(ctx, userID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	first := samplePortfolio(userID)
	stored, inserted, err := s.InsertPortfolioIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, first.ID, stored.ID)

	second := samplePortfolio(userID)
	second.Exchange = "Kraken"
	stored, inserted, err = s.InsertPortfolioIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "Binance", stored.Exchange)

	got, err := s.FindPortfolioByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	require.Len(t, got.Holdings, 2)
	assert.Equal(t, "BTC", got.Holdings[0].Symbol)
	assert.Equal(t, "ETH", got.Holdings[1].Symbol)
	assert.Equal(t, 26000.0, got.TotalValue)
	assert.True(t, t0.Equal(got.UpdatedAt))
}

func testPortfolioConcurrentCreate(t *testing.T, s ports.Store) {
	ctx := context.Background()
	userID := id.New()

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
		ids      = map[string]struct{}{}
		errs     []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, ok, err := s.InsertPortfolioIfAbsent(ctx, samplePortfolio(userID))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if ok {
				inserted++
			}
			ids[p.ID] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 1, inserted)
	assert.Len(t, ids, 1)
}

func testPortfolioReplace(t *testing.T, s ports.Store) {
	ctx := context.Background()
	userID := id.New()

	missing := samplePortfolio(userID)
	err := s.ReplacePortfolioValuation(ctx, missing)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	orig := samplePortfolio(userID)
	_, _, err = s.InsertPortfolioIfAbsent(ctx, orig)
	require.NoError(t, err)

	next := orig.Clone()
	next.Holdings = []domain.Holding{{Symbol: "ETH", Amount: 2, Price: 3100, Value: 6200, Change24h: 0.3}}
	next.TotalValue = 6200
	next.UpdatedAt = t0.Add(time.Hour)
	require.NoError(t, s.ReplacePortfolioValuation(ctx, next))

	got, err := s.FindPortfolioByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, "Binance", got.Exchange)
	require.Len(t, got.Holdings, 1)
	assert.Equal(t, 6200.0, got.Holdings[0].Value)
	assert.Equal(t, 6200.0, got.TotalValue)
	assert.True(t, t0.Add(time.Hour).Equal(got.UpdatedAt))
}

func newBot(userID, name string) *domain.Bot {
	return &domain.Bot{
		ID:        id.NewSortable(),
		UserID:    userID,
		Name:      name,
		Type:      domain.BotTypeDCA,
		Pair:      "BTC/USDT",
		Status:    domain.BotStatusActive,
		Config:    domain.BotConfig{},
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}

func testBotsOwnership(t *testing.T, s ports.Store) {
	ctx := context.Background()
	u1, u2 := id.New(), id.New()

	b := newBot(u2, "theirs")
	require.NoError(t, s.InsertBot(ctx, b))

	err := s.UpdateBotStatus(ctx, u1, b.ID, domain.BotStatusPaused, t0)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
	err = s.DeleteBot(ctx, u1, b.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
	err = s.UpdateBotStatus(ctx, u2, "not-a-bot-id", domain.BotStatusPaused, t0)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	list, err := s.ListBotsByOwner(ctx, u2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.BotStatusActive, list[0].Status)

	// 任意状态字符串原样保存
	later := t0.Add(time.Minute)
	require.NoError(t, s.UpdateBotStatus(ctx, u2, b.ID, domain.BotStatus("archived"), later))
	list, err = s.ListBotsByOwner(ctx, u2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.BotStatus("archived"), list[0].Status)
	assert.True(t, later.Equal(list[0].UpdatedAt))
	assert.True(t, t0.Equal(list[0].CreatedAt))

	n, err := s.CountBotsByOwner(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.DeleteBot(ctx, u2, b.ID))
	err = s.DeleteBot(ctx, u2, b.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
	list, err = s.ListBotsByOwner(ctx, u2)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testBotsOrderAndConfig(t *testing.T, s ports.Store) {
	ctx := context.Background()
	u1, u2 := id.New(), id.New()

	names := []string{"first", "second", "third"}
	for _, name := range names {
		require.NoError(t, s.InsertBot(ctx, newBot(u1, name)))
		require.NoError(t, s.InsertBot(ctx, newBot(u2, "other-"+name)))
	}
	grid := newBot(u1, "grid")
	grid.Type = domain.BotTypeGrid
	grid.Profit = 123.5
	grid.Config = domain.BotConfig{"grid_size": 10.0, "price_range": []any{2500.0, 3000.0}, "mode": "arith"}
	require.NoError(t, s.InsertBot(ctx, grid))

	list, err := s.ListBotsByOwner(ctx, u1)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i, name := range names {
		assert.Equal(t, name, list[i].Name)
	}
	got := list[3]
	assert.Equal(t, grid.ID, got.ID)
	assert.Equal(t, domain.BotTypeGrid, got.Type)
	assert.Equal(t, 123.5, got.Profit)
	assert.Equal(t, "arith", got.Config["mode"])
	assert.Equal(t, 10.0, got.Config["grid_size"])
	assert.Equal(t, []any{2500.0, 3000.0}, got.Config["price_range"])

	n, err := s.CountBotsByOwner(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
