package bots

import (
	"context"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/pkg/id"
	"github.com/betbot/tradedesk/pkg/logger"
)

type demoBot struct {
	name   string
	typ    domain.BotType
	pair   string
	status domain.BotStatus
	profit RandomProfit
	config func() domain.BotConfig
}

var demoBots = []demoBot{
	{
		name: "BTC DCA Bot", typ: domain.BotTypeDCA, pair: "BTC/USDT", status: domain.BotStatusActive,
		profit: RandomProfit{Min: 100, Max: 500},
		config: func() domain.BotConfig { return domain.BotConfig{"interval": "daily", "amount": 100} },
	},
	{
		name: "ETH Grid Bot", typ: domain.BotTypeGrid, pair: "ETH/USDT", status: domain.BotStatusActive,
		profit: RandomProfit{Min: 50, Max: 300},
		config: func() domain.BotConfig { return domain.BotConfig{"grid_size": 10, "price_range": []any{2500, 3000}} },
	},
	{
		name: "ADA Signal Bot", typ: domain.BotTypeSignal, pair: "ADA/USDT", status: domain.BotStatusPaused,
		profit: RandomProfit{Min: 20, Max: 100},
		config: func() domain.BotConfig { return domain.BotConfig{"signal_source": "tradingview", "strategy": "RSI"} },
	},
}

// SeedDemo gives every user without bots the three sample bots and returns
// how many users were seeded. Sample profits are drawn only when the registry
// simulates profit.
func (r *Registry) SeedDemo(ctx context.Context) (int, error) {
	userIDs, err := r.users.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	_, simulate := r.profit.(RandomProfit)

	seeded := 0
	for _, userID := range userIDs {
		n, err := r.bots.CountBotsByOwner(ctx, userID)
		if err != nil {
			return seeded, err
		}
		if n > 0 {
			continue
		}
		for _, d := range demoBots {
			now := r.now().UTC()
			b := &domain.Bot{
				ID:        id.NewSortable(),
				UserID:    userID,
				Name:      d.name,
				Type:      d.typ,
				Pair:      d.pair,
				Status:    d.status,
				Config:    d.config(),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if simulate {
				b.Profit = d.profit.Initial()
			}
			if err := r.bots.InsertBot(ctx, b); err != nil {
				return seeded, err
			}
		}
		seeded++
	}
	if seeded > 0 {
		logger.Infof("seeded demo bots for %d users", seeded)
	}
	return seeded, nil
}
