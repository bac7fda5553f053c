// Package dashboard aggregates per-user figures for the overview page.
package dashboard

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/ports"
)

// ExchangesConnected is a fixed display value; exchange connections are not modeled.
const ExchangesConnected = 2

type Stats struct {
	TotalPortfolioValue float64 `json:"total_portfolio_value"`
	ActiveBots          int     `json:"active_bots"`
	TotalBots           int     `json:"total_bots"`
	TotalProfit         float64 `json:"total_profit"`
	ExchangesConnected  int     `json:"exchanges_connected"`
	ProfitChange24h     float64 `json:"profit_change_24h"`
}

type Service struct {
	portfolios ports.PortfolioRepository
	bots       ports.BotRepository

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(portfolios ports.PortfolioRepository, bots ports.BotRepository, seed int64) *Service {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{portfolios: portfolios, bots: bots, rng: rand.New(rand.NewSource(seed))}
}

func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	st := &Stats{ExchangesConnected: ExchangesConnected}

	p, err := s.portfolios.FindPortfolioByUser(ctx, userID)
	switch {
	case err == nil:
		st.TotalPortfolioValue = p.TotalValue
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	list, err := s.bots.ListBotsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	profit := decimal.Zero
	for _, b := range list {
		if b.Status == domain.BotStatusActive {
			st.ActiveBots++
		}
		profit = profit.Add(decimal.NewFromFloat(b.Profit))
	}
	st.TotalBots = len(list)
	st.TotalProfit = profit.InexactFloat64()

	s.mu.Lock()
	st.ProfitChange24h = 1 + s.rng.Float64()*9
	s.mu.Unlock()
	return st, nil
}
