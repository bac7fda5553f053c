// Package market exposes oracle quotes as market tickers.
package market

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/ports"
)

// 24h 成交量是模拟值
const (
	minVolume = 1_000_000
	maxVolume = 10_000_000
)

type Service struct {
	oracle ports.PriceOracle
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(oracle ports.PriceOracle, seed int64) *Service {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{oracle: oracle, now: time.Now, rng: rand.New(rand.NewSource(seed))}
}

// All returns a ticker for every symbol the oracle knows, in oracle order.
func (s *Service) All(ctx context.Context) ([]domain.MarketTicker, error) {
	symbols := s.oracle.Symbols()
	quotes, err := s.oracle.Quote(ctx, symbols)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	out := make([]domain.MarketTicker, 0, len(symbols))
	for _, sym := range symbols {
		q, ok := quotes[sym]
		if !ok {
			continue
		}
		out = append(out, s.ticker(sym, q, now))
	}
	return out, nil
}

// Symbol is case-insensitive. Unknown symbols are domain.ErrNotFound.
func (s *Service) Symbol(ctx context.Context, symbol string) (*domain.MarketTicker, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	quotes, err := s.oracle.Quote(ctx, []string{sym})
	if err != nil {
		return nil, err
	}
	q, ok := quotes[sym]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t := s.ticker(sym, q, s.now().UTC())
	return &t, nil
}

func (s *Service) ticker(sym string, q domain.Quote, at time.Time) domain.MarketTicker {
	s.mu.Lock()
	vol := minVolume + s.rng.Float64()*(maxVolume-minVolume)
	s.mu.Unlock()
	return domain.MarketTicker{
		Symbol:    sym,
		Price:     q.Price,
		Change24h: q.Change24h,
		Volume24h: vol,
		UpdatedAt: at,
	}
}
