// Package oracle provides ports.PriceOracle implementations.
package oracle

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/ports"
)

var (
	_ ports.PriceOracle = (*Simulated)(nil)
	_ ports.PriceOracle = (*Static)(nil)
	_ ports.PriceOracle = (*CoinGecko)(nil)
)

// band 基准价和抖动幅度
type band struct {
	symbol string
	base   float64
	jitter float64
}

var simulatedBands = []band{
	{"BTC", 45000, 1000},
	{"ETH", 2800, 200},
	{"ADA", 0.5, 0.05},
	{"DOT", 7.5, 0.5},
	{"BNB", 320, 20},
	{"SOL", 100, 10},
}

const priceDecimals = 8

// Simulated 模拟行情：基准价加均匀抖动，24h 涨跌幅在 [-5, 5] 内
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated seed 为 0 时使用当前时间
func NewSimulated(seed int64) *Simulated {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulated{rng: rand.New(rand.NewSource(seed))}
}

func (s *Simulated) Symbols() []string {
	out := make([]string, len(simulatedBands))
	for i, b := range simulatedBands {
		out[i] = b.symbol
	}
	return out
}

func (s *Simulated) Quote(_ context.Context, symbols []string) (map[string]domain.Quote, error) {
	want := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		want[strings.ToUpper(sym)] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.Quote, len(symbols))
	for _, b := range simulatedBands {
		if _, ok := want[b.symbol]; !ok {
			continue
		}
		price := b.base + s.uniform(-b.jitter, b.jitter)
		out[b.symbol] = domain.Quote{
			Price:     roundPrice(price),
			Change24h: s.uniform(-5, 5),
		}
	}
	return out, nil
}

func (s *Simulated) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func roundPrice(v float64) float64 {
	return decimal.NewFromFloat(v).Round(priceDecimals).InexactFloat64()
}
