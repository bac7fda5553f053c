// Package portfolio maintains each user's single portfolio and its valuation.
package portfolio

import (
	"context"
	"errors"
	"time"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/ports"
	"github.com/betbot/tradedesk/pkg/id"
	"github.com/betbot/tradedesk/pkg/logger"
)

const DefaultExchange = "Binance"

// Seed amounts for a new portfolio, in display order.
var seedHoldings = []struct {
	Symbol string
	Amount float64
}{
	{"BTC", 0.05234},
	{"ETH", 1.2345},
	{"ADA", 1234.56},
	{"DOT", 45.67},
}

// RepricePolicy decides what happens to a holding the oracle has no quote for.
// Returning false drops the holding.
type RepricePolicy func(h domain.Holding) (domain.Holding, bool)

// DropDelisted removes unpriced holdings.
func DropDelisted(domain.Holding) (domain.Holding, bool) { return domain.Holding{}, false }

// KeepStale keeps the holding at its last known price.
func KeepStale(h domain.Holding) (domain.Holding, bool) { return h, true }

// Ledger 每个用户一个组合，估值来自 PriceOracle
type Ledger struct {
	store  ports.PortfolioRepository
	oracle ports.PriceOracle
	policy RepricePolicy
	now    func() time.Time
}

// Option 配置 Ledger
type Option func(*Ledger)

// WithPolicy 替换无报价持仓的处理策略，默认 DropDelisted
func WithPolicy(p RepricePolicy) Option { return func(l *Ledger) { l.policy = p } }

// WithClock 替换时间源（测试用）
func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

// NewLedger 创建 Ledger
func NewLedger(store ports.PortfolioRepository, oracle ports.PriceOracle, opts ...Option) *Ledger {
	l := &Ledger{store: store, oracle: oracle, policy: DropDelisted, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// EnsureDefault returns the user's portfolio, creating the seed portfolio on
// first access. Concurrent first calls all receive the same document.
func (l *Ledger) EnsureDefault(ctx context.Context, userID string) (*domain.Portfolio, error) {
	p, err := l.store.FindPortfolioByUser(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	symbols := make([]string, len(seedHoldings))
	for i, h := range seedHoldings {
		symbols[i] = h.Symbol
	}
	quotes, err := l.oracle.Quote(ctx, symbols)
	if err != nil {
		return nil, err
	}
	holdings := make([]domain.Holding, 0, len(seedHoldings))
	for _, h := range seedHoldings {
		q, ok := quotes[h.Symbol]
		if !ok {
			continue
		}
		holdings = append(holdings, priced(h.Symbol, h.Amount, q))
	}

	seed := &domain.Portfolio{
		ID:         id.New(),
		UserID:     userID,
		Exchange:   DefaultExchange,
		Holdings:   holdings,
		TotalValue: domain.SumValues(holdings),
		UpdatedAt:  l.now().UTC(),
	}
	stored, inserted, err := l.store.InsertPortfolioIfAbsent(ctx, seed)
	if err != nil {
		return nil, err
	}
	if inserted {
		logger.WithField("user_id", userID).Info("default portfolio created")
	}
	return stored, nil
}

// Recompute re-prices every holding and persists the result in one write.
func (l *Ledger) Recompute(ctx context.Context, userID string) (*domain.Portfolio, error) {
	p, err := l.store.FindPortfolioByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, len(p.Holdings))
	for i, h := range p.Holdings {
		symbols[i] = h.Symbol
	}
	quotes, err := l.oracle.Quote(ctx, symbols)
	if err != nil {
		return nil, err
	}

	holdings := make([]domain.Holding, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		if q, ok := quotes[h.Symbol]; ok {
			holdings = append(holdings, priced(h.Symbol, h.Amount, q))
			continue
		}
		if kept, ok := l.policy(h); ok {
			holdings = append(holdings, kept)
		} else {
			logger.Debugf("portfolio %s: dropped unpriced holding %s", p.ID, h.Symbol)
		}
	}

	next := p.Clone()
	next.Holdings = holdings
	next.TotalValue = domain.SumValues(holdings)
	next.UpdatedAt = l.now().UTC()
	if err := l.store.ReplacePortfolioValuation(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Get 只读，不存在时返回 domain.ErrNotFound
func (l *Ledger) Get(ctx context.Context, userID string) (*domain.Portfolio, error) {
	return l.store.FindPortfolioByUser(ctx, userID)
}

func priced(symbol string, amount float64, q domain.Quote) domain.Holding {
	return domain.Holding{
		Symbol:    symbol,
		Amount:    amount,
		Price:     q.Price,
		Value:     amount * q.Price,
		Change24h: q.Change24h,
	}
}
