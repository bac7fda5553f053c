package cmd

import (
	"context"
	"time"

	"github.com/betbot/tradedesk/internal/api"
	"github.com/betbot/tradedesk/internal/auth"
	"github.com/betbot/tradedesk/internal/bots"
	"github.com/betbot/tradedesk/internal/dashboard"
	"github.com/betbot/tradedesk/internal/identity"
	"github.com/betbot/tradedesk/internal/market"
	"github.com/betbot/tradedesk/internal/oracle"
	"github.com/betbot/tradedesk/internal/portfolio"
	"github.com/betbot/tradedesk/internal/ports"
	"github.com/betbot/tradedesk/internal/store"
	"github.com/betbot/tradedesk/internal/token"
	"github.com/betbot/tradedesk/pkg/config"
	"github.com/betbot/tradedesk/pkg/ratelimit"
	"github.com/betbot/tradedesk/pkg/shutdown"
)

// app holds the wired components for one process.
type app struct {
	store  ports.Store
	oracle ports.PriceOracle
	bots   *bots.Registry
	api    *api.Server
}

func newApp(ctx context.Context, c *config.Config, sm *shutdown.Manager) (*app, error) {
	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	sm.OnShutdown("store", func(context.Context) error { return st.Close() })

	var o ports.PriceOracle
	switch c.Oracle.Kind {
	case config.OracleCoinGecko:
		cg := oracle.NewCoinGecko(oracle.CoinGeckoOptions{BaseURL: c.Oracle.CoinGeckoURL, CacheTTL: c.Oracle.CacheTTL})
		sm.OnShutdown("oracle-cache", func(context.Context) error { cg.Close(); return nil })
		o = cg
	default:
		o = oracle.NewSimulated(0)
	}

	ids, err := identity.New(st, c.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := token.New(c.Auth.JWTSecret, c.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	var profit bots.ProfitSeeder = bots.ZeroProfit{}
	if c.Bots.SimulateProfit {
		profit = bots.RandomProfit{Min: 10, Max: 500}
	}
	registry := bots.NewRegistry(st, st, bots.WithProfitSeeder(profit))
	mkt := market.NewService(o, 0)

	srv := api.New(api.Deps{
		Identity:     ids,
		Tokens:       tokens,
		Guard:        auth.NewGuard(tokens, ids),
		Ledger:       portfolio.NewLedger(st, o),
		Bots:         registry,
		Market:       mkt,
		Stream:       market.NewStreamer(mkt, c.Market.StreamInterval),
		Dashboard:    dashboard.NewService(st, st, 0),
		LoginLimiter: ratelimit.NewKeyed(c.Auth.LoginPerMinute, time.Minute),
	})
	return &app{store: st, oracle: o, bots: registry, api: srv}, nil
}
