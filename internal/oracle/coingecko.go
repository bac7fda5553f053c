package oracle

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/pkg/cache"
	"github.com/betbot/tradedesk/pkg/logger"
)

// DefaultCoinIDs maps ticker symbols to CoinGecko coin ids.
var DefaultCoinIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"ADA": "cardano",
	"DOT": "polkadot",
	"BNB": "binancecoin",
	"SOL": "solana",
}

var coinOrder = []string{"BTC", "ETH", "ADA", "DOT", "BNB", "SOL"}

// CoinGecko 通过 /simple/price 获取实时报价，结果按 symbol 缓存
type CoinGecko struct {
	client *resty.Client
	ids    map[string]string
	cache  *cache.InMemoryCache[string, domain.Quote]
}

type CoinGeckoOptions struct {
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

func NewCoinGecko(opts CoinGeckoOptions) *CoinGecko {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")
	return &CoinGecko{
		client: client,
		ids:    DefaultCoinIDs,
		cache:  cache.NewInMemoryCache[string, domain.Quote](opts.CacheTTL, time.Minute),
	}
}

func (c *CoinGecko) Close() { c.cache.Close() }

func (c *CoinGecko) Symbols() []string { return append([]string(nil), coinOrder...) }

// simplePrice 响应形如 {"bitcoin": {"usd": 45000.1, "usd_24h_change": -1.2}}
type simplePrice map[string]struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

func (c *CoinGecko) Quote(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	out := make(map[string]domain.Quote, len(symbols))
	var missing []string
	for _, sym := range symbols {
		sym = strings.ToUpper(sym)
		if _, known := c.ids[sym]; !known {
			continue
		}
		if q, ok := c.cache.Get(sym); ok {
			out[sym] = q
			continue
		}
		missing = append(missing, sym)
	}
	if len(missing) == 0 {
		return out, nil
	}

	ids := make([]string, len(missing))
	for i, sym := range missing {
		ids[i] = c.ids[sym]
	}
	var body simplePrice
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                 strings.Join(ids, ","),
			"vs_currencies":       "usd",
			"include_24hr_change": "true",
		}).
		SetResult(&body).
		Get("/simple/price")
	if err != nil {
		return nil, errors.Wrap(err, "coingecko request")
	}
	if !resp.IsSuccess() {
		return nil, errors.Errorf("coingecko: http %d", resp.StatusCode())
	}

	for _, sym := range missing {
		p, ok := body[c.ids[sym]]
		if !ok {
			logger.Debugf("coingecko: no price for %s", sym)
			continue
		}
		q := domain.Quote{Price: roundPrice(p.USD), Change24h: p.USD24hChange}
		c.cache.Set(sym, q, 0)
		out[sym] = q
	}
	return out, nil
}
