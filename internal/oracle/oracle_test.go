package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/tradedesk/internal/domain"
)

func TestSimulated_BandsAndUnknown(t *testing.T) {
	o := NewSimulated(42)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		quotes, err := o.Quote(ctx, []string{"BTC", "eth", "ADA", "DOT", "BNB", "SOL", "XRP"})
		require.NoError(t, err)
		require.Len(t, quotes, 6)
		assert.NotContains(t, quotes, "XRP")

		for _, b := range simulatedBands {
			q := quotes[b.symbol]
			assert.GreaterOrEqual(t, q.Price, b.base-b.jitter, b.symbol)
			assert.LessOrEqual(t, q.Price, b.base+b.jitter, b.symbol)
			assert.GreaterOrEqual(t, q.Change24h, -5.0)
			assert.LessOrEqual(t, q.Change24h, 5.0)
		}
	}
}

func TestSimulated_SeedIsDeterministic(t *testing.T) {
	a, _ := NewSimulated(7).Quote(context.Background(), []string{"BTC", "ETH"})
	b, _ := NewSimulated(7).Quote(context.Background(), []string{"BTC", "ETH"})
	assert.Equal(t, a, b)
}

func TestSimulated_RoundsToEightDecimals(t *testing.T) {
	assert.Equal(t, 0.12345679, roundPrice(0.123456789))
	assert.Equal(t, []string{"BTC", "ETH", "ADA", "DOT", "BNB", "SOL"}, NewSimulated(1).Symbols())
}

func TestStatic(t *testing.T) {
	o := NewStatic(map[string]domain.Quote{"btc": {Price: 50000, Change24h: 1}, "ETH": {Price: 3000}})
	quotes, err := o.Quote(context.Background(), []string{"BTC", "eth", "DOGE"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Quote{"BTC": {Price: 50000, Change24h: 1}, "ETH": {Price: 3000}}, quotes)
	assert.Equal(t, []string{"BTC", "ETH"}, o.Symbols())
}

func TestCoinGecko_QuoteAndCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "bitcoin,ethereum", r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":45000.123456789,"usd_24h_change":-1.5},"ethereum":{"usd":2800,"usd_24h_change":2}}`))
	}))
	defer srv.Close()

	o := NewCoinGecko(CoinGeckoOptions{BaseURL: srv.URL + "/", CacheTTL: time.Minute})
	defer o.Close()

	quotes, err := o.Quote(context.Background(), []string{"BTC", "ETH", "XRP"})
	require.NoError(t, err)
	assert.Equal(t, domain.Quote{Price: 45000.12345679, Change24h: -1.5}, quotes["BTC"])
	assert.Equal(t, domain.Quote{Price: 2800, Change24h: 2}, quotes["ETH"])
	assert.NotContains(t, quotes, "XRP")

	// 第二次命中缓存，不再请求
	quotes, err = o.Quote(context.Background(), []string{"btc", "eth"})
	require.NoError(t, err)
	assert.Len(t, quotes, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCoinGecko_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := NewCoinGecko(CoinGeckoOptions{BaseURL: srv.URL, CacheTTL: time.Minute})
	defer o.Close()

	_, err := o.Quote(context.Background(), []string{"BTC"})
	assert.Error(t, err)
}
