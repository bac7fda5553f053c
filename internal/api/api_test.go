package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/betbot/tradedesk/internal/auth"
	"github.com/betbot/tradedesk/internal/bots"
	"github.com/betbot/tradedesk/internal/dashboard"
	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/identity"
	"github.com/betbot/tradedesk/internal/market"
	"github.com/betbot/tradedesk/internal/oracle"
	"github.com/betbot/tradedesk/internal/portfolio"
	"github.com/betbot/tradedesk/internal/store/memstore"
	"github.com/betbot/tradedesk/internal/token"
	"github.com/betbot/tradedesk/pkg/ratelimit"
)

type harness struct {
	t       *testing.T
	handler http.Handler
}

func newHarness(t *testing.T, loginPerMinute int) *harness {
	t.Helper()
	store := memstore.New()
	prices := oracle.Prices(map[string]float64{"BTC": 50000, "ETH": 3000, "ADA": 0.5, "DOT": 8})

	ids, err := identity.New(store, bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := token.New("test-secret", time.Hour)
	require.NoError(t, err)
	mkt := market.NewService(prices, 1)

	srv := New(Deps{
		Identity:     ids,
		Tokens:       tokens,
		Guard:        auth.NewGuard(tokens, ids),
		Ledger:       portfolio.NewLedger(store, prices),
		Bots:         bots.NewRegistry(store, store),
		Market:       mkt,
		Stream:       market.NewStreamer(mkt, time.Second),
		Dashboard:    dashboard.NewService(store, store, 1),
		LoginLimiter: ratelimit.NewKeyed(loginPerMinute, time.Minute),
	})
	return &harness{t: t, handler: srv.Router()}
}

func (h *harness) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (h *harness) register(email string) string {
	rec := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "name": "Alice", "password": "pw123",
	})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[tokenResponse](h.t, rec)
	assert.Equal(h.t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func TestRoot(t *testing.T) {
	h := newHarness(t, 10)
	for _, path := range []string{"/", "/api/"} {
		rec := h.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, rootMessage, decode[map[string]string](t, rec)["message"])
	}
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", nil).Code)
}

func TestRegisterLoginMe(t *testing.T) {
	h := newHarness(t, 10)
	tok := h.register("alice@x.com")

	rec := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "alice@x.com", "name": "Other", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered", decode[map[string]string](t, rec)["detail"])

	rec = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@x.com", "password": "pw123"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@x.com", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode[map[string]string](t, rec)["detail"])

	rec = h.do(http.MethodGet, "/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "alice@x.com", me["email"])
	assert.NotContains(t, me, "password_hash")
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestRegister_Validation(t *testing.T) {
	h := newHarness(t, 10)
	rec := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email", "name": "A", "password": "p"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_LongPassword(t *testing.T) {
	h := newHarness(t, 10)
	long := strings.Repeat("p", 80)
	rec := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "long@x.com", "name": "L", "password": long,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "long@x.com", "password": long})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t, 10)
	for _, bearer := range []string{"", "garbage"} {
		rec := h.do(http.MethodGet, "/api/portfolio", bearer, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestPortfolioFlow(t *testing.T) {
	h := newHarness(t, 10)
	tok := h.register("a@x.com")

	rec := h.do(http.MethodGet, "/api/portfolio", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[domain.Portfolio](t, rec)
	assert.Equal(t, "Binance", p.Exchange)
	assert.InDelta(t, 0.05234*50000+1.2345*3000+1234.56*0.5+45.67*8, p.TotalValue, 1e-6)

	rec = h.do(http.MethodPut, "/api/portfolio/refresh", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Message   string           `json:"message"`
		Portfolio domain.Portfolio `json:"portfolio"`
	}](t, rec)
	assert.Equal(t, "Portfolio refreshed successfully", resp.Message)
	assert.Equal(t, p.ID, resp.Portfolio.ID)
	assert.InDelta(t, p.TotalValue, resp.Portfolio.TotalValue, 1e-6)
}

func TestBotsFlow(t *testing.T) {
	h := newHarness(t, 10)
	alice := h.register("alice@x.com")
	bob := h.register("bob@x.com")

	rec := h.do(http.MethodPost, "/api/bots", alice, map[string]any{
		"name": "BTC DCA", "bot_type": "dca", "pair": "BTC/USDT", "config": map[string]any{"amount": 100},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bot := decode[domain.Bot](t, rec)
	assert.Equal(t, domain.BotStatusActive, bot.Status)
	assert.Equal(t, 100.0, bot.Config["amount"])

	rec = h.do(http.MethodPost, "/api/bots", alice, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPut, "/api/bots/"+bot.ID+"/status?status=stopped", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Bot not found", decode[map[string]string](t, rec)["detail"])

	rec = h.do(http.MethodPut, "/api/bots/"+bot.ID+"/status", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPut, "/api/bots/"+bot.ID+"/status?status=stopped", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bot status updated to stopped", decode[map[string]string](t, rec)["message"])

	rec = h.do(http.MethodGet, "/api/bots", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]domain.Bot](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, domain.BotStatusStopped, list[0].Status)

	rec = h.do(http.MethodGet, "/api/bots", bob, nil)
	assert.Equal(t, "[]", rec.Body.String())

	rec = h.do(http.MethodGet, "/api/dashboard/stats", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[dashboard.Stats](t, rec)
	assert.Equal(t, 1, stats.TotalBots)
	assert.Equal(t, 0, stats.ActiveBots)
	assert.Greater(t, stats.TotalPortfolioValue, 0.0)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/bots/"+bot.ID, bob, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/bots/"+bot.ID, alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/bots/"+bot.ID, alice, nil).Code)
}

func TestMarket(t *testing.T) {
	h := newHarness(t, 10)

	rec := h.do(http.MethodGet, "/api/market", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.MarketTicker](t, rec), 4)

	rec = h.do(http.MethodGet, "/api/market/eth", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tk := decode[domain.MarketTicker](t, rec)
	assert.Equal(t, "ETH", tk.Symbol)
	assert.Equal(t, 3000.0, tk.Price)

	rec = h.do(http.MethodGet, "/api/market/doge", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Symbol not found", decode[map[string]string](t, rec)["detail"])
}

func TestLoginThrottle(t *testing.T) {
	h := newHarness(t, 2)
	body := map[string]string{"email": "nobody@x.com", "password": "x"}
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/auth/login", "", body).Code)

	rec := h.do(http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
