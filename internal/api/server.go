// Package api serves the REST and websocket surface over gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/betbot/tradedesk/internal/auth"
	"github.com/betbot/tradedesk/internal/bots"
	"github.com/betbot/tradedesk/internal/dashboard"
	"github.com/betbot/tradedesk/internal/identity"
	"github.com/betbot/tradedesk/internal/market"
	"github.com/betbot/tradedesk/internal/portfolio"
	"github.com/betbot/tradedesk/internal/token"
	"github.com/betbot/tradedesk/pkg/ratelimit"
)

const (
	rootMessage    = "TradeDesk API is running!"
	requestTimeout = 3 * time.Second
)

type Deps struct {
	Identity  *identity.Store
	Tokens    *token.Service
	Guard     *auth.Guard
	Ledger    *portfolio.Ledger
	Bots      *bots.Registry
	Market    *market.Service
	Stream    http.Handler
	Dashboard *dashboard.Service
	// LoginLimiter throttles /api/auth/login per client IP; nil disables it.
	LoginLimiter *ratelimit.Keyed
}

type Server struct {
	d Deps
}

func New(d Deps) *Server {
	return &Server{d: d}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", s.handleRoot)
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/", s.handleRoot)

	authG := api.Group("/auth")
	authG.POST("/register", s.handleRegister)
	authG.POST("/login", s.loginThrottle(), s.handleLogin)
	authG.GET("/me", s.requireUser(), s.handleMe)

	api.GET("/portfolio", s.requireUser(), s.handlePortfolioGet)
	api.PUT("/portfolio/refresh", s.requireUser(), s.handlePortfolioRefresh)

	botsG := api.Group("/bots", s.requireUser())
	botsG.GET("", s.handleBotsList)
	botsG.POST("", s.handleBotsCreate)
	botsG.PUT("/:botID/status", s.handleBotStatus)
	botsG.DELETE("/:botID", s.handleBotDelete)

	api.GET("/market", s.handleMarketAll)
	api.GET("/market/:symbol", s.handleMarketSymbol)
	if s.d.Stream != nil {
		api.GET("/stream/market", gin.WrapH(s.d.Stream))
	}

	api.GET("/dashboard/stats", s.requireUser(), s.handleDashboardStats)

	return r
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": rootMessage})
}

// reqCtx bounds store and oracle calls made on behalf of one request.
func reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}
