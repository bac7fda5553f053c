package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/betbot/tradedesk/internal/bots"
	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/pkg/logger"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := s.d.Identity.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		fail(c, err, "")
		return
	}
	// 组合会在首次 GET /api/portfolio 时补建
	if _, err := s.d.Ledger.EnsureDefault(ctx, u.ID); err != nil {
		logger.Warnf("register %s: default portfolio not created: %v", u.ID, err)
	}
	s.issueToken(c, u.ID)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := s.d.Identity.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		fail(c, err, "")
		return
	}
	s.issueToken(c, u.ID)
}

func (s *Server) issueToken(c *gin.Context, userID string) {
	tok, _, err := s.d.Tokens.Issue(userID)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer"})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) handlePortfolioGet(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := s.d.Ledger.EnsureDefault(ctx, currentUser(c).ID)
	if err != nil {
		fail(c, err, "Portfolio not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handlePortfolioRefresh(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := s.d.Ledger.Recompute(ctx, currentUser(c).ID)
	if err != nil {
		fail(c, err, "Portfolio not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Portfolio refreshed successfully", "portfolio": p})
}

type createBotRequest struct {
	Name    string           `json:"name" binding:"required"`
	BotType string           `json:"bot_type" binding:"required"`
	Pair    string           `json:"pair" binding:"required"`
	Config  domain.BotConfig `json:"config"`
}

func (s *Server) handleBotsList(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := s.d.Bots.List(ctx, currentUser(c).ID)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleBotsCreate(c *gin.Context) {
	var req createBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := s.d.Bots.Create(ctx, currentUser(c).ID, bots.NewBot{
		Name:   req.Name,
		Type:   domain.BotType(req.BotType),
		Pair:   req.Pair,
		Config: req.Config,
	})
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) handleBotStatus(c *gin.Context) {
	status, ok := c.GetQuery("status")
	if !ok || strings.TrimSpace(status) == "" {
		writeError(c, http.StatusBadRequest, "status query parameter is required")
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := s.d.Bots.SetStatus(ctx, currentUser(c).ID, c.Param("botID"), domain.BotStatus(status)); err != nil {
		fail(c, err, "Bot not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Bot status updated to %s", status)})
}

func (s *Server) handleBotDelete(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := s.d.Bots.Delete(ctx, currentUser(c).ID, c.Param("botID")); err != nil {
		fail(c, err, "Bot not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bot deleted successfully"})
}

func (s *Server) handleMarketAll(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tickers, err := s.d.Market.All(ctx)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, tickers)
}

func (s *Server) handleMarketSymbol(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := s.d.Market.Symbol(ctx, c.Param("symbol"))
	if err != nil {
		fail(c, err, "Symbol not found")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleDashboardStats(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := s.d.Dashboard.Stats(ctx, currentUser(c).ID)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, st)
}
